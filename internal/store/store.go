package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DefaultListLimit caps how many messages a listing returns.
const DefaultListLimit = 100

// ErrUnsupportedDriver is returned when the configured driver is unknown.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Message represents a persisted board message.
type Message struct {
	ID        int64
	Name      string
	Text      string
	CreatedAt time.Time
}

// Pinger is the readiness check used by the startup gate.
type Pinger interface {
	// Ping issues a trivial query and reports whether the database answered.
	Ping(ctx context.Context) error
}

// MessageStore defines operations for board messages.
type MessageStore interface {
	// ListMessages returns at most limit messages, newest id first.
	ListMessages(ctx context.Context, limit int) ([]Message, error)
	// CreateMessage inserts a message and returns it with the id and created_at
	// assigned by the database.
	CreateMessage(ctx context.Context, name, text string) (*Message, error)
}

// Store combines all storage capabilities the service needs.
type Store interface {
	Pinger
	MessageStore

	// EnsureSchema creates the messages table if it does not exist yet.
	// Running it against an existing table is a no-op.
	EnsureSchema(ctx context.Context) error

	// DB exposes the pool handle for instrumentation. May be nil.
	DB() *sql.DB

	Close() error
}
