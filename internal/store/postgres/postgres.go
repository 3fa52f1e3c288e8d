package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/vovakirdan/msgboard-server/internal/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
`

// defaultConnectTimeout bounds the dial when Options.ConnectTimeout is zero.
const defaultConnectTimeout = 5 * time.Second

// Options describes how to reach the server.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int

	ConnectTimeout time.Duration
}

// connectTimeoutSeconds rounds up to whole seconds; lib/pq treats 0 as no limit.
func (o Options) connectTimeoutSeconds() int {
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	secs := int((timeout + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// DSN renders the options as a postgres:// URL understood by lib/pq.
func (o Options) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Password),
		Host:     net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:     "/" + o.Database,
		RawQuery: url.Values{
			"sslmode":         {sslMode},
			"connect_timeout": {strconv.Itoa(o.connectTimeoutSeconds())},
		}.Encode(),
	}
	return u.String()
}

// PostgresStore implements store.Store for PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New opens a bounded pool. It does not contact the server; use Ping.
func New(opts Options) (*PostgresStore, error) {
	return Open(opts.DSN(), opts.MaxConns)
}

// Open opens a bounded pool for an already formatted DSN.
func Open(dsn string, maxConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// DB returns the underlying pool.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping runs the readiness check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates the messages table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

// CreateMessage inserts a message; id and created_at come back via RETURNING.
func (s *PostgresStore) CreateMessage(ctx context.Context, name, text string) (*store.Message, error) {
	query := `
		INSERT INTO messages (name, text)
		VALUES ($1, $2)
		RETURNING id, name, text, created_at
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, name, text).Scan(&msg.ID, &msg.Name, &msg.Text, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns the newest messages first.
func (s *PostgresStore) ListMessages(ctx context.Context, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	query := `
		SELECT id, name, text, created_at
		FROM messages
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]store.Message, 0, limit)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Name, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
