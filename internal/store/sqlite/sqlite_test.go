package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return s
}

func TestPing(t *testing.T) {
	s := newTestStore(t)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on closed store to fail")
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateMessage(ctx, "Ada", "hello"); err != nil {
		t.Fatalf("create message: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema run %d: %v", i, err)
		}
	}

	messages, err := s.ListMessages(ctx, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected existing row to survive, got %d rows", len(messages))
	}
}

func TestCreateMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Minute)
	msg, err := s.CreateMessage(ctx, "Ada", "hello")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	if msg.ID <= 0 {
		t.Errorf("expected positive id, got %d", msg.ID)
	}
	if msg.Name != "Ada" || msg.Text != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.CreatedAt.Before(before) {
		t.Errorf("created_at %v not assigned at insert", msg.CreatedAt)
	}
}

func TestListMessages_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var lastID int64
	for i := 0; i < 12; i++ {
		msg, err := s.CreateMessage(ctx, "bot", fmt.Sprintf("msg-%d", i))
		if err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
		if msg.ID <= lastID {
			t.Fatalf("ids not increasing: %d after %d", msg.ID, lastID)
		}
		lastID = msg.ID
	}

	messages, err := s.ListMessages(ctx, 5)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
	if messages[0].ID != lastID || messages[0].Text != "msg-11" {
		t.Errorf("expected newest first, got %+v", messages[0])
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].ID >= messages[i-1].ID {
			t.Errorf("messages not ordered by id desc at %d", i)
		}
	}
}

func TestListMessages_Empty(t *testing.T) {
	s := newTestStore(t)

	messages, err := s.ListMessages(context.Background(), 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", messages)
	}
}

func TestNewWithSetup(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		if _, err := db.Exec(schema); err != nil {
			return err
		}
		_, err := db.Exec(`INSERT INTO messages (name, text) VALUES ('seed', 'seeded')`)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	messages, err := s.ListMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Name != "seed" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}
