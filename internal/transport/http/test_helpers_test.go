package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/msgboard-server/internal/config"
	applog "github.com/vovakirdan/msgboard-server/internal/log"
	"github.com/vovakirdan/msgboard-server/internal/metrics"
	"github.com/vovakirdan/msgboard-server/internal/store"
	"github.com/vovakirdan/msgboard-server/internal/store/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return st
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Port = 5000
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

// newTestRouter wires st behind the full middleware chain.
func newTestRouter(t *testing.T, st store.MessageStore, m *metrics.Metrics) http.Handler {
	t.Helper()
	return newTestRouterWithConfig(t, st, testConfig(), m)
}

func newTestRouterWithConfig(t *testing.T, st store.MessageStore, cfg config.Config, m *metrics.Metrics) http.Handler {
	t.Helper()
	return NewRouter(st, cfg, m, applog.Nop())
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

var errDBDown = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")

// brokenStore fails every call, as an unreachable database would.
type brokenStore struct {
	creates int
}

func (b *brokenStore) ListMessages(context.Context, int) ([]store.Message, error) {
	return nil, errDBDown
}

func (b *brokenStore) CreateMessage(context.Context, string, string) (*store.Message, error) {
	b.creates++
	return nil, errDBDown
}
