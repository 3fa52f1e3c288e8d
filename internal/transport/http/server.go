package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/msgboard-server/internal/config"
	"github.com/vovakirdan/msgboard-server/internal/metrics"
	"github.com/vovakirdan/msgboard-server/internal/store"
)

// route binds one (method, path) pair to its handler.
type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// routes is the complete public API. Anything else gets gin's 404.
func routes(h *MessageHandlers) []route {
	return []route{
		{http.MethodGet, "/api/health", healthHandler},
		{http.MethodGet, "/api/messages", h.ListMessages},
		{http.MethodPost, "/api/messages", h.CreateMessage},
	}
}

// NewRouter builds the gin engine with middleware and the route table.
// m may be nil when metrics are disabled.
func NewRouter(st store.MessageStore, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware(logger))
	if m != nil {
		engine.Use(MetricsMiddleware(m))
	}
	if cfg.HTTP.MaxBodyBytes > 0 {
		engine.Use(BodyLimitMiddleware(cfg.HTTP.MaxBodyBytes))
	}

	handlers := NewMessageHandlers(st, cfg.HTTP, logger)
	for _, r := range routes(handlers) {
		engine.Handle(r.method, r.path, r.handler)
	}
	return engine
}

// NewServer builds an HTTP server around NewRouter.
func NewServer(st store.MessageStore, cfg config.Config, m *metrics.Metrics, logger *zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(st, cfg, m, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// healthHandler never touches storage.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{OK: true})
}
