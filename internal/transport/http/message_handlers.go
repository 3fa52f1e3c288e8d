package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/msgboard-server/internal/config"
	"github.com/vovakirdan/msgboard-server/internal/store"
)

// createdAtLayout renders timestamps as YYYY-MM-DD HH:MM:SS.
const createdAtLayout = "2006-01-02 15:04:05"

// MessageHandlers provides HTTP handlers for the message board.
type MessageHandlers struct {
	store       store.MessageStore
	listLimit   int
	defaultName string
	log         *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, cfg config.HTTPConfig, logger *zerolog.Logger) *MessageHandlers {
	limit := cfg.ListLimit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	name := cfg.DefaultName
	if name == "" {
		name = "anonymous"
	}
	return &MessageHandlers{
		store:       st,
		listLimit:   limit,
		defaultName: name,
		log:         logger,
	}
}

// CreateMessageRequest is the body clients send to create a message.
// The handler also accepts non-string JSON values and stores them as text.
type CreateMessageRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toMessageResponse(msg store.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		Name:      msg.Name,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.Format(createdAtLayout),
	}
}

// ListMessages returns the most recent messages.
// GET /api/messages
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	messages, err := h.store.ListMessages(c.Request.Context(), h.listLimit)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(c)).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, toMessageResponse(msg))
	}

	h.log.Debug().Int("count", len(response)).Msg("messages listed")
	c.JSON(http.StatusOK, response)
}

// CreateMessage stores a new message.
// POST /api/messages
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	// an empty body is treated like {}
	fields, err := readObjectFields(c)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid create message request")
		if errors.Is(err, errBodyTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: errInvalidBody.Error()})
		return
	}

	text, ok := fieldText(fields["text"])
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text missing"})
		return
	}
	name, ok := fieldText(fields["name"])
	if !ok {
		name = h.defaultName
	}

	msg, err := h.store.CreateMessage(c.Request.Context(), name, text)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(c)).Str("name", name).Msg("failed to create message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
		return
	}

	h.log.Info().Int64("message_id", msg.ID).Str("name", msg.Name).Msg("message created")
	c.JSON(http.StatusCreated, toMessageResponse(*msg))
}
