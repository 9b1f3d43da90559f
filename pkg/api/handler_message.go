package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/models"
)

// MessageResponse is the blocking endpoint's envelope: the three stage
// payloads plus the label map and aggregate rankings that streaming
// clients receive with stage2_complete.
type MessageResponse struct {
	Stage1   []models.Stage1Result `json:"stage1"`
	Stage2   []models.Stage2Result `json:"stage2"`
	Stage3   *models.Stage3Result  `json:"stage3"`
	Metadata *events.Metadata      `json:"metadata,omitempty"`
}

// messageStreamHandler handles POST /api/v1/conversations/:id/message/stream.
// Validation errors surface as plain HTTP status codes; once the turn
// is accepted the response switches to SSE and all subsequent failures
// arrive as terminal error events.
func (s *Server) messageStreamHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message content is required")
	}

	stream, err := s.sessions.StreamTurn(c.Request().Context(), caller, id, req.Content)
	if err != nil {
		return mapServiceError(err)
	}
	return writeSSE(c, stream)
}

// messageHandler handles POST /api/v1/conversations/:id/message, the
// blocking variant that returns the finished assistant message.
func (s *Server) messageHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message content is required")
	}

	msg, meta, err := s.sessions.RunTurn(c.Request().Context(), caller, id, req.Content)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Stage1:   msg.Stage1,
		Stage2:   msg.Stage2,
		Stage3:   msg.Stage3,
		Metadata: meta,
	})
}
