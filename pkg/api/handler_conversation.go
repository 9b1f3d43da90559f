package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// createConversationHandler handles POST /api/v1/conversations.
func (s *Server) createConversationHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	conv, err := s.conversations.Create(caller)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, conv)
}

// listConversationsHandler handles GET /api/v1/conversations.
func (s *Server) listConversationsHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	summaries, err := s.conversations.List(caller)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// getConversationHandler handles GET /api/v1/conversations/:id.
func (s *Server) getConversationHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	conv, err := s.conversations.Get(caller, id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// deleteConversationHandler handles DELETE /api/v1/conversations/:id.
func (s *Server) deleteConversationHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation id is required")
	}

	if err := s.conversations.Delete(caller, id); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
