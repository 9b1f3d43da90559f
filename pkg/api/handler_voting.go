package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// votingHistoryHandler handles GET /api/v1/voting/history.
func (s *Server) votingHistoryHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	sessions, err := s.votes.VotingHistory(c.Request().Context(), caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

// leagueTableHandler handles GET /api/v1/voting/league.
func (s *Server) leagueTableHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	active, err := s.resolver.ActivePersonalities(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	rows, err := s.votes.LeagueTable(c.Request().Context(), caller.OrgID, active)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// instanceLeagueTableHandler handles GET /api/v1/voting/league/instance,
// the cross-tenant aggregation, restricted to instance admins. Display
// names are resolved through the caller's roster; personalities
// unknown to it keep their id.
func (s *Server) instanceLeagueTableHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if !caller.IsInstanceAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "instance administrator access required")
	}

	roster, err := s.resolver.ResolvePersonalities(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ID] = p.Name
	}

	rows, err := s.votes.InstanceLeagueTable(c.Request().Context(), names)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// personalityFeedbackHandler handles GET /api/v1/personalities/:id/feedback.
func (s *Server) personalityFeedbackHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "personality id is required")
	}

	summary, err := s.votes.FeedbackSummary(c.Request().Context(), caller.OrgID, id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"personality_id": id,
		"summary":        summary,
	})
}
