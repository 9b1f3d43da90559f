package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listModelsHandler handles GET /api/v1/models: the catalog of the
// tenant's upstream provider, served from the shared TTL cache.
func (s *Server) listModelsHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	upstream, err := s.resolver.ResolveUpstream(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}

	catalog, err := s.llmClient.ListModels(c.Request().Context(), upstream.APIKey, upstream.BaseURL)
	if err != nil {
		s.log.Error("Failed to fetch model catalog", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "upstream model catalog unavailable")
	}
	return c.JSON(http.StatusOK, catalog)
}
