package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/conclave-ai/conclave/pkg/models"
)

// editableRoles are the prompt roles tenants may override.
var editableRoles = map[models.PromptRole]bool{
	models.PromptBase:           true,
	models.PromptChairman:       true,
	models.PromptTitle:          true,
	models.PromptRanking:        true,
	models.PromptEvolution:      true,
	models.PromptStage1Response: true,
	models.PromptStage1Meta:     true,
}

// getPromptsHandler handles GET /api/v1/config/prompts.
func (s *Server) getPromptsHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	prompts, err := s.configs.Prompts(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, prompts)
}

// updatePromptHandler handles PUT /api/v1/config/prompts/:role.
func (s *Server) updatePromptHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}

	role := models.PromptRole(c.Param("role"))
	if !editableRoles[role] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown prompt role")
	}

	var req UpdatePromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.configs.UpdatePrompt(caller.OrgID, role, req.Value, req.IsDefault); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// getModelsConfigHandler handles GET /api/v1/config/models.
func (s *Server) getModelsConfigHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	cfg, err := s.configs.Models(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// updateModelsConfigHandler handles PUT /api/v1/config/models.
func (s *Server) updateModelsConfigHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}

	var req UpdateModelsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err = s.configs.UpdateModels(caller.OrgID, models.ModelConfig{
		ChairmanModel: req.ChairmanModel,
		RankingModel:  req.RankingModel,
		TitleModel:    req.TitleModel,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// updateUpstreamHandler handles PUT /api/v1/config/upstream.
func (s *Server) updateUpstreamHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}

	var req UpdateUpstreamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.configs.SetUpstream(caller.OrgID, req.BaseURL, req.APIKey); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// listPersonalitiesHandler handles GET /api/v1/personalities,
// returning the tenant's full merged roster.
func (s *Server) listPersonalitiesHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	personalities, err := s.configs.Personalities(caller.OrgID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, personalities)
}

// upsertPersonalityHandler handles PUT /api/v1/personalities/:id.
func (s *Server) upsertPersonalityHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}

	var p models.Personality
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.ID = c.Param("id")
	if p.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "personality id is required")
	}
	if p.Name == "" || p.Model == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "personality name and model are required")
	}

	if err := s.configs.UpsertPersonality(caller.OrgID, p); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// deletePersonalityHandler handles DELETE /api/v1/personalities/:id.
func (s *Server) deletePersonalityHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "personality id is required")
	}

	if err := s.configs.DeletePersonality(caller.OrgID, id); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// setPersonalityDisabledHandler handles PUT /api/v1/personalities/:id/disabled.
func (s *Server) setPersonalityDisabledHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	if err := requireAdmin(caller); err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "personality id is required")
	}

	var req SetDisabledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.configs.SetPersonalityDisabled(caller.OrgID, id, req.Disabled); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// listPacksHandler handles GET /api/v1/packs.
func (s *Server) listPacksHandler(c *echo.Context) error {
	if _, err := extractCaller(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.configs.Packs())
}

// activatePackHandler handles POST /api/v1/packs/:id/activate.
func (s *Server) activatePackHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pack id is required")
	}

	if err := s.configs.ActivatePack(c.Request().Context(), caller, id); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// activeConfigHandler handles GET /api/v1/active-config.
func (s *Server) activeConfigHandler(c *echo.Context) error {
	caller, err := extractCaller(c)
	if err != nil {
		return err
	}

	active, err := s.configs.ActiveConfig(c.Request().Context(), caller)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, active)
}
