// Package api exposes the HTTP surface: conversation CRUD, the
// streaming and non-streaming message endpoints, tenant configuration
// administration, voting views, and health.
package api

import (
	"log/slog"

	echo "github.com/labstack/echo/v5"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/database"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/services"
	"github.com/conclave-ai/conclave/pkg/session"
)

// Server holds the handler dependencies.
type Server struct {
	conversations *services.ConversationService
	configs       *services.ConfigService
	votes         *services.VoteService
	sessions      *session.Manager
	llmClient     *llm.Client
	resolver      *config.Resolver
	dbClient      *database.Client
	log           *slog.Logger
}

// NewServer creates the API server. dbClient may be nil in tests; the
// health endpoint then skips the database check.
func NewServer(conversations *services.ConversationService, configs *services.ConfigService, votes *services.VoteService, sessions *session.Manager, llmClient *llm.Client, resolver *config.Resolver, dbClient *database.Client) *Server {
	return &Server{
		conversations: conversations,
		configs:       configs,
		votes:         votes,
		sessions:      sessions,
		llmClient:     llmClient,
		resolver:      resolver,
		dbClient:      dbClient,
		log:           slog.With("component", "api"),
	}
}

// Register wires all routes onto the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.Use(securityHeaders())

	e.GET("/healthz", s.healthHandler)

	g := e.Group("/api/v1")

	g.POST("/conversations", s.createConversationHandler)
	g.GET("/conversations", s.listConversationsHandler)
	g.GET("/conversations/:id", s.getConversationHandler)
	g.DELETE("/conversations/:id", s.deleteConversationHandler)
	g.POST("/conversations/:id/message", s.messageHandler)
	g.POST("/conversations/:id/message/stream", s.messageStreamHandler)

	g.GET("/models", s.listModelsHandler)

	g.GET("/personalities", s.listPersonalitiesHandler)
	g.PUT("/personalities/:id", s.upsertPersonalityHandler)
	g.DELETE("/personalities/:id", s.deletePersonalityHandler)
	g.PUT("/personalities/:id/disabled", s.setPersonalityDisabledHandler)
	g.GET("/personalities/:id/feedback", s.personalityFeedbackHandler)

	g.GET("/config/prompts", s.getPromptsHandler)
	g.PUT("/config/prompts/:role", s.updatePromptHandler)
	g.GET("/config/models", s.getModelsConfigHandler)
	g.PUT("/config/models", s.updateModelsConfigHandler)
	g.PUT("/config/upstream", s.updateUpstreamHandler)

	g.GET("/packs", s.listPacksHandler)
	g.POST("/packs/:id/activate", s.activatePackHandler)
	g.GET("/active-config", s.activeConfigHandler)

	g.GET("/voting/history", s.votingHistoryHandler)
	g.GET("/voting/league", s.leagueTableHandler)
	g.GET("/voting/league/instance", s.instanceLeagueTableHandler)
}
