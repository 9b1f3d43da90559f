// Conclave server — multi-model deliberation over a council of LLM
// personalities, exposed as an HTTP API with SSE streaming.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/joho/godotenv"

	"github.com/conclave-ai/conclave/pkg/api"
	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/council"
	"github.com/conclave-ai/conclave/pkg/database"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/secrets"
	"github.com/conclave-ai/conclave/pkg/services"
	"github.com/conclave-ai/conclave/pkg/session"
	"github.com/conclave-ai/conclave/pkg/store"
	"github.com/conclave-ai/conclave/pkg/version"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	slog.Info("Starting conclave",
		"version", version.GitCommit,
		"http_port", settings.HTTPPort,
		"data_dir", settings.DataDir)

	ctx := context.Background()

	defaults, err := config.LoadDefaults(settings.DataDir)
	if err != nil {
		return fmt.Errorf("failed to load instance defaults: %w", err)
	}

	var cipher *secrets.Cipher
	if settings.EncryptionKey != "" {
		cipher, err = secrets.NewCipher(settings.EncryptionKey)
		if err != nil {
			return fmt.Errorf("failed to initialize cipher: %w", err)
		}
	} else {
		slog.Warn("ENCRYPTION_KEY not set; tenants cannot store their own api keys")
	}

	// File-backed stores share the data directory.
	transcripts := store.NewConversationStore(settings.DataDir)
	votingLog := store.NewVotingLogStore(settings.DataDir)
	tenantFS := store.NewTenantFS(settings.DataDir)

	if recovered, err := transcripts.RecoverStaleTurns(); err != nil {
		slog.Warn("Stale-turn recovery failed", "error", err)
	} else if recovered > 0 {
		slog.Info("Recovered conversations stuck in processing", "count", recovered)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	llmClient := llm.NewClient(llm.Config{
		MaxConcurrentRequests: settings.MaxConcurrentRequests,
		RequestTimeout:        settings.LLMRequestTimeout,
		MaxRetries:            settings.LLMMaxRetries,
	})

	strategies := council.NewStrategyCatalog(
		filepath.Join(settings.DataDir, "defaults", "consensus"),
		config.BuiltinBalancedConsensus)
	engine := council.NewEngine(llmClient, strategies)

	resolver := config.NewResolver(defaults, tenantFS, cipher, settings)
	conversations := services.NewConversationService(transcripts)
	configs := services.NewConfigService(resolver, tenantFS, cipher, dbClient.DB(), defaults)
	votes := services.NewVoteService(dbClient.DB(), votingLog, llmClient, resolver)
	sessions := session.NewManager(conversations, configs, votes, resolver, engine, transcripts)
	slog.Info("Services initialized")

	e := echo.New()
	server := api.NewServer(conversations, configs, votes, sessions, llmClient, resolver, dbClient)
	server.Register(e)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", settings.HTTPPort),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	return nil
}
