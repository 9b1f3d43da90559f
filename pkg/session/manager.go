// Package session orchestrates one deliberation turn end to end:
// transcript appends, the three council stages, the parallel title
// task, vote recording, and the event stream the SSE transport drains.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/council"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/services"
	"github.com/conclave-ai/conclave/pkg/store"
)

// Manager drives turns. Conversations are strictly serial: BeginTurn
// rejects a second send while one is running.
type Manager struct {
	conversations *services.ConversationService
	configs       *services.ConfigService
	votes         *services.VoteService
	resolver      *config.Resolver
	engine        *council.Engine
	transcripts   *store.ConversationStore
	log           *slog.Logger
}

// NewManager creates a manager over the shared services.
func NewManager(conversations *services.ConversationService, configs *services.ConfigService, votes *services.VoteService, resolver *config.Resolver, engine *council.Engine, transcripts *store.ConversationStore) *Manager {
	return &Manager{
		conversations: conversations,
		configs:       configs,
		votes:         votes,
		resolver:      resolver,
		engine:        engine,
		transcripts:   transcripts,
		log:           slog.With("component", "session"),
	}
}

// StreamTurn validates the request, locks the conversation, and starts
// the turn in the background. Events arrive on the returned stream;
// the terminal Complete or Error event closes it. Validation failures
// are returned synchronously so the transport can map them to status
// codes before any SSE bytes are written.
func (m *Manager) StreamTurn(ctx context.Context, caller models.Caller, conversationID, query string) (*events.Stream, error) {
	conv, err := m.conversations.Get(caller, conversationID)
	if err != nil {
		return nil, err
	}

	cfg, err := m.turnConfig(ctx, caller)
	if err != nil {
		return nil, err
	}

	if err := m.transcripts.BeginTurn(caller.OrgID, conv.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, services.ErrConflict
		}
		return nil, err
	}

	stream := events.NewStream(0)
	go func() {
		defer func() {
			if err := m.transcripts.EndTurn(caller.OrgID, conv.ID); err != nil {
				m.log.Error("Failed to release conversation", "conversation_id", conv.ID, "error", err)
			}
		}()
		m.runTurn(ctx, caller, conv.ID, query, cfg, stream)
	}()
	return stream, nil
}

// RunTurn is the non-streaming variant: it drives the same pipeline
// and blocks until the terminal event, returning the assistant message
// plus the anonymization metadata the stream carries on its
// stage2_complete event.
func (m *Manager) RunTurn(ctx context.Context, caller models.Caller, conversationID, query string) (*models.Message, *events.Metadata, error) {
	stream, err := m.StreamTurn(ctx, caller, conversationID, query)
	if err != nil {
		return nil, nil, err
	}

	msg := &models.Message{Role: models.RoleAssistant}
	var meta *events.Metadata
	for e := range stream.Events() {
		switch e.Type {
		case events.TypeStage1Complete:
			msg.Stage1 = e.Stage1
		case events.TypeStage2Complete:
			msg.Stage2 = e.Stage2
			meta = e.Meta
		case events.TypeStage3Complete:
			msg.Stage3 = e.Stage3
		case events.TypeComplete:
			if e.Meta != nil {
				meta = e.Meta
			}
		case events.TypeError:
			return nil, nil, errors.New(e.Message)
		}
	}
	return msg, meta, nil
}

// turnConfig assembles the fully resolved per-turn configuration.
func (m *Manager) turnConfig(ctx context.Context, caller models.Caller) (council.TurnConfig, error) {
	active, err := m.resolver.ActivePersonalities(caller.OrgID)
	if err != nil {
		return council.TurnConfig{}, err
	}
	if len(active) == 0 {
		return council.TurnConfig{}, services.ErrNoActivePersonalities
	}

	prompts, err := m.resolver.ResolvePrompts(caller.OrgID)
	if err != nil {
		return council.TurnConfig{}, err
	}
	modelCfg, err := m.resolver.ResolveModels(caller.OrgID)
	if err != nil {
		return council.TurnConfig{}, err
	}
	upstream, err := m.resolver.ResolveUpstream(caller.OrgID)
	if err != nil {
		return council.TurnConfig{}, err
	}

	activeCfg, err := m.configs.ActiveConfig(ctx, caller)
	if err != nil {
		return council.TurnConfig{}, err
	}
	// Pack prompts sit above tenant overrides while the pack is active.
	for role, text := range activeCfg.SystemPrompts {
		prompts[role] = models.ResolvedPrompt{Value: text}
	}

	return council.TurnConfig{
		Personalities: active,
		Prompts:       prompts,
		Models:        modelCfg,
		APIKey:        upstream.APIKey,
		BaseURL:       upstream.BaseURL,
		StrategyID:    activeCfg.StrategyID,
	}, nil
}

// runTurn executes the deliberation pipeline and publishes events in
// order. Cancellation between stages discards partial results: no
// later events, no assistant append. The user message appended at the
// start persists either way, so a retry with the same query resumes
// the turn.
func (m *Manager) runTurn(ctx context.Context, caller models.Caller, conversationID, query string, cfg council.TurnConfig, stream *events.Stream) {
	// The returned snapshot already contains the new user message;
	// history must be built from it, never from a pre-append read.
	snapshot, err := m.transcripts.AppendUserMessage(caller.OrgID, conversationID, query)
	if err != nil {
		stream.Publish(events.Error("failed to record message: " + err.Error()))
		return
	}
	turnNumber := snapshot.TurnNumber()

	var titleCh chan string
	if turnNumber == 1 {
		titleCh = make(chan string, 1)
		go func() {
			titleCh <- m.engine.GenerateTitle(ctx, cfg, query)
		}()
	}

	history := council.PrepareHistory(snapshot.Messages)

	stream.Publish(events.StageStart(1))
	stage1 := m.engine.RunStage1(ctx, cfg, history, query)
	if ctx.Err() != nil {
		stream.Publish(events.Error("request cancelled"))
		return
	}
	stream.Publish(events.Stage1Complete(stage1))

	var (
		stage2 []models.Stage2Result
		labels *council.LabelMap
		meta   *events.Metadata
	)
	if len(stage1) > 0 {
		labels = council.BuildLabelMap(stage1)

		stream.Publish(events.StageStart(2))
		stage2 = m.engine.RunStage2(ctx, cfg, query, stage1, labels)
		if ctx.Err() != nil {
			stream.Publish(events.Error("request cancelled"))
			return
		}
		meta = &events.Metadata{
			LabelToModel:      labels.ModelByLabel(),
			AggregateRankings: council.AggregateRankings(stage2, labels),
		}
		stream.Publish(events.Stage2Complete(stage2, meta))
	}

	stream.Publish(events.StageStart(3))
	stage3 := m.engine.RunStage3(ctx, cfg, query, stage1, stage2, labels)
	if ctx.Err() != nil {
		stream.Publish(events.Error("request cancelled"))
		return
	}
	stream.Publish(events.Stage3Complete(&stage3))

	err = m.transcripts.AppendAssistantMessage(caller.OrgID, conversationID, models.Message{
		Stage1: stage1,
		Stage2: stage2,
		Stage3: &stage3,
	})
	if err != nil {
		stream.Publish(events.Error("failed to record answer: " + err.Error()))
		return
	}

	title := snapshot.Title
	if titleCh != nil {
		title = <-titleCh
		if err := m.transcripts.SetTitle(caller.OrgID, conversationID, title); err != nil {
			m.log.Error("Failed to save title", "conversation_id", conversationID, "error", err)
		}
		stream.Publish(events.TitleComplete(title))
	}

	m.recordVotes(ctx, caller, conversationID, title, turnNumber, stage2, labels)

	stream.Publish(events.Complete(meta))
}

// recordVotes persists the turn's votes best-effort; a storage failure
// is logged but never fails the turn the user already received.
func (m *Manager) recordVotes(ctx context.Context, caller models.Caller, conversationID, title string, turnNumber int, stage2 []models.Stage2Result, labels *council.LabelMap) {
	if labels == nil {
		return
	}
	votes := council.BuildVotes(conversationID, turnNumber, stage2, labels)
	if len(votes) == 0 {
		return
	}

	session := models.VotingSession{
		ID:                uuid.New().String(),
		ConversationID:    conversationID,
		ConversationTitle: title,
		TurnNumber:        turnNumber,
		UserID:            caller.UserID,
		Username:          caller.Username,
		CreatedAt:         time.Now().UTC(),
		Votes:             votes,
	}
	if err := m.votes.RecordTurnVotes(ctx, caller.OrgID, session); err != nil {
		m.log.Error("Failed to record votes", "conversation_id", conversationID, "error", err)
	}
}
