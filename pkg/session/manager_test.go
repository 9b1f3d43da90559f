package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/council"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/services"
	"github.com/conclave-ai/conclave/pkg/store"
)

var caller = models.Caller{UserID: "u1", Username: "alice", OrgID: "org-a"}

const activeConfigSQL = `SELECT active_pack_id, strategy_id FROM user_active_config WHERE user_id = $1`

const insertVoteSQL = `INSERT INTO votes
(id, org_id, conversation_id, turn_number, voter_model, candidate_personality_id, candidate_model, rank, label, reasoning, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// fakeLLM scripts upstream behavior by inspecting the outgoing prompt.
type fakeLLM struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(model string, messages []llm.Message) *llm.Result
}

type fakeCall struct {
	model    string
	messages []llm.Message
}

func (f *fakeLLM) Query(_ context.Context, model string, messages []llm.Message, _, _ string, _ llm.QueryOptions) *llm.Result {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{model: model, messages: messages})
	f.mu.Unlock()
	if f.respond == nil {
		return nil
	}
	return f.respond(model, messages)
}

// scriptedCouncil answers every kind of call the default config makes:
// proposals, rankings over labels A/B, chairman synthesis, and titles.
func scriptedCouncil(model string, messages []llm.Message) *llm.Result {
	last := messages[len(messages)-1].Content
	switch {
	case model == "google/gemini-2.5-flash":
		return &llm.Result{Content: `"Galaxy Formation"`}
	case strings.Contains(last, "FINAL RANKING"):
		return &llm.Result{Content: "Both solid.\nFINAL RANKING:\n1. Response A\n2. Response B"}
	case strings.Contains(last, "chairman of a council"):
		return &llm.Result{Content: "synthesized answer"}
	default:
		return &llm.Result{Content: "proposal from " + model}
	}
}

type fixture struct {
	manager     *Manager
	transcripts *store.ConversationStore
	votingLog   *store.VotingLogStore
	tenantFS    *store.TenantFS
	fake        *fakeLLM
	mock        sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	transcripts := store.NewConversationStore(dir)
	votingLog := store.NewVotingLogStore(dir)
	tenantFS := store.NewTenantFS(dir)

	defaults, err := config.LoadDefaults(t.TempDir())
	require.NoError(t, err)
	settings := &config.Settings{LLMAPIURL: "https://llm.test", LLMAPIKey: "k"}
	resolver := config.NewResolver(defaults, tenantFS, nil, settings)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fake := &fakeLLM{respond: scriptedCouncil}
	engine := council.NewEngine(fake, council.NewStrategyCatalog(t.TempDir(), config.BuiltinBalancedConsensus))

	manager := NewManager(
		services.NewConversationService(transcripts),
		services.NewConfigService(resolver, tenantFS, nil, db, defaults),
		services.NewVoteService(db, votingLog, nil, resolver),
		resolver,
		engine,
		transcripts,
	)
	return &fixture{
		manager:     manager,
		transcripts: transcripts,
		votingLog:   votingLog,
		tenantFS:    tenantFS,
		fake:        fake,
		mock:        mock,
	}
}

func (f *fixture) newConversation(t *testing.T) *models.Conversation {
	t.Helper()
	conv, err := f.transcripts.Create(caller.OrgID, caller.UserID)
	require.NoError(t, err)
	return conv
}

func (f *fixture) expectNoActivePack() {
	f.mock.ExpectQuery(activeConfigSQL).
		WithArgs(caller.UserID).
		WillReturnRows(sqlmock.NewRows([]string{"active_pack_id", "strategy_id"}))
}

// expectVoteInserts matches the write of n vote rows in one
// transaction.
func (f *fixture) expectVoteInserts(n int) {
	f.mock.ExpectBegin()
	for range n {
		f.mock.ExpectExec(insertVoteSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	f.mock.ExpectCommit()
}

func drain(t *testing.T, stream *events.Stream) []events.Event {
	t.Helper()
	var out []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-stream.Events():
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatalf("stream did not terminate; events so far: %v", out)
		}
	}
}

func eventTypes(evts []events.Event) []string {
	types := make([]string, len(evts))
	for i, e := range evts {
		types[i] = e.Type
	}
	return types
}

func requireIdle(t *testing.T, f *fixture, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		conv, err := f.transcripts.Get(caller.OrgID, id)
		return err == nil && conv.ProcessingState == models.ProcessingIdle
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTurnEventOrder(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)
	f.expectNoActivePack()
	// 3 voters × 2 ranked labels each.
	f.expectVoteInserts(6)

	stream, err := f.manager.StreamTurn(context.Background(), caller, conv.ID, "how do galaxies form?")
	require.NoError(t, err)
	evts := drain(t, stream)

	assert.Equal(t, []string{
		events.TypeStageStart, events.TypeStage1Complete,
		events.TypeStageStart, events.TypeStage2Complete,
		events.TypeStageStart, events.TypeStage3Complete,
		events.TypeTitleComplete, events.TypeComplete,
	}, eventTypes(evts))
	assert.Equal(t, 1, evts[0].Stage)
	assert.Equal(t, 2, evts[2].Stage)
	assert.Equal(t, 3, evts[4].Stage)

	// Proposals arrive in personality-resolution order regardless of
	// upstream completion order.
	require.Len(t, evts[1].Stage1, 3)
	assert.Equal(t, "analyst", evts[1].Stage1[0].PersonalityID)
	assert.Equal(t, "pragmatist", evts[1].Stage1[1].PersonalityID)
	assert.Equal(t, "contrarian", evts[1].Stage1[2].PersonalityID)

	require.NotNil(t, evts[3].Meta)
	assert.Equal(t, "openai/gpt-5", evts[3].Meta.LabelToModel["A"])
	assert.NotEmpty(t, evts[3].Meta.AggregateRankings)

	assert.Equal(t, "Galaxy Formation", evts[6].Title)

	// Transcript: user message then assistant message with all stages.
	after, err := f.transcripts.Get(caller.OrgID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy Formation", after.Title)
	require.Len(t, after.Messages, 2)
	assert.Equal(t, models.RoleUser, after.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, after.Messages[1].Role)
	require.NotNil(t, after.Messages[1].Stage3)
	assert.Equal(t, "synthesized answer", after.Messages[1].Stage3.Response)

	sessions, err := f.votingLog.List(caller.OrgID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Galaxy Formation", sessions[0].ConversationTitle)
	assert.Len(t, sessions[0].Votes, 6)

	require.NoError(t, f.mock.ExpectationsWereMet())
	requireIdle(t, f, conv.ID)
}

func TestTurnConflict(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)
	require.NoError(t, f.transcripts.BeginTurn(caller.OrgID, conv.ID))
	f.expectNoActivePack()

	_, err := f.manager.StreamTurn(context.Background(), caller, conv.ID, "again")
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestTurnNoActivePersonalities(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)

	overrides, err := f.tenantFS.ReadOverrides(caller.OrgID)
	require.NoError(t, err)
	overrides.DisabledSystemPersonalities = []string{"analyst", "pragmatist", "contrarian"}
	require.NoError(t, f.tenantFS.WriteOverrides(caller.OrgID, overrides))

	_, err = f.manager.StreamTurn(context.Background(), caller, conv.ID, "anyone there?")
	assert.ErrorIs(t, err, services.ErrNoActivePersonalities)
}

func TestTurnCancellationDiscardsPartials(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)
	f.expectNoActivePack()

	ctx, cancel := context.WithCancel(context.Background())
	f.fake.respond = func(model string, messages []llm.Message) *llm.Result {
		res := scriptedCouncil(model, messages)
		if strings.Contains(messages[len(messages)-1].Content, "FINAL RANKING") {
			// Client disconnects while Stage 2 is in flight.
			cancel()
		}
		return res
	}

	stream, err := f.manager.StreamTurn(ctx, caller, conv.ID, "how do galaxies form?")
	require.NoError(t, err)
	evts := drain(t, stream)

	types := eventTypes(evts)
	assert.Equal(t, events.TypeError, types[len(types)-1])
	assert.NotContains(t, types, events.TypeStage2Complete)
	assert.NotContains(t, types, events.TypeStage3Complete)

	// The user message persists; nothing after it does.
	requireIdle(t, f, conv.ID)
	after, err := f.transcripts.Get(caller.OrgID, conv.ID)
	require.NoError(t, err)
	require.Len(t, after.Messages, 1)
	assert.Equal(t, models.RoleUser, after.Messages[0].Role)
}

func TestTurnAllProposalsFailed(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)
	f.expectNoActivePack()

	f.fake.respond = func(model string, messages []llm.Message) *llm.Result {
		if model == "google/gemini-2.5-flash" {
			return &llm.Result{Content: "Doomed Question"}
		}
		return nil
	}

	stream, err := f.manager.StreamTurn(context.Background(), caller, conv.ID, "hello?")
	require.NoError(t, err)
	evts := drain(t, stream)

	// Stage 2 is skipped entirely; the turn still completes with the
	// fixed failure answer and the parallel title.
	assert.Equal(t, []string{
		events.TypeStageStart, events.TypeStage1Complete,
		events.TypeStageStart, events.TypeStage3Complete,
		events.TypeTitleComplete, events.TypeComplete,
	}, eventTypes(evts))
	assert.Equal(t, 3, evts[2].Stage)
	assert.Equal(t, council.AllModelsFailedMessage, evts[3].Stage3.Response)

	after, err := f.transcripts.Get(caller.OrgID, conv.ID)
	require.NoError(t, err)
	require.Len(t, after.Messages, 2)
	assert.Equal(t, council.AllModelsFailedMessage, after.Messages[1].Stage3.Response)

	// No votes were written.
	require.NoError(t, f.mock.ExpectationsWereMet())
	sessions, err := f.votingLog.List(caller.OrgID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestTurnPackPromptsApplied(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)

	f.mock.ExpectQuery(activeConfigSQL).
		WithArgs(caller.UserID).
		WillReturnRows(sqlmock.NewRows([]string{"active_pack_id", "strategy_id"}).
			AddRow("balanced-consensus", "balanced"))
	f.expectVoteInserts(6)

	// On this pack Stage 3 runs the consensus strategy template. Its
	// reviews quote the ranking texts, so match the template marker
	// before the ranking one.
	f.fake.respond = func(model string, messages []llm.Message) *llm.Result {
		last := messages[len(messages)-1].Content
		if strings.Contains(last, "synthesizing a council deliberation") {
			return &llm.Result{Content: "consensus answer"}
		}
		return scriptedCouncil(model, messages)
	}

	msg, _, err := f.manager.RunTurn(context.Background(), caller, conv.ID, "how do galaxies form?")
	require.NoError(t, err)
	require.NotNil(t, msg.Stage3)
	assert.Equal(t, "consensus answer", msg.Stage3.Response)

	// Every proposal and ranking call carries the pack's base prompt in
	// place of the default one.
	f.fake.mu.Lock()
	defer f.fake.mu.Unlock()
	checked := 0
	for _, c := range f.fake.calls {
		last := c.messages[len(c.messages)-1].Content
		if c.messages[0].Role != "system" || strings.Contains(last, "synthesizing a council deliberation") {
			continue
		}
		checked++
		assert.Contains(t, c.messages[0].Content, "working toward a shared answer")
		assert.NotContains(t, c.messages[0].Content, "independent AI advisors")
	}
	assert.Equal(t, 6, checked)
}

func TestSecondTurnHistoryIncludesAppendedMessage(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)

	f.expectNoActivePack()
	f.expectVoteInserts(6)
	_, _, err := f.manager.RunTurn(context.Background(), caller, conv.ID, "first question")
	require.NoError(t, err)

	f.expectNoActivePack()
	f.expectVoteInserts(6)
	f.fake.mu.Lock()
	f.fake.calls = nil
	f.fake.mu.Unlock()
	_, _, err = f.manager.RunTurn(context.Background(), caller, conv.ID, "second question")
	require.NoError(t, err)

	// Find a Stage 1 call from the second turn and inspect its chain:
	// system, prior user turn, prior answer, anchored current query.
	f.fake.mu.Lock()
	defer f.fake.mu.Unlock()
	var stage1Call *fakeCall
	for i, c := range f.fake.calls {
		last := c.messages[len(c.messages)-1].Content
		if strings.Contains(last, "second question") && !strings.Contains(last, "FINAL RANKING") &&
			!strings.Contains(last, "chairman of a council") && c.model != "google/gemini-2.5-flash" {
			stage1Call = &f.fake.calls[i]
			break
		}
	}
	require.NotNil(t, stage1Call)

	msgs := stage1Call.messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, "synthesized answer", msgs[2].Content)
	assert.Contains(t, msgs[3].Content, "second question")
}

func TestRunTurnReturnsAssistantMessage(t *testing.T) {
	f := newFixture(t)
	conv := f.newConversation(t)
	f.expectNoActivePack()
	f.expectVoteInserts(6)

	msg, meta, err := f.manager.RunTurn(context.Background(), caller, conv.ID, "how do galaxies form?")
	require.NoError(t, err)
	assert.Len(t, msg.Stage1, 3)
	assert.Len(t, msg.Stage2, 3)
	require.NotNil(t, msg.Stage3)
	assert.Equal(t, "synthesized answer", msg.Stage3.Response)

	// The blocking path surfaces the same metadata the stream does.
	require.NotNil(t, meta)
	assert.Equal(t, "openai/gpt-5", meta.LabelToModel["A"])
	assert.NotEmpty(t, meta.AggregateRankings)
}
