package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/council"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/services"
	"github.com/conclave-ai/conclave/pkg/session"
	"github.com/conclave-ai/conclave/pkg/store"
)

const activeConfigSQL = `SELECT active_pack_id, strategy_id FROM user_active_config WHERE user_id = $1`

const insertVoteSQL = `INSERT INTO votes
(id, org_id, conversation_id, turn_number, voter_model, candidate_personality_id, candidate_model, rank, label, reasoning, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// fakeLLM scripts upstream behavior by inspecting the outgoing prompt.
type fakeLLM struct{}

func (fakeLLM) Query(_ context.Context, model string, messages []llm.Message, _, _ string, _ llm.QueryOptions) *llm.Result {
	last := messages[len(messages)-1].Content
	switch {
	case model == "google/gemini-2.5-flash":
		return &llm.Result{Content: "Test Title"}
	case strings.Contains(last, "FINAL RANKING"):
		return &llm.Result{Content: "FINAL RANKING:\n1. Response A\n2. Response B"}
	case strings.Contains(last, "chairman of a council"):
		return &llm.Result{Content: "final answer"}
	default:
		return &llm.Result{Content: "proposal"}
	}
}

type testServer struct {
	e           *echo.Echo
	mock        sqlmock.Sqlmock
	transcripts *store.ConversationStore
}

func newTestServer(t *testing.T) *testServer {
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

	engine := council.NewEngine(fakeLLM{}, council.NewStrategyCatalog(t.TempDir(), config.BuiltinBalancedConsensus))

	conversations := services.NewConversationService(transcripts)
	configs := services.NewConfigService(resolver, tenantFS, nil, db, defaults)
	votes := services.NewVoteService(db, votingLog, nil, resolver)
	sessions := session.NewManager(conversations, configs, votes, resolver, engine, transcripts)

	srv := NewServer(conversations, configs, votes, sessions, nil, resolver, nil)
	e := echo.New()
	srv.Register(e)
	return &testServer{e: e, mock: mock, transcripts: transcripts}
}

// do performs a request with alice's identity headers unless overridden.
func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-Username", "alice")
	req.Header.Set("X-Org-ID", "org-a")
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
		} else {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) expectTurn() {
	ts.mock.ExpectQuery(activeConfigSQL).
		WillReturnRows(sqlmock.NewRows([]string{"active_pack_id", "strategy_id"}))
	ts.mock.ExpectBegin()
	for range 6 {
		ts.mock.ExpectExec(insertVoteSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	ts.mock.ExpectCommit()
}
