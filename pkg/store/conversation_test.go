package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/models"
)

func TestConversationLifecycle(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	conv, err := s.Create("org-a", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", conv.Title)
	assert.Equal(t, models.ProcessingIdle, conv.ProcessingState)

	got, err := s.Get("org-a", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Empty(t, got.Messages)

	// Append returns the post-append snapshot.
	got, err = s.AppendUserMessage("org-a", conv.ID, "what is a monad?")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, models.RoleUser, got.Messages[0].Role)

	err = s.AppendAssistantMessage("org-a", conv.ID, models.Message{
		Stage3: &models.Stage3Result{Model: "m", Response: "an endofunctor thing"},
	})
	require.NoError(t, err)

	got, err = s.Get("org-a", conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, "an endofunctor thing", got.Messages[1].Stage3.Response)

	require.NoError(t, s.SetTitle("org-a", conv.ID, "Monads"))
	got, err = s.Get("org-a", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monads", got.Title)

	require.NoError(t, s.Delete("org-a", conv.ID))
	_, err = s.Get("org-a", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantIsolation(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	conv, err := s.Create("org-a", "user-1")
	require.NoError(t, err)

	// A conversation created under tenant A is invisible to tenant B.
	_, err = s.Get("org-b", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List("org-b")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.List("org-a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBeginTurnConflict(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	conv, err := s.Create("org-a", "user-1")
	require.NoError(t, err)

	require.NoError(t, s.BeginTurn("org-a", conv.ID))
	assert.ErrorIs(t, s.BeginTurn("org-a", conv.ID), ErrConflict)

	require.NoError(t, s.EndTurn("org-a", conv.ID))
	assert.NoError(t, s.BeginTurn("org-a", conv.ID))
}

func TestPathValidation(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	_, err := s.Get("../escape", "id")
	assert.Error(t, err)

	_, err = s.Get("org-a", "../../etc/passwd")
	assert.Error(t, err)

	_, err = s.Get("/abs", "id")
	assert.Error(t, err)
}

func TestRecoverStaleTurns(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	a, err := s.Create("org-a", "user-1")
	require.NoError(t, err)
	b, err := s.Create("org-b", "user-2")
	require.NoError(t, err)

	require.NoError(t, s.BeginTurn("org-a", a.ID))

	recovered, err := s.RecoverStaleTurns()
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	got, err := s.Get("org-a", a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingIdle, got.ProcessingState)

	got, err = s.Get("org-b", b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingIdle, got.ProcessingState)
}

func TestListNewestFirst(t *testing.T) {
	s := NewConversationStore(t.TempDir())

	first, err := s.Create("org-a", "u")
	require.NoError(t, err)
	second, err := s.Create("org-a", "u")
	require.NoError(t, err)

	// Force distinct timestamps.
	conv, err := s.Get("org-a", second.ID)
	require.NoError(t, err)
	conv.CreatedAt = conv.CreatedAt.Add(1)
	require.NoError(t, s.write("org-a", conv))

	list, err := s.List("org-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
