package council

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/models"
)

func turnMessages(turns int) []models.Message {
	var msgs []models.Message
	for i := 0; i < turns; i++ {
		msgs = append(msgs,
			models.Message{Role: models.RoleUser, Content: fmt.Sprintf("question %d", i+1)},
			models.Message{Role: models.RoleAssistant, Stage3: &models.Stage3Result{
				Response: fmt.Sprintf("answer %d", i+1),
			}},
		)
	}
	return msgs
}

func TestPrepareHistoryRolesAndContent(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleSystem, Content: "ignored"},
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Stage3: &models.Stage3Result{Response: "a1"}},
		{Role: models.RoleAssistant}, // no stage3: skipped
	}

	history := PrepareHistory(msgs)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "q1", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "a1", history[1].Content)
}

func TestPrepareHistoryExtractsFinalAnswer(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "q"},
		{Role: models.RoleAssistant, Stage3: &models.Stage3Result{
			Response: "PART 1: ANALYSIS\nlong reasoning\n\nPART 2: FINAL ANSWER:\n  the answer",
		}},
	}

	history := PrepareHistory(msgs)
	require.Len(t, history, 2)
	assert.Equal(t, "the answer", history[1].Content)
}

func TestPrepareHistoryWindow(t *testing.T) {
	// 15 turns = 30 messages; the window keeps the last 20.
	history := PrepareHistory(turnMessages(15))
	require.Len(t, history, 20)
	assert.Equal(t, "question 6", history[0].Content)
	assert.Equal(t, "answer 15", history[len(history)-1].Content)
}

func TestPrepareHistoryDropsTrailingUserMessage(t *testing.T) {
	msgs := append(turnMessages(2), models.Message{Role: models.RoleUser, Content: "new question"})

	history := PrepareHistory(msgs)
	require.Len(t, history, 4)
	assert.Equal(t, "assistant", history[len(history)-1].Role)
}

func TestHistoryFreshnessPerTurn(t *testing.T) {
	// For the N-th turn the engine sees 2(N-1) prior messages plus the
	// query it appends itself.
	for n := 1; n <= 5; n++ {
		msgs := append(turnMessages(n-1), models.Message{Role: models.RoleUser, Content: "current"})
		history := PrepareHistory(msgs)
		assert.Len(t, history, 2*(n-1), "turn %d", n)
	}
}

func TestExtractFinalAnswerWithoutMarker(t *testing.T) {
	assert.Equal(t, "plain answer", extractFinalAnswer("plain answer"))
}
