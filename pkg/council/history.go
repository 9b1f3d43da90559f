package council

import (
	"strings"

	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/models"
)

// historyWindow is the sliding window over prior messages: 10 turns,
// two messages each.
const historyWindow = 20

// finalAnswerMarker splits structured Stage 1 style answers; only the
// part after it is worth carrying into future context.
const finalAnswerMarker = "PART 2: FINAL ANSWER"

// PrepareHistory converts a stored transcript into LLM-facing context.
// Only user and assistant messages survive; assistant messages are
// reduced to their synthesized answer; the last 20 messages are kept.
// A trailing user message is dropped — the current query is always
// appended separately by the engine and must not appear twice.
func PrepareHistory(messages []models.Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			history = append(history, llm.Message{Role: "user", Content: msg.Content})
		case models.RoleAssistant:
			if msg.Stage3 == nil {
				continue
			}
			history = append(history, llm.Message{
				Role:    "assistant",
				Content: extractFinalAnswer(msg.Stage3.Response),
			})
		}
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) > 0 && history[len(history)-1].Role == "user" {
		history = history[:len(history)-1]
	}
	return history
}

// extractFinalAnswer keeps only the text after the final-answer marker
// when present, with the leading colon and whitespace stripped.
func extractFinalAnswer(text string) string {
	idx := strings.Index(text, finalAnswerMarker)
	if idx < 0 {
		return text
	}
	tail := text[idx+len(finalAnswerMarker):]
	tail = strings.TrimLeft(tail, ":")
	return strings.TrimSpace(tail)
}
