package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRankingNumbered(t *testing.T) {
	text := `Response B was the most rigorous, Response A the most readable.

FINAL RANKING:
1. Response B
2. Response A
3. Response C`

	assert.Equal(t, []string{"B", "A", "C"}, ParseRanking(text))
}

func TestParseRankingUnnumberedAfterMarker(t *testing.T) {
	text := "FINAL RANKING:\nResponse C, then Response A, then Response B"
	assert.Equal(t, []string{"C", "A", "B"}, ParseRanking(text))
}

func TestParseRankingWithoutMarker(t *testing.T) {
	text := "I preferred Response B over Response A overall."
	assert.Equal(t, []string{"B", "A"}, ParseRanking(text))
}

func TestParseRankingMarkerTakesFirstOccurrence(t *testing.T) {
	text := `Response A mentions FINAL RANKING: criteria.
FINAL RANKING:
1. Response A`
	// Scanning starts after the first marker; the numbered entry still
	// matches.
	assert.Equal(t, []string{"A"}, ParseRanking(text))
}

func TestParseRankingEmptyInputs(t *testing.T) {
	assert.Empty(t, ParseRanking(""))
	assert.Empty(t, ParseRanking("   \n\t  "))
	assert.Empty(t, ParseRanking("no labels here"))
	assert.Empty(t, ParseRanking("FINAL RANKING:\n(nothing)"))
}

func TestParseRankingWhitespaceVariants(t *testing.T) {
	text := "FINAL RANKING:\n  1.   Response A\n  2.\tResponse B"
	assert.Equal(t, []string{"A", "B"}, ParseRanking(text))
}

func TestParseRankingMultiLetterLabels(t *testing.T) {
	text := "FINAL RANKING:\n1. Response AA\n2. Response B"
	assert.Equal(t, []string{"AA", "B"}, ParseRanking(text))
}
