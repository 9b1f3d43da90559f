package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributionFenced(t *testing.T) {
	text := "The final answer.\n\n```json\n{\"contributors\": [{\"name\": \"The Analyst\", \"label\": \"A\", \"contribution\": \"core argument\"}]}\n```"

	cleaned, contributors := ParseAttribution(text)
	assert.Equal(t, "The final answer.", cleaned)
	require.Len(t, contributors, 1)
	assert.Equal(t, "The Analyst", contributors[0].Name)
	assert.Equal(t, "A", contributors[0].Label)
}

func TestParseAttributionBareObject(t *testing.T) {
	text := `Answer first. {"contributors": [{"name": "P", "label": "B", "contribution": "x"}]} trailing.`

	cleaned, contributors := ParseAttribution(text)
	assert.Equal(t, "Answer first.  trailing.", cleaned)
	require.Len(t, contributors, 1)
	assert.Equal(t, "B", contributors[0].Label)
}

func TestParseAttributionInvalidJSON(t *testing.T) {
	text := "Answer. ```json\n{\"contributors\": [broken}\n```"

	cleaned, contributors := ParseAttribution(text)
	assert.Equal(t, text, cleaned)
	assert.Empty(t, contributors)
}

func TestParseAttributionAbsent(t *testing.T) {
	cleaned, contributors := ParseAttribution("no json at all")
	assert.Equal(t, "no json at all", cleaned)
	assert.Empty(t, contributors)
}

func TestParseAttributionIgnoresUnrelatedFence(t *testing.T) {
	text := "Answer.\n```json\n{\"other\": 1}\n```\n{\"contributors\": [{\"name\": \"N\", \"label\": \"A\", \"contribution\": \"c\"}]}"

	cleaned, contributors := ParseAttribution(text)
	require.Len(t, contributors, 1)
	assert.Contains(t, cleaned, "{\"other\": 1}")
	assert.NotContains(t, cleaned, "contributors")
}
