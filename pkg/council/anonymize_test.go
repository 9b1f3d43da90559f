package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelSequence(t *testing.T) {
	assert.Equal(t, "A", label(0))
	assert.Equal(t, "Z", label(25))
	assert.Equal(t, "AA", label(26))
	assert.Equal(t, "AB", label(27))
	assert.Equal(t, "BA", label(52))
}

func TestBuildLabelMapDeterministic(t *testing.T) {
	stage1 := stage1Fixture("p2", "p1", "p3")

	first := BuildLabelMap(stage1)
	second := BuildLabelMap(stage1)

	assert.Equal(t, first.Labels(), second.Labels())
	assert.Equal(t, first.ModelByLabel(), second.ModelByLabel())

	// Labels follow collection order, not id order.
	a, ok := first.Target("A")
	require.True(t, ok)
	assert.Equal(t, "p2", a.PersonalityID)
	b, ok := first.Target("B")
	require.True(t, ok)
	assert.Equal(t, "p1", b.PersonalityID)
}

func TestLabelMapUnknownLabel(t *testing.T) {
	m := BuildLabelMap(stage1Fixture("p1"))
	_, ok := m.Target("Q")
	assert.False(t, ok)
}
