package council

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitleQuotes(t *testing.T) {
	assert.Equal(t, "Monads Explained", CleanTitle(`"Monads Explained"`))
	assert.Equal(t, "Monads Explained", CleanTitle(`'Monads Explained'`))
	assert.Equal(t, "Monads Explained", CleanTitle("  Monads Explained  "))
}

func TestCleanTitleTruncation(t *testing.T) {
	exactly50 := strings.Repeat("A", 50)
	assert.Equal(t, exactly50, CleanTitle(exactly50))

	over := strings.Repeat("A", 51)
	got := CleanTitle(over)
	assert.Equal(t, strings.Repeat("A", 47)+"...", got)
	assert.Len(t, got, 50)

	hundred := CleanTitle(strings.Repeat("A", 100))
	assert.Equal(t, strings.Repeat("A", 47)+"...", hundred)
}

func TestCleanTitleEmptyFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTitle, CleanTitle(""))
	assert.Equal(t, DefaultTitle, CleanTitle("   "))
	assert.Equal(t, DefaultTitle, CleanTitle(`""`))
}
