package council

import (
	"os"
	"path/filepath"
)

// StrategyCatalog loads consensus-strategy prompt templates from a
// directory of <id>.md files. A missing strategy falls back to
// balanced.md, then to the built-in fallback template.
type StrategyCatalog struct {
	dir      string
	fallback string
}

// NewStrategyCatalog creates a catalog over dir with the given
// built-in fallback template.
func NewStrategyCatalog(dir, fallback string) *StrategyCatalog {
	return &StrategyCatalog{dir: dir, fallback: fallback}
}

// Template returns the prompt template for a strategy id.
func (c *StrategyCatalog) Template(id string) string {
	for _, name := range []string{id, "balanced"} {
		if name == "" || name != filepath.Base(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, name+".md"))
		if err == nil {
			return string(data)
		}
	}
	return c.fallback
}

// List returns the strategy ids available on disk, always including
// "balanced".
func (c *StrategyCatalog) List() []string {
	ids := []string{"balanced"}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return ids
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".md" {
			continue
		}
		id := name[:len(name)-len(".md")]
		if id != "balanced" {
			ids = append(ids, id)
		}
	}
	return ids
}
