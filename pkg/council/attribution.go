package council

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

type contributorsBlock struct {
	Contributors []models.Contributor `json:"contributors"`
}

// ParseAttribution extracts the contributors block a consensus
// strategy asks the model to append. It accepts either a fenced json
// region or a bare {"contributors": […]} object. On success the block
// is removed from the text; on any parse failure the original text is
// returned untouched with no contributors.
func ParseAttribution(text string) (string, []models.Contributor) {
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		if !strings.Contains(m[1], `"contributors"`) {
			continue
		}
		var block contributorsBlock
		if err := json.Unmarshal([]byte(m[1]), &block); err != nil {
			continue
		}
		cleaned := strings.TrimSpace(strings.Replace(text, m[0], "", 1))
		return cleaned, block.Contributors
	}

	if raw, ok := bareContributorsObject(text); ok {
		var block contributorsBlock
		if err := json.Unmarshal([]byte(raw), &block); err == nil {
			cleaned := strings.TrimSpace(strings.Replace(text, raw, "", 1))
			return cleaned, block.Contributors
		}
	}

	return text, nil
}

// bareContributorsObject finds an unfenced JSON object containing a
// "contributors" key by brace-matching outward from the key.
func bareContributorsObject(text string) (string, bool) {
	keyIdx := strings.Index(text, `"contributors"`)
	if keyIdx < 0 {
		return "", false
	}

	start := strings.LastIndex(text[:keyIdx], "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
