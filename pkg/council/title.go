package council

import "strings"

// DefaultTitle is used for new conversations and whenever title
// generation fails.
const DefaultTitle = "New Conversation"

const maxTitleLength = 50

// CleanTitle normalizes raw title-model output: surrounding quotes are
// stripped, output longer than 50 characters is truncated to 47 plus
// an ellipsis, and empty output falls back to the default.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, quote := range []string{`"`, `'`} {
		if len(title) >= 2 && strings.HasPrefix(title, quote) && strings.HasSuffix(title, quote) {
			title = strings.TrimSpace(title[1 : len(title)-1])
		}
	}
	if title == "" {
		return DefaultTitle
	}

	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength-3]) + "..."
	}
	return title
}
