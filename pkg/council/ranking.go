package council

import (
	"regexp"
	"strings"
)

// RankingMarker is the literal the ranking prompt instructs voters to
// emit before their ordered list.
const RankingMarker = "FINAL RANKING:"

var (
	// numberedEntry matches "1. Response A" list items.
	numberedEntry = regexp.MustCompile(`\d+\.\s*Response\s+([A-Z]+)`)
	// anyEntry matches any "Response A" token.
	anyEntry = regexp.MustCompile(`Response\s+([A-Z]+)`)
)

// ParseRanking extracts the ordered label list from a Stage 2 reply.
// The text after the first RankingMarker is scanned for numbered
// entries; when none match, any "Response X" token counts. Without the
// marker the whole text is scanned as a last resort. Returns the
// labels in the order matched; unparseable text yields an empty list,
// which simply drops this voter from aggregation.
func ParseRanking(text string) []string {
	scan := text
	if idx := strings.Index(text, RankingMarker); idx >= 0 {
		scan = text[idx+len(RankingMarker):]
		if labels := extract(numberedEntry, scan); len(labels) > 0 {
			return labels
		}
	}
	return extract(anyEntry, scan)
}

func extract(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, m[1])
	}
	return labels
}
