// Package council runs the three-stage deliberation protocol:
// parallel proposals, anonymized peer ranking, and chairman synthesis.
package council

import "strings"

// formatTemplate substitutes {name} tags in a prompt template. Unknown
// tags are left in place so a misconfigured prompt is visible in the
// output rather than silently truncated.
func formatTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
