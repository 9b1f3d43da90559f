package config

import (
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// requiredTags lists the template tags a prompt role must contain for
// the engine to format it.
var requiredTags = map[models.PromptRole][]string{
	models.PromptChairman: {"{user_query}", "{stage1_text}", "{voting_details_text}"},
	models.PromptTitle:    {"{user_query}"},
}

// ValidationError reports template tags missing from a prompt write.
type ValidationError struct {
	Role    models.PromptRole
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("prompt %q is missing required tags: %s", e.Role, strings.Join(e.Missing, ", "))
}

// ValidatePrompt rejects prompt text lacking the tags its role
// requires. Roles without tag requirements always pass.
func ValidatePrompt(role models.PromptRole, text string) error {
	var missing []string
	for _, tag := range requiredTags[role] {
		if !strings.Contains(text, tag) {
			missing = append(missing, tag)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Role: role, Missing: missing}
	}
	return nil
}
