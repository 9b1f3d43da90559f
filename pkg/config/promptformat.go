package config

import (
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// sectionHeaders fixes the order and numbering of the six personality
// prompt sections.
var sectionHeaders = []struct {
	header string
	value  func(models.PromptSections) string
}{
	{"**1. Identity and Role**", func(s models.PromptSections) string { return s.IdentityAndRole }},
	{"**2. Interpretation of Questions**", func(s models.PromptSections) string { return s.InterpretationOfQuestions }},
	{"**3. Problem Decomposition**", func(s models.PromptSections) string { return s.ProblemDecomposition }},
	{"**4. Analysis and Reasoning**", func(s models.PromptSections) string { return s.AnalysisAndReasoning }},
	{"**5. Differentiation and Bias**", func(s models.PromptSections) string { return s.DifferentiationAndBias }},
	{"**6. Tone**", func(s models.PromptSections) string { return s.Tone }},
}

// FormatPersonalityPrompt renders a personality's system prompt: the
// six sections under numbered headers, followed by the tenant-level
// enforced structure sections (which carry their own headers 7..) when
// includeEnforced is set. Stage 1 uses the enforced form; Stage 2 does
// not.
func FormatPersonalityPrompt(p models.Personality, prompts models.SystemPrompts, includeEnforced bool) string {
	var b strings.Builder
	for _, section := range sectionHeaders {
		text := strings.TrimSpace(section.value(p.Prompt))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(section.header)
		b.WriteString("\n")
		b.WriteString(text)
	}

	if includeEnforced {
		for _, role := range []models.PromptRole{models.PromptStage1Response, models.PromptStage1Meta} {
			text := strings.TrimSpace(prompts.Value(role))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(text)
		}
	}
	return b.String()
}
