package models

// PersonalitySource tells where a personality definition came from.
// System personalities live in the instance defaults; custom ones live
// per tenant and shadow a system entry when ids collide.
type PersonalitySource string

const (
	SourceSystem PersonalitySource = "system"
	SourceCustom PersonalitySource = "custom"
)

// PromptSections are the six fixed sections of a personality's system
// prompt, rendered in this order with numbered headers 1..6.
type PromptSections struct {
	IdentityAndRole           string `yaml:"identity_and_role" json:"identity_and_role"`
	InterpretationOfQuestions string `yaml:"interpretation_of_questions" json:"interpretation_of_questions"`
	ProblemDecomposition      string `yaml:"problem_decomposition" json:"problem_decomposition"`
	AnalysisAndReasoning      string `yaml:"analysis_and_reasoning" json:"analysis_and_reasoning"`
	DifferentiationAndBias    string `yaml:"differentiation_and_bias" json:"differentiation_and_bias"`
	Tone                      string `yaml:"tone" json:"tone"`
}

// Personality is one voice on the council: a model binding plus the
// system-prompt sections that shape its behavior.
type Personality struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Model       string            `yaml:"model" json:"model"`
	Temperature *float64          `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Prompt      PromptSections    `yaml:"prompt" json:"prompt"`
	Enabled     bool              `yaml:"enabled" json:"enabled"`
	Source      PersonalitySource `yaml:"-" json:"source"`
}
