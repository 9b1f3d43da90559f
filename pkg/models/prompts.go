package models

// PromptRole keys the system-prompt map.
type PromptRole string

const (
	PromptBase              PromptRole = "base"
	PromptChairman          PromptRole = "chairman"
	PromptTitle             PromptRole = "title"
	PromptRanking           PromptRole = "ranking"
	PromptEvolution         PromptRole = "evolution"
	PromptStage1Response    PromptRole = "stage1_response_structure"
	PromptStage1Meta        PromptRole = "stage1_meta_structure"
	PromptFeedbackSynthesis PromptRole = "feedback_synthesis"
)

// ResolvedPrompt is one system prompt after default/override layering.
// IsDefault is true when the effective value came from the instance
// defaults rather than a tenant override.
type ResolvedPrompt struct {
	Value     string `json:"value"`
	IsDefault bool   `json:"is_default"`
}

// SystemPrompts is the fully resolved prompt map for one tenant.
type SystemPrompts map[PromptRole]ResolvedPrompt

// Value returns the effective prompt text for a role, or "".
func (p SystemPrompts) Value(role PromptRole) string {
	return p[role].Value
}

// ModelConfig names the models used for the non-personality calls.
type ModelConfig struct {
	ChairmanModel string `yaml:"chairman_model" json:"chairman_model"`
	TitleModel    string `yaml:"title_model" json:"title_model"`
	RankingModel  string `yaml:"ranking_model" json:"ranking_model"`
}

// RolePrompt is the nested YAML form for roles that carry both a
// prompt and a model ("chairman", "ranking", "title_generation").
type RolePrompt struct {
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Model  string `yaml:"model,omitempty" json:"model,omitempty"`
}

// TenantOverrides is the per-tenant config/system-prompts.yaml file.
// Any subset of fields may be set; unset fields inherit the defaults.
// RankingPrompt is the legacy top-level key, equivalent to
// Ranking.Prompt.
type TenantOverrides struct {
	Base                        string      `yaml:"base,omitempty"`
	Chairman                    *RolePrompt `yaml:"chairman,omitempty"`
	Ranking                     *RolePrompt `yaml:"ranking,omitempty"`
	TitleGeneration             *RolePrompt `yaml:"title_generation,omitempty"`
	Evolution                   string      `yaml:"evolution,omitempty"`
	Stage1ResponseStructure     string      `yaml:"stage1_response_structure,omitempty"`
	Stage1MetaStructure         string      `yaml:"stage1_meta_structure,omitempty"`
	RankingPrompt               string      `yaml:"ranking_prompt,omitempty"`
	DisabledSystemPersonalities []string    `yaml:"disabled_system_personalities,omitempty"`

	// Tenant upstream credentials. APIKeyEncrypted is stored through the
	// secret cipher; the plaintext is only recovered at call time.
	APIBaseURL      string `yaml:"api_base_url,omitempty"`
	APIKeyEncrypted string `yaml:"api_key_encrypted,omitempty"`
}

// Pack is a pre-built bundle of personalities plus a consensus
// strategy and prompt overrides, activatable per user.
type Pack struct {
	ID                string                `json:"id"`
	DisplayName       string                `json:"display_name"`
	Personalities     []Personality         `json:"personalities"`
	ConsensusStrategy string                `json:"consensus_strategy"`
	SystemPrompts     map[PromptRole]string `json:"system_prompts,omitempty"`
}

// ActiveConfig is a user's currently selected pack state.
type ActiveConfig struct {
	UserID        string                `json:"user_id"`
	ActivePackID  string                `json:"active_pack_id"`
	Personalities []Personality         `json:"personalities"`
	StrategyID    string                `json:"strategy_id"`
	SystemPrompts map[PromptRole]string `json:"system_prompts,omitempty"`
}
