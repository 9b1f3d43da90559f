package config

import (
	"fmt"

	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/secrets"
	"github.com/conclave-ai/conclave/pkg/store"
)

// Resolver layers per-tenant overrides on top of the instance defaults
// for prompts, models, personalities, and upstream credentials.
type Resolver struct {
	defaults *Defaults
	tenantFS *store.TenantFS
	cipher   *secrets.Cipher
	settings *Settings
}

// NewResolver creates a resolver. cipher may be nil when no encryption
// key is configured; tenants then cannot store their own api keys.
func NewResolver(defaults *Defaults, tenantFS *store.TenantFS, cipher *secrets.Cipher, settings *Settings) *Resolver {
	return &Resolver{
		defaults: defaults,
		tenantFS: tenantFS,
		cipher:   cipher,
		settings: settings,
	}
}

// Upstream is the resolved provider endpoint for one tenant.
type Upstream struct {
	BaseURL string
	APIKey  string
}

// ResolvePrompts returns the effective prompt map for a tenant. Each
// entry carries is_default=false only when a tenant override supplied
// the value.
func (r *Resolver) ResolvePrompts(orgID string) (models.SystemPrompts, error) {
	overrides, err := r.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return nil, err
	}

	prompts := make(models.SystemPrompts, len(r.defaults.Prompts))
	for role, text := range r.defaults.Prompts {
		prompts[role] = models.ResolvedPrompt{Value: text, IsDefault: true}
	}

	apply := func(role models.PromptRole, value string) {
		if value != "" {
			prompts[role] = models.ResolvedPrompt{Value: value}
		}
	}
	apply(models.PromptBase, overrides.Base)
	apply(models.PromptEvolution, overrides.Evolution)
	apply(models.PromptStage1Response, overrides.Stage1ResponseStructure)
	apply(models.PromptStage1Meta, overrides.Stage1MetaStructure)
	if overrides.Chairman != nil {
		apply(models.PromptChairman, overrides.Chairman.Prompt)
	}
	if overrides.TitleGeneration != nil {
		apply(models.PromptTitle, overrides.TitleGeneration.Prompt)
	}
	// Legacy flat ranking_prompt key, superseded by ranking.prompt.
	apply(models.PromptRanking, overrides.RankingPrompt)
	if overrides.Ranking != nil {
		apply(models.PromptRanking, overrides.Ranking.Prompt)
	}

	return prompts, nil
}

// ResolveModels returns the effective chairman/title/ranking models.
func (r *Resolver) ResolveModels(orgID string) (models.ModelConfig, error) {
	overrides, err := r.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return models.ModelConfig{}, err
	}

	cfg := r.defaults.Models
	if overrides.Chairman != nil && overrides.Chairman.Model != "" {
		cfg.ChairmanModel = overrides.Chairman.Model
	}
	if overrides.Ranking != nil && overrides.Ranking.Model != "" {
		cfg.RankingModel = overrides.Ranking.Model
	}
	if overrides.TitleGeneration != nil && overrides.TitleGeneration.Model != "" {
		cfg.TitleModel = overrides.TitleGeneration.Model
	}
	return cfg, nil
}

// ResolvePersonalities returns the merged roster for a tenant. Custom
// personalities shadow system ones with the same id. Disabled system
// personalities stay visible here; ActivePersonalities filters them.
func (r *Resolver) ResolvePersonalities(orgID string) ([]models.Personality, error) {
	custom, err := r.tenantFS.ReadPersonalities(orgID)
	if err != nil {
		return nil, err
	}

	shadowed := make(map[string]bool, len(custom))
	for _, p := range custom {
		shadowed[p.ID] = true
	}

	merged := make([]models.Personality, 0, len(r.defaults.Personalities)+len(custom))
	for _, p := range r.defaults.Personalities {
		if !shadowed[p.ID] {
			merged = append(merged, p)
		}
	}
	merged = append(merged, custom...)
	return merged, nil
}

// ActivePersonalities returns the personalities eligible to sit on the
// council: merged, enabled, and not disabled by the tenant.
func (r *Resolver) ActivePersonalities(orgID string) ([]models.Personality, error) {
	merged, err := r.ResolvePersonalities(orgID)
	if err != nil {
		return nil, err
	}
	overrides, err := r.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return nil, err
	}

	disabled := make(map[string]bool, len(overrides.DisabledSystemPersonalities))
	for _, id := range overrides.DisabledSystemPersonalities {
		disabled[id] = true
	}

	active := make([]models.Personality, 0, len(merged))
	for _, p := range merged {
		if p.Enabled && !disabled[p.ID] {
			active = append(active, p)
		}
	}
	return active, nil
}

// ResolveUpstream returns the provider endpoint and api key for a
// tenant. A tenant-stored key that fails to decrypt is a hard error:
// silently falling back to the instance key would bill the wrong
// account.
func (r *Resolver) ResolveUpstream(orgID string) (Upstream, error) {
	overrides, err := r.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return Upstream{}, err
	}

	up := Upstream{
		BaseURL: r.settings.LLMAPIURL,
		APIKey:  r.settings.LLMAPIKey,
	}
	if overrides.APIBaseURL != "" {
		up.BaseURL = overrides.APIBaseURL
	}

	if overrides.APIKeyEncrypted != "" {
		if r.cipher == nil {
			return Upstream{}, fmt.Errorf("organization %s has a stored api key but no ENCRYPTION_KEY is configured", orgID)
		}
		key, err := r.cipher.Decrypt(overrides.APIKeyEncrypted)
		if err != nil {
			return Upstream{}, fmt.Errorf("failed to decrypt api key for organization %s (re-save the key to fix): %w", orgID, err)
		}
		up.APIKey = key
	}
	return up, nil
}
