package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/secrets"
	"github.com/conclave-ai/conclave/pkg/store"
)

// ErrSystemPersonality is returned when a caller tries to delete a
// system personality; those are disabled per tenant, not deleted.
var ErrSystemPersonality = errors.New("system personalities cannot be deleted, disable them instead")

// defaultPackID is the pack every user starts on.
const defaultPackID = "full-council"

// ConfigService administers tenant configuration: prompts, models,
// personalities, upstream credentials, and per-user pack selection.
type ConfigService struct {
	resolver *config.Resolver
	tenantFS *store.TenantFS
	cipher   *secrets.Cipher
	db       *sql.DB
	defaults *config.Defaults
}

// NewConfigService creates the service.
func NewConfigService(resolver *config.Resolver, tenantFS *store.TenantFS, cipher *secrets.Cipher, db *sql.DB, defaults *config.Defaults) *ConfigService {
	return &ConfigService{
		resolver: resolver,
		tenantFS: tenantFS,
		cipher:   cipher,
		db:       db,
		defaults: defaults,
	}
}

// Prompts returns the tenant's resolved prompt map.
func (s *ConfigService) Prompts(orgID string) (models.SystemPrompts, error) {
	return s.resolver.ResolvePrompts(orgID)
}

// Models returns the tenant's resolved model configuration.
func (s *ConfigService) Models(orgID string) (models.ModelConfig, error) {
	return s.resolver.ResolveModels(orgID)
}

// Personalities returns the tenant's full merged roster.
func (s *ConfigService) Personalities(orgID string) ([]models.Personality, error) {
	return s.resolver.ResolvePersonalities(orgID)
}

// UpdatePrompt saves a tenant prompt override. isDefault=true is
// equivalent to removing the override: the role inherits the instance
// default again. Template-tag validation runs before persistence.
func (s *ConfigService) UpdatePrompt(orgID string, role models.PromptRole, value string, isDefault bool) error {
	if isDefault {
		value = ""
	} else if err := config.ValidatePrompt(role, value); err != nil {
		return err
	}

	overrides, err := s.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return err
	}

	switch role {
	case models.PromptBase:
		overrides.Base = value
	case models.PromptEvolution:
		overrides.Evolution = value
	case models.PromptStage1Response:
		overrides.Stage1ResponseStructure = value
	case models.PromptStage1Meta:
		overrides.Stage1MetaStructure = value
	case models.PromptChairman:
		overrides.Chairman = setRolePrompt(overrides.Chairman, value)
	case models.PromptTitle:
		overrides.TitleGeneration = setRolePrompt(overrides.TitleGeneration, value)
	case models.PromptRanking:
		overrides.Ranking = setRolePrompt(overrides.Ranking, value)
		// The nested key supersedes the legacy flat one.
		overrides.RankingPrompt = ""
	default:
		return fmt.Errorf("unknown prompt role %q", role)
	}

	return s.tenantFS.WriteOverrides(orgID, overrides)
}

func setRolePrompt(rp *models.RolePrompt, value string) *models.RolePrompt {
	if rp == nil {
		if value == "" {
			return nil
		}
		return &models.RolePrompt{Prompt: value}
	}
	rp.Prompt = value
	if rp.Prompt == "" && rp.Model == "" {
		return nil
	}
	return rp
}

// UpdateModels saves tenant model overrides; empty fields clear the
// override for that role.
func (s *ConfigService) UpdateModels(orgID string, cfg models.ModelConfig) error {
	overrides, err := s.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return err
	}
	overrides.Chairman = setRoleModel(overrides.Chairman, cfg.ChairmanModel)
	overrides.Ranking = setRoleModel(overrides.Ranking, cfg.RankingModel)
	overrides.TitleGeneration = setRoleModel(overrides.TitleGeneration, cfg.TitleModel)
	return s.tenantFS.WriteOverrides(orgID, overrides)
}

func setRoleModel(rp *models.RolePrompt, model string) *models.RolePrompt {
	if rp == nil {
		if model == "" {
			return nil
		}
		return &models.RolePrompt{Model: model}
	}
	rp.Model = model
	if rp.Prompt == "" && rp.Model == "" {
		return nil
	}
	return rp
}

// UpsertPersonality saves a tenant personality. Reusing a system id
// shadows the system entry.
func (s *ConfigService) UpsertPersonality(orgID string, p models.Personality) error {
	if p.ID == "" || p.Name == "" || p.Model == "" {
		return fmt.Errorf("personality id, name, and model are required")
	}
	p.Source = models.SourceCustom
	return s.tenantFS.WritePersonality(orgID, p)
}

// DeletePersonality removes a custom personality. Deleting a shadow
// reveals the system entry again; system entries themselves cannot be
// deleted.
func (s *ConfigService) DeletePersonality(orgID, id string) error {
	err := s.tenantFS.DeletePersonality(orgID, id)
	if errors.Is(err, store.ErrNotFound) {
		for _, p := range s.defaults.Personalities {
			if p.ID == id {
				return ErrSystemPersonality
			}
		}
		return ErrNotFound
	}
	return err
}

// SetPersonalityDisabled toggles a system personality's membership in
// the tenant's disabled list.
func (s *ConfigService) SetPersonalityDisabled(orgID, id string, disabled bool) error {
	overrides, err := s.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return err
	}

	filtered := overrides.DisabledSystemPersonalities[:0]
	for _, existing := range overrides.DisabledSystemPersonalities {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	if disabled {
		filtered = append(filtered, id)
	}
	overrides.DisabledSystemPersonalities = filtered
	return s.tenantFS.WriteOverrides(orgID, overrides)
}

// SetUpstream stores the tenant's provider endpoint and api key. The
// key is sealed with the instance cipher before it touches disk.
func (s *ConfigService) SetUpstream(orgID, baseURL, apiKey string) error {
	overrides, err := s.tenantFS.ReadOverrides(orgID)
	if err != nil {
		return err
	}
	overrides.APIBaseURL = baseURL
	if apiKey != "" {
		if s.cipher == nil {
			return fmt.Errorf("ENCRYPTION_KEY is not configured")
		}
		sealed, err := s.cipher.Encrypt(apiKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt api key: %w", err)
		}
		overrides.APIKeyEncrypted = sealed
	}
	return s.tenantFS.WriteOverrides(orgID, overrides)
}

// Packs lists the built-in pack bundles.
func (s *ConfigService) Packs() []models.Pack {
	return []models.Pack{
		{
			ID:            defaultPackID,
			DisplayName:   "Full Council",
			Personalities: s.defaults.Personalities,
		},
		{
			ID:                "balanced-consensus",
			DisplayName:       "Balanced Consensus",
			Personalities:     s.defaults.Personalities,
			ConsensusStrategy: "balanced",
			SystemPrompts: map[models.PromptRole]string{
				models.PromptBase: config.BuiltinConsensusBasePrompt,
			},
		},
	}
}

// ActivatePack selects a pack for the caller.
func (s *ConfigService) ActivatePack(ctx context.Context, caller models.Caller, packID string) error {
	pack, ok := s.pack(packID)
	if !ok {
		return ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_active_config (user_id, active_pack_id, strategy_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE SET active_pack_id = $2, strategy_id = $3, updated_at = now()`,
		caller.UserID, pack.ID, pack.ConsensusStrategy)
	if err != nil {
		return fmt.Errorf("failed to activate pack: %w", err)
	}
	return nil
}

// ActiveConfig returns the caller's current pack selection, falling
// back to the default pack when none was ever activated.
func (s *ConfigService) ActiveConfig(ctx context.Context, caller models.Caller) (*models.ActiveConfig, error) {
	packID := defaultPackID
	strategyID := ""

	err := s.db.QueryRowContext(ctx,
		`SELECT active_pack_id, strategy_id FROM user_active_config WHERE user_id = $1`,
		caller.UserID).Scan(&packID, &strategyID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load active config: %w", err)
	}

	pack, ok := s.pack(packID)
	if !ok {
		pack, _ = s.pack(defaultPackID)
		strategyID = ""
	}
	return &models.ActiveConfig{
		UserID:        caller.UserID,
		ActivePackID:  pack.ID,
		Personalities: pack.Personalities,
		StrategyID:    strategyID,
		SystemPrompts: pack.SystemPrompts,
	}, nil
}

func (s *ConfigService) pack(id string) (models.Pack, bool) {
	for _, p := range s.Packs() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Pack{}, false
}
