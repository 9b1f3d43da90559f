package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/conclave-ai/conclave/pkg/models"
)

// TenantFS holds the per-tenant configuration files: custom
// personalities (personalities/*.yaml) and the override file
// (config/system-prompts.yaml).
type TenantFS struct {
	root string
}

// NewTenantFS creates a tenant filesystem rooted at dataDir.
func NewTenantFS(dataDir string) *TenantFS {
	return &TenantFS{root: dataDir}
}

func (t *TenantFS) personalitiesDir(orgID string) (string, error) {
	return safeJoin(t.root, "orgs", orgID, "personalities")
}

// ReadPersonalities loads the tenant's custom personalities. Each file
// holds one personality; unreadable files are skipped with a log-free
// best effort since a single bad file must not take down the tenant.
func (t *TenantFS) ReadPersonalities(orgID string) ([]models.Personality, error) {
	dir, err := t.personalitiesDir(orgID)
	if err != nil {
		return nil, err
	}
	return readPersonalityDir(dir, models.SourceCustom)
}

// WritePersonality upserts a custom personality file keyed by id.
func (t *TenantFS) WritePersonality(orgID string, p models.Personality) error {
	dir, err := t.personalitiesDir(orgID)
	if err != nil {
		return err
	}
	path, err := safeJoin(dir, p.ID+".yaml")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create personalities dir: %w", err)
	}

	data, err := yaml.Marshal(&p)
	if err != nil {
		return fmt.Errorf("failed to encode personality: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write personality: %w", err)
	}
	return nil
}

// DeletePersonality removes a custom personality file.
func (t *TenantFS) DeletePersonality(orgID, id string) error {
	dir, err := t.personalitiesDir(orgID)
	if err != nil {
		return err
	}
	path, err := safeJoin(dir, id+".yaml")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete personality: %w", err)
	}
	return nil
}

// ReadOverrides loads the tenant override file. A missing file is an
// empty override set, not an error.
func (t *TenantFS) ReadOverrides(orgID string) (*models.TenantOverrides, error) {
	dir, err := safeJoin(t.root, "orgs", orgID, "config")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "system-prompts.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.TenantOverrides{}, nil
		}
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	var overrides models.TenantOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("invalid overrides file %s: %w", path, err)
	}
	return &overrides, nil
}

// WriteOverrides persists the tenant override file.
func (t *TenantFS) WriteOverrides(orgID string, overrides *models.TenantOverrides) error {
	dir, err := safeJoin(t.root, "orgs", orgID, "config")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "system-prompts.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write overrides: %w", err)
	}
	return nil
}

// readPersonalityDir loads every *.yaml personality in dir, tagged
// with the given source, sorted by id for deterministic ordering.
func readPersonalityDir(dir string, source models.PersonalitySource) ([]models.Personality, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Personality{}, nil
		}
		return nil, fmt.Errorf("failed to read personalities dir: %w", err)
	}

	personalities := make([]models.Personality, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var p models.Personality
		if err := yaml.Unmarshal(data, &p); err != nil || p.ID == "" {
			continue
		}
		p.Source = source
		personalities = append(personalities, p)
	}

	sort.Slice(personalities, func(i, j int) bool {
		return personalities[i].ID < personalities[j].ID
	})
	return personalities, nil
}

// ReadDefaultPersonalities loads the instance-default personalities
// from a defaults directory.
func ReadDefaultPersonalities(defaultsDir string) ([]models.Personality, error) {
	return readPersonalityDir(filepath.Join(defaultsDir, "personalities"), models.SourceSystem)
}
