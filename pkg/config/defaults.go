package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/store"
)

// Defaults is the instance-wide configuration layer: the prompt map,
// the non-personality models, and the system personality roster. It is
// loaded once at startup; tenant overrides layer on top per request.
type Defaults struct {
	Prompts       map[models.PromptRole]string
	Models        models.ModelConfig
	Personalities []models.Personality
}

// defaultsFile is the on-disk shape of defaults/system-prompts.yaml.
// Every field is optional; unset fields fall back to the built-ins.
type defaultsFile struct {
	Prompts map[models.PromptRole]string `yaml:"prompts"`
	Models  *models.ModelConfig          `yaml:"models"`
}

// LoadDefaults reads the instance defaults from <dataDir>/defaults,
// filling gaps with the built-in prompts, models, and personalities. A
// missing defaults file is not an error.
func LoadDefaults(dataDir string) (*Defaults, error) {
	defaults := &Defaults{
		Prompts: builtinPrompts(),
		Models:  builtinModels(),
	}

	defaultsDir := filepath.Join(dataDir, "defaults")
	path := filepath.Join(defaultsDir, "system-prompts.yaml")
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Info("No instance defaults file, using built-ins", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read defaults file: %w", err)
	default:
		var file defaultsFile
		if err := yaml.Unmarshal(ExpandEnv(data), &file); err != nil {
			return nil, fmt.Errorf("invalid defaults file %s: %w", path, err)
		}
		for role, text := range file.Prompts {
			if text != "" {
				defaults.Prompts[role] = text
			}
		}
		if file.Models != nil {
			// File values win over built-ins; unset fields keep them.
			if err := mergo.Merge(&defaults.Models, *file.Models, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge default models: %w", err)
			}
		}
	}

	personalities, err := store.ReadDefaultPersonalities(defaultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load default personalities: %w", err)
	}
	if len(personalities) == 0 {
		personalities = builtinPersonalities()
	}
	defaults.Personalities = personalities

	slog.Info("Instance defaults loaded",
		"prompts", len(defaults.Prompts),
		"personalities", len(defaults.Personalities))
	return defaults, nil
}
