package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/schema"
)

// Parse decodes config.json contents after validating them against the
// embedded schema. Defaults are not applied.
func Parse(data []byte) (*Config, error) {
	if err := schema.ValidateConfig(data); err != nil {
		return nil, errors.Configf("invalid config: %v", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Configf("failed to parse config file: %v", err)
	}
	return &cfg, nil
}

// Load reads and parses a config.json configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadWithDefaults reads a config file and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAndValidate reads a config file, applies defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}
