package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes an external oracle program.
type Config struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Dir         string            `yaml:"dir" json:"dir"`
	// Timeout bounds one batch, as a duration string ("30s"). Empty means none.
	Timeout     string `yaml:"timeout" json:"timeout"`
	Description string `yaml:"description" json:"description"`
}

// LoadConfig reads an oracle configuration file (YAML or JSON).
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read oracle config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	if cfg.Command == "" {
		return cfg, fmt.Errorf("%s: command is required", filepath.Base(path))
	}
	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			return cfg, fmt.Errorf("%s: invalid timeout: %w", filepath.Base(path), err)
		}
	}
	if cfg.Dir != "" && !filepath.IsAbs(cfg.Dir) {
		// Relative to the config file.
		cfg.Dir = filepath.Join(filepath.Dir(path), cfg.Dir)
	}
	return cfg, nil
}
