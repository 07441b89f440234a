// Package config loads the pgsctl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the tool-level settings. Command line flags override
// every field.
type Config struct {
	// DirPrefix roots the account database paths, "/" for the live
	// system.
	DirPrefix string `yaml:"dir_prefix"`

	// Source is the agent name written into the managed-by marker.
	Source string `yaml:"source"`

	// LogDir enables file logging when set.
	LogDir string `yaml:"log_dir"`
}

func Default() Config {
	return Config{
		DirPrefix: "/",
		Source:    "strictpgs",
	}
}

func DefaultPath() string {
	return "/etc/pgsctl.yaml"
}

// Load reads path over the defaults. A missing file is not an error:
// the defaults are returned, so a bare system works without any
// configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DirPrefix == "" {
		cfg.DirPrefix = "/"
	}
	if cfg.Source == "" {
		cfg.Source = "strictpgs"
	}
	return cfg, nil
}
