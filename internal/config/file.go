package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// applyFileOverrides merges <name>.<ext> and then <name>.local.<ext> over cfg.
// Missing files are not an error; zero values in a file never clear a setting.
func applyFileOverrides(cfg *Config, name string) error {
	for _, path := range overridePaths(name) {
		blob, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if len(strings.TrimSpace(string(blob))) == 0 {
			continue
		}

		var override Config
		if err := json5.Unmarshal(blob, &override); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
			return fmt.Errorf("merge config %s: %w", path, err)
		}
		slog.Debug("applied config overrides", "path", path)
	}
	return nil
}

func overridePaths(name string) []string {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return []string{name, base + ".local" + ext}
}
