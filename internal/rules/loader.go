package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load decodes an ActionConfig from JSON. It fails on malformed JSON or a
// config that is structurally unusable; softer invariants are the
// responsibility of Validate.
func Load(r io.Reader) (*ActionConfig, error) {
	var cfg ActionConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.ActionName == "" {
		return nil, fmt.Errorf("config has no action_name")
	}
	return &cfg, nil
}

// LoadFile reads an ActionConfig from a JSON file on disk.
func LoadFile(path string) (*ActionConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
