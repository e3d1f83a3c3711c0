// Package fixtures provides embedded pose fixtures for tests.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/clearform/internal/pose"
)

//go:embed poses/*
var posesFS embed.FS

// LoadPose loads a test pose by name (without the .json suffix).
func LoadPose(name string) (*pose.Pose, error) {
	data, err := posesFS.ReadFile("poses/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load pose %s: %w", name, err)
	}

	p := &pose.Pose{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode pose %s: %w", name, err)
	}

	return p, nil
}

// ForehandClearPoses loads the per-stage user poses for a forehand clear.
func ForehandClearPoses() (map[string]*pose.Pose, error) {
	stages := map[string]*pose.Pose{}
	for _, name := range []string{"setup", "backswing", "power"} {
		p, err := LoadPose(name)
		if err != nil {
			return nil, err
		}
		stages[name] = p
	}
	return stages, nil
}
