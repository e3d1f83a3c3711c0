package rules

import (
	"fmt"
	"math"
)

// weightSumTolerance is the slack allowed when checking that sibling weights
// sum to 1.0. Violations are reported, not corrected.
const weightSumTolerance = 0.01

// Validate checks the configuration invariants and returns one human-readable
// string per violation. Violations never block evaluation; they are meant to
// be surfaced to the configuration author.
func Validate(cfg *ActionConfig) []string {
	var violations []string

	if cfg == nil {
		return []string{"config is nil"}
	}
	if cfg.ActionName == "" {
		violations = append(violations, "action_name is empty")
	}
	if len(cfg.Stages) == 0 {
		violations = append(violations, fmt.Sprintf("action %q has no stages", cfg.ActionName))
		return violations
	}

	seen := make(map[string]bool, len(cfg.Stages))
	var stageWeightSum float64
	for i := range cfg.Stages {
		stage := &cfg.Stages[i]
		if stage.Name == "" {
			violations = append(violations, fmt.Sprintf("stage %d of action %q has no name", i, cfg.ActionName))
		}
		if seen[stage.Name] {
			violations = append(violations, fmt.Sprintf("duplicate stage name %q in action %q", stage.Name, cfg.ActionName))
		}
		seen[stage.Name] = true
		if stage.Weight < 0 {
			violations = append(violations, fmt.Sprintf("stage %q has negative weight %.3f", stage.Name, stage.Weight))
		}
		stageWeightSum += stage.Weight
		violations = append(violations, validateStage(stage)...)
	}

	if len(cfg.Stages) > 1 && math.Abs(stageWeightSum-1.0) > weightSumTolerance {
		violations = append(violations, fmt.Sprintf(
			"stage weights of action %q sum to %.3f, expected 1.0", cfg.ActionName, stageWeightSum))
	}

	return violations
}

// validateStage checks one stage's measurement invariants.
func validateStage(stage *Stage) []string {
	var violations []string

	keys := make(map[string]bool, len(stage.Measurements))
	var weightSum float64
	for i := range stage.Measurements {
		m := &stage.Measurements[i]
		if m.Key == "" {
			violations = append(violations, fmt.Sprintf("measurement %d of stage %q has no key", i, stage.Name))
		}
		if keys[m.Key] {
			violations = append(violations, fmt.Sprintf("duplicate measurement key %q in stage %q", m.Key, stage.Name))
		}
		keys[m.Key] = true
		if m.Weight < 0 {
			violations = append(violations, fmt.Sprintf("measurement %q has negative weight %.3f", m.Key, m.Weight))
		}
		weightSum += m.Weight
		violations = append(violations, validateMeasurement(stage.Name, m)...)
	}

	if len(stage.Measurements) > 1 && math.Abs(weightSum-1.0) > weightSumTolerance {
		violations = append(violations, fmt.Sprintf(
			"measurement weights of stage %q sum to %.3f, expected 1.0", stage.Name, weightSum))
	}

	return violations
}

// validateMeasurement checks keypoint arity per measurement type, range
// ordering, and nested band containment.
func validateMeasurement(stageName string, m *Measurement) []string {
	var violations []string

	switch m.Type {
	case TypeAngle:
		if len(m.Keypoints) < 3 {
			violations = append(violations, fmt.Sprintf(
				"measurement %q in stage %q: angle requires 3 keypoints, got %d", m.Key, stageName, len(m.Keypoints)))
		}
	case TypeDistance:
		if len(m.Keypoints) < 2 {
			violations = append(violations, fmt.Sprintf(
				"measurement %q in stage %q: distance requires 2 keypoints, got %d", m.Key, stageName, len(m.Keypoints)))
		}
	case TypeHeight, TypeVerticalDistance, TypeHorizontalDistance:
		if len(m.Keypoints) < 1 {
			violations = append(violations, fmt.Sprintf(
				"measurement %q in stage %q: %s requires a keypoint", m.Key, stageName, m.Type))
		}
		if m.ReferencePoint == "" {
			violations = append(violations, fmt.Sprintf(
				"measurement %q in stage %q: %s requires a reference_point", m.Key, stageName, m.Type))
		}
	case "":
		violations = append(violations, fmt.Sprintf(
			"measurement %q in stage %q has no measurement_type", m.Key, stageName))
	}

	if m.Tolerance != nil && *m.Tolerance < 0 {
		violations = append(violations, fmt.Sprintf(
			"measurement %q in stage %q has negative tolerance %.3f", m.Key, stageName, *m.Tolerance))
	}
	if m.HasRange() && *m.MaxValue <= *m.MinValue {
		violations = append(violations, fmt.Sprintf(
			"measurement %q in stage %q: max_value %.3f must be greater than min_value %.3f",
			m.Key, stageName, *m.MaxValue, *m.MinValue))
	}
	if m.Bands != nil {
		violations = append(violations, validateBands(stageName, m.Key, m.Bands)...)
	}

	return violations
}

// validateBands enforces excellent ⊆ good ⊆ acceptable.
func validateBands(stageName, key string, b *ScoreBands) []string {
	var violations []string
	for _, band := range []struct {
		name string
		band Band
	}{
		{"excellent", b.Excellent},
		{"good", b.Good},
		{"acceptable", b.Acceptable},
	} {
		if band.band.Max < band.band.Min {
			violations = append(violations, fmt.Sprintf(
				"measurement %q in stage %q: %s band is inverted [%.3f, %.3f]",
				key, stageName, band.name, band.band.Min, band.band.Max))
		}
	}
	if b.Excellent.Min < b.Good.Min || b.Excellent.Max > b.Good.Max {
		violations = append(violations, fmt.Sprintf(
			"measurement %q in stage %q: excellent band must be contained in good band", key, stageName))
	}
	if b.Good.Min < b.Acceptable.Min || b.Good.Max > b.Acceptable.Max {
		violations = append(violations, fmt.Sprintf(
			"measurement %q in stage %q: good band must be contained in acceptable band", key, stageName))
	}
	return violations
}
