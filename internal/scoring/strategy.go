// Package scoring provides pluggable strategies that map a raw measurement
// value to a normalized score in [0,1] given a measurement rule.
package scoring

import (
	"math"

	"github.com/ayusman/clearform/internal/rules"
)

// Strategy names that ship with the registry.
const (
	StrategyNone   = "none"
	StrategyLinear = "linear"
	StrategyBanded = "banded"
)

// rampWidthFactor fixes where the linear strategy reaches zero: a deviation
// of rampWidthFactor x tolerance scores 0.0. Changing this constant would
// change the meaning of every existing tolerance in deployed configs.
const rampWidthFactor = 3.0

// Strategy normalizes a raw measured value into a [0,1] score for a rule.
type Strategy func(m *rules.Measurement, value float64) float64

// Registry holds the named strategies available for rule selection.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates a registry with the built-in strategies registered.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(StrategyNone, None)
	r.Register(StrategyLinear, Linear)
	r.Register(StrategyBanded, Banded)
	return r
}

// Register adds or replaces a named strategy.
func (r *Registry) Register(name string, s Strategy) {
	if name == "" || s == nil {
		return
	}
	r.strategies[name] = s
}

// Pick selects the strategy for a measurement: the rule's explicit strategy
// when registered, otherwise linear. When scoring is disabled at the config
// level, every measurement scores via the none strategy so that disabled
// scoring never penalizes.
func (r *Registry) Pick(m *rules.Measurement, enableScoring bool) Strategy {
	if !enableScoring {
		return None
	}
	if m != nil && m.ScoreStrategy != "" {
		if s, ok := r.strategies[m.ScoreStrategy]; ok {
			return s
		}
	}
	return Linear
}

// None always returns a full score. Used when scoring is globally disabled.
func None(m *rules.Measurement, value float64) float64 {
	return 1.0
}

// Linear scores against target/tolerance when configured: full score inside
// the tolerance plateau, then a linear ramp reaching zero at a deviation of
// 3x tolerance. With only a min/max range, the value is clamped into the
// range and normalized linearly across it. With no criteria at all the score
// is a neutral 1.0, which is deliberately indistinguishable from a perfect
// score only at this level; the rule's HasTarget/HasRange tell them apart.
func Linear(m *rules.Measurement, value float64) float64 {
	if m == nil {
		return 1.0
	}
	if m.HasTarget() {
		deviation := math.Abs(value - *m.Target)
		tolerance := *m.Tolerance
		if tolerance <= 0 {
			if deviation == 0 {
				return 1.0
			}
			return 0.0
		}
		if deviation <= tolerance {
			return 1.0
		}
		if deviation >= rampWidthFactor*tolerance {
			return 0.0
		}
		return clamp01(1.0 - (deviation-tolerance)/((rampWidthFactor-1)*tolerance))
	}
	if m.HasRange() && *m.MaxValue > *m.MinValue {
		clamped := math.Min(math.Max(value, *m.MinValue), *m.MaxValue)
		return clamp01((clamped - *m.MinValue) / (*m.MaxValue - *m.MinValue))
	}
	return 1.0
}

// Banded scores through nested quality bands when configured: 1.0 inside the
// excellent band, 0.75 inside good, 0.5 inside acceptable, 0.0 outside.
// Rules without bands fall through to the linear strategy.
func Banded(m *rules.Measurement, value float64) float64 {
	if m == nil || m.Bands == nil {
		return Linear(m, value)
	}
	switch {
	case m.Bands.Excellent.Contains(value):
		return 1.0
	case m.Bands.Good.Contains(value):
		return 0.75
	case m.Bands.Acceptable.Contains(value):
		return 0.5
	default:
		return 0.0
	}
}

// DeviationPass reports whether the value is within tolerance of the target.
// It returns nil when no target/tolerance is configured, in which case
// pass/fail is undefined for the measurement.
func DeviationPass(m *rules.Measurement, value float64) *bool {
	if m == nil || !m.HasTarget() {
		return nil
	}
	passed := math.Abs(value-*m.Target) <= *m.Tolerance
	return &passed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
