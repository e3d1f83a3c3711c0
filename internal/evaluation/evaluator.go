package evaluation

import (
	"math"

	"github.com/ayusman/clearform/internal/feedback"
	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/scoring"
)

// Evaluator turns stage metrics into scored, weighted evaluation results.
// It holds no per-call state; configs and metrics are never mutated.
type Evaluator struct {
	strategies *scoring.Registry
	feedback   *feedback.Generator
}

// New creates an Evaluator using the given strategy registry and feedback
// generator.
func New(strategies *scoring.Registry, fg *feedback.Generator) *Evaluator {
	return &Evaluator{strategies: strategies, feedback: fg}
}

// EvaluateAction runs a full evaluation: every configured stage, in config
// order, scored from the provided metrics. Stages or measurements absent
// from the metrics evaluate to nil scores, never to errors.
func (e *Evaluator) EvaluateAction(m StageMetrics, cfg *rules.ActionConfig) *ActionEvaluation {
	stages := make([]StageEvaluation, 0, len(cfg.Stages))
	for i := range cfg.Stages {
		stages = append(stages, e.evaluateStage(&cfg.Stages[i], m[cfg.Stages[i].Name], cfg))
	}
	return e.assemble(stages, cfg)
}

// EvaluateActionIncremental re-evaluates only the named stages against fresh
// metrics, reusing every other stage of the previous evaluation unchanged.
// The overall score and summary are always recomputed from the full stage
// list. Updated names that do not match a configured stage are ignored, and
// a nil previous evaluation degrades to a full evaluation.
func (e *Evaluator) EvaluateActionIncremental(previous *ActionEvaluation, updatedStages []string, m StageMetrics, cfg *rules.ActionConfig) *ActionEvaluation {
	if previous == nil {
		return e.EvaluateAction(m, cfg)
	}

	working := make(map[string]StageEvaluation, len(previous.Stages))
	for _, s := range previous.Stages {
		working[s.Name] = s
	}

	for _, name := range updatedStages {
		stage, ok := cfg.Stage(name)
		if !ok {
			continue
		}
		working[name] = e.evaluateStage(stage, m[name], cfg)
	}

	// Rebuild the stage list in config order; a configured stage somehow
	// absent from the previous result is computed fresh.
	stages := make([]StageEvaluation, 0, len(cfg.Stages))
	for i := range cfg.Stages {
		name := cfg.Stages[i].Name
		if s, ok := working[name]; ok {
			stages = append(stages, s)
			continue
		}
		stages = append(stages, e.evaluateStage(&cfg.Stages[i], m[name], cfg))
	}

	return e.assemble(stages, cfg)
}

// evaluateStage scores every configured measurement of a stage against the
// stage's metrics map (nil when the stage had no metrics at all).
func (e *Evaluator) evaluateStage(stage *rules.Stage, stageMetrics map[string]MeasurementInput, cfg *rules.ActionConfig) StageEvaluation {
	locale := cfg.Language

	result := StageEvaluation{
		Name:         stage.Name,
		Measurements: make([]MeasurementEvaluation, 0, len(stage.Measurements)),
	}

	var weightedSum, weightTotal float64
	passedCount, passTotal := 0, 0

	for i := range stage.Measurements {
		rule := &stage.Measurements[i]
		ev := e.evaluateMeasurement(rule, stageMetrics[rule.Key], cfg)

		if ev.Score != nil && rule.Weight > 0 {
			weightedSum += *ev.Score * rule.Weight
			weightTotal += rule.Weight
		}
		passTotal++
		if ev.Passed != nil && *ev.Passed {
			passedCount++
		}

		result.Measurements = append(result.Measurements, ev)
	}

	if weightTotal > 0 {
		score := weightedSum / weightTotal
		result.Score = &score
	}
	result.Feedback = e.feedback.Stage(locale, stage, passedCount, passTotal)
	return result
}

// evaluateMeasurement scores one measurement from its metric input. A
// measurement with no usable value yields nil value, score and passed.
func (e *Evaluator) evaluateMeasurement(rule *rules.Measurement, input MeasurementInput, cfg *rules.ActionConfig) MeasurementEvaluation {
	ev := MeasurementEvaluation{Key: rule.Key}

	ev.Value = input.Value
	if rule.Target != nil {
		ev.Expected = rule.Target
	} else {
		ev.Expected = input.Expected
	}

	if ev.Value != nil && ev.Expected != nil {
		d := math.Abs(*ev.Value - *ev.Expected)
		ev.Deviation = &d
	}

	if ev.Value != nil {
		ev.Passed = scoring.DeviationPass(rule, *ev.Value)
		score := e.strategies.Pick(rule, cfg.EnableScoring)(rule, *ev.Value)
		ev.Score = &score
	}

	ev.Feedback = e.feedback.Measurement(cfg.Language, rule, ev.Value, ev.Deviation, ev.Passed)
	return ev
}

// assemble computes the weighted overall score and summary over the final
// stage list.
func (e *Evaluator) assemble(stages []StageEvaluation, cfg *rules.ActionConfig) *ActionEvaluation {
	var weightedSum, weightTotal float64
	for i := range stages {
		stage, ok := cfg.Stage(stages[i].Name)
		if !ok || stages[i].Score == nil || stage.Weight <= 0 {
			continue
		}
		weightedSum += *stages[i].Score * stage.Weight
		weightTotal += stage.Weight
	}

	result := &ActionEvaluation{
		ActionName: cfg.ActionName,
		Stages:     stages,
		Language:   cfg.Language,
	}
	if weightTotal > 0 {
		score := weightedSum / weightTotal
		result.Score = &score
	}
	result.Summary = e.feedback.Summary(cfg.Language, cfg.ActionName, cfg.Description, result.Score)
	return result
}
