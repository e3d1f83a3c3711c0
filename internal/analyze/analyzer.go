// Package analyze orchestrates the full pipeline: pose keypoints through the
// measurement engine, scoring, feedback generation and optional refinement.
package analyze

import (
	"context"

	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/metrics"
	"github.com/ayusman/clearform/internal/pose"
	"github.com/ayusman/clearform/internal/refine"
	"github.com/ayusman/clearform/internal/rules"
)

// Analyzer wires the measurement engine, evaluator and refiner together.
// All of its collaborators are injected; it holds no mutable state and is
// safe to share across requests.
type Analyzer struct {
	engine    *metrics.Engine
	evaluator *evaluation.Evaluator
	refiner   *refine.Safe
}

// New creates an Analyzer from its collaborators.
func New(engine *metrics.Engine, evaluator *evaluation.Evaluator, refiner *refine.Safe) *Analyzer {
	return &Analyzer{engine: engine, evaluator: evaluator, refiner: refiner}
}

// Engine returns the measurement engine.
func (a *Analyzer) Engine() *metrics.Engine { return a.engine }

// Evaluator returns the evaluator.
func (a *Analyzer) Evaluator() *evaluation.Evaluator { return a.evaluator }

// AnalyzePoses measures the user's stage poses, optionally fills expected
// values from the reference technique's poses, evaluates, and refines the
// summary when the config asks for it. Stages without a user pose evaluate
// as missing data.
func (a *Analyzer) AnalyzePoses(ctx context.Context, cfg *rules.ActionConfig, userPoses, standardPoses map[string]*pose.Pose) *evaluation.ActionEvaluation {
	userMetrics := evaluation.FromActionResult(a.engine.ComputeAction(cfg, userPoses))
	if len(standardPoses) > 0 {
		standardMetrics := evaluation.FromActionResult(a.engine.ComputeAction(cfg, standardPoses))
		userMetrics = evaluation.WithExpected(userMetrics, standardMetrics)
	}
	return a.Evaluate(ctx, cfg, userMetrics)
}

// Evaluate runs a full evaluation over pre-computed metrics and applies
// refinement to the summary.
func (a *Analyzer) Evaluate(ctx context.Context, cfg *rules.ActionConfig, m evaluation.StageMetrics) *evaluation.ActionEvaluation {
	result := a.evaluator.EvaluateAction(m, cfg)
	a.refineSummary(ctx, cfg, result)
	return result
}

// EvaluateIncremental re-evaluates only the named stages of a previous
// evaluation and applies refinement to the recomputed summary.
func (a *Analyzer) EvaluateIncremental(ctx context.Context, cfg *rules.ActionConfig, previous *evaluation.ActionEvaluation, updatedStages []string, m evaluation.StageMetrics) *evaluation.ActionEvaluation {
	result := a.evaluator.EvaluateActionIncremental(previous, updatedStages, m, cfg)
	a.refineSummary(ctx, cfg, result)
	return result
}

// refineSummary attaches a refined summary when enabled. Refinement only
// fills the sibling string field; scores and pass/fail results are already
// final by the time it runs.
func (a *Analyzer) refineSummary(ctx context.Context, cfg *rules.ActionConfig, result *evaluation.ActionEvaluation) {
	if !cfg.EnableRefine || a.refiner == nil {
		return
	}
	refined := a.refiner.Refine(ctx, result.Summary, cfg.Language, cfg.RefineStyle)
	if refined != result.Summary {
		result.RefinedSummary = refined
	}
}
