// Package evaluation orchestrates measurement values through scoring
// strategies into weighted, hierarchical evaluation results, with support
// for incremental re-evaluation of individual stages.
package evaluation

// MeasurementInput is one raw metric supplied to the evaluator: the measured
// value plus an optional expected value taken from the reference technique.
// A nil Value means the measurement could not be computed.
type MeasurementInput struct {
	Value    *float64 `json:"value"`
	Expected *float64 `json:"expected,omitempty"`
}

// StageMetrics is the evaluator's input shape: stage name to measurement key
// to metric. Stages or keys absent from the map evaluate as missing data,
// never as errors.
type StageMetrics map[string]map[string]MeasurementInput

// MeasurementEvaluation is the scored result of one measurement.
// Passed is tri-state: nil when pass/fail is undefined for the rule.
type MeasurementEvaluation struct {
	Key             string   `json:"key"`
	Value           *float64 `json:"value"`
	Expected        *float64 `json:"expected"`
	Deviation       *float64 `json:"deviation"`
	Score           *float64 `json:"score"`
	Passed          *bool    `json:"passed"`
	Feedback        string   `json:"feedback"`
	RefinedFeedback string   `json:"refined_feedback,omitempty"`
}

// StageEvaluation aggregates one stage's measurements. Score is nil when no
// measurement contributed a weighted score.
type StageEvaluation struct {
	Name         string                  `json:"name"`
	Measurements []MeasurementEvaluation `json:"measurements"`
	Score        *float64                `json:"score"`
	Feedback     string                  `json:"feedback"`
}

// ActionEvaluation is the immutable top-level snapshot of one evaluation
// pass. Stages always appear in config order.
type ActionEvaluation struct {
	ActionName     string            `json:"action_name"`
	Stages         []StageEvaluation `json:"stages"`
	Score          *float64          `json:"score"`
	Summary        string            `json:"summary"`
	RefinedSummary string            `json:"refined_summary,omitempty"`
	Language       string            `json:"language"`
}

// Stage returns the evaluated stage with the given name, if present.
func (e *ActionEvaluation) Stage(name string) (*StageEvaluation, bool) {
	for i := range e.Stages {
		if e.Stages[i].Name == name {
			return &e.Stages[i], true
		}
	}
	return nil, false
}
