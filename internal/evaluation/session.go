package evaluation

import "github.com/ayusman/clearform/internal/rules"

// StageState tracks whether a stage has received metrics in a session.
type StageState string

const (
	// StagePending means the session has not yet received metrics for the stage.
	StagePending StageState = "pending"
	// StageEvaluated means the stage has been evaluated at least once.
	StageEvaluated StageState = "evaluated"
)

// SessionState is the aggregate state of a session's action evaluation.
type SessionState string

const (
	// SessionIncomplete means at least one configured stage is still pending.
	SessionIncomplete SessionState = "incomplete"
	// SessionComplete means every configured stage has been evaluated at
	// least once.
	SessionComplete SessionState = "complete"
)

// Session accumulates stage metrics over time and re-evaluates incrementally
// as stages arrive, e.g. while a coach scrubs through a recording stage by
// stage. A Session is not safe for concurrent use; its working state is
// local to one analysis flow.
type Session struct {
	evaluator *Evaluator
	config    *rules.ActionConfig
	metrics   StageMetrics
	states    map[string]StageState
	current   *ActionEvaluation
}

// NewSession creates a session for one action config. The config is treated
// as read-only and may be shared with other sessions.
func NewSession(e *Evaluator, cfg *rules.ActionConfig) *Session {
	states := make(map[string]StageState, len(cfg.Stages))
	for i := range cfg.Stages {
		states[cfg.Stages[i].Name] = StagePending
	}
	return &Session{
		evaluator: e,
		config:    cfg,
		metrics:   make(StageMetrics),
		states:    states,
	}
}

// UpdateStage records fresh metrics for one stage and incrementally
// re-evaluates it. Metrics for a stage name not present in the config are
// accepted but ignored by evaluation, matching the evaluator's contract.
func (s *Session) UpdateStage(name string, stageMetrics map[string]MeasurementInput) *ActionEvaluation {
	s.metrics[name] = stageMetrics
	if _, ok := s.states[name]; ok {
		s.states[name] = StageEvaluated
	}
	s.current = s.evaluator.EvaluateActionIncremental(s.current, []string{name}, s.metrics, s.config)
	return s.current
}

// Evaluate runs a full evaluation over everything received so far and
// replaces the session's current snapshot.
func (s *Session) Evaluate() *ActionEvaluation {
	s.current = s.evaluator.EvaluateAction(s.metrics, s.config)
	for name := range s.metrics {
		if _, ok := s.states[name]; ok {
			s.states[name] = StageEvaluated
		}
	}
	return s.current
}

// Current returns the latest evaluation snapshot, nil before the first
// update.
func (s *Session) Current() *ActionEvaluation {
	return s.current
}

// StageStates returns a copy of the per-stage states.
func (s *Session) StageStates() map[string]StageState {
	out := make(map[string]StageState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// State reports whether every configured stage has been evaluated.
func (s *Session) State() SessionState {
	for _, st := range s.states {
		if st == StagePending {
			return SessionIncomplete
		}
	}
	return SessionComplete
}
