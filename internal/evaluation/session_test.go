package evaluation

import (
	"reflect"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	e := newEvaluator(t)
	cfg := twoStageConfig()
	s := NewSession(e, cfg)

	if s.Current() != nil {
		t.Error("current must be nil before the first update")
	}
	if s.State() != SessionIncomplete {
		t.Errorf("state = %s, want incomplete", s.State())
	}

	perfect := perfectMetrics()

	result := s.UpdateStage("backswing", perfect["backswing"])
	if s.State() != SessionIncomplete {
		t.Errorf("state = %s, want incomplete with power pending", s.State())
	}
	states := s.StageStates()
	if states["backswing"] != StageEvaluated || states["power"] != StagePending {
		t.Errorf("stage states = %v", states)
	}

	backswing, _ := result.Stage("backswing")
	if backswing.Score == nil || *backswing.Score != 1.0 {
		t.Errorf("backswing score = %v, want 1.0", backswing.Score)
	}
	power, _ := result.Stage("power")
	if power.Score != nil {
		t.Errorf("power score = %v, want nil before metrics arrive", *power.Score)
	}

	result = s.UpdateStage("power", perfect["power"])
	if s.State() != SessionComplete {
		t.Errorf("state = %s, want complete", s.State())
	}
	if result.Score == nil || *result.Score != 1.0 {
		t.Errorf("overall score = %v, want 1.0", result.Score)
	}

	// The complete incremental session matches a single full evaluation.
	full := e.EvaluateAction(perfect, cfg)
	if !reflect.DeepEqual(result, full) {
		t.Errorf("session result differs from full evaluation:\n%+v\nvs\n%+v", result, full)
	}
}

func TestSessionUpdateReplacesStageMetrics(t *testing.T) {
	e := newEvaluator(t)
	cfg := twoStageConfig()
	s := NewSession(e, cfg)

	s.UpdateStage("power", map[string]MeasurementInput{
		"arm_extension":  {Value: f64(135)},
		"contact_height": {Value: f64(10)},
	})

	// A second pass over the same stage is recomputed from the new values.
	result := s.UpdateStage("power", perfectMetrics()["power"])
	power, _ := result.Stage("power")
	if power.Score == nil || *power.Score != 1.0 {
		t.Errorf("power score = %v, want 1.0 after corrected metrics", power.Score)
	}
}

func TestSessionUnknownStage(t *testing.T) {
	e := newEvaluator(t)
	cfg := twoStageConfig()
	s := NewSession(e, cfg)

	before := s.StageStates()
	s.UpdateStage("follow_through", map[string]MeasurementInput{
		"wrist_snap": {Value: f64(1)},
	})

	if !reflect.DeepEqual(before, s.StageStates()) {
		t.Error("unknown stage must not change configured stage states")
	}
	if s.State() != SessionIncomplete {
		t.Errorf("state = %s, want incomplete", s.State())
	}
}

func TestSessionEvaluate(t *testing.T) {
	e := newEvaluator(t)
	cfg := twoStageConfig()
	s := NewSession(e, cfg)

	perfect := perfectMetrics()
	s.UpdateStage("backswing", perfect["backswing"])
	s.UpdateStage("power", perfect["power"])

	full := s.Evaluate()
	if !reflect.DeepEqual(full, s.Current()) {
		t.Error("Evaluate must replace the current snapshot")
	}
	if full.Score == nil || *full.Score != 1.0 {
		t.Errorf("overall score = %v, want 1.0", full.Score)
	}
}
