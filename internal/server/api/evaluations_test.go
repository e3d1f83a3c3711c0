package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/store"
)

func f64(v float64) *float64 { return &v }

func singleStageConfig() *rules.ActionConfig {
	return &rules.ActionConfig{
		ActionName:    "forehand_clear",
		Language:      "en",
		EnableScoring: true,
		Stages: []rules.Stage{
			{
				Name:   "power",
				Weight: 1.0,
				Measurements: []rules.Measurement{
					{
						Key:       "impact_arm_extension",
						Type:      rules.TypeAngle,
						Keypoints: []string{"right_shoulder", "right_elbow", "right_wrist"},
						Unit:      "deg",
						Target:    f64(165),
						Tolerance: f64(10),
						Weight:    1.0,
					},
				},
			},
		},
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateEvaluationInlineConfig(t *testing.T) {
	st := newTestStore(t)
	var published []any
	h := NewEvaluationHandler(st, newTestAnalyzer(t), func(e any) { published = append(published, e) })

	w := postJSON(t, h, "/api/evaluations", map[string]any{
		"config": singleStageConfig(),
		"metrics": evaluation.StageMetrics{
			"power": {"impact_arm_extension": {Value: f64(167)}},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp evaluationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response missing id")
	}
	if resp.Evaluation.Score == nil || *resp.Evaluation.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", resp.Evaluation.Score)
	}
	if len(published) != 1 {
		t.Errorf("published events = %d, want 1", len(published))
	}

	// The evaluation is retrievable afterwards.
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/"+resp.ID, nil)
	get := httptest.NewRecorder()
	h.ServeHTTP(get, req)
	if get.Code != http.StatusOK {
		t.Errorf("get status = %d", get.Code)
	}
}

func TestCreateEvaluationByActionName(t *testing.T) {
	st := newTestStore(t)
	if err := st.Configs().Create(&store.StoredConfig{
		ID:     uuid.New().String(),
		Config: singleStageConfig(),
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	h := NewEvaluationHandler(st, newTestAnalyzer(t), nil)

	w := postJSON(t, h, "/api/evaluations", map[string]any{
		"action_name": "forehand_clear",
		"metrics": evaluation.StageMetrics{
			"power": {"impact_arm_extension": {Value: f64(140)}},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp evaluationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	// Deviation 25 with tolerance 10 lands on the ramp below full score.
	if resp.Evaluation.Score == nil || *resp.Evaluation.Score >= 1.0 {
		t.Errorf("score = %v, want ramped below 1.0", resp.Evaluation.Score)
	}
}

func TestCreateEvaluationConfigNotFound(t *testing.T) {
	h := NewEvaluationHandler(newTestStore(t), newTestAnalyzer(t), nil)

	w := postJSON(t, h, "/api/evaluations", map[string]any{
		"action_name": "no_such_action",
		"metrics":     evaluation.StageMetrics{},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestReevaluateStages(t *testing.T) {
	st := newTestStore(t)
	h := NewEvaluationHandler(st, newTestAnalyzer(t), nil)

	created := postJSON(t, h, "/api/evaluations", map[string]any{
		"config": singleStageConfig(),
		"metrics": evaluation.StageMetrics{
			"power": {"impact_arm_extension": {Value: f64(130)}},
		},
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d", created.Code)
	}
	var first evaluationResponse
	if err := json.Unmarshal(created.Body.Bytes(), &first); err != nil {
		t.Fatalf("invalid response: %v", err)
	}

	// Re-evaluate the power stage with corrected metrics against the stored
	// config snapshot.
	w := postJSON(t, h, "/api/evaluations/"+first.ID+"/stages", map[string]any{
		"updated_stages": []string{"power"},
		"metrics": evaluation.StageMetrics{
			"power": {"impact_arm_extension": {Value: f64(165)}},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var second evaluationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if second.ID == first.ID {
		t.Error("re-evaluation must store a new snapshot")
	}
	if second.Evaluation.Score == nil || *second.Evaluation.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 after correction", second.Evaluation.Score)
	}
}

func TestReevaluateMissingEvaluation(t *testing.T) {
	h := NewEvaluationHandler(newTestStore(t), newTestAnalyzer(t), nil)

	w := postJSON(t, h, "/api/evaluations/"+uuid.New().String()+"/stages", map[string]any{
		"updated_stages": []string{"power"},
		"metrics":        evaluation.StageMetrics{},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListEvaluationsFilter(t *testing.T) {
	st := newTestStore(t)
	h := NewEvaluationHandler(st, newTestAnalyzer(t), nil)

	if w := postJSON(t, h, "/api/evaluations", map[string]any{
		"config":  singleStageConfig(),
		"metrics": evaluation.StageMetrics{},
	}); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	t.Run("all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/evaluations", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp listEvaluationsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if len(resp.Evaluations) != 1 {
			t.Errorf("evaluations = %d, want 1", len(resp.Evaluations))
		}
	})

	t.Run("filtered by action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/evaluations?action=backhand_clear", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		var resp listEvaluationsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if len(resp.Evaluations) != 0 {
			t.Errorf("evaluations = %d, want 0", len(resp.Evaluations))
		}
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	st := newTestStore(t)
	h := NewEvaluationHandler(st, newTestAnalyzer(t), nil)

	body := map[string]any{
		"config": singleStageConfig(),
		"user_poses": map[string]any{
			"power": map[string]any{
				"frame_index": 58,
				"points": map[string]any{
					"right_shoulder": map[string]any{"x": 0.50, "y": 0.45, "confidence": 0.95},
					"right_elbow":    map[string]any{"x": 0.54, "y": 0.28, "confidence": 0.93},
					"right_wrist":    map[string]any{"x": 0.56, "y": 0.05, "confidence": 0.90},
				},
			},
		},
	}

	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(string(data)))
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp evaluationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	// The pose extends the arm to about 172 degrees, inside tolerance.
	if resp.Evaluation.Score == nil || *resp.Evaluation.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", resp.Evaluation.Score)
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	h := NewEvaluationHandler(newTestStore(t), newTestAnalyzer(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	w := httptest.NewRecorder()
	h.Analyze(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
