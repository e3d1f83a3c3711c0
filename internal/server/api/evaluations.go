package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/clearform/internal/analyze"
	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/pose"
	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/store"
)

// EvaluationHandler handles evaluation runs: full, incremental, and
// pose-based analysis. Completed evaluations are persisted and published to
// the watch broadcaster.
type EvaluationHandler struct {
	store    *store.Store
	analyzer *analyze.Analyzer
	publish  func(any)
}

// NewEvaluationHandler creates a new EvaluationHandler. publish may be nil
// when no broadcaster is wired.
func NewEvaluationHandler(s *store.Store, a *analyze.Analyzer, publish func(any)) *EvaluationHandler {
	return &EvaluationHandler{store: s, analyzer: a, publish: publish}
}

// ServeHTTP routes evaluation collection, item, and incremental requests.
func (h *EvaluationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/evaluations, /api/evaluations/{id},
	// /api/evaluations/{id}/stages
	path := strings.TrimPrefix(r.URL.Path, "/api/evaluations")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/stages"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.reevaluate(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.get(w, r, path)
}

type createEvaluationRequest struct {
	ConfigID   string                  `json:"config_id,omitempty"`
	ActionName string                  `json:"action_name,omitempty"`
	Config     *rules.ActionConfig     `json:"config,omitempty"`
	Metrics    evaluation.StageMetrics `json:"metrics"`
}

type analyzeRequest struct {
	ConfigID      string                `json:"config_id,omitempty"`
	ActionName    string                `json:"action_name,omitempty"`
	Config        *rules.ActionConfig   `json:"config,omitempty"`
	UserPoses     map[string]*pose.Pose `json:"user_poses"`
	StandardPoses map[string]*pose.Pose `json:"standard_poses,omitempty"`
}

type reevaluateRequest struct {
	UpdatedStages []string                `json:"updated_stages"`
	Metrics       evaluation.StageMetrics `json:"metrics"`
}

type evaluationResponse struct {
	ID         string                       `json:"id"`
	Evaluation *evaluation.ActionEvaluation `json:"evaluation"`
	Warnings   []string                     `json:"warnings,omitempty"`
	CreatedAt  string                       `json:"created_at"`
}

type evaluationSummary struct {
	ID         string   `json:"id"`
	ActionName string   `json:"action_name"`
	Score      *float64 `json:"score"`
	Summary    string   `json:"summary"`
	CreatedAt  string   `json:"created_at"`
}

type listEvaluationsResponse struct {
	Evaluations []evaluationSummary `json:"evaluations"`
}

// resolveConfig picks the evaluation config: an inline config wins, then a
// config id, then an action-name lookup.
func (h *EvaluationHandler) resolveConfig(inline *rules.ActionConfig, configID, actionName string) (*rules.ActionConfig, error) {
	if inline != nil {
		return inline, nil
	}
	if configID != "" {
		c, err := h.store.Configs().GetByID(configID)
		if err != nil {
			return nil, err
		}
		return c.Config, nil
	}
	if actionName != "" {
		c, err := h.store.Configs().GetByAction(actionName)
		if err != nil {
			return nil, err
		}
		return c.Config, nil
	}
	return nil, store.ErrNotFound
}

// persist stores the evaluation, publishes it, and writes the response.
func (h *EvaluationHandler) persist(w http.ResponseWriter, cfg *rules.ActionConfig, result *evaluation.ActionEvaluation) {
	stored := &store.StoredEvaluation{
		ID:         uuid.New().String(),
		Evaluation: result,
		Config:     cfg,
	}
	if err := h.store.Evaluations().Create(stored); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store evaluation")
		return
	}

	if h.publish != nil {
		h.publish(evaluationSummary{
			ID:         stored.ID,
			ActionName: result.ActionName,
			Score:      result.Score,
			Summary:    result.Summary,
			CreatedAt:  stored.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusCreated, evaluationResponse{
		ID:         stored.ID,
		Evaluation: result,
		Warnings:   rules.Validate(cfg),
		CreatedAt:  stored.CreatedAt.Format(timeLayout),
	})
}

// create handles POST /api/evaluations: a full evaluation from metrics.
func (h *EvaluationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg, err := h.resolveConfig(req.Config, req.ConfigID, req.ActionName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to resolve config")
		return
	}

	result := h.analyzer.Evaluate(r.Context(), cfg, req.Metrics)
	h.persist(w, cfg, result)
}

// Analyze handles POST /api/analyze: evaluation straight from stage poses,
// with the standard video's measurements used as expected values.
func (h *EvaluationHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg, err := h.resolveConfig(req.Config, req.ConfigID, req.ActionName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to resolve config")
		return
	}

	result := h.analyzer.AnalyzePoses(r.Context(), cfg, req.UserPoses, req.StandardPoses)
	h.persist(w, cfg, result)
}

// reevaluate handles POST /api/evaluations/{id}/stages: incremental
// re-evaluation of the named stages against the stored snapshot's config.
// The result is stored as a new evaluation.
func (h *EvaluationHandler) reevaluate(w http.ResponseWriter, r *http.Request, id string) {
	previous, err := h.store.Evaluations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evaluation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get evaluation")
		return
	}

	var req reevaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result := h.analyzer.EvaluateIncremental(
		r.Context(), previous.Config, previous.Evaluation, req.UpdatedStages, req.Metrics)
	h.persist(w, previous.Config, result)
}

// get handles GET /api/evaluations/{id}.
func (h *EvaluationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.store.Evaluations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evaluation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get evaluation")
		return
	}

	writeJSON(w, http.StatusOK, evaluationResponse{
		ID:         e.ID,
		Evaluation: e.Evaluation,
		CreatedAt:  e.CreatedAt.Format(timeLayout),
	})
}

// list handles GET /api/evaluations with an optional action filter.
func (h *EvaluationHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		evals []*store.StoredEvaluation
		err   error
	)
	if action := r.URL.Query().Get("action"); action != "" {
		evals, err = h.store.Evaluations().ListByAction(action)
	} else {
		evals, err = h.store.Evaluations().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list evaluations")
		return
	}

	response := listEvaluationsResponse{
		Evaluations: make([]evaluationSummary, 0, len(evals)),
	}
	for _, e := range evals {
		response.Evaluations = append(response.Evaluations, evaluationSummary{
			ID:         e.ID,
			ActionName: e.Evaluation.ActionName,
			Score:      e.Evaluation.Score,
			Summary:    e.Evaluation.Summary,
			CreatedAt:  e.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
