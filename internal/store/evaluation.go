package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/rules"
)

// StoredEvaluation is a persisted evaluation snapshot together with the
// config it was scored against.
type StoredEvaluation struct {
	ID         string
	Evaluation *evaluation.ActionEvaluation
	Config     *rules.ActionConfig
	CreatedAt  time.Time
}

// EvaluationRepository provides persistence for completed evaluations.
type EvaluationRepository struct {
	db *sql.DB
}

// Evaluations returns the evaluation repository for this store.
func (s *Store) Evaluations() *EvaluationRepository {
	return &EvaluationRepository{db: s.db}
}

// Create inserts a completed evaluation snapshot.
func (r *EvaluationRepository) Create(e *StoredEvaluation) error {
	data, err := json.Marshal(e.Evaluation)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}
	cfg, err := json.Marshal(e.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation config: %w", err)
	}

	e.CreatedAt = time.Now()

	var score any
	if e.Evaluation.Score != nil {
		score = *e.Evaluation.Score
	}

	_, err = r.db.Exec(
		`INSERT INTO evaluations (id, action_name, score, summary, language, data, config, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Evaluation.ActionName, score, e.Evaluation.Summary,
		e.Evaluation.Language, string(data), string(cfg), e.CreatedAt,
	)
	return err
}

// GetByID retrieves an evaluation snapshot by its ID.
func (r *EvaluationRepository) GetByID(id string) (*StoredEvaluation, error) {
	row := r.db.QueryRow(
		`SELECT id, data, config, created_at FROM evaluations WHERE id = ?`, id)
	return scanEvaluation(row)
}

// ListByAction retrieves evaluation snapshots for one action, newest first.
func (r *EvaluationRepository) ListByAction(actionName string) ([]*StoredEvaluation, error) {
	rows, err := r.db.Query(
		`SELECT id, data, config, created_at FROM evaluations
		 WHERE action_name = ? ORDER BY created_at DESC`, actionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvaluations(rows)
}

// List retrieves all evaluation snapshots, newest first.
func (r *EvaluationRepository) List() ([]*StoredEvaluation, error) {
	rows, err := r.db.Query(
		`SELECT id, data, config, created_at FROM evaluations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvaluations(rows)
}

func collectEvaluations(rows *sql.Rows) ([]*StoredEvaluation, error) {
	var evals []*StoredEvaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

func scanEvaluation(row scanner) (*StoredEvaluation, error) {
	e := &StoredEvaluation{}
	var data, cfg string

	err := row.Scan(&e.ID, &data, &cfg, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ev := &evaluation.ActionEvaluation{}
	if err := json.Unmarshal([]byte(data), ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation %s: %w", e.ID, err)
	}
	e.Evaluation = ev

	c := &rules.ActionConfig{}
	if err := json.Unmarshal([]byte(cfg), c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config of evaluation %s: %w", e.ID, err)
	}
	e.Config = c

	return e, nil
}
