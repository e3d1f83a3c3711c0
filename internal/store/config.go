package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/clearform/internal/rules"
)

// StoredConfig is a persisted action evaluation config.
type StoredConfig struct {
	ID        string
	Config    *rules.ActionConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfigRepository provides CRUD operations for evaluation configs.
type ConfigRepository struct {
	db *sql.DB
}

// Configs returns the config repository for this store.
func (s *Store) Configs() *ConfigRepository {
	return &ConfigRepository{db: s.db}
}

// Create inserts a new config. The action name must be unique.
func (r *ConfigRepository) Create(c *StoredConfig) error {
	data, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO configs (id, action_name, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Config.ActionName, string(data), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a config by its ID.
func (r *ConfigRepository) GetByID(id string) (*StoredConfig, error) {
	row := r.db.QueryRow(
		`SELECT id, data, created_at, updated_at FROM configs WHERE id = ?`, id)
	return scanConfig(row)
}

// GetByAction retrieves a config by its action name.
func (r *ConfigRepository) GetByAction(actionName string) (*StoredConfig, error) {
	row := r.db.QueryRow(
		`SELECT id, data, created_at, updated_at FROM configs WHERE action_name = ?`, actionName)
	return scanConfig(row)
}

// List retrieves all configs ordered by creation time.
func (r *ConfigRepository) List() ([]*StoredConfig, error) {
	rows, err := r.db.Query(
		`SELECT id, data, created_at, updated_at FROM configs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*StoredConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// Update replaces the config body of an existing config.
func (r *ConfigRepository) Update(c *StoredConfig) error {
	data, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	c.UpdatedAt = time.Now()
	result, err := r.db.Exec(
		`UPDATE configs SET action_name = ?, data = ?, updated_at = ? WHERE id = ?`,
		c.Config.ActionName, string(data), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a config by its ID.
func (r *ConfigRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM configs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (*StoredConfig, error) {
	c := &StoredConfig{}
	var data string

	err := row.Scan(&c.ID, &data, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cfg := &rules.ActionConfig{}
	if err := json.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", c.ID, err)
	}
	c.Config = cfg
	return c, nil
}
