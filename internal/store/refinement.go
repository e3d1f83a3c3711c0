package store

import (
	"database/sql"
	"errors"
)

// RefinementCacheRepository persists refined feedback text keyed by the
// content hash of its input payload. It implements refine.CacheStore.
type RefinementCacheRepository struct {
	db *sql.DB
}

// RefinementCache returns the refinement cache repository for this store.
func (s *Store) RefinementCache() *RefinementCacheRepository {
	return &RefinementCacheRepository{db: s.db}
}

// Get returns the cached refined text for a key, if present.
func (r *RefinementCacheRepository) Get(key string) (string, bool, error) {
	var refined string
	err := r.db.QueryRow(
		`SELECT refined FROM refinement_cache WHERE key = ?`, key).Scan(&refined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return refined, true, nil
}

// Put stores the refined text for a key. The key is a hash of the full
// input, so replacing an existing row always writes the same value.
func (r *RefinementCacheRepository) Put(key, refined string) error {
	_, err := r.db.Exec(
		`INSERT INTO refinement_cache (key, refined) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET refined = excluded.refined`,
		key, refined,
	)
	return err
}
