package refine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
)

// CacheStore persists refined text keyed by a content hash of the full input
// payload. The store only ever sees one entry per distinct input, so a hit
// is observably equivalent to a fresh call.
type CacheStore interface {
	Get(key string) (string, bool, error)
	Put(key, refined string) error
}

// Cached wraps a refiner with a content-addressed result cache.
type Cached struct {
	inner Refiner
	store CacheStore
}

// NewCached wraps the given refiner with the cache store.
func NewCached(inner Refiner, store CacheStore) *Cached {
	return &Cached{inner: inner, store: store}
}

// CacheKey derives the deterministic cache key for a refinement input: the
// SHA-256 of the JSON payload over text, locale and style.
func CacheKey(text, locale, style string) string {
	payload, _ := json.Marshal(refineRequest{Text: text, Locale: locale, Style: style})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Refine serves a cached result when present, otherwise delegates and caches
// the outcome. Cache failures are logged and treated as misses.
func (c *Cached) Refine(ctx context.Context, text, locale, style string) (string, error) {
	key := CacheKey(text, locale, style)

	if cached, ok, err := c.store.Get(key); err != nil {
		log.Printf("refinement cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	refined, err := c.inner.Refine(ctx, text, locale, style)
	if err != nil {
		return refined, err
	}

	if err := c.store.Put(key, refined); err != nil {
		log.Printf("refinement cache write failed: %v", err)
	}
	return refined, nil
}

// Available delegates to the wrapped refiner.
func (c *Cached) Available() bool { return c.inner.Available() }

// ReasonUnavailable delegates to the wrapped refiner.
func (c *Cached) ReasonUnavailable() string { return c.inner.ReasonUnavailable() }
