package refine

import (
	"context"
	"log"
	"time"
)

// Safe wraps a refiner so that refinement can never fail or block the
// scoring pipeline: it applies a timeout, and on any error, timeout or
// unavailability it returns the original text unchanged.
type Safe struct {
	inner   Refiner
	timeout time.Duration
}

// NewSafe wraps the given refiner with a per-call timeout. A nil inner
// refiner behaves as disabled.
func NewSafe(inner Refiner, timeout time.Duration) *Safe {
	if inner == nil {
		inner = Noop{}
	}
	return &Safe{inner: inner, timeout: timeout}
}

// Refine returns the refined text, or the original text when the inner
// refiner is unavailable, errors, or exceeds the timeout.
func (s *Safe) Refine(ctx context.Context, text, locale, style string) string {
	if !s.inner.Available() {
		return text
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	refined, err := s.inner.Refine(ctx, text, locale, style)
	if err != nil {
		log.Printf("refinement failed, keeping original text: %v", err)
		return text
	}
	if refined == "" {
		return text
	}
	return refined
}
