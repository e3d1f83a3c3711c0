// Package refine provides the optional feedback-text refinement boundary.
// Refiners only ever transform strings; they can never change a score or a
// pass/fail result, and every failure path falls back to the original text.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Refiner polishes a feedback string for a locale and style. Implementations
// expose an explicit capability check so callers can make deliberate
// fallback decisions instead of probing with errors.
type Refiner interface {
	Refine(ctx context.Context, text, locale, style string) (string, error)
	Available() bool
	ReasonUnavailable() string
}

// Noop is the disabled mode: an identity refiner.
type Noop struct{}

// Refine returns the text unchanged.
func (Noop) Refine(ctx context.Context, text, locale, style string) (string, error) {
	return text, nil
}

// Available always reports true; identity refinement cannot fail.
func (Noop) Available() bool { return true }

// ReasonUnavailable returns the empty string.
func (Noop) ReasonUnavailable() string { return "" }

// Local is the deterministic offline mode: it enriches the text
// structurally, adding a header and a clearly marked note, without calling
// any network service.
type Local struct{}

// Refine wraps the text under a localized header. The output is a pure
// function of the input.
func (Local) Refine(ctx context.Context, text, locale, style string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	header := "Coaching notes"
	note := "Generated locally without language-model refinement."
	if locale == "zh" {
		header = "教练点评"
		note = "本内容为本地生成，未经语言模型润色。"
	}
	if style != "" {
		header = fmt.Sprintf("%s (%s)", header, style)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n[%s]", header, strings.Repeat("-", len(header)), text, note), nil
}

// Available always reports true; the local path has no external dependency.
func (Local) Available() bool { return true }

// ReasonUnavailable returns the empty string.
func (Local) ReasonUnavailable() string { return "" }

// HTTP calls an external refinement service: POST {text, locale, style},
// expecting {refined} back.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates an HTTP refiner for the given endpoint. An empty endpoint
// produces a refiner that reports itself unavailable.
func NewHTTP(endpoint string, timeout time.Duration) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type refineRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
	Style  string `json:"style,omitempty"`
}

type refineResponse struct {
	Refined string `json:"refined"`
}

// Refine posts the text to the refinement service.
func (h *HTTP) Refine(ctx context.Context, text, locale, style string) (string, error) {
	if !h.Available() {
		return text, fmt.Errorf("refinement service unavailable: %s", h.ReasonUnavailable())
	}

	body, err := json.Marshal(refineRequest{Text: text, Locale: locale, Style: style})
	if err != nil {
		return text, fmt.Errorf("failed to marshal refinement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return text, fmt.Errorf("failed to build refinement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return text, fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return text, fmt.Errorf("refinement service returned status %d", resp.StatusCode)
	}

	var parsed refineResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return text, fmt.Errorf("failed to parse refinement response: %w", err)
	}
	if parsed.Refined == "" {
		return text, nil
	}
	return parsed.Refined, nil
}

// Available reports whether an endpoint is configured.
func (h *HTTP) Available() bool { return h.endpoint != "" }

// ReasonUnavailable explains a false Available.
func (h *HTTP) ReasonUnavailable() string {
	if h.endpoint == "" {
		return "no refinement endpoint configured"
	}
	return ""
}
