// Package feedback renders evaluation results into localized natural-language
// strings. It is purely presentational: nothing here reads or writes scores.
package feedback

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/ayusman/clearform/internal/rules"
)

//go:embed locales/*.json
var localeFS embed.FS

// BaseLocale is the deterministic fallback when a requested locale or
// message is missing.
const BaseLocale = "en"

// Category buckets a score for summary selection.
type Category string

const (
	CategoryGood  Category = "good"
	CategoryMixed Category = "mixed"
	CategoryPoor  Category = "poor"
)

// Categorize maps a score (or a score ratio) to its feedback category.
// A nil score is indeterminate, not failing, and maps to mixed.
func Categorize(score *float64) Category {
	if score == nil {
		return CategoryMixed
	}
	switch {
	case *score >= 0.8:
		return CategoryGood
	case *score >= 0.4:
		return CategoryMixed
	default:
		return CategoryPoor
	}
}

// Generator renders localized feedback from go-i18n message bundles.
type Generator struct {
	bundle *i18n.Bundle
}

// NewGenerator loads the embedded locale bundles. It fails only if the
// embedded files are unparseable, which is a build defect.
func NewGenerator() (*Generator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locale bundles: %w", err)
	}
	for _, entry := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", entry.Name(), err)
		}
	}

	return &Generator{bundle: bundle}, nil
}

// Measurement renders feedback for one measurement result. Passed
// measurements get the pass template; failures with a known deviation get
// the deviation template carrying target and tolerance; everything else gets
// the generic fail template.
func (g *Generator) Measurement(locale string, m *rules.Measurement, value, deviation *float64, passed *bool) string {
	desc := m.Description.Get(locale, m.Key)
	advice := m.Advice.Get(locale, "")

	data := map[string]any{
		"Description": desc,
		"Advice":      advice,
		"Unit":        unitSuffix(m.Unit),
		"Value":       g.number(locale, value),
	}

	if passed != nil && *passed {
		return g.localize(locale, "measurement_pass", data)
	}
	if m.HasTarget() && deviation != nil {
		data["Deviation"] = g.number(locale, deviation)
		data["Target"] = g.number(locale, m.Target)
		data["Tolerance"] = g.number(locale, m.Tolerance)
		return g.localize(locale, "measurement_deviation", data)
	}
	return g.localize(locale, "measurement_fail", data)
}

// Stage renders stage-level feedback from the pass ratio of its
// measurements. With no measurements the ratio is undefined and the feedback
// is the empty string.
func (g *Generator) Stage(locale string, stage *rules.Stage, passedCount, total int) string {
	if total == 0 {
		return ""
	}
	ratio := float64(passedCount) / float64(total)
	data := map[string]any{
		"Stage":  stage.Description.Get(locale, stage.Name),
		"Passed": passedCount,
		"Total":  total,
	}
	return g.localize(locale, "stage_"+string(Categorize(&ratio)), data)
}

// Summary renders the top-level summary for an overall action score.
func (g *Generator) Summary(locale, actionName string, actionDesc rules.LocalizedText, score *float64) string {
	data := map[string]any{
		"Action": actionDesc.Get(locale, actionName),
	}
	return g.localize(locale, "summary_"+string(Categorize(score)), data)
}

// localize resolves a message in the requested locale, falling back to the
// base locale, then to the message id itself.
func (g *Generator) localize(locale, id string, data map[string]any) string {
	localizer := i18n.NewLocalizer(g.bundle, locale, BaseLocale)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// number formats an optional value for display; nil renders the localized
// missing-value marker.
func (g *Generator) number(locale string, v *float64) string {
	if v == nil {
		return g.localize(locale, "value_missing", nil)
	}
	return fmt.Sprintf("%.2f", *v)
}

// unitSuffix renders a display suffix for a unit, omitting the dimensionless
// ratio unit.
func unitSuffix(unit string) string {
	switch unit {
	case "", "ratio":
		return ""
	case "deg":
		return "°"
	default:
		return " " + unit
	}
}
