// Package rules provides the hierarchical evaluation configuration model:
// an action is split into weighted stages, each stage into weighted
// biomechanical measurements computed from named skeletal keypoints.
package rules

// MeasurementType identifies the geometric quantity a measurement computes.
type MeasurementType string

const (
	// TypeAngle is the angle at a vertex between two limb segments, in degrees.
	TypeAngle MeasurementType = "angle"
	// TypeDistance is the Euclidean distance between two keypoints.
	TypeDistance MeasurementType = "distance"
	// TypeHeight is the signed vertical offset of a keypoint above a reference point.
	TypeHeight MeasurementType = "height"
	// TypeVerticalDistance is the height with an optional direction convention.
	TypeVerticalDistance MeasurementType = "vertical_distance"
	// TypeHorizontalDistance is the horizontal offset of a keypoint from a reference point.
	TypeHorizontalDistance MeasurementType = "horizontal_distance"
)

// Direction selects the sign convention for directional measurements.
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionForward  Direction = "forward"
	DirectionBack     Direction = "back"
	DirectionBackward Direction = "backward"
)

// LocalizedText maps a locale code to a display template.
type LocalizedText map[string]string

// Get resolves the text for the given locale, falling back to the base
// locale and then to the provided default.
func (t LocalizedText) Get(locale, fallback string) string {
	if s, ok := t[locale]; ok && s != "" {
		return s
	}
	if s, ok := t["en"]; ok && s != "" {
		return s
	}
	return fallback
}

// Band is a closed value interval used by the banded score strategy.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// ScoreBands holds nested quality bands. Excellent must be contained in
// Good, and Good in Acceptable; the validator enforces the containment.
type ScoreBands struct {
	Excellent  Band `json:"excellent"`
	Good       Band `json:"good"`
	Acceptable Band `json:"acceptable"`
}

// Measurement is the recipe for computing and scoring one biomechanical
// quantity. Key is the stable machine identifier used for metric lookup and
// incremental diffing; Description carries the locale-dependent display name.
type Measurement struct {
	Key            string          `json:"key"`
	Type           MeasurementType `json:"measurement_type"`
	Keypoints      []string        `json:"keypoints"`
	ReferencePoint string          `json:"reference_point,omitempty"`
	Direction      Direction       `json:"direction,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Target         *float64        `json:"target,omitempty"`
	Tolerance      *float64        `json:"tolerance,omitempty"`
	MinValue       *float64        `json:"min_value,omitempty"`
	MaxValue       *float64        `json:"max_value,omitempty"`
	Weight         float64         `json:"weight"`
	ScoreStrategy  string          `json:"score_strategy,omitempty"`
	Bands          *ScoreBands     `json:"bands,omitempty"`
	Description    LocalizedText   `json:"description,omitempty"`
	Advice         LocalizedText   `json:"advice,omitempty"`
}

// HasTarget reports whether target/tolerance scoring criteria are configured.
func (m *Measurement) HasTarget() bool {
	return m.Target != nil && m.Tolerance != nil
}

// HasRange reports whether min/max scoring criteria are configured.
func (m *Measurement) HasRange() bool {
	return m.MinValue != nil && m.MaxValue != nil
}

// RequiredKeypoints returns every part name the measurement resolves against
// a pose, in rule order with the reference point last.
func (m *Measurement) RequiredKeypoints() []string {
	parts := make([]string, 0, len(m.Keypoints)+1)
	seen := make(map[string]bool, len(m.Keypoints)+1)
	for _, p := range m.Keypoints {
		if p != "" && !seen[p] {
			parts = append(parts, p)
			seen[p] = true
		}
	}
	if m.ReferencePoint != "" && !seen[m.ReferencePoint] {
		parts = append(parts, m.ReferencePoint)
	}
	return parts
}

// Stage groups the measurements of one movement phase with its weight in the
// overall action score.
type Stage struct {
	Name         string        `json:"name"`
	Measurements []Measurement `json:"measurements"`
	Weight       float64       `json:"weight"`
	Description  LocalizedText `json:"description,omitempty"`
	Advice       LocalizedText `json:"advice,omitempty"`
}

// Measurement returns the measurement with the given key, if configured.
func (s *Stage) Measurement(key string) (*Measurement, bool) {
	for i := range s.Measurements {
		if s.Measurements[i].Key == key {
			return &s.Measurements[i], true
		}
	}
	return nil, false
}

// ActionConfig is the full evaluation configuration for one technique.
// Configs are read-only at evaluation time and safe to share across calls.
type ActionConfig struct {
	ActionName    string        `json:"action_name"`
	Description   LocalizedText `json:"description,omitempty"`
	Stages        []Stage       `json:"stages"`
	Language      string        `json:"language,omitempty"`
	EnableScoring bool          `json:"enable_scoring"`
	EnableRefine  bool          `json:"enable_llm_refine"`
	RefineStyle   string        `json:"llm_style,omitempty"`
}

// Stage returns the configured stage with the given name, if any.
func (c *ActionConfig) Stage(name string) (*Stage, bool) {
	for i := range c.Stages {
		if c.Stages[i].Name == name {
			return &c.Stages[i], true
		}
	}
	return nil, false
}

// StageNames returns the configured stage names in config order.
func (c *ActionConfig) StageNames() []string {
	names := make([]string, len(c.Stages))
	for i := range c.Stages {
		names[i] = c.Stages[i].Name
	}
	return names
}
