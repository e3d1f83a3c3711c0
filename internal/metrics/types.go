// Package metrics provides the measurement engine that computes raw
// biomechanical values from pose keypoints according to measurement rules.
package metrics

// Status reports the outcome of a single measurement computation.
type Status string

const (
	// StatusOK means the value was computed.
	StatusOK Status = "ok"
	// StatusMissing means a required keypoint was not detected in the pose.
	StatusMissing Status = "missing"
	// StatusInvalid means the input was geometrically degenerate or the
	// measurement type is not supported.
	StatusInvalid Status = "invalid"
)

// Value is the result of computing one measurement rule over one pose.
// Value is nil unless Status is ok.
type Value struct {
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit,omitempty"`
	Status Status   `json:"status"`
	Notes  []string `json:"notes,omitempty"`
}

// StageResult holds the measurements of one stage computed over one frame.
// MissingKeypoints lists every part name referenced anywhere in the stage
// that the pose did not contain, independent of per-rule status, for
// diagnostics.
type StageResult struct {
	StageName        string           `json:"stage_name"`
	FrameIndex       int              `json:"frame_index"`
	Measurements     map[string]Value `json:"measurements"`
	MissingKeypoints []string         `json:"missing_keypoints,omitempty"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
}

// ActionResult holds the stage results of one action computation, keyed by
// stage name. Stages without a provided pose are absent.
type ActionResult struct {
	ActionName string                 `json:"action_name"`
	Stages     map[string]StageResult `json:"stages"`
}
