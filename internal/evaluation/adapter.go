package evaluation

import "github.com/ayusman/clearform/internal/metrics"

// FromActionResult converts measurement engine output into the evaluator's
// typed input shape. Measurements that did not produce a value carry a nil
// Value and evaluate as missing data.
func FromActionResult(res metrics.ActionResult) StageMetrics {
	out := make(StageMetrics, len(res.Stages))
	for stageName, stage := range res.Stages {
		keys := make(map[string]MeasurementInput, len(stage.Measurements))
		for key, v := range stage.Measurements {
			keys[key] = MeasurementInput{Value: v.Value}
		}
		out[stageName] = keys
	}
	return out
}

// WithExpected fills the Expected field of the user's metrics from the
// values measured on the reference (standard) video, for rules that score
// against the reference rather than a configured target.
func WithExpected(user, standard StageMetrics) StageMetrics {
	out := make(StageMetrics, len(user))
	for stageName, stage := range user {
		keys := make(map[string]MeasurementInput, len(stage))
		for key, in := range stage {
			if ref, ok := standard[stageName][key]; ok && in.Expected == nil {
				in.Expected = ref.Value
			}
			keys[key] = in
		}
		out[stageName] = keys
	}
	return out
}
