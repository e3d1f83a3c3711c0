package evaluation

import (
	"testing"

	"github.com/ayusman/clearform/internal/metrics"
)

func TestFromActionResult(t *testing.T) {
	res := metrics.ActionResult{
		ActionName: "forehand_clear",
		Stages: map[string]metrics.StageResult{
			"power": {
				StageName: "power",
				Measurements: map[string]metrics.Value{
					"arm_extension":  {Value: f64(170), Unit: "deg", Status: metrics.StatusOK},
					"contact_height": {Status: metrics.StatusMissing},
				},
			},
		},
	}

	m := FromActionResult(res)

	power, ok := m["power"]
	if !ok {
		t.Fatal("power stage not converted")
	}
	if got := power["arm_extension"].Value; got == nil || *got != 170 {
		t.Errorf("arm_extension value = %v, want 170", got)
	}
	if got, ok := power["contact_height"]; !ok || got.Value != nil {
		t.Errorf("contact_height = %+v, want present with nil value", got)
	}
}

func TestWithExpected(t *testing.T) {
	user := StageMetrics{
		"power": {
			"arm_extension":  {Value: f64(150)},
			"contact_height": {Value: f64(0.2), Expected: f64(0.3)},
		},
	}
	standard := StageMetrics{
		"power": {
			"arm_extension": {Value: f64(168)},
			// contact_height measured on the reference too
			"contact_height": {Value: f64(0.28)},
		},
	}

	got := WithExpected(user, standard)

	if e := got["power"]["arm_extension"].Expected; e == nil || *e != 168 {
		t.Errorf("arm_extension expected = %v, want 168 from the reference", e)
	}
	// An explicitly supplied expected value is never overwritten.
	if e := got["power"]["contact_height"].Expected; e == nil || *e != 0.3 {
		t.Errorf("contact_height expected = %v, want 0.3", e)
	}
	// The input map is not mutated.
	if user["power"]["arm_extension"].Expected != nil {
		t.Error("WithExpected mutated its input")
	}
}

func TestWithExpected_NoReferenceStage(t *testing.T) {
	user := StageMetrics{
		"setup": {"stance_width": {Value: f64(0.2)}},
	}

	got := WithExpected(user, StageMetrics{})
	if e := got["setup"]["stance_width"].Expected; e != nil {
		t.Errorf("expected = %v, want nil without reference data", e)
	}
}
