package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ayusman/clearform/internal/pose"
	"github.com/ayusman/clearform/internal/rules"
)

// Handler computes one measurement type. The engine resolves and checks the
// rule's required keypoints before dispatching, so handlers may assume every
// part named by the rule is present in the pose.
type Handler func(p *pose.Pose, m *rules.Measurement) Value

// Engine computes raw measurement values from poses. Handlers are registered
// per measurement type, so new types can be added without touching the
// built-in geometry.
type Engine struct {
	handlers map[rules.MeasurementType]Handler
}

// NewEngine creates an engine with the built-in measurement types registered.
func NewEngine() *Engine {
	e := &Engine{handlers: make(map[rules.MeasurementType]Handler)}
	e.Register(rules.TypeAngle, computeAngle)
	e.Register(rules.TypeDistance, computeDistance)
	e.Register(rules.TypeHeight, computeHeight)
	e.Register(rules.TypeVerticalDistance, computeVerticalDistance)
	e.Register(rules.TypeHorizontalDistance, computeHorizontalDistance)
	return e
}

// Register adds or replaces the handler for a measurement type.
func (e *Engine) Register(t rules.MeasurementType, h Handler) {
	if t == "" || h == nil {
		return
	}
	e.handlers[t] = h
}

// Compute evaluates one measurement rule over a pose. It never panics:
// rules that name too few keypoints for their type yield an invalid status,
// missing keypoints yield a missing status listing the absent part names,
// degenerate geometry and unknown types yield an invalid status.
func (e *Engine) Compute(p *pose.Pose, m *rules.Measurement) Value {
	if note, ok := checkArity(m); !ok {
		return Value{
			Unit:   m.Unit,
			Status: StatusInvalid,
			Notes:  []string{note},
		}
	}

	if missing := missingKeypoints(p, m.RequiredKeypoints()); len(missing) > 0 {
		return Value{
			Unit:   m.Unit,
			Status: StatusMissing,
			Notes:  []string{fmt.Sprintf("missing keypoints: %s", joinSorted(missing))},
		}
	}

	handler, ok := e.handlers[m.Type]
	if !ok {
		return Value{
			Unit:   m.Unit,
			Status: StatusInvalid,
			Notes:  []string{fmt.Sprintf("unsupported measurement type %q", m.Type)},
		}
	}
	return handler(p, m)
}

// ComputeStage runs every measurement rule of the stage over the pose and
// collects the full set of missing keypoint names referenced by the stage.
func (e *Engine) ComputeStage(stage *rules.Stage, p *pose.Pose, frameIndex int) StageResult {
	start := time.Now()

	result := StageResult{
		StageName:    stage.Name,
		FrameIndex:   frameIndex,
		Measurements: make(map[string]Value, len(stage.Measurements)),
	}

	missingSet := make(map[string]bool)
	for i := range stage.Measurements {
		m := &stage.Measurements[i]
		result.Measurements[m.Key] = e.Compute(p, m)
		for _, part := range missingKeypoints(p, m.RequiredKeypoints()) {
			missingSet[part] = true
		}
	}

	for part := range missingSet {
		result.MissingKeypoints = append(result.MissingKeypoints, part)
	}
	sort.Strings(result.MissingKeypoints)

	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return result
}

// ComputeAction runs ComputeStage for every configured stage that has a pose
// in stagePoses. Stages without a pose are silently skipped.
func (e *Engine) ComputeAction(cfg *rules.ActionConfig, stagePoses map[string]*pose.Pose) ActionResult {
	result := ActionResult{
		ActionName: cfg.ActionName,
		Stages:     make(map[string]StageResult, len(stagePoses)),
	}
	for i := range cfg.Stages {
		stage := &cfg.Stages[i]
		p, ok := stagePoses[stage.Name]
		if !ok || p == nil {
			continue
		}
		result.Stages[stage.Name] = e.ComputeStage(stage, p, p.FrameIndex)
	}
	return result
}

// checkArity verifies the rule names enough keypoints for its measurement
// type, so the built-in handlers can index the keypoint list directly. The
// validator reports the same defects as warnings; this check is what keeps a
// misconfigured rule from ever reaching a handler.
func checkArity(m *rules.Measurement) (string, bool) {
	need := 0
	needsRef := false
	switch m.Type {
	case rules.TypeAngle:
		need = 3
	case rules.TypeDistance:
		need = 2
	case rules.TypeHeight, rules.TypeVerticalDistance, rules.TypeHorizontalDistance:
		need = 1
		needsRef = true
	}
	if len(m.Keypoints) < need {
		return fmt.Sprintf("%s requires %d keypoints, got %d", m.Type, need, len(m.Keypoints)), false
	}
	if needsRef && m.ReferencePoint == "" {
		return fmt.Sprintf("%s requires a reference_point", m.Type), false
	}
	return "", true
}

// missingKeypoints returns the required part names absent from the pose.
func missingKeypoints(p *pose.Pose, required []string) []string {
	var missing []string
	for _, part := range required {
		if !p.Has(part) {
			missing = append(missing, part)
		}
	}
	return missing
}

// joinSorted renders part names in a deterministic order for notes.
func joinSorted(parts []string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// computeAngle measures the angle in degrees at the vertex (second keypoint)
// between the segments toward the first and third keypoints, in [0, 180].
func computeAngle(p *pose.Pose, m *rules.Measurement) Value {
	a, _ := p.Keypoint(m.Keypoints[0])
	vertex, _ := p.Keypoint(m.Keypoints[1])
	b, _ := p.Keypoint(m.Keypoints[2])

	v1x, v1y, v1z := a.X-vertex.X, a.Y-vertex.Y, a.Z-vertex.Z
	v2x, v2y, v2z := b.X-vertex.X, b.Y-vertex.Y, b.Z-vertex.Z

	n1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	n2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)
	if n1 == 0 || n2 == 0 {
		return Value{
			Unit:   m.Unit,
			Status: StatusInvalid,
			Notes:  []string{"zero-length vector at angle vertex"},
		}
	}

	cos := (v1x*v2x + v1y*v2y + v1z*v2z) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	angle := math.Acos(cos) * 180 / math.Pi

	return ok(angle, m.Unit)
}

// computeDistance measures the Euclidean distance between the first two
// keypoints.
func computeDistance(p *pose.Pose, m *rules.Measurement) Value {
	a, _ := p.Keypoint(m.Keypoints[0])
	b, _ := p.Keypoint(m.Keypoints[1])

	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return ok(math.Sqrt(dx*dx+dy*dy+dz*dz), m.Unit)
}

// computeHeight measures reference.y - target.y. Image space grows downward,
// so a positive value means the target sits above the reference.
func computeHeight(p *pose.Pose, m *rules.Measurement) Value {
	target, _ := p.Keypoint(m.Keypoints[0])
	ref, _ := p.Keypoint(m.ReferencePoint)
	return ok(ref.Y-target.Y, m.Unit)
}

// computeVerticalDistance is the height quantity with the sign flipped for
// direction down; up or unset leave it unchanged.
func computeVerticalDistance(p *pose.Pose, m *rules.Measurement) Value {
	target, _ := p.Keypoint(m.Keypoints[0])
	ref, _ := p.Keypoint(m.ReferencePoint)

	v := ref.Y - target.Y
	if m.Direction == rules.DirectionDown {
		v = -v
	}
	return ok(v, m.Unit)
}

// computeHorizontalDistance measures target.x - reference.x, flipped for
// back/backward, unchanged for forward, and absolute when no direction is
// configured.
func computeHorizontalDistance(p *pose.Pose, m *rules.Measurement) Value {
	target, _ := p.Keypoint(m.Keypoints[0])
	ref, _ := p.Keypoint(m.ReferencePoint)

	v := target.X - ref.X
	switch m.Direction {
	case rules.DirectionBack, rules.DirectionBackward:
		v = -v
	case rules.DirectionForward:
		// keep sign
	default:
		v = math.Abs(v)
	}
	return ok(v, m.Unit)
}

func ok(v float64, unit string) Value {
	return Value{Value: &v, Unit: unit, Status: StatusOK}
}
