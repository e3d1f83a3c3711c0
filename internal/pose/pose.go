// Package pose provides the keypoint and pose model consumed by the measurement engine.
package pose

// Body part identifiers following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = "nose"
	LeftShoulder   = "left_shoulder"
	RightShoulder  = "right_shoulder"
	LeftElbow      = "left_elbow"
	RightElbow     = "right_elbow"
	LeftWrist      = "left_wrist"
	RightWrist     = "right_wrist"
	LeftHip        = "left_hip"
	RightHip       = "right_hip"
	LeftKnee       = "left_knee"
	RightKnee      = "right_knee"
	LeftAnkle      = "left_ankle"
	RightAnkle     = "right_ankle"
	LeftHeel       = "left_heel"
	RightHeel      = "right_heel"
	LeftFootIndex  = "left_foot_index"
	RightFootIndex = "right_foot_index"
)

// Keypoint represents a single detected body landmark in image or normalized
// space. Y grows downward (image convention), so smaller Y means higher up.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

// Pose represents the detected body landmarks of one video frame.
// Parts absent from Points were not detected in that frame.
type Pose struct {
	FrameIndex int                 `json:"frame_index"`
	Points     map[string]Keypoint `json:"points"`
}

// New creates an empty Pose for the given frame.
func New(frameIndex int) *Pose {
	return &Pose{
		FrameIndex: frameIndex,
		Points:     make(map[string]Keypoint),
	}
}

// Set records a detected keypoint under the given part name and returns the
// pose for chaining when building fixtures.
func (p *Pose) Set(part string, kp Keypoint) *Pose {
	if p.Points == nil {
		p.Points = make(map[string]Keypoint)
	}
	p.Points[part] = kp
	return p
}

// Keypoint returns the keypoint detected for the given part name.
func (p *Pose) Keypoint(part string) (Keypoint, bool) {
	if p == nil || p.Points == nil {
		return Keypoint{}, false
	}
	kp, ok := p.Points[part]
	return kp, ok
}

// Has reports whether the given part was detected in this pose.
func (p *Pose) Has(part string) bool {
	_, ok := p.Keypoint(part)
	return ok
}
