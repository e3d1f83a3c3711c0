package rules

import "github.com/ayusman/clearform/internal/pose"

func f64(v float64) *float64 { return &v }

// ForehandClear returns the built-in evaluation config for the badminton
// forehand clear, split into setup, backswing and power stages. Targets and
// tolerances follow common coaching guidance for a right-handed player.
func ForehandClear() *ActionConfig {
	return &ActionConfig{
		ActionName: "forehand_clear",
		Description: LocalizedText{
			"en": "forehand clear",
			"zh": "正手高远球",
		},
		Language:      "en",
		EnableScoring: true,
		Stages: []Stage{
			{
				Name:   "setup",
				Weight: 0.2,
				Description: LocalizedText{
					"en": "ready position",
					"zh": "准备姿势",
				},
				Measurements: []Measurement{
					{
						Key:       "stance_width",
						Type:      TypeDistance,
						Keypoints: []string{pose.LeftAnkle, pose.RightAnkle},
						Unit:      "ratio",
						MinValue:  f64(0.15),
						MaxValue:  f64(0.45),
						Weight:    0.4,
						Description: LocalizedText{
							"en": "stance width",
							"zh": "站位宽度",
						},
						Advice: LocalizedText{
							"en": "keep your feet about shoulder width apart",
							"zh": "双脚分开与肩同宽",
						},
					},
					{
						Key:       "racket_elbow_angle",
						Type:      TypeAngle,
						Keypoints: []string{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
						Unit:      "deg",
						Target:    f64(90),
						Tolerance: f64(20),
						Weight:    0.6,
						Description: LocalizedText{
							"en": "racket arm elbow angle",
							"zh": "持拍手肘角度",
						},
						Advice: LocalizedText{
							"en": "relax the racket arm with the elbow around a right angle",
							"zh": "持拍手放松，手肘保持近直角",
						},
					},
				},
			},
			{
				Name:   "backswing",
				Weight: 0.4,
				Description: LocalizedText{
					"en": "backswing",
					"zh": "引拍",
				},
				Measurements: []Measurement{
					{
						Key:            "racket_hand_height",
						Type:           TypeHeight,
						Keypoints:      []string{pose.RightWrist},
						ReferencePoint: pose.RightShoulder,
						Unit:           "ratio",
						Target:         f64(0.15),
						Tolerance:      f64(0.08),
						Weight:         0.5,
						Description: LocalizedText{
							"en": "racket hand height above shoulder",
							"zh": "持拍手高于肩部的高度",
						},
						Advice: LocalizedText{
							"en": "raise the racket hand above the shoulder before swinging",
							"zh": "挥拍前将持拍手举过肩部",
						},
					},
					{
						Key:            "elbow_pullback",
						Type:           TypeHorizontalDistance,
						Keypoints:      []string{pose.RightElbow},
						ReferencePoint: pose.RightShoulder,
						Direction:      DirectionBack,
						Unit:           "ratio",
						MinValue:       f64(0.0),
						MaxValue:       f64(0.2),
						Weight:         0.5,
						Description: LocalizedText{
							"en": "elbow pull-back behind the shoulder",
							"zh": "手肘向后引的幅度",
						},
						Advice: LocalizedText{
							"en": "draw the elbow back behind the shoulder line",
							"zh": "手肘向后拉到肩线之后",
						},
					},
				},
			},
			{
				Name:   "power",
				Weight: 0.4,
				Description: LocalizedText{
					"en": "power and impact",
					"zh": "发力击球",
				},
				Measurements: []Measurement{
					{
						Key:       "impact_arm_extension",
						Type:      TypeAngle,
						Keypoints: []string{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
						Unit:      "deg",
						Target:    f64(165),
						Tolerance: f64(10),
						Weight:    0.6,
						Description: LocalizedText{
							"en": "arm extension at impact",
							"zh": "击球瞬间手臂伸展角度",
						},
						Advice: LocalizedText{
							"en": "hit the shuttle at the highest point with a nearly straight arm",
							"zh": "在最高点击球，手臂接近伸直",
						},
					},
					{
						Key:            "contact_height",
						Type:           TypeVerticalDistance,
						Keypoints:      []string{pose.RightWrist},
						ReferencePoint: pose.Nose,
						Direction:      DirectionUp,
						Unit:           "ratio",
						Target:         f64(0.25),
						Tolerance:      f64(0.1),
						Weight:         0.4,
						Description: LocalizedText{
							"en": "contact point height above the head",
							"zh": "击球点高于头部的高度",
						},
						Advice: LocalizedText{
							"en": "reach up so the contact point stays well above the head",
							"zh": "向上伸展，使击球点保持在头部上方",
						},
					},
				},
			},
		},
	}
}
