// Package detector provides body pose detection interfaces and types for
// exercise analysis.
package detector

import "github.com/ayusman/formcheck/internal/geometry"

// Pose landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Keypoint is one detected landmark. X and Y are in pixels of the analyzed
// frame; Z is the model's relative depth. Visibility is in [0, 1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Pose is the full set of landmarks for one person in one frame.
type Pose struct {
	Landmarks [NumLandmarks]Keypoint `json:"landmarks"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
}

// Point returns landmark i projected to 2D.
func (p *Pose) Point(i int) geometry.Point {
	return geometry.Point{X: p.Landmarks[i].X, Y: p.Landmarks[i].Y}
}

// Side selects the left or right limb chain of a pose.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Valid reports whether s names a side.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Leg is the hip, knee and ankle indices of one side.
type Leg struct {
	Hip, Knee, Ankle int
}

// Arm is the shoulder, elbow and wrist indices of one side.
type Arm struct {
	Shoulder, Elbow, Wrist int
}

// LegOf returns the leg landmark indices for side. Anything other than
// SideLeft selects the right leg.
func LegOf(s Side) Leg {
	if s == SideLeft {
		return Leg{Hip: LeftHip, Knee: LeftKnee, Ankle: LeftAnkle}
	}
	return Leg{Hip: RightHip, Knee: RightKnee, Ankle: RightAnkle}
}

// ArmOf returns the arm landmark indices for side. Anything other than
// SideRight selects the left arm.
func ArmOf(s Side) Arm {
	if s == SideRight {
		return Arm{Shoulder: RightShoulder, Elbow: RightElbow, Wrist: RightWrist}
	}
	return Arm{Shoulder: LeftShoulder, Elbow: LeftElbow, Wrist: LeftWrist}
}
