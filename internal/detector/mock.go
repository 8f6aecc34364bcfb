package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns a fixed pose, or plays back a sequence of poses one per call.
type MockDetector struct {
	mu       sync.Mutex
	pose     *Pose
	sequence []*Pose
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose that will be returned by every Detect call.
func (m *MockDetector) SetPose(pose *Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
	m.sequence = nil
}

// SetSequence queues poses returned one per Detect call. Once the queue is
// drained Detect returns nil. A nil entry simulates a frame with nobody in it.
func (m *MockDetector) SetSequence(poses []*Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append([]*Pose(nil), poses...)
	m.pose = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Remaining returns how many queued poses have not been consumed.
func (m *MockDetector) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sequence)
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		p := m.sequence[0]
		m.sequence = m.sequence[1:]
		return p, nil
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry, in pixels of a 640x480 frame.
const (
	fixtureWidth  = 640
	fixtureHeight = 480
	segment       = 100.0
)

func newFixturePose() *Pose {
	p := &Pose{Width: fixtureWidth, Height: fixtureHeight}
	for i := range p.Landmarks {
		p.Landmarks[i].Visibility = 0.99
	}
	return p
}

func (p *Pose) set(i int, x, y float64) {
	p.Landmarks[i].X = x
	p.Landmarks[i].Y = y
}

// SquatPose returns a front-facing pose whose right knee angle is kneeAngle
// degrees. The right hip sits directly above the right ankle and the knees
// are 210 px apart, so only depth can fire. kneeAngle is capped at
// MaxSquatFixtureAngle.
func SquatPose(kneeAngle float64) *Pose {
	p := newFixturePose()

	hipX, hipY := 300.0, 300.0
	kneeX, kneeY := 310.0, 400.0
	ankleY := solveAnkleY(hipX, hipY, kneeX, kneeY, kneeAngle)

	p.set(RightHip, hipX, hipY)
	p.set(RightKnee, kneeX, kneeY)
	p.set(RightAnkle, hipX, ankleY)

	p.set(LeftHip, hipX-200, hipY)
	p.set(LeftKnee, kneeX-210, kneeY)
	p.set(LeftAnkle, hipX-200, ankleY)

	p.set(RightShoulder, hipX, hipY-200)
	p.set(LeftShoulder, hipX-200, hipY-200)

	return p
}

// MaxSquatFixtureAngle is the straightest knee SquatPose can produce.
var MaxSquatFixtureAngle = kneeAngleAt(300, 300, 310, 400, 500)

func kneeAngleAt(hipX, hipY, kneeX, kneeY, ankleY float64) float64 {
	bax, bay := hipX-kneeX, hipY-kneeY
	bcx, bcy := hipX-kneeX, ankleY-kneeY
	cos := (bax*bcx + bay*bcy) / (math.Hypot(bax, bay)*math.Hypot(bcx, bcy) + 1e-6)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// solveAnkleY bisects for the ankle height that gives the requested knee
// angle; the angle grows monotonically as the ankle moves down.
func solveAnkleY(hipX, hipY, kneeX, kneeY, target float64) float64 {
	lo, hi := kneeY-segment, kneeY+segment
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if kneeAngleAt(hipX, hipY, kneeX, kneeY, mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// WithKneeGap moves the left knee so the knees are gap pixels apart.
func (p *Pose) WithKneeGap(gap float64) *Pose {
	p.Landmarks[LeftKnee].X = p.Landmarks[RightKnee].X - gap
	return p
}

// WithCavedKnee moves the right ankle outward so the knee sits well inside
// the hip-ankle line. The knee angle changes with it.
func (p *Pose) WithCavedKnee() *Pose {
	p.Landmarks[RightAnkle].X = p.Landmarks[RightHip].X + segment
	p.Landmarks[RightAnkle].Y = p.Landmarks[RightHip].Y
	return p
}

// CurlPose returns a pose whose left elbow angle is elbowAngle degrees,
// with the upper arm hanging vertically.
func CurlPose(elbowAngle float64) *Pose {
	p := newFixturePose()

	shoulderX, shoulderY := 300.0, 200.0
	elbowX, elbowY := 300.0, 300.0
	rad := elbowAngle * math.Pi / 180

	p.set(LeftShoulder, shoulderX, shoulderY)
	p.set(LeftElbow, elbowX, elbowY)
	p.set(LeftWrist, elbowX+segment*math.Sin(rad), elbowY-segment*math.Cos(rad))

	p.set(RightShoulder, shoulderX+150, shoulderY)
	p.set(RightElbow, elbowX+150, elbowY)
	p.set(RightWrist, elbowX+150, elbowY+segment)

	p.set(LeftHip, shoulderX, shoulderY+250)
	p.set(RightHip, shoulderX+150, shoulderY+250)

	return p
}
