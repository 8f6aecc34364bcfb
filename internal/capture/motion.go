package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/timeutil"
)

const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionDetector measures how much of the scene changed between
// consecutive frames.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector. threshold is the percentage of
// pixels that must change to count as motion.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether motion was
// detected and the percentage of pixels that changed. The first frame only
// sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// MotionGate switches the pipeline between idle and active. It goes active
// on the first moving frame and back to idle once nothing has moved for
// idleAfter. Pose detection only runs while active.
type MotionGate struct {
	detector   *MotionDetector
	idleAfter  time.Duration
	clock      timeutil.Clock
	active     bool
	lastMotion time.Time
}

// NewMotionGate creates an idle gate.
func NewMotionGate(threshold float64, idleAfter time.Duration, clock timeutil.Clock) *MotionGate {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &MotionGate{
		detector:  NewMotionDetector(threshold),
		idleAfter: idleAfter,
		clock:     clock,
	}
}

// Observe feeds one frame. It returns whether the gate is active after this
// frame and whether that differs from before.
func (g *MotionGate) Observe(frame *gocv.Mat) (active, changed bool) {
	moved, _ := g.detector.Detect(frame)
	return g.update(moved)
}

func (g *MotionGate) update(moved bool) (active, changed bool) {
	now := g.clock.Now()
	switch {
	case moved:
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true, true
		}
	case g.active && now.Sub(g.lastMotion) > g.idleAfter:
		g.active = false
		return false, true
	}
	return g.active, false
}

// Active reports the current mode.
func (g *MotionGate) Active() bool {
	return g.active
}

// Close releases the underlying detector.
func (g *MotionGate) Close() {
	g.detector.Close()
}
