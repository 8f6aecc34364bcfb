// Package technique holds the form rules evaluated on completed or in-progress
// repetitions. Each rule returns a feedback message, or "" when there is
// nothing to report.
package technique

import (
	"math"

	"github.com/ayusman/formcheck/internal/geometry"
)

// Feedback messages shown to the athlete.
const (
	MsgGoLower       = "Go lower"
	MsgKneesOut      = "Push your knees out"
	MsgKneesTooClose = "Knees too close!"
	MsgWidenStance   = "Set your knees wider"
	MsgBendFurther   = "Bend your arm more"

	// VerdictOK is the composed verdict when no rule fired.
	VerdictOK = "OK"
)

// Depth flags a repetition whose lowest angle never reached target-tolerance.
// Reaching the bound exactly counts as deep enough.
func Depth(minAngle, target, tolerance float64) string {
	if minAngle > target-tolerance {
		return MsgGoLower
	}
	return ""
}

// ThighInward flags a hip→knee segment leaning more than maxDeg off vertical.
func ThighInward(hip, knee geometry.Point, maxDeg float64) string {
	if geometry.AngleFromVertical(hip, knee) > maxDeg {
		return MsgKneesOut
	}
	return ""
}

// KneeSpacing checks the horizontal gap between the knees. The critical
// threshold is checked first and takes precedence over the warning.
func KneeSpacing(left, right geometry.Point, warnPx, criticalPx float64) string {
	gap := geometry.HorizontalDistance(left, right)
	switch {
	case gap < criticalPx:
		return MsgKneesTooClose
	case gap < warnPx:
		return MsgWidenStance
	}
	return ""
}

// ratioEpsilon guards the valgus ratio against a hip and ankle stacked on the same x.
const ratioEpsilon = 1e-6

// noCollapse is the valgus ratio baseline before any observation.
const noCollapse = 1.0

// ValgusTracker keeps the worst knee-collapse ratio seen during one
// repetition. The ratio is |knee.x-hip.x| / |ankle.x-hip.x|: 1.0 means the
// knee tracks over the ankle, lower values mean it caves inward.
type ValgusTracker struct {
	threshold float64
	minRatio  float64
}

// NewValgusTracker creates a tracker that flags ratios below threshold.
func NewValgusTracker(threshold float64) *ValgusTracker {
	return &ValgusTracker{
		threshold: threshold,
		minRatio:  noCollapse,
	}
}

// Update records the ratio for one frame.
func (v *ValgusTracker) Update(hip, knee, ankle geometry.Point) {
	ratio := geometry.HorizontalDistance(knee, hip) / (geometry.HorizontalDistance(ankle, hip) + ratioEpsilon)
	v.minRatio = math.Min(v.minRatio, ratio)
}

// Feedback reports collapse if the minimum ratio fell below the threshold.
func (v *ValgusTracker) Feedback() string {
	if v.minRatio < v.threshold {
		return MsgKneesOut
	}
	return ""
}

// MinRatio returns the worst ratio since the last reset.
func (v *ValgusTracker) MinRatio() float64 {
	return v.minRatio
}

// Reset starts a new repetition from the no-collapse baseline.
func (v *ValgusTracker) Reset() {
	v.minRatio = noCollapse
}
