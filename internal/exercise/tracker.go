package exercise

import (
	"math"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/smoothing"
	"github.com/ayusman/formcheck/internal/timeutil"
)

// noObservation marks an empty down-phase accumulator.
var noObservation = math.Inf(1)

// repTracker is the skeleton shared by every controller: smoothing,
// hysteresis counting, the down-phase minimum and the sticky feedback of
// the last completed rep.
type repTracker struct {
	kind     Kind
	smoother *smoothing.MovingAverage
	counter  *counter.Counter

	prevPhase counter.Phase
	minAngle  float64
	feedback  string
}

// frame is what the skeleton learned from one angle sample.
type frame struct {
	angle     float64
	reps      int
	phase     counter.Phase
	rpm       float64
	completed bool
}

func newRepTracker(kind Kind, window int, cc counter.Config, clock timeutil.Clock) (*repTracker, error) {
	sm, err := smoothing.New(window)
	if err != nil {
		return nil, err
	}
	c, err := counter.New(cc, clock)
	if err != nil {
		return nil, err
	}
	return &repTracker{
		kind:      kind,
		smoother:  sm,
		counter:   c,
		prevPhase: c.Phase(),
		minAngle:  noObservation,
	}, nil
}

// step smooths raw, feeds the counter and updates the down-phase minimum.
// completed is true on the DOWN→UP edge.
func (t *repTracker) step(raw float64) frame {
	angle := t.smoother.Update(raw)
	reps, phase := t.counter.Update(angle)

	f := frame{
		angle:     angle,
		reps:      reps,
		phase:     phase,
		rpm:       t.counter.RPM(),
		completed: t.prevPhase == counter.PhaseDown && phase == counter.PhaseUp,
	}
	t.prevPhase = phase

	if phase == counter.PhaseDown {
		t.minAngle = math.Min(t.minAngle, angle)
	}
	return f
}

// complete stores the rep's feedback, clears the accumulator and describes
// the rep for the caller.
func (t *repTracker) complete(f frame, feedback string, angle float64) *CompletedRep {
	t.feedback = feedback
	t.minAngle = noObservation
	return &CompletedRep{
		Number:   f.reps,
		Angle:    angle,
		RPM:      f.rpm,
		Feedback: feedback,
	}
}

// result assembles the frame output. A non-empty override replaces the
// sticky rep feedback.
func (t *repTracker) result(f frame, override string) Result {
	fb := t.feedback
	if override != "" {
		fb = override
	}
	return Result{
		Exercise: t.kind,
		Reps:     f.reps,
		Phase:    f.phase,
		Label:    PhaseLabel(t.kind, f.phase),
		Angle:    f.angle,
		RPM:      f.rpm,
		Feedback: fb,
	}
}
