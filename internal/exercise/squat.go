package exercise

import (
	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/geometry"
	"github.com/ayusman/formcheck/internal/technique"
	"github.com/ayusman/formcheck/internal/timeutil"
)

// Squat counts squats from the hip-knee-ankle angle and checks depth,
// knee collapse, thigh alignment and stance width.
type Squat struct {
	cfg     SquatConfig
	leg     detector.Leg
	tracker *repTracker
	valgus  *technique.ValgusTracker
	hold    *PostureHold
}

// NewSquat creates a squat controller. The config is validated first.
func NewSquat(cfg SquatConfig, clock timeutil.Clock) (*Squat, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tr, err := newRepTracker(KindSquat, cfg.SmoothingWindow, cfg.counterConfig(), clock)
	if err != nil {
		return nil, err
	}
	return &Squat{
		cfg:     cfg,
		leg:     detector.LegOf(cfg.Side),
		tracker: tr,
		valgus:  technique.NewValgusTracker(cfg.ValgusThreshold),
		hold:    NewPostureHold(cfg.HoldFrames),
	}, nil
}

// Kind returns KindSquat.
func (s *Squat) Kind() Kind {
	return KindSquat
}

// Advance analyzes one pose.
func (s *Squat) Advance(pose *detector.Pose) (Result, bool) {
	if pose == nil {
		return Result{}, false
	}

	hip := pose.Point(s.leg.Hip)
	knee := pose.Point(s.leg.Knee)
	ankle := pose.Point(s.leg.Ankle)

	f := s.tracker.step(geometry.Angle(hip, knee, ankle))

	alert := s.checkStance(pose, f.angle)

	if f.phase == counter.PhaseDown && f.angle < s.cfg.ValgusActivationAngle {
		s.valgus.Update(hip, knee, ankle)
	}

	var rep *CompletedRep
	if f.completed {
		deepest := s.tracker.minAngle
		msgs := []string{technique.Depth(deepest, s.cfg.DepthTarget, s.cfg.DepthTolerance)}
		if deepest < s.cfg.KneeCheckMaxAngle {
			msgs = append(msgs,
				s.valgus.Feedback(),
				technique.ThighInward(hip, knee, s.cfg.ThighMaxAngle),
			)
		}
		rep = s.tracker.complete(f, technique.Compose(msgs...), deepest)
		s.valgus.Reset()
	}

	res := s.tracker.result(f, s.hold.Message())
	res.Alert = alert
	res.Rep = rep
	return res, true
}

// checkStance raises or counts down the knee spacing alert. It returns the
// alert message on the frame it starts.
func (s *Squat) checkStance(pose *detector.Pose, angle float64) string {
	if angle < s.cfg.StanceCheckAngle {
		msg := technique.KneeSpacing(
			pose.Point(detector.LeftKnee),
			pose.Point(detector.RightKnee),
			s.cfg.KneeWarnPx,
			s.cfg.KneeCriticalPx,
		)
		if msg != "" {
			if s.hold.Trigger(msg) {
				return msg
			}
			return ""
		}
	}
	s.hold.Tick()
	return ""
}
