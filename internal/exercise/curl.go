package exercise

import (
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/geometry"
	"github.com/ayusman/formcheck/internal/technique"
	"github.com/ayusman/formcheck/internal/timeutil"
)

// Curl counts biceps curls from the shoulder-elbow-wrist angle.
type Curl struct {
	cfg     CurlConfig
	arm     detector.Arm
	tracker *repTracker
}

// NewCurl creates a curl controller. The config is validated first.
func NewCurl(cfg CurlConfig, clock timeutil.Clock) (*Curl, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tr, err := newRepTracker(KindCurl, cfg.SmoothingWindow, cfg.counterConfig(), clock)
	if err != nil {
		return nil, err
	}
	return &Curl{
		cfg:     cfg,
		arm:     detector.ArmOf(cfg.Side),
		tracker: tr,
	}, nil
}

// Kind returns KindCurl.
func (c *Curl) Kind() Kind {
	return KindCurl
}

// Advance analyzes one pose.
func (c *Curl) Advance(pose *detector.Pose) (Result, bool) {
	if pose == nil {
		return Result{}, false
	}

	f := c.tracker.step(geometry.Angle(
		pose.Point(c.arm.Shoulder),
		pose.Point(c.arm.Elbow),
		pose.Point(c.arm.Wrist),
	))

	var rep *CompletedRep
	if f.completed {
		msg := ""
		if c.tracker.minAngle > c.cfg.BadAngle {
			msg = technique.MsgBendFurther
		}
		rep = c.tracker.complete(f, technique.Compose(msg), f.angle)
	}

	res := c.tracker.result(f, "")
	res.Rep = rep
	return res, true
}
