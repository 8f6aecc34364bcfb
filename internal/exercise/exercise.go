// Package exercise turns a stream of poses into rep counts and technique
// feedback. Each exercise has its own Controller; all of them share the same
// smoother, counter and accumulator skeleton.
package exercise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/timeutil"
)

// ErrUnknownKind is returned for an exercise name that has no controller.
var ErrUnknownKind = errors.New("unknown exercise")

// Kind identifies an exercise.
type Kind string

const (
	KindSquat Kind = "squat"
	KindCurl  Kind = "curl"
)

// Kinds lists every supported exercise.
func Kinds() []Kind {
	return []Kind{KindSquat, KindCurl}
}

// ParseKind resolves a user-supplied exercise name. "biceps" is accepted
// for curls.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squat", "squats":
		return KindSquat, nil
	case "curl", "curls", "biceps":
		return KindCurl, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// CompletedRep describes the repetition that finished on this frame. For
// squats Angle is the deepest knee angle of the rep; for curls it is the
// elbow angle at the moment the rep was counted.
type CompletedRep struct {
	Number   int     `json:"number"`
	Angle    float64 `json:"angle"`
	RPM      float64 `json:"rpm"`
	Feedback string  `json:"feedback"`
}

// Result is the per-frame output of a controller.
type Result struct {
	Exercise Kind          `json:"exercise"`
	Reps     int           `json:"reps"`
	Phase    counter.Phase `json:"phase"`
	Label    string        `json:"label"`
	Angle    float64       `json:"angle"`
	RPM      float64       `json:"rpm"`
	Feedback string        `json:"feedback"`

	// Alert is set on the frame a posture alert starts.
	Alert string `json:"alert,omitempty"`

	// Rep is non-nil only on the frame that completed a repetition.
	Rep *CompletedRep `json:"rep,omitempty"`
}

// Controller advances one exercise by one frame. Implementations are not
// safe for concurrent use.
type Controller interface {
	Kind() Kind

	// Advance analyzes one pose. A nil pose means nobody was detected; the
	// controller is left untouched and ok is false.
	Advance(pose *detector.Pose) (res Result, ok bool)
}

// New builds a fresh controller for kind. Every call returns an
// independent instance tree.
func New(kind Kind, cfg Config, clock timeutil.Clock) (Controller, error) {
	switch kind {
	case KindSquat:
		return NewSquat(cfg.Squat, clock)
	case KindCurl:
		return NewCurl(cfg.Curl, clock)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// PhaseLabel returns the on-screen name of a phase. Curls use the
// gym wording; other exercises show the phase itself.
func PhaseLabel(kind Kind, phase counter.Phase) string {
	if kind == KindCurl {
		if phase == counter.PhaseDown {
			return "CURL"
		}
		return "HAND DOWN"
	}
	return string(phase)
}
