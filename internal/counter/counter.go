// Package counter implements a two-threshold hysteresis repetition counter
// with a rolling repetitions-per-minute estimate.
package counter

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/formcheck/internal/timeutil"
)

// DefaultRateWindow is how far back rep timestamps count toward RPM.
const DefaultRateWindow = 30 * time.Second

// Phase is the side of the hysteresis band the metric last crossed.
type Phase string

const (
	// PhaseUp is the extended position and the initial phase.
	PhaseUp Phase = "UP"
	// PhaseDown is the flexed position.
	PhaseDown Phase = "DOWN"
)

// Config holds the thresholds of a counter.
type Config struct {
	// DownThreshold moves UP to DOWN when the metric falls below it.
	DownThreshold float64
	// UpThreshold moves DOWN to UP, counting a rep, when the metric rises above it.
	UpThreshold float64
	// RateWindow bounds the timestamps used by RPM. Zero means DefaultRateWindow.
	RateWindow time.Duration
}

// Validate checks that the thresholds leave a dead zone between them.
func (c Config) Validate() error {
	for _, v := range []float64{c.DownThreshold, c.UpThreshold} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("thresholds must be finite, got down %v up %v", c.DownThreshold, c.UpThreshold)
		}
	}
	if c.DownThreshold >= c.UpThreshold {
		return fmt.Errorf("down threshold %.1f must be below up threshold %.1f", c.DownThreshold, c.UpThreshold)
	}
	if c.RateWindow < 0 {
		return fmt.Errorf("rate window must be positive, got %s", c.RateWindow)
	}
	return nil
}

// Counter counts DOWN→UP cycles of a scalar metric.
// It is owned by a single controller and is not safe for concurrent use.
type Counter struct {
	cfg   Config
	clock timeutil.Clock

	phase  Phase
	reps   int
	stamps []time.Time
}

// New creates a counter in PhaseUp with zero reps.
func New(cfg Config, clock timeutil.Clock) (*Counter, error) {
	if cfg.RateWindow == 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Counter{
		cfg:   cfg,
		clock: clock,
		phase: PhaseUp,
	}, nil
}

// Update feeds one metric sample and returns the cumulative rep count and
// the phase after any transition.
func (c *Counter) Update(metric float64) (int, Phase) {
	switch c.phase {
	case PhaseUp:
		if metric < c.cfg.DownThreshold {
			c.phase = PhaseDown
		}
	case PhaseDown:
		if metric > c.cfg.UpThreshold {
			c.phase = PhaseUp
			c.reps++
			c.stamps = append(c.stamps, c.clock.Now())
			c.prune()
		}
	}
	return c.reps, c.phase
}

// RPM returns the repetition rate over the timestamps still inside the rate
// window: (n-1) reps over the span between the first and last of them.
// Fewer than two timestamps yield 0.
func (c *Counter) RPM() float64 {
	c.prune()

	n := len(c.stamps)
	if n < 2 {
		return 0
	}
	span := c.stamps[n-1].Sub(c.stamps[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span * 60
}

// Reps returns the cumulative rep count.
func (c *Counter) Reps() int {
	return c.reps
}

// Phase returns the current phase.
func (c *Counter) Phase() Phase {
	return c.phase
}

func (c *Counter) prune() {
	i := 0
	for i < len(c.stamps) && c.clock.Since(c.stamps[i]) >= c.cfg.RateWindow {
		i++
	}
	if i > 0 {
		c.stamps = append(c.stamps[:0], c.stamps[i:]...)
	}
}
