package exercise

import (
	"fmt"
	"time"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/detector"
)

// Config groups the per-exercise tuning.
type Config struct {
	Squat SquatConfig `toml:"squat"`
	Curl  CurlConfig  `toml:"curl"`
}

// DefaultConfig returns the default tuning for every exercise.
func DefaultConfig() Config {
	return Config{
		Squat: DefaultSquatConfig(),
		Curl:  DefaultCurlConfig(),
	}
}

// Validate checks every exercise section.
func (c Config) Validate() error {
	if err := c.Squat.Validate(); err != nil {
		return fmt.Errorf("squat: %w", err)
	}
	if err := c.Curl.Validate(); err != nil {
		return fmt.Errorf("curl: %w", err)
	}
	return nil
}

// SquatConfig tunes the squat controller. Angles are in degrees, distances
// in pixels of the analyzed frame.
type SquatConfig struct {
	// Side is the leg whose knee angle drives counting.
	Side detector.Side `toml:"side"`

	// SmoothingWindow is the number of knee angle samples averaged.
	SmoothingWindow int `toml:"smoothing_window"`

	// DownThreshold enters the down phase below this knee angle.
	DownThreshold float64 `toml:"down_threshold"`

	// UpThreshold completes a rep above this knee angle.
	UpThreshold float64 `toml:"up_threshold"`

	// RateWindow bounds the reps counted toward RPM.
	RateWindow time.Duration `toml:"rate_window"`

	// DepthTarget and DepthTolerance: a rep is deep enough when its
	// minimum knee angle reaches DepthTarget-DepthTolerance.
	DepthTarget    float64 `toml:"depth_target"`
	DepthTolerance float64 `toml:"depth_tolerance"`

	// ValgusThreshold flags knee collapse when the knee/ankle offset ratio
	// drops below it.
	ValgusThreshold float64 `toml:"valgus_threshold"`

	// ValgusActivationAngle tracks the collapse ratio only below this angle.
	ValgusActivationAngle float64 `toml:"valgus_activation_angle"`

	// KneeCheckMaxAngle evaluates knee rules only for reps whose minimum
	// angle went below it.
	KneeCheckMaxAngle float64 `toml:"knee_check_max_angle"`

	// ThighMaxAngle is the allowed hip→knee deviation from vertical.
	ThighMaxAngle float64 `toml:"thigh_max_angle"`

	// StanceCheckAngle checks knee spacing only below this angle.
	StanceCheckAngle float64 `toml:"stance_check_angle"`

	// KneeWarnPx and KneeCriticalPx are the knee spacing thresholds.
	KneeWarnPx     float64 `toml:"knee_warn_px"`
	KneeCriticalPx float64 `toml:"knee_critical_px"`

	// HoldFrames keeps a posture alert on screen this many frames.
	HoldFrames int `toml:"hold_frames"`
}

// DefaultSquatConfig returns the default squat tuning.
func DefaultSquatConfig() SquatConfig {
	return SquatConfig{
		Side:                  detector.SideRight,
		SmoothingWindow:       5,
		DownThreshold:         140,
		UpThreshold:           160,
		RateWindow:            counter.DefaultRateWindow,
		DepthTarget:           105,
		DepthTolerance:        5,
		ValgusThreshold:       0.85,
		ValgusActivationAngle: 140,
		KneeCheckMaxAngle:     130,
		ThighMaxAngle:         20,
		StanceCheckAngle:      160,
		KneeWarnPx:            110,
		KneeCriticalPx:        90,
		HoldFrames:            30,
	}
}

// Validate reports the first invalid setting.
func (c SquatConfig) Validate() error {
	if !c.Side.Valid() {
		return fmt.Errorf("invalid side %q", c.Side)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1, got %d", c.SmoothingWindow)
	}
	if err := c.counterConfig().Validate(); err != nil {
		return err
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate_window must be positive, got %s", c.RateWindow)
	}
	if c.DepthTolerance < 0 {
		return fmt.Errorf("depth_tolerance must not be negative, got %.1f", c.DepthTolerance)
	}
	if c.ValgusThreshold <= 0 {
		return fmt.Errorf("valgus_threshold must be positive, got %.2f", c.ValgusThreshold)
	}
	if c.ThighMaxAngle < 0 {
		return fmt.Errorf("thigh_max_angle must not be negative, got %.1f", c.ThighMaxAngle)
	}
	if c.KneeWarnPx < 0 || c.KneeCriticalPx < 0 {
		return fmt.Errorf("knee spacing thresholds must not be negative")
	}
	if c.HoldFrames < 0 {
		return fmt.Errorf("hold_frames must not be negative, got %d", c.HoldFrames)
	}
	return nil
}

func (c SquatConfig) counterConfig() counter.Config {
	return counter.Config{
		DownThreshold: c.DownThreshold,
		UpThreshold:   c.UpThreshold,
		RateWindow:    c.RateWindow,
	}
}

// CurlConfig tunes the biceps curl controller.
type CurlConfig struct {
	Side            detector.Side `toml:"side"`
	SmoothingWindow int           `toml:"smoothing_window"`
	DownThreshold   float64       `toml:"down_threshold"`
	UpThreshold     float64       `toml:"up_threshold"`
	RateWindow      time.Duration `toml:"rate_window"`

	// BadAngle asks for a deeper bend when the rep's minimum elbow angle
	// stayed above it.
	BadAngle float64 `toml:"bad_angle"`
}

// DefaultCurlConfig returns the default curl tuning.
func DefaultCurlConfig() CurlConfig {
	return CurlConfig{
		Side:            detector.SideLeft,
		SmoothingWindow: 3,
		DownThreshold:   120,
		UpThreshold:     155,
		RateWindow:      counter.DefaultRateWindow,
		BadAngle:        80,
	}
}

// Validate reports the first invalid setting.
func (c CurlConfig) Validate() error {
	if !c.Side.Valid() {
		return fmt.Errorf("invalid side %q", c.Side)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1, got %d", c.SmoothingWindow)
	}
	if err := c.counterConfig().Validate(); err != nil {
		return err
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate_window must be positive, got %s", c.RateWindow)
	}
	return nil
}

func (c CurlConfig) counterConfig() counter.Config {
	return counter.Config{
		DownThreshold: c.DownThreshold,
		UpThreshold:   c.UpThreshold,
		RateWindow:    c.RateWindow,
	}
}
