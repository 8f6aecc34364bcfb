package exercise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/detector"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, detector.SideRight, cfg.Squat.Side)
	assert.Equal(t, 5, cfg.Squat.SmoothingWindow)
	assert.Equal(t, 140.0, cfg.Squat.DownThreshold)
	assert.Equal(t, 160.0, cfg.Squat.UpThreshold)
	assert.Equal(t, 30*time.Second, cfg.Squat.RateWindow)
	assert.Equal(t, 105.0, cfg.Squat.DepthTarget)
	assert.Equal(t, 5.0, cfg.Squat.DepthTolerance)
	assert.Equal(t, 0.85, cfg.Squat.ValgusThreshold)
	assert.Equal(t, 110.0, cfg.Squat.KneeWarnPx)
	assert.Equal(t, 90.0, cfg.Squat.KneeCriticalPx)
	assert.Equal(t, 30, cfg.Squat.HoldFrames)

	assert.Equal(t, detector.SideLeft, cfg.Curl.Side)
	assert.Equal(t, 3, cfg.Curl.SmoothingWindow)
	assert.Equal(t, 120.0, cfg.Curl.DownThreshold)
	assert.Equal(t, 155.0, cfg.Curl.UpThreshold)
	assert.Equal(t, 80.0, cfg.Curl.BadAngle)
}

func TestSquatConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SquatConfig)
	}{
		{name: "side", mutate: func(c *SquatConfig) { c.Side = "middle" }},
		{name: "window", mutate: func(c *SquatConfig) { c.SmoothingWindow = 0 }},
		{name: "thresholds equal", mutate: func(c *SquatConfig) { c.DownThreshold = c.UpThreshold }},
		{name: "rate window", mutate: func(c *SquatConfig) { c.RateWindow = 0 }},
		{name: "tolerance", mutate: func(c *SquatConfig) { c.DepthTolerance = -1 }},
		{name: "valgus", mutate: func(c *SquatConfig) { c.ValgusThreshold = 0 }},
		{name: "thigh", mutate: func(c *SquatConfig) { c.ThighMaxAngle = -5 }},
		{name: "spacing", mutate: func(c *SquatConfig) { c.KneeCriticalPx = -1 }},
		{name: "hold", mutate: func(c *SquatConfig) { c.HoldFrames = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSquatConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCurlConfig_Validate(t *testing.T) {
	cfg := DefaultCurlConfig()
	cfg.UpThreshold = 100
	assert.Error(t, cfg.Validate())

	cfg = DefaultCurlConfig()
	cfg.Side = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultCurlConfig()
	cfg.RateWindow = -time.Second
	assert.Error(t, cfg.Validate())
}
