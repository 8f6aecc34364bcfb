package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, exercise.KindSquat, cfg.ExerciseKind())
	assert.Equal(t, exercise.DefaultConfig(), cfg.Exercises())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
exercise = "biceps"
tray = true

[logging]
level = "debug"
json = true

[server]
addr = ":9090"

[store]
path = "/tmp/fc.db"
csv_path = "/tmp/training_log.csv"

[camera]
video_file = "session.mp4"
mirror = false
motion_threshold = 0.0

[detector]
model_complexity = 2
idle_timeout = "1m"

[plugins]
timeout = "2s"

[squat]
depth_target = 95
hold_frames = 25

[curl]
down_threshold = 75
bad_angle = 70
rate_window = "45s"
side = "right"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, exercise.KindCurl, cfg.ExerciseKind())
	assert.True(t, cfg.Tray)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.Enabled, "untouched keys keep their defaults")
	assert.Equal(t, "/tmp/training_log.csv", cfg.Store.CSVPath)
	assert.Equal(t, "session.mp4", cfg.Camera.VideoFile)
	assert.False(t, cfg.Camera.Mirror)
	assert.Equal(t, 2, cfg.Detector.ModelComplexity)
	assert.Equal(t, time.Minute, cfg.Detector.IdleTimeout)
	assert.Equal(t, 2*time.Second, cfg.Plugins.Timeout)

	assert.Equal(t, 95.0, cfg.Squat.DepthTarget)
	assert.Equal(t, 25, cfg.Squat.HoldFrames)
	assert.Equal(t, 160.0, cfg.Squat.UpThreshold)

	assert.Equal(t, 75.0, cfg.Curl.DownThreshold)
	assert.Equal(t, 70.0, cfg.Curl.BadAngle)
	assert.Equal(t, 45*time.Second, cfg.Curl.RateWindow)
	assert.Equal(t, detector.SideRight, cfg.Curl.Side)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: `exercise = `},
		{name: "inverted thresholds", content: "[squat]\ndown_threshold = 170\n"},
		{name: "bad side", content: "[curl]\nside = \"both\"\n"},
		{name: "camera fps", content: "[camera]\nfps = 0\n"},
		{name: "confidence", content: "[detector]\nmin_confidence = 1.5\n"},
		{name: "server addr", content: "[server]\naddr = \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestExerciseKind_Fallback(t *testing.T) {
	cfg := Default()
	cfg.Exercise = "deadlift"
	assert.Equal(t, exercise.KindSquat, cfg.ExerciseKind())
}
