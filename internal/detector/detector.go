package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose in pixel
	// coordinates of that frame. Returns nil if no person is detected.
	Detect(frame *gocv.Mat) (*Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the MediaPipe Pose model (0, 1 or 2).
	ModelComplexity int `toml:"model_complexity"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `toml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `toml:"min_tracking_confidence"`

	// ScriptPath overrides the lookup of pose_service.py.
	ScriptPath string `toml:"script_path"`

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string `toml:"python_path"`

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration `toml:"idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
