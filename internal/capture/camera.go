// Package capture provides camera and video file capture using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS     = 15
	DefaultIdleFPS = 3
	DefaultWidth   = 640
	DefaultHeight  = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEndOfStream is returned once a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Config selects and tunes the frame source.
type Config struct {
	// DeviceID is the camera index, used when VideoFile is empty.
	DeviceID int `toml:"device_id"`

	// VideoFile analyzes a recording instead of a live camera.
	VideoFile string `toml:"video_file"`

	FPS    int `toml:"fps"`
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool `toml:"mirror"`

	// MotionThreshold is the percentage of changed pixels that wakes the
	// pipeline from idle. Zero analyzes every frame.
	MotionThreshold float64 `toml:"motion_threshold"`

	// IdleFPS is the capture rate while nothing moves.
	IdleFPS int `toml:"idle_fps"`

	// IdleAfter is how long the scene must stay still before going idle.
	IdleAfter time.Duration `toml:"idle_after"`
}

// DefaultConfig returns the settings for the default webcam.
func DefaultConfig() Config {
	return Config{
		DeviceID:        0,
		FPS:             DefaultFPS,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Mirror:          true,
		MotionThreshold: 1.0,
		IdleFPS:         DefaultIdleFPS,
		IdleAfter:       10 * time.Second,
	}
}

// Validate reports settings the capture loop cannot work with.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.MotionThreshold < 0 {
		return fmt.Errorf("motion_threshold must not be negative, got %.2f", c.MotionThreshold)
	}
	if c.MotionThreshold > 0 && (c.IdleFPS <= 0 || c.IdleAfter <= 0) {
		return fmt.Errorf("idle_fps and idle_after must be positive when motion gating is on")
	}
	if c.DeviceID < 0 {
		return fmt.Errorf("device_id must not be negative, got %d", c.DeviceID)
	}
	return nil
}

// Camera defines the interface for frame sources.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a device or a file using GoCV.
type cameraImpl struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for the given device ID with default settings.
func NewCamera(deviceID int) Camera {
	cfg := DefaultConfig()
	cfg.DeviceID = deviceID
	return New(cfg)
}

// New creates a Camera from cfg. A non-empty VideoFile takes precedence
// over DeviceID.
func New(cfg Config) Camera {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &cameraImpl{
		cfg: cfg,
		fps: fps,
	}
}

func (c *cameraImpl) isFile() bool {
	return c.cfg.VideoFile != ""
}

// Open opens the source for capturing frames. Live cameras are asked for
// the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if c.isFile() {
		capture, err = gocv.OpenVideoCapture(c.cfg.VideoFile)
	} else {
		capture, err = gocv.OpenVideoCapture(c.cfg.DeviceID)
	}
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	if !c.isFile() {
		width, height := c.cfg.Width, c.cfg.Height
		if width <= 0 || height <= 0 {
			width, height = DefaultWidth, DefaultHeight
		}
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the source and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame, mirrored when configured.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if c.isFile() {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		if c.isFile() {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("captured frame is empty")
	}

	if !c.cfg.Mirror {
		return &mat, nil
	}
	defer mat.Close()
	return Mirror(&mat), nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil && !c.isFile() {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the source is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Mirror returns a horizontally flipped copy of src.
// The caller is responsible for closing the returned Mat.
func Mirror(src *gocv.Mat) *gocv.Mat {
	dst := gocv.NewMat()
	gocv.Flip(*src, &dst, 1)
	return &dst
}
