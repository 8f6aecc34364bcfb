package app

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
)

// pipeline owns the per-run state of the frame loop.
type pipeline struct {
	app    *App
	camera capture.Camera
	det    detector.Detector
	cfg    capture.Config

	// gate is nil when motion gating is off.
	gate   *capture.MotionGate
	ticker *time.Ticker
}

func newPipeline(a *App, cam capture.Camera, det detector.Detector) *pipeline {
	p := &pipeline{
		app:    a,
		camera: cam,
		det:    det,
		cfg:    a.config.Camera,
	}
	if p.cfg.MotionThreshold > 0 {
		p.gate = capture.NewMotionGate(p.cfg.MotionThreshold, p.cfg.IdleAfter, a.clock)
	}
	return p
}

// run is the frame loop. Without a motion gate every frame is analyzed at
// the configured rate. With one the loop starts idle at IdleFPS, switches to
// the full rate on motion and back to idle after IdleAfter without motion;
// pose detection only runs while active.
func (p *pipeline) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if p.gate != nil {
		defer p.gate.Close()
	}

	fps := p.cfg.FPS
	if p.gate != nil {
		fps = p.cfg.IdleFPS
	}
	p.setRate(fps)
	defer p.ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-p.ticker.C:
			if !p.app.IsEnabled() {
				continue
			}

			frame, err := p.camera.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Info("end of video stream")
				return
			}
			if err != nil {
				log.WithError(err).Warn("error reading frame")
				p.app.metrics.CounterFrameErrors.WithLabelValues("capture").Inc()
				continue
			}

			p.handle(frame)
		}
	}
}

// handle analyzes one frame and closes it.
func (p *pipeline) handle(frame *gocv.Mat) {
	start := p.app.clock.Now()
	p.app.metrics.CounterFrames.Inc()

	if p.cfg.Mirror {
		mirrored := capture.Mirror(frame)
		frame.Close()
		frame = mirrored
	}
	defer frame.Close()

	if p.gate != nil {
		active, changed := p.gate.Observe(frame)
		if changed {
			if active {
				p.setRate(p.cfg.FPS)
				log.Debug("motion detected, switching to active mode")
			} else {
				p.setRate(p.cfg.IdleFPS)
				log.Debug("no motion, switching to idle mode")
			}
		}
		if !active {
			return
		}
	}

	pose, err := p.det.Detect(frame)
	if err != nil {
		log.WithError(err).Warn("error detecting pose")
		p.app.metrics.CounterFrameErrors.WithLabelValues("detect").Inc()
		return
	}

	p.app.ProcessPose(pose)
	p.app.metrics.HistFrameDuration.Observe(p.app.clock.Since(start).Seconds())
}

func (p *pipeline) setRate(fps int) {
	p.camera.SetFPS(fps)
	if p.ticker == nil {
		p.ticker = time.NewTicker(frameInterval(fps))
		return
	}
	p.ticker.Reset(frameInterval(fps))
}
