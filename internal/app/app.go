// Package app runs a workout session: it pulls frames from the camera,
// detects the pose, advances the exercise controller and hands every
// completed rep to the store, the CSV log, plugins and live listeners.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/plugin"
	"github.com/ayusman/formcheck/internal/report"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/ayusman/formcheck/internal/technique"
	"github.com/ayusman/formcheck/internal/timeutil"
)

// ErrNoDetector is returned by Start when no pose detector is available.
var ErrNoDetector = errors.New("no pose detector available")

// Config holds the session settings and the optional sinks. Nil sinks are
// skipped.
type Config struct {
	Exercise  exercise.Kind
	Exercises exercise.Config
	Camera    capture.Config
	Detector  detector.Config

	Store   *store.Store
	CSVLog  *report.Log
	Plugins *plugin.Dispatcher
	Metrics *metrics.Manager
	Clock   timeutil.Clock
}

// Listener receives a copy of every analyzed frame. It is called on the
// pipeline goroutine and must not block.
type Listener func(exercise.Result)

// Status is a snapshot of the running session.
type Status struct {
	Exercise  exercise.Kind    `json:"exercise"`
	SessionID string           `json:"session_id,omitempty"`
	Running   bool             `json:"running"`
	Enabled   bool             `json:"enabled"`
	Last      *exercise.Result `json:"last,omitempty"`
}

// App orchestrates one exercise session at a time.
type App struct {
	config   Config
	clock    timeutil.Clock
	metrics  *metrics.Manager
	camera   capture.Camera
	detector detector.Detector

	// runMu serializes Start and Stop.
	runMu sync.Mutex

	// procMu serializes frame processing with exercise switches.
	procMu     sync.Mutex
	controller exercise.Controller
	sessionID  string
	last       *exercise.Result

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	listeners []Listener
}

// New creates an App for cfg. The MediaPipe detector is used when its
// service script can be found; otherwise SetDetector must be called before
// Start.
func New(cfg Config) (*App, error) {
	if cfg.Exercise == "" {
		cfg.Exercise = exercise.KindSquat
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager("formcheck", "app", prometheus.NewRegistry())
	}

	ctrl, err := exercise.New(cfg.Exercise, cfg.Exercises, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("create %s controller: %w", cfg.Exercise, err)
	}

	a := &App{
		config:     cfg,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		camera:     capture.New(cfg.Camera),
		controller: ctrl,
		enabled:    true,
	}

	if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
		a.detector = mp
		log.Info("using MediaPipe pose detection")
	} else {
		log.WithError(err).Warn("MediaPipe not available")
	}

	return a, nil
}

// SetDetector replaces the pose detector. Call it before Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the frame source. Call it before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// OnResult registers a listener for analyzed frames.
func (a *App) OnResult(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// SetEnabled pauses or resumes analysis. A paused pipeline keeps the
// camera open but reads no frames.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether analysis is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether the pipeline goroutine is alive.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Start opens the camera, begins a session and starts the pipeline.
// Starting a running App is a no-op.
func (a *App) Start() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.mu.RLock()
	running, cam, det := a.stopCh != nil, a.camera, a.detector
	a.mu.RUnlock()

	if running {
		return nil
	}
	if det == nil {
		return ErrNoDetector
	}

	if err := cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.procMu.Lock()
	a.beginSession()
	a.procMu.Unlock()

	stopCh, done := make(chan struct{}), make(chan struct{})
	a.mu.Lock()
	a.stopCh, a.done = stopCh, done
	a.mu.Unlock()

	go newPipeline(a, cam, det).run(stopCh, done)

	log.Info("pipeline started")
	return nil
}

// Done is closed when the pipeline exits, either through Stop or because
// a video file ran out of frames. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline, ends the session and releases the camera and
// detector.
func (a *App) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.mu.Lock()
	stopCh, done, cam, det := a.stopCh, a.done, a.camera, a.detector
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	a.procMu.Lock()
	a.endSession()
	a.procMu.Unlock()

	if err := cam.Close(); err != nil {
		log.WithError(err).Warn("error closing camera")
	}
	if err := det.Close(); err != nil {
		log.WithError(err).Warn("error closing detector")
	}

	log.Info("pipeline stopped")
}

// SwitchExercise replaces the controller with a fresh one for kind. An
// open session is ended and a new one begun.
func (a *App) SwitchExercise(kind exercise.Kind) error {
	ctrl, err := exercise.New(kind, a.config.Exercises, a.clock)
	if err != nil {
		return err
	}

	a.procMu.Lock()
	defer a.procMu.Unlock()

	open := a.sessionID != ""
	if open {
		a.endSession()
	}
	a.config.Exercise = kind
	a.controller = ctrl
	a.last = nil
	if open {
		a.beginSession()
	}

	log.WithField("exercise", kind).Info("switched exercise")
	return nil
}

// Status returns a snapshot of the current session.
func (a *App) Status() Status {
	running := a.Running()
	enabled := a.IsEnabled()

	a.procMu.Lock()
	defer a.procMu.Unlock()

	st := Status{
		Exercise:  a.config.Exercise,
		SessionID: a.sessionID,
		Running:   running,
		Enabled:   enabled,
	}
	if a.last != nil {
		last := *a.last
		st.Last = &last
	}
	return st
}

// ProcessPose advances the controller by one pose and fans the result out
// to the sinks. A nil pose counts as a frame without a person.
func (a *App) ProcessPose(pose *detector.Pose) (exercise.Result, bool) {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	if pose == nil {
		a.metrics.CounterNoPoseFrames.Inc()
		return exercise.Result{}, false
	}

	res, ok := a.controller.Advance(pose)
	if !ok {
		return res, false
	}

	kind := string(res.Exercise)
	a.metrics.GaugeRPM.WithLabelValues(kind).Set(res.RPM)

	if res.Alert != "" {
		a.metrics.CounterAlerts.WithLabelValues(kind, res.Alert).Inc()
		a.dispatch(plugin.Request{
			Event:    plugin.EventPostureAlert,
			Exercise: kind,
			Reps:     res.Reps,
			Angle:    res.Angle,
			Alert:    res.Alert,
		})
	}

	if res.Rep != nil {
		a.recordRep(res)
	}

	last := res
	a.last = &last

	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()
	for _, l := range listeners {
		l(res)
	}

	return res, true
}

func (a *App) recordRep(res exercise.Result) {
	rep := res.Rep
	kind := string(res.Exercise)

	verdict := "ok"
	if rep.Feedback != technique.VerdictOK {
		verdict = "fault"
	}
	a.metrics.CounterReps.WithLabelValues(kind).Inc()
	a.metrics.CounterFeedback.WithLabelValues(kind, verdict).Inc()

	logger := log.WithFields(log.Fields{
		"exercise": kind,
		"rep":      rep.Number,
		"angle":    fmt.Sprintf("%.1f", rep.Angle),
		"rpm":      fmt.Sprintf("%.1f", rep.RPM),
	})
	logger.Info(rep.Feedback)

	if s := a.config.Store; s != nil && a.sessionID != "" {
		err := s.Reps().Create(&store.RepRecord{
			SessionID: a.sessionID,
			Exercise:  kind,
			RepNumber: rep.Number,
			Phase:     string(res.Phase),
			Angle:     rep.Angle,
			RPM:       rep.RPM,
			Feedback:  rep.Feedback,
			CreatedAt: a.clock.Now().UTC(),
		})
		if err != nil {
			logger.WithError(err).Error("failed to store rep")
		}
	}

	if l := a.config.CSVLog; l != nil {
		err := l.Append(report.Row{
			Exercise: kind,
			Reps:     rep.Number,
			State:    string(res.Phase),
			Angle:    rep.Angle,
			RPM:      rep.RPM,
			Feedback: rep.Feedback,
		})
		if err != nil {
			logger.WithError(err).Error("failed to append csv row")
		}
	}

	a.dispatch(plugin.Request{
		Event:    plugin.EventRepCompleted,
		Exercise: kind,
		Reps:     rep.Number,
		Angle:    rep.Angle,
		RPM:      rep.RPM,
		Feedback: rep.Feedback,
	})
}

// dispatch stamps the session ID on req and hands it to the plugins.
func (a *App) dispatch(req plugin.Request) {
	if a.config.Plugins == nil {
		return
	}
	req.SessionID = a.sessionID
	a.config.Plugins.Dispatch(req)
}

// beginSession must be called with procMu held.
func (a *App) beginSession() {
	sess := &store.Session{
		ID:        uuid.New().String(),
		Exercise:  string(a.config.Exercise),
		StartedAt: a.clock.Now().UTC(),
	}
	if s := a.config.Store; s != nil {
		if err := s.Sessions().Create(sess); err != nil {
			log.WithError(err).Error("failed to store session")
		}
	}
	a.sessionID = sess.ID
	a.metrics.GaugeSessionActive.Set(1)

	log.WithFields(log.Fields{"session": sess.ID, "exercise": sess.Exercise}).Info("session started")
	a.dispatch(plugin.Request{Event: plugin.EventSessionStarted, Exercise: sess.Exercise})
}

// endSession must be called with procMu held.
func (a *App) endSession() {
	if a.sessionID == "" {
		return
	}

	reps := 0
	if a.last != nil {
		reps = a.last.Reps
	}

	if s := a.config.Store; s != nil {
		if err := s.Sessions().End(a.sessionID, a.clock.Now().UTC()); err != nil {
			log.WithError(err).Error("failed to end session")
		}
	}
	a.metrics.GaugeSessionActive.Set(0)

	log.WithFields(log.Fields{"session": a.sessionID, "reps": reps}).Info("session ended")
	a.dispatch(plugin.Request{
		Event:    plugin.EventSessionEnded,
		Exercise: string(a.config.Exercise),
		Reps:     reps,
	})
	a.sessionID = ""
}

// frameInterval converts a rate to a ticker period.
func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
