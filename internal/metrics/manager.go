// Package metrics exposes Prometheus instruments for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterFrames       prometheus.Counter
	CounterNoPoseFrames prometheus.Counter
	CounterFrameErrors  *prometheus.CounterVec
	CounterReps         *prometheus.CounterVec
	CounterFeedback     *prometheus.CounterVec
	CounterAlerts       *prometheus.CounterVec
	CounterPluginRuns   *prometheus.CounterVec

	// gauges
	GaugeRPM           *prometheus.GaugeVec
	GaugeSessionActive prometheus.Gauge
	GaugeLiveClients   prometheus.Gauge

	// histograms
	HistFrameDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("formcheck", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("formcheck", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "The total number of analyzed frames",
	})
	counterNoPose := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_without_pose",
		Help:      "The total number of frames where nobody was detected",
	})
	counterFrameErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frame_errors",
		Help:      "The total number of frames dropped because of an error",
	}, []string{"stage"})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of completed repetitions",
	}, []string{"exercise"})
	counterFeedback := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rep_feedback",
		Help:      "Completed repetitions by feedback verdict",
	}, []string{"exercise", "verdict"})
	counterAlerts := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "posture_alerts",
		Help:      "The total number of posture alerts raised",
	}, []string{"exercise", "alert"})
	counterPluginRuns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plugin_runs",
		Help:      "Plugin invocations by outcome",
	}, []string{"plugin", "status"})

	gaugeRPM := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps_per_minute",
		Help:      "Current repetition rate",
	}, []string{"exercise"})
	gaugeSessionActive := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_active",
		Help:      "1 while a session is running",
	})
	gaugeLiveClients := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_clients",
		Help:      "Connected live feed clients",
	})

	histFrameDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.001, 0.0025, 0.005, 0.01, 0.02, 0.033,
				0.05, 0.1, 0.25, 0.5, 1,
			},
			Name: "frame_duration_seconds",
			Help: "Time to capture, detect and analyze one frame",
		},
	)

	return &Manager{
		CounterFrames:       counterFrames,
		CounterNoPoseFrames: counterNoPose,
		CounterFrameErrors:  counterFrameErrors,
		CounterReps:         counterReps,
		CounterFeedback:     counterFeedback,
		CounterAlerts:       counterAlerts,
		CounterPluginRuns:   counterPluginRuns,
		GaugeRPM:            gaugeRPM,
		GaugeSessionActive:  gaugeSessionActive,
		GaugeLiveClients:    gaugeLiveClients,
		HistFrameDuration:   histFrameDuration,
	}
}
