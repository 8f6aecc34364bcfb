package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/logging"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/plugin"
	"github.com/ayusman/formcheck/internal/report"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/ayusman/formcheck/internal/tray"
)

func main() {
	fmt.Println("formcheck - exercise form tracker")

	configPath := flag.String("config", "", "path for the TOML config file")
	exerciseName := flag.String("exercise", "", "exercise to track [squat | curl]")
	dbPath := flag.String("db", "", "SQLite database path, empty string disables persistence")
	csvPath := flag.String("csv", "", "append completed reps to this CSV training log")
	addr := flag.String("addr", "", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device index")
	videoFile := flag.String("video", "", "analyze a video file instead of the camera")
	pluginDir := flag.String("plugins", "", "plugin directory")
	webDir := flag.String("web", "", "directory with the dashboard's static files")
	showTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "exercise":
			cfg.Exercise = *exerciseName
		case "db":
			cfg.Store.Path = *dbPath
		case "csv":
			cfg.Store.CSVPath = *csvPath
		case "addr":
			cfg.Server.Addr = *addr
		case "camera":
			cfg.Camera.DeviceID = *cameraID
		case "video":
			cfg.Camera.VideoFile = *videoFile
		case "plugins":
			cfg.Plugins.Dir = *pluginDir
		case "web":
			cfg.Server.WebDir = *webDir
		case "tray":
			cfg.Tray = *showTray
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   cfg.Logging.ToStdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxBackups:    cfg.Logging.MaxBackups,
	})

	var st *store.Store
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			log.Fatalf("create data directory: %s", err)
		}
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			log.Fatalf("open store: %s", err)
		}
		defer st.Close()
		log.Debugf("using database: [%s]", cfg.Store.Path)
	}

	var csvLog *report.Log
	if cfg.Store.CSVPath != "" {
		csvLog, err = report.OpenLog(cfg.Store.CSVPath)
		if err != nil {
			log.Fatalf("open training log: %s", err)
		}
		defer csvLog.Close()
		log.Debugf("appending reps to: [%s]", cfg.Store.CSVPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewManager("formcheck", "app", reg)

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.WithError(err).Warn("plugin discovery failed")
	}
	for _, p := range plugins.List() {
		log.WithField("events", p.Manifest.Events).Infof("loaded plugin %s %s", p.Manifest.Name, p.Manifest.Version)
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Plugins.Timeout), m)
	defer dispatcher.Close()

	kind := cfg.ExerciseKind()
	a, err := app.New(app.Config{
		Exercise:  kind,
		Exercises: cfg.Exercises(),
		Camera:    cfg.Camera,
		Detector:  cfg.Detector,
		Store:     st,
		CSVLog:    csvLog,
		Plugins:   dispatcher,
		Metrics:   m,
	})
	if err != nil {
		log.Fatalf("create app: %s", err)
	}

	live := server.NewLiveHandler(m)
	a.OnResult(live.Publish)

	var srv *server.Server
	dashboardURL := ""
	if cfg.Server.Enabled {
		staticDir := cfg.Server.WebDir
		if staticDir == "" {
			staticDir = findWebDir()
		}
		if staticDir != "" {
			log.Infof("serving static files from: %s", staticDir)
		}

		srv = server.New(server.Config{
			StaticDir: staticDir,
			Store:     st,
			Session:   a,
			Live:      live,
			Gatherer:  reg,
		})
		dashboardURL = "http://" + browserAddr(cfg.Server.Addr)

		go func() {
			log.Infof("starting server on %s", cfg.Server.Addr)
			if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
				log.Errorf("server failed: %s", err)
			}
		}()
	}

	if err := a.Start(); err != nil {
		if errors.Is(err, app.ErrNoDetector) {
			log.Fatalf("%s: install the pose service with pip install -r scripts/requirements.txt", err)
		}
		log.Fatalf("start: %s", err)
	}
	log.Infof("tracking %s", kind)

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	quit := make(chan struct{})
	wait := func() {
		select {
		case <-chOsInterrupt:
			log.Warnln("signal received, shutting down ...")
		case <-a.Done():
			log.Infoln("video finished, shutting down ...")
		case <-quit:
			log.Infoln("quit from tray")
		}
	}

	if cfg.Tray {
		// systray needs the main goroutine.
		t := tray.New(kind)
		t.OnToggle(a.SetEnabled)
		t.OnExercise(func(k exercise.Kind) {
			if err := a.SwitchExercise(k); err != nil {
				log.WithError(err).Error("switch exercise")
			}
		})
		t.OnDashboard(func() {
			if dashboardURL == "" {
				log.Warn("dashboard is disabled, enable [server] in the config")
				return
			}
			if err := openBrowser(dashboardURL); err != nil {
				log.WithError(err).Warn("open dashboard")
			}
		})
		t.OnQuit(func() { close(quit) })
		a.OnResult(t.Update)

		go func() {
			wait()
			t.Quit()
		}()
		t.Run()
	} else {
		wait()
	}

	a.Stop()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("server shutdown: %s", err)
		}
	} else {
		live.Close()
	}
}

// browserAddr turns a listen address into one a browser can open.
func browserAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.formcheck/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
