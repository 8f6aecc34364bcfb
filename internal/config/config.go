// Package config loads the formcheck TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
)

// Config is the complete application configuration.
type Config struct {
	// Exercise selects the controller. Unknown names fall back to squat.
	Exercise string `toml:"exercise"`

	// Tray shows the system tray menu.
	Tray bool `toml:"tray"`

	Logging  LoggingConfig        `toml:"logging"`
	Server   ServerConfig         `toml:"server"`
	Store    StoreConfig          `toml:"store"`
	Camera   capture.Config       `toml:"camera"`
	Detector detector.Config      `toml:"detector"`
	Plugins  PluginsConfig        `toml:"plugins"`
	Squat    exercise.SquatConfig `toml:"squat"`
	Curl     exercise.CurlConfig  `toml:"curl"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	ToStdout   bool   `toml:"to_stdout"`
	JSON       bool   `toml:"json"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	WebDir  string `toml:"web_dir"`
}

type StoreConfig struct {
	// Path of the SQLite database. Empty disables persistence.
	Path string `toml:"path"`

	// CSVPath appends every completed rep to a CSV training log.
	CSVPath string `toml:"csv_path"`
}

type PluginsConfig struct {
	Dir     string        `toml:"dir"`
	Timeout time.Duration `toml:"timeout"`
}

// DataDir is where formcheck keeps its state, ~/.formcheck.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formcheck"
	}
	return filepath.Join(home, ".formcheck")
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := DataDir()
	return Config{
		Exercise: string(exercise.KindSquat),
		Logging: LoggingConfig{
			Level:    "info",
			ToStdout: true,
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8080",
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "formcheck.db"),
		},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Plugins: PluginsConfig{
			Dir:     filepath.Join(dataDir, "plugins"),
			Timeout: 5 * time.Second,
		},
		Squat: exercise.DefaultSquatConfig(),
		Curl:  exercise.DefaultCurlConfig(),
	}
}

// Load decodes the TOML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		log.WithField("keys", strings.Join(keys, ", ")).Warn("ignoring unknown config keys")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section that has constraints.
func (c Config) Validate() error {
	if err := c.Exercises().Validate(); err != nil {
		return err
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server: addr is required when enabled")
	}
	if c.Plugins.Timeout < 0 {
		return fmt.Errorf("plugins: timeout must not be negative")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector: min_confidence must be in [0, 1]")
	}
	return nil
}

// Exercises returns the per-exercise tuning.
func (c Config) Exercises() exercise.Config {
	return exercise.Config{Squat: c.Squat, Curl: c.Curl}
}

// ExerciseKind resolves the configured exercise. An unknown name is logged
// and replaced by squat.
func (c Config) ExerciseKind() exercise.Kind {
	kind, err := exercise.ParseKind(c.Exercise)
	if err != nil {
		log.WithField("exercise", c.Exercise).Warn("unknown exercise, defaulting to squat")
		return exercise.KindSquat
	}
	return kind
}
