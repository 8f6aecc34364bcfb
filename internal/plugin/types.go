// Package plugin discovers external hook executables and runs them when a
// workout event happens. A plugin is a directory holding a plugin.json
// manifest and an executable that reads one Request on stdin and writes one
// Response on stdout.
package plugin

import (
	"encoding/json"
	"slices"
)

// Event names a workout event plugins can subscribe to.
type Event string

const (
	EventRepCompleted   Event = "rep_completed"
	EventPostureAlert   Event = "posture_alert"
	EventSessionStarted Event = "session_started"
	EventSessionEnded   Event = "session_ended"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []Event         `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is the payload written to a plugin's stdin.
type Request struct {
	Event     Event           `json:"event"`
	Exercise  string          `json:"exercise"`
	SessionID string          `json:"session_id,omitempty"`
	Reps      int             `json:"reps"`
	Angle     float64         `json:"angle,omitempty"`
	RPM       float64         `json:"rpm,omitempty"`
	Feedback  string          `json:"feedback,omitempty"`
	Alert     string          `json:"alert,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is what a plugin prints on stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to ev.
func (p *Plugin) Handles(ev Event) bool {
	return slices.Contains(p.Manifest.Events, ev)
}
