// Package main provides a plugin that speaks rep counts and posture alerts
// aloud. It uses say on macOS and espeak or spd-say elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/ayusman/formcheck/internal/plugin"
	"github.com/ayusman/formcheck/internal/technique"
)

// Settings is read from the manifest's config block.
type Settings struct {
	Voice string `json:"voice"`
	// Rate is words per minute; 0 keeps the synthesizer default.
	Rate int `json:"rate"`
	// Every announces only every Nth rep. Values below 1 mean every rep.
	Every int `json:"every"`
	// Feedback appends the rep's feedback when it is not OK.
	Feedback bool `json:"feedback"`
}

var errNoSynth = errors.New("no speech synthesizer found")

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var s Settings
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &s); err != nil {
			writeResponse(fmt.Errorf("failed to parse config: %w", err))
			return
		}
	}

	text := phrase(req, s)
	if text == "" {
		writeResponse(nil)
		return
	}
	writeResponse(speak(text, s))
}

// phrase returns what to say for req, or "" when the event is skipped.
func phrase(req plugin.Request, s Settings) string {
	switch req.Event {
	case plugin.EventRepCompleted:
		if s.Every > 1 && req.Reps%s.Every != 0 {
			return ""
		}
		text := strconv.Itoa(req.Reps)
		if s.Feedback && req.Feedback != "" && req.Feedback != technique.VerdictOK {
			text += ". " + req.Feedback
		}
		return text
	case plugin.EventPostureAlert:
		return req.Alert
	case plugin.EventSessionEnded:
		return fmt.Sprintf("Session over. %d reps.", req.Reps)
	}
	return ""
}

func speak(text string, s Settings) error {
	name, args, err := command(runtime.GOOS, s, exec.LookPath)
	if err != nil {
		return err
	}
	args = append(args, text)
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, out)
	}
	return nil
}

// command picks the synthesizer for goos and builds its flags.
func command(goos string, s Settings, lookPath func(string) (string, error)) (string, []string, error) {
	if goos == "darwin" {
		var args []string
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.Rate))
		}
		return "say", args, nil
	}

	if _, err := lookPath("espeak"); err == nil {
		var args []string
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(s.Rate))
		}
		return "espeak", args, nil
	}
	if _, err := lookPath("spd-say"); err == nil {
		args := []string{"--wait"}
		if s.Voice != "" {
			args = append(args, "-l", s.Voice)
		}
		return "spd-say", args, nil
	}
	return "", nil, errNoSynth
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
