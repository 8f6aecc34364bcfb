// Package tray provides the system tray menu: live rep count, the last
// rep's feedback, a pause toggle, exercise selection and quit.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/technique"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onExercise  func(kind exercise.Kind)
	onDashboard func()
	onQuit      func()
	enabled     bool
	current     exercise.Kind
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuReps      *systray.MenuItem
	menuFeedback  *systray.MenuItem
	menuExercises map[exercise.Kind]*systray.MenuItem

	// Last rendered text, so per-frame updates only touch the menu on change.
	title, reps, feedback string
}

// New creates a Tray for kind with analysis enabled.
func New(kind exercise.Kind) *Tray {
	return &Tray{
		enabled: true,
		current: kind,
	}
}

// OnToggle sets the callback for the pause toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExercise sets the callback for picking another exercise.
func (t *Tray) OnExercise(fn func(kind exercise.Kind)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnDashboard sets the callback for the dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("formcheck")
	systray.SetTooltip("formcheck exercise tracker")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume analysis")
	systray.AddSeparator()

	t.menuReps = systray.AddMenuItem(repsLine(exercise.Result{Exercise: t.current}), "Current set")
	t.menuReps.Disable()
	t.menuFeedback = systray.AddMenuItem(feedbackLine(""), "Feedback for the last rep")
	t.menuFeedback.Disable()
	systray.AddSeparator()

	menuExercise := systray.AddMenuItem("Exercise", "Switch exercise")
	t.menuExercises = make(map[exercise.Kind]*systray.MenuItem)
	for _, kind := range exercise.Kinds() {
		item := menuExercise.AddSubMenuItem(string(kind), "Switch to "+string(kind))
		if kind == t.current {
			item.Check()
		}
		t.menuExercises[kind] = item
	}
	t.mu.Unlock()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit formcheck")

	for kind, item := range t.menuExercises {
		go func() {
			for range item.ClickedCh {
				t.handleExercise(kind)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleExercise(kind exercise.Kind) {
	t.mu.Lock()
	if kind == t.current {
		t.mu.Unlock()
		return
	}
	t.selectExercise(kind)
	callback := t.onExercise
	t.mu.Unlock()

	t.Update(exercise.Result{Exercise: kind})
	if callback != nil {
		callback(kind)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update shows res in the title and menu. It is safe to call for every
// frame and before the tray is ready.
func (t *Tray) Update(res exercise.Result) {
	title := fmt.Sprintf("%d", res.Reps)
	reps := repsLine(res)

	t.mu.Lock()
	defer t.mu.Unlock()

	// The exercise can also be switched from the HTTP API.
	if res.Exercise != "" && res.Exercise != t.current {
		t.selectExercise(res.Exercise)
	}

	fb := t.feedback
	if res.Rep != nil || res.Reps == 0 {
		fb = feedbackLine(repFeedback(res))
	}

	if t.menuReps == nil {
		t.title, t.reps, t.feedback = title, reps, fb
		return
	}
	if title != t.title {
		systray.SetTitle(title)
		t.title = title
	}
	if reps != t.reps {
		t.menuReps.SetTitle(reps)
		t.reps = reps
	}
	if fb != t.feedback {
		t.menuFeedback.SetTitle(fb)
		t.feedback = fb
	}
}

// selectExercise must be called with mu held.
func (t *Tray) selectExercise(kind exercise.Kind) {
	t.current = kind
	for k, item := range t.menuExercises {
		if k == kind {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func repsLine(res exercise.Result) string {
	line := fmt.Sprintf("%s: %d reps", res.Exercise, res.Reps)
	if res.Label != "" {
		line += " · " + res.Label
	}
	if res.RPM > 0 {
		line += fmt.Sprintf(" · %.1f rpm", res.RPM)
	}
	return line
}

func repFeedback(res exercise.Result) string {
	if res.Rep == nil {
		return ""
	}
	return res.Rep.Feedback
}

func feedbackLine(feedback string) string {
	switch feedback {
	case "":
		return "Last rep: none"
	case technique.VerdictOK:
		return "Last rep: good"
	}
	return "Last rep: " + feedback
}
