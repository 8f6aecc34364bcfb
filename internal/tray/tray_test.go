package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/technique"
)

func TestRepsLine(t *testing.T) {
	tests := []struct {
		name string
		res  exercise.Result
		want string
	}{
		{
			name: "fresh",
			res:  exercise.Result{Exercise: exercise.KindSquat},
			want: "squat: 0 reps",
		},
		{
			name: "with phase",
			res:  exercise.Result{Exercise: exercise.KindCurl, Reps: 3, Phase: counter.PhaseDown, Label: "DOWN"},
			want: "curl: 3 reps · DOWN",
		},
		{
			name: "with rate",
			res:  exercise.Result{Exercise: exercise.KindSquat, Reps: 7, Label: "UP", RPM: 12.5},
			want: "squat: 7 reps · UP · 12.5 rpm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repsLine(tt.res))
		})
	}
}

func TestFeedbackLine(t *testing.T) {
	assert.Equal(t, "Last rep: none", feedbackLine(""))
	assert.Equal(t, "Last rep: good", feedbackLine(technique.VerdictOK))
	assert.Equal(t, "Last rep: "+technique.MsgGoLower, feedbackLine(technique.MsgGoLower))
}

func TestToggleTitle(t *testing.T) {
	assert.Contains(t, toggleTitle(true), "Tracking")
	assert.Contains(t, toggleTitle(false), "Paused")
}

func TestTray_Toggle(t *testing.T) {
	tr := New(exercise.KindSquat)
	assert.True(t, tr.enabled)

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, tr.enabled)
}

func TestTray_Exercise(t *testing.T) {
	tr := New(exercise.KindSquat)

	var got []exercise.Kind
	tr.OnExercise(func(k exercise.Kind) { got = append(got, k) })

	tr.handleExercise(exercise.KindSquat)
	assert.Empty(t, got, "picking the current exercise is a no-op")

	tr.handleExercise(exercise.KindCurl)
	assert.Equal(t, []exercise.Kind{exercise.KindCurl}, got)
	assert.Equal(t, exercise.KindCurl, tr.current)
	assert.Equal(t, "curl: 0 reps", tr.reps)
}

func TestTray_Dashboard(t *testing.T) {
	tr := New(exercise.KindSquat)
	tr.handleDashboard()

	opened := false
	tr.OnDashboard(func() { opened = true })
	tr.handleDashboard()
	assert.True(t, opened)
}

func TestTray_UpdateBeforeReady(t *testing.T) {
	tr := New(exercise.KindSquat)

	tr.Update(exercise.Result{
		Exercise: exercise.KindSquat,
		Reps:     1,
		Label:    "UP",
		Rep:      &exercise.CompletedRep{Number: 1, Feedback: technique.MsgGoLower},
	})
	assert.Equal(t, "1", tr.title)
	assert.Equal(t, "squat: 1 reps · UP", tr.reps)
	assert.Equal(t, "Last rep: "+technique.MsgGoLower, tr.feedback)

	// Frames between reps keep the last rep's feedback.
	tr.Update(exercise.Result{Exercise: exercise.KindSquat, Reps: 1, Label: "DOWN"})
	assert.Equal(t, "Last rep: "+technique.MsgGoLower, tr.feedback)
	assert.Equal(t, "squat: 1 reps · DOWN", tr.reps)
}

func TestTray_UpdateFollowsExternalSwitch(t *testing.T) {
	tr := New(exercise.KindSquat)

	var got []exercise.Kind
	tr.OnExercise(func(k exercise.Kind) { got = append(got, k) })

	// Switched elsewhere, e.g. over the HTTP API.
	tr.Update(exercise.Result{Exercise: exercise.KindCurl})
	assert.Equal(t, exercise.KindCurl, tr.current)
	assert.Empty(t, got, "following a result must not switch again")

	tr.handleExercise(exercise.KindSquat)
	assert.Equal(t, []exercise.Kind{exercise.KindSquat}, got)
	assert.Equal(t, exercise.KindSquat, tr.current)
}
