package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Row{
		{Exercise: "squat", Reps: 1, State: "UP", Angle: 97.449, RPM: 0, Feedback: "OK"},
		{Exercise: "squat", Reps: 2, State: "UP", Angle: 112.06, RPM: 14.28, Feedback: "Go lower | Push your knees out"},
	})
	require.NoError(t, err)

	want := "exercise,reps,state,angle,rpm,feedback\n" +
		"squat,1,UP,97.4,0.0,OK\n" +
		"squat,2,UP,112.1,14.3,Go lower | Push your knees out\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_QuotesFeedback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Row{{Exercise: "curl", Reps: 3, State: "UP", Angle: 160, Feedback: "Bend, then squeeze"}}))

	assert.Contains(t, buf.String(), `curl,3,UP,160.0,0.0,"Bend, then squeeze"`)
}

func TestLog_AppendsWithSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "training_log.csv")

	l, err := OpenLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(Row{Exercise: "curl", Reps: 1, State: "UP", Angle: 158.26, RPM: 0, Feedback: "OK"}))
	require.NoError(t, l.Close())

	l, err = OpenLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(Row{Exercise: "curl", Reps: 2, State: "UP", Angle: 157.0, RPM: 9.96, Feedback: "Bend your arm more"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"exercise,reps,state,angle,rpm,feedback\n"+
			"curl,1,UP,158.3,0.0,OK\n"+
			"curl,2,UP,157.0,10.0,Bend your arm more\n",
		string(data),
		"rows are flushed before Close",
	)
	require.NoError(t, l.Close())
}
