package exercise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/timeutil"
)

var testStart = time.Date(2025, 4, 2, 18, 30, 0, 0, time.UTC)

// feed advances c with the same pose n times and returns every result.
func feed(t *testing.T, c Controller, pose *detector.Pose, n int) []Result {
	t.Helper()
	out := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		res, ok := c.Advance(pose)
		require.True(t, ok)
		out = append(out, res)
	}
	return out
}

// completed returns the reps finished within results, in order.
func completed(results []Result) []*CompletedRep {
	var reps []*CompletedRep
	for _, r := range results {
		if r.Rep != nil {
			reps = append(reps, r.Rep)
		}
	}
	return reps
}

func last(results []Result) Result {
	return results[len(results)-1]
}

func newTestSquat(t *testing.T, mutate func(*SquatConfig)) (*Squat, *timeutil.MockClock) {
	t.Helper()
	cfg := DefaultSquatConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := timeutil.NewMockClock(testStart)
	s, err := NewSquat(cfg, clock)
	require.NoError(t, err)
	return s, clock
}

func newTestCurl(t *testing.T) (*Curl, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(testStart)
	c, err := NewCurl(DefaultCurlConfig(), clock)
	require.NoError(t, err)
	return c, clock
}
