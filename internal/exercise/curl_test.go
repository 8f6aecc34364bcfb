package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/counter"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/technique"
)

const extended = 160.0

func curlRep(t *testing.T, c Controller, bend float64) []Result {
	t.Helper()
	var out []Result
	out = append(out, feed(t, c, detector.CurlPose(bend), 4)...)
	out = append(out, feed(t, c, detector.CurlPose(extended), 4)...)
	return out
}

func TestCurl_Feedback(t *testing.T) {
	tests := []struct {
		name string
		bend float64
		want string
	}{
		{name: "full bend", bend: 60, want: technique.VerdictOK},
		{name: "just below bad angle", bend: 79, want: technique.VerdictOK},
		{name: "just above bad angle", bend: 81, want: technique.MsgBendFurther},
		{name: "half rep", bend: 100, want: technique.MsgBendFurther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCurl(t)
			feed(t, c, detector.CurlPose(extended), 4)

			results := curlRep(t, c, tt.bend)
			reps := completed(results)
			require.Len(t, reps, 1)

			assert.Equal(t, tt.want, reps[0].Feedback)
			assert.Equal(t, tt.want, last(results).Feedback)
			assert.InDelta(t, extended, reps[0].Angle, 1e-6, "curl reps record the angle at completion")
		})
	}
}

func TestCurl_PhaseLabels(t *testing.T) {
	c, _ := newTestCurl(t)

	up := last(feed(t, c, detector.CurlPose(extended), 4))
	assert.Equal(t, counter.PhaseUp, up.Phase)
	assert.Equal(t, "HAND DOWN", up.Label)

	down := last(feed(t, c, detector.CurlPose(60), 4))
	assert.Equal(t, counter.PhaseDown, down.Phase)
	assert.Equal(t, "CURL", down.Label)
	assert.Equal(t, KindCurl, down.Exercise)
}

func TestCurl_ShallowBendDoesNotCount(t *testing.T) {
	c, _ := newTestCurl(t)
	feed(t, c, detector.CurlPose(extended), 4)

	res := curlRep(t, c, 125)
	assert.Empty(t, completed(res))
	assert.Equal(t, 0, last(res).Reps)
}

func TestCurl_CountsManyReps(t *testing.T) {
	c, _ := newTestCurl(t)
	feed(t, c, detector.CurlPose(extended), 4)

	for i := 1; i <= 5; i++ {
		reps := completed(curlRep(t, c, 50))
		require.Len(t, reps, 1)
		assert.Equal(t, i, reps[0].Number)
	}
	assert.Equal(t, 5, c.tracker.counter.Reps())
}

func TestCurl_NilPose(t *testing.T) {
	c, _ := newTestCurl(t)

	res, ok := c.Advance(nil)
	assert.False(t, ok)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, c.tracker.smoother.Len())
}
