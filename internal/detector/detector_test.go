package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/geometry"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.ModelComplexity)
	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, 0.5, cfg.MinTrackingConf)
	assert.Positive(t, cfg.IdleTimeout)
}

func TestLegOfArmOf(t *testing.T) {
	assert.Equal(t, Leg{Hip: RightHip, Knee: RightKnee, Ankle: RightAnkle}, LegOf(SideRight))
	assert.Equal(t, Leg{Hip: LeftHip, Knee: LeftKnee, Ankle: LeftAnkle}, LegOf(SideLeft))
	assert.Equal(t, Arm{Shoulder: LeftShoulder, Elbow: LeftElbow, Wrist: LeftWrist}, ArmOf(SideLeft))
	assert.Equal(t, Arm{Shoulder: RightShoulder, Elbow: RightElbow, Wrist: RightWrist}, ArmOf(SideRight))

	assert.True(t, SideLeft.Valid())
	assert.True(t, SideRight.Valid())
	assert.False(t, Side("both").Valid())
}

func landmarkLine(t *testing.T, n int) string {
	t.Helper()
	lms := make([]jsonLandmark, n)
	for i := range lms {
		lms[i] = jsonLandmark{X: 0.5, Y: 0.25, Z: -0.1, Visibility: 0.9}
	}
	data, err := json.Marshal(jsonResponse{Pose: &jsonPose{Landmarks: lms}})
	require.NoError(t, err)
	return string(data) + "\n"
}

func TestParseResponse(t *testing.T) {
	t.Run("scales to pixels", func(t *testing.T) {
		pose, err := parseResponse([]byte(landmarkLine(t, NumLandmarks)), 640, 480)
		require.NoError(t, err)
		require.NotNil(t, pose)

		assert.Equal(t, 640, pose.Width)
		assert.Equal(t, 480, pose.Height)
		assert.Equal(t, Keypoint{X: 320, Y: 120, Z: -0.1, Visibility: 0.9}, pose.Landmarks[RightKnee])
		assert.Equal(t, geometry.Point{X: 320, Y: 120}, pose.Point(LeftWrist))
	})

	t.Run("no person", func(t *testing.T) {
		pose, err := parseResponse([]byte(`{"pose": null}`), 640, 480)
		require.NoError(t, err)
		assert.Nil(t, pose)
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"pose": null, "error": "decode failed"}`), 640, 480)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode failed")
	})

	t.Run("wrong landmark count", func(t *testing.T) {
		_, err := parseResponse([]byte(landmarkLine(t, 21)), 640, 480)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseResponse([]byte(strings.Repeat("x", 8)), 640, 480)
		assert.Error(t, err)
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns fixed pose", func(t *testing.T) {
		d := NewMockDetector()
		want := SquatPose(150)
		d.SetPose(want)

		for i := 0; i < 3; i++ {
			got, err := d.Detect(nil)
			require.NoError(t, err)
			assert.Same(t, want, got)
		}
		assert.Equal(t, 3, d.Calls())
	})

	t.Run("plays back a sequence", func(t *testing.T) {
		d := NewMockDetector()
		a, b := CurlPose(160), CurlPose(60)
		d.SetSequence([]*Pose{a, nil, b})

		got, _ := d.Detect(nil)
		assert.Same(t, a, got)
		got, _ = d.Detect(nil)
		assert.Nil(t, got)
		got, _ = d.Detect(nil)
		assert.Same(t, b, got)
		assert.Equal(t, 0, d.Remaining())

		got, _ = d.Detect(nil)
		assert.Nil(t, got)
	})

	t.Run("returns error", func(t *testing.T) {
		d := NewMockDetector()
		d.SetError(errors.New("model crashed"))

		_, err := d.Detect(nil)
		assert.EqualError(t, err, "model crashed")
		assert.NoError(t, d.Close())
	})
}

func TestSquatPose(t *testing.T) {
	for _, want := range []float64{60, 90, 105, 140, 160, 165} {
		t.Run(fmt.Sprintf("%.0f degrees", want), func(t *testing.T) {
			p := SquatPose(want)
			got := geometry.Angle(p.Point(RightHip), p.Point(RightKnee), p.Point(RightAnkle))
			assert.InDelta(t, want, got, 0.01)
		})
	}

	assert.Greater(t, MaxSquatFixtureAngle, 165.0)
	assert.Less(t, MaxSquatFixtureAngle, 170.0)

	p := SquatPose(120)
	assert.InDelta(t, 210, geometry.HorizontalDistance(p.Point(LeftKnee), p.Point(RightKnee)), 1e-9)
	assert.InDelta(t, 80, geometry.HorizontalDistance(p.WithKneeGap(80).Point(LeftKnee), p.Point(RightKnee)), 1e-9)
}

func TestCurlPose(t *testing.T) {
	for _, want := range []float64{30, 60, 80, 120, 170} {
		t.Run(fmt.Sprintf("%.0f degrees", want), func(t *testing.T) {
			p := CurlPose(want)
			got := geometry.Angle(p.Point(LeftShoulder), p.Point(LeftElbow), p.Point(LeftWrist))
			assert.InDelta(t, want, got, 1e-3)
		})
	}
}
