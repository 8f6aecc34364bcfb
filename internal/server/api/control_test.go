package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/exercise"
)

type fakeSession struct {
	status   app.Status
	switched []exercise.Kind
}

func (f *fakeSession) Status() app.Status { return f.status }

func (f *fakeSession) SetEnabled(enabled bool) { f.status.Enabled = enabled }

func (f *fakeSession) SwitchExercise(kind exercise.Kind) error {
	f.switched = append(f.switched, kind)
	f.status.Exercise = kind
	return nil
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestControlHandler_Status(t *testing.T) {
	f := &fakeSession{status: app.Status{Exercise: exercise.KindSquat, SessionID: "s1", Running: true, Enabled: true}}
	h := NewControlHandler(f)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exercise":"squat","session_id":"s1","running":true,"enabled":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestControlHandler_Control(t *testing.T) {
	f := &fakeSession{status: app.Status{Exercise: exercise.KindSquat, Enabled: true}}
	h := NewControlHandler(f)

	rec := post(h.Control, `{"enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.status.Enabled)
	assert.Empty(t, f.switched)

	rec = post(h.Control, `{"exercise": "biceps"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []exercise.Kind{exercise.KindCurl}, f.switched)
	assert.False(t, f.status.Enabled, "omitted fields are unchanged")

	var st app.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, exercise.KindCurl, st.Exercise)
}

func TestControlHandler_ControlErrors(t *testing.T) {
	f := &fakeSession{}
	h := NewControlHandler(f)

	assert.Equal(t, http.StatusBadRequest, post(h.Control, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Control, `{"exercise": "yoga"}`).Code)
	assert.Empty(t, f.switched)

	rec := httptest.NewRecorder()
	h.Control(rec, httptest.NewRequest(http.MethodGet, "/api/control", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
