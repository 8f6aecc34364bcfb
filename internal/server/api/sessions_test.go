package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/report"
	"github.com/ayusman/formcheck/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedSession stores a squat session with the given rep feedbacks.
func seedSession(t *testing.T, s *store.Store, started time.Time, feedback ...string) *store.Session {
	t.Helper()
	sess := &store.Session{Exercise: "squat", StartedAt: started}
	require.NoError(t, s.Sessions().Create(sess))
	for i, fb := range feedback {
		require.NoError(t, s.Reps().Create(&store.RepRecord{
			SessionID: sess.ID,
			Exercise:  "squat",
			RepNumber: i + 1,
			Phase:     "UP",
			Angle:     95.04 + float64(i),
			RPM:       12.26,
			Feedback:  fb,
		}))
	}
	return sess
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)
	older := seedSession(t, s, base, "OK")
	newer := seedSession(t, s, base.Add(time.Hour), "OK", "Go lower")

	rec := serve(NewSessionHandler(s), http.MethodGet, "/api/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp listSessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, newer.ID, resp.Sessions[0].ID)
	assert.Equal(t, 2, resp.Sessions[0].Reps)
	assert.Equal(t, older.ID, resp.Sessions[1].ID)
}

func TestSessionHandler_ListLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)
	for i := range 3 {
		seedSession(t, s, base.Add(time.Duration(i)*time.Minute))
	}
	h := NewSessionHandler(s)

	rec := serve(h, http.MethodGet, "/api/sessions?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listSessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Sessions, 2)

	for _, bad := range []string{"0", "-1", "abc"} {
		rec := serve(h, http.MethodGet, "/api/sessions?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}

func TestSessionHandler_ListEmpty(t *testing.T) {
	rec := serve(NewSessionHandler(newTestStore(t)), http.MethodGet, "/api/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s, time.Now().UTC(), "OK")
	h := NewSessionHandler(s)

	rec := serve(h, http.MethodGet, "/api/sessions/"+sess.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "squat", got.Exercise)
	assert.Equal(t, 1, got.Reps)

	rec = serve(h, http.MethodGet, "/api/sessions/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Session not found"}`, rec.Body.String())
}

func TestSessionHandler_Reps(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s, time.Now().UTC(), "OK", "Go lower")

	rec := serve(NewSessionHandler(s), http.MethodGet, "/api/sessions/"+sess.ID+"/reps")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listRepsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, sess.ID, resp.SessionID)
	require.Len(t, resp.Reps, 2)
	assert.Equal(t, 1, resp.Reps[0].RepNumber)
	assert.Equal(t, "Go lower", resp.Reps[1].Feedback)

	rec = serve(NewSessionHandler(s), http.MethodGet, "/api/sessions/nope/reps")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_RepsCSV(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s, time.Now().UTC(), "OK", "Go lower | Push your knees out")

	rec := serve(NewSessionHandler(s), http.MethodGet, "/api/sessions/"+sess.ID+"/reps.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), sess.ID)

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		report.Header,
		{"squat", "1", "UP", "95.0", "12.3", "OK"},
		{"squat", "2", "UP", "96.0", "12.3", "Go lower | Push your knees out"},
	}, rows)
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s, time.Now().UTC(), "OK")
	h := NewSessionHandler(s)

	rec := serve(h, http.MethodDelete, "/api/sessions/"+sess.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.Sessions().GetByID(sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Reps().CountBySession(sess.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	rec = serve(h, http.MethodDelete, "/api/sessions/"+sess.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_Routing(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s, time.Now().UTC())
	h := NewSessionHandler(s)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/api/sessions", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/sessions/" + sess.ID, http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/sessions/" + sess.ID + "/reps", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/sessions/" + sess.ID + "/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(h, tt.method, tt.target).Code)
		})
	}
}
