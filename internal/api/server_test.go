package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/remote"
	"github.com/marcus/tdash/internal/serverdb"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]serverdb.TaskRow
	err  error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]serverdb.TaskRow{}}
}

func (m *memStore) Upsert(_ context.Context, row *serverdb.TaskRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	*row = row.Canonical()
	m.rows[row.UserID+"/"+row.ID] = *row
	return nil
}

func (m *memStore) Get(_ context.Context, uid, id string) (*serverdb.TaskRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[uid+"/"+id]
	if !ok {
		return nil, serverdb.ErrTaskNotFound
	}
	return &row, nil
}

func (m *memStore) ListByUser(_ context.Context, uid string) ([]serverdb.TaskRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []serverdb.TaskRow
	for _, r := range m.rows {
		if r.UserID == uid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, uid, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[uid+"/"+id]; !ok {
		return serverdb.ErrTaskNotFound
	}
	delete(m.rows, uid+"/"+id)
	return nil
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, store TaskStore, db Pinger) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := NewServer(Config{ListenAddr: "127.0.0.1:0", JWTSecret: "test-secret", JWTExpiry: time.Hour, RateLimit: 100}, store, db)
	require.NoError(t, err)
	t.Cleanup(func() { s.rateLimiter.Stop() })
	return s
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, s *Server, uid string) string {
	t.Helper()
	tok, err := s.Issuer().GenerateToken(uid)
	require.NoError(t, err)
	return tok
}

func TestNewServerRequiresSecret(t *testing.T) {
	_, err := NewServer(Config{}, newMemStore(), nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newMemStore(), nil)
	w := doRequest(t, s.Handler(), "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	s = newTestServer(t, newMemStore(), downDB{})
	w = doRequest(t, s.Handler(), "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, newMemStore(), nil)
	h := s.Handler()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, ErrCodeUnauthorized, body.Error.Code)
		})
	}
}

func TestUpsertListDelete(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, nil)
	h := s.Handler()
	tok := token(t, s, "u1")

	w := doRequest(t, h, "PUT", "/v1/tasks/t1", tok, `{"title":"Ship","status":"active","urgent":true,"important":false,"priority":"low"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stored serverdb.TaskRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "medium", stored.Priority)

	w = doRequest(t, h, "GET", "/v1/tasks", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Tasks, 1)

	w = doRequest(t, h, "GET", "/v1/tasks/t1", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, "DELETE", "/v1/tasks/t1", tok, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(t, h, "DELETE", "/v1/tasks/t1", tok, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	snap := s.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.TaskUpserts)
	assert.Equal(t, int64(1), snap.TaskDeletes)
}

func TestUpsertResolvesEisenhowerPair(t *testing.T) {
	s := newTestServer(t, newMemStore(), nil)
	h := s.Handler()
	tok := token(t, s, "u1")

	cases := []struct {
		name, body, want string
	}{
		{"both false beats priority", `{"title":"x","urgent":false,"important":false,"priority":"urgent"}`, "low"},
		{"priority only", `{"title":"x","priority":"urgent"}`, "urgent"},
		{"partial pair uses priority", `{"title":"x","urgent":true,"priority":"high"}`, "high"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, h, "PUT", "/v1/tasks/t1", tok, tc.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var stored serverdb.TaskRow
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
			assert.Equal(t, tc.want, stored.Priority)
		})
	}
}

func TestUsersAreIsolated(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, nil)
	h := s.Handler()

	doRequest(t, h, "PUT", "/v1/tasks/t1", token(t, s, "u1"), `{"title":"mine"}`)

	other := token(t, s, "u2")
	w := doRequest(t, h, "GET", "/v1/tasks/t1", other, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, h, "GET", "/v1/tasks?user_id=u1", other, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, h, "PUT", "/v1/tasks/t9", other, `{"title":"x","user_id":"u1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpsertValidation(t *testing.T) {
	s := newTestServer(t, newMemStore(), nil)
	h := s.Handler()
	tok := token(t, s, "u1")

	w := doRequest(t, h, "PUT", "/v1/tasks/t1", tok, `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, "PUT", "/v1/tasks/t1", tok, `{"title":"x","id":"t2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, "PUT", "/v1/tasks/t1", tok, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreFailureIs500(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("db down")
	s := newTestServer(t, store, nil)

	w := doRequest(t, s.Handler(), "GET", "/v1/tasks", token(t, s, "u1"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int64(1), s.metrics.Snapshot().ServerErrors)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, err := NewServer(Config{JWTSecret: "k", RateLimit: 2}, newMemStore(), nil)
	require.NoError(t, err)
	defer s.rateLimiter.Stop()
	h := s.Handler()
	tok := token(t, s, "u1")

	assert.Equal(t, http.StatusOK, doRequest(t, h, "GET", "/v1/tasks", tok, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, h, "GET", "/v1/tasks", tok, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, h, "GET", "/v1/tasks", tok, "").Code)
	// other users have their own bucket
	assert.Equal(t, http.StatusOK, doRequest(t, h, "GET", "/v1/tasks", token(t, s, "u2"), "").Code)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("k", 1))
	assert.False(t, rl.Allow("k", 1))
	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("k", 1))

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.buckets)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(recoveryMiddleware())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := doRequest(t, r, "GET", "/boom", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeInternal)
}

// The remote client and the server agree on routes, wire format and errors.
func TestRemoteClientAgainstServer(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	c := remote.New(srv.URL, remote.StaticToken(token(t, s, "u1")), 0)
	ctx := context.Background()
	created := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	task := models.Normalize(models.Task{ID: "t1", Title: "Call Ann", Status: models.StatusWaitingFor, DelegatedTo: "Ann", Important: true, CreatedAt: created})
	require.NoError(t, c.Upsert(ctx, "u1", task))

	got, err := c.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StatusWaitingFor, got[0].Status)
	assert.Equal(t, "Ann", got[0].DelegatedTo)
	assert.Equal(t, models.PriorityHigh, got[0].Priority())
	assert.True(t, got[0].CreatedAt.Equal(created))

	require.NoError(t, c.Delete(ctx, "u1", "t1"))
	assert.ErrorIs(t, c.Delete(ctx, "u1", "t1"), remote.ErrNotFound)

	_, err = c.ListByUser(ctx, "u2")
	assert.ErrorIs(t, err, remote.ErrForbidden)

	bad := remote.New(srv.URL, remote.StaticToken("nope"), 0)
	assert.ErrorIs(t, bad.Upsert(ctx, "u1", task), remote.ErrUnauthorized)
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("JWT_SECRET", "s3")
	t.Setenv("JWT_EXPIRY_HOURS", "0")
	t.Setenv("RATE_LIMIT", "7")
	t.Setenv("DB_HOST", "db.internal")

	cfg := LoadConfig()

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "s3", cfg.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.JWTExpiry)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
}
