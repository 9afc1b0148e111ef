package server

import (
	"bytes"
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

	"github.com/roach88/yggdrasil/internal/delta"
	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/sparql"
	"github.com/roach88/yggdrasil/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	profile distribution.Profile
	result  distribution.RunResult

	mu      sync.Mutex
	scopes  []distribution.Scope
	headers []sparql.Headers
	last    *distribution.RunResult
}

func (f *fakeEngine) Profile() distribution.Profile { return f.profile }

func (f *fakeEngine) Run(ctx context.Context, scope distribution.Scope) distribution.RunResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
	h, _ := sparql.HeadersFrom(ctx)
	f.headers = append(f.headers, h)
	res := f.result
	res.Profile = f.profile.Name
	res.Scope = scope
	f.last = &res
	return res
}

func (f *fakeEngine) LastResult() (distribution.RunResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return distribution.RunResult{}, false
	}
	return *f.last, true
}

type fakeResolver struct {
	agendas []string
	err     error
	got     []string
}

func (f *fakeResolver) Resolve(_ context.Context, subjects []string) ([]string, error) {
	f.got = subjects
	return f.agendas, f.err
}

func newEngine(name string) *fakeEngine {
	return &fakeEngine{profile: distribution.Profile{
		Name:   name,
		Source: "http://ex/graphs/admin",
		Target: "http://ex/graphs/" + name,
	}}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRunDistribution(t *testing.T) {
	gov := newEngine("government")
	s := New(Options{Engines: []Engine{gov}, Enabled: []string{"government"}})

	w := do(t, s, http.MethodPost, "/distributions/government", `{"agendas":["http://ex/agendas/1"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "government", resp.Profile)
	assert.Empty(t, resp.Error)
	require.Len(t, gov.scopes, 1)
	assert.Equal(t, []string{"http://ex/agendas/1"}, gov.scopes[0].Agendas)
	assert.False(t, gov.scopes[0].All)
}

func TestRunDistribution_All(t *testing.T) {
	gov := newEngine("government")
	s := New(Options{Engines: []Engine{gov}})

	w := do(t, s, http.MethodPost, "/distributions/government", `{"all":true,"initial":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gov.scopes, 1)
	assert.True(t, gov.scopes[0].All)
	assert.True(t, gov.scopes[0].Initial)
}

func TestRunDistribution_ForwardsMuHeaders(t *testing.T) {
	gov := newEngine("government")
	s := New(Options{Engines: []Engine{gov}})

	req := httptest.NewRequest(http.MethodPost, "/distributions/government", strings.NewReader(`{"all":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sparql.HeaderSessionID, "http://ex/sessions/1")
	req.Header.Set(sparql.HeaderCallID, "42")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gov.headers, 1)
	assert.Equal(t, "http://ex/sessions/1", gov.headers[0].SessionID)
	assert.Equal(t, "42", gov.headers[0].CallID)
}

func TestRunDistribution_Errors(t *testing.T) {
	busy := newEngine("cabinet")
	busy.result.Err = distribution.ErrRunInProgress

	failing := newEngine("public")
	failing.result.Err = &distribution.RunError{Stage: distribution.StageCopy, Err: errors.New("store down")}

	s := New(Options{Engines: []Engine{busy, failing, newEngine("government")}})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown profile", "/distributions/archive", `{"all":true}`, http.StatusNotFound, "UNKNOWN_PROFILE"},
		{"malformed body", "/distributions/government", `{"agendas":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"agenda not an IRI", "/distributions/government", `{"agendas":["not an iri"]}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty scope", "/distributions/government", `{}`, http.StatusBadRequest, "INVALID_SCOPE"},
		{"busy", "/distributions/cabinet", `{"all":true}`, http.StatusConflict, "RUN_IN_PROGRESS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}

	t.Run("failed run", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/distributions/public", `{"all":true}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp RunResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "store down")
		assert.Equal(t, "copy", resp.FailedStage)
	})
}

func TestListDistributions(t *testing.T) {
	cab := newEngine("cabinet")
	gov := newEngine("government")
	s := New(Options{Engines: []Engine{cab, gov}, Enabled: []string{"government"}})

	do(t, s, http.MethodPost, "/distributions/government", `{"all":true}`)

	w := do(t, s, http.MethodGet, "/distributions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []Distribution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "cabinet", got[0].Profile)
	assert.False(t, got[0].Enabled)
	assert.Nil(t, got[0].LastRun)

	assert.Equal(t, "government", got[1].Profile)
	assert.Equal(t, "http://ex/graphs/government", got[1].Target)
	assert.True(t, got[1].Enabled)
	require.NotNil(t, got[1].LastRun)
	assert.True(t, got[1].LastRun.Scope.All)
}

func TestResolve(t *testing.T) {
	res := &fakeResolver{agendas: []string{"http://ex/agendas/1"}}
	s := New(Options{Resolver: res})

	w := do(t, s, http.MethodPost, "/resolve", `{"subjects":["http://ex/items/1"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"agendas":["http://ex/agendas/1"]}`, w.Body.String())
	assert.Equal(t, []string{"http://ex/items/1"}, res.got)

	w = do(t, s, http.MethodPost, "/resolve", `{"subjects":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	res.err = errors.New("timeout")
	w = do(t, s, http.MethodPost, "/resolve", `{"subjects":["http://ex/items/1"]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "RESOLVE_FAILED", decodeError(t, w).Code)
}

const notification = `[{
  "inserts": [
    {"subject": {"type": "uri", "value": "http://ex/items/1"},
     "predicate": {"type": "uri", "value": "http://purl.org/dc/terms/title"},
     "object": {"type": "literal", "value": "Title"}}
  ],
  "deletes": [
    {"subject": {"type": "uri", "value": "http://ex/items/2"},
     "predicate": {"type": "uri", "value": "http://purl.org/dc/terms/title"},
     "object": {"type": "literal", "value": "Old"}}
  ]
}]`

func TestDelta(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	var (
		mu     sync.Mutex
		passes [][]string
		done   = make(chan struct{}, 1)
	)
	c := delta.NewCoalescer(func(_ context.Context, subjects []string) error {
		mu.Lock()
		passes = append(passes, subjects)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, delta.WithClock(clock), delta.WithDebounce(time.Minute))
	defer func() { _ = c.Stop(context.Background()) }()

	s := New(Options{Coalescer: c})

	req := httptest.NewRequest(http.MethodPost, "/delta", bytes.NewBufferString(notification))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"pending":2}`, w.Body.String())

	clock.Advance(time.Minute)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not run")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, passes, 1)
	assert.Equal(t, []string{"http://ex/items/1", "http://ex/items/2"}, passes[0])
}

func TestDelta_Rejected(t *testing.T) {
	w := do(t, New(Options{}), http.MethodPost, "/delta", notification)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c := delta.NewCoalescer(func(context.Context, []string) error { return nil },
		delta.WithClock(testutil.NewFakeClock(time.Time{})))
	defer func() { _ = c.Stop(context.Background()) }()
	w = do(t, New(Options{Coalescer: c}), http.MethodPost, "/delta", `{"inserts":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DELTA", decodeError(t, w).Code)
	assert.Zero(t, c.Pending())
}
