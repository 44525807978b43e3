package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hmadashboard/internal/handler"
	"hmadashboard/internal/model"
	"hmadashboard/internal/repository"
	"hmadashboard/internal/tracking"
	"hmadashboard/pkg/trace"
)

type emptySnapshot struct{}

func (emptySnapshot) LoadProjects(context.Context) ([]model.Project, bool) {
	return []model.Project{}, true
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type link struct{ up bool }

func (l link) IsConnected() bool { return l.up }

func newTestRouter(t *testing.T, kv Pinger, mq Connectivity) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := tracking.New(repository.NewMemoryKV(), emptySnapshot{}, zap.NewNop())
	store.Load(context.Background())
	return NewRouter(
		handler.NewProjectHandler(store, zap.NewNop()),
		handler.NewMilestoneHandler(store, zap.NewNop()),
		zap.NewNop(),
		kv,
		mq,
	).Engine
}

func serve(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, pinger{}, nil)

	for _, path := range []string{"/healthz", "/health"} {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, path, nil).Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, path, nil).Code)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		kv     Pinger
		mq     Connectivity
		status int
		body   string
	}{
		{"ready", pinger{}, nil, http.StatusOK, "ready"},
		{"ready with mq", pinger{}, link{up: true}, http.StatusOK, "ready"},
		{"storage down", pinger{err: errors.New("dial tcp: refused")}, nil, http.StatusInternalServerError, "storage_not_ready"},
		{"mq down", pinger{}, link{up: false}, http.StatusInternalServerError, "mq_not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.kv, tt.mq)

			w := serve(r, http.MethodGet, "/readyz", nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestTraceHeader(t *testing.T) {
	r := newTestRouter(t, pinger{}, nil)

	w := serve(r, http.MethodGet, "/projects", http.Header{trace.HeaderName: {"abc123"}})
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName))

	w = serve(r, http.MethodGet, "/projects", nil)
	assert.Len(t, w.Header().Get(trace.HeaderName), 32)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, pinger{}, nil)
	serve(r, http.MethodGet, "/status", nil)

	w := serve(r, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestProjectRoutesAreMounted(t *testing.T) {
	r := newTestRouter(t, pinger{}, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/projects", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tracking", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/projects/missing/tracking", nil).Code)
}
