package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hmadashboard/internal/model"
)

func serve(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/data/"+ProjectsFile {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLoadProjects(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"projects":[{"id":1,"name":"Brochure","completionPercentage":40},{"id":"P2","name":"Video"}]}`)
	l := NewLoader(srv.URL+"/", time.Second, zap.NewNop())

	projects, ok := l.LoadProjects(context.Background())

	require.True(t, ok)
	require.Len(t, projects, 2)
	assert.Equal(t, model.ID("1"), projects[0].ID)
	assert.Equal(t, 40, projects[0].CompletionPercentage)
	assert.Equal(t, model.ID("P2"), projects[1].ID)
}

func TestLoadProjects_MissingArrayIsEmpty(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{}`)
	l := NewLoader(srv.URL, time.Second, zap.NewNop())

	projects, ok := l.LoadProjects(context.Background())

	assert.True(t, ok)
	assert.Empty(t, projects)
}

func TestLoadJSON_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"projects":[]}`},
		{"server error", http.StatusInternalServerError, ``},
		{"invalid json", http.StatusOK, `{"projects": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := serve(t, tt.status, tt.body)
			l := NewLoader(srv.URL, time.Second, zap.NewNop())

			assert.Nil(t, l.LoadJSON(context.Background(), ProjectsFile))
			_, ok := l.LoadProjects(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestLoadJSON_Unreachable(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{}`)
	srv.Close()
	l := NewLoader(srv.URL, 200*time.Millisecond, zap.NewNop())

	assert.Nil(t, l.LoadJSON(context.Background(), ProjectsFile))
}

func TestLoadJSON_BreakerStopsCallingAfterFailures(t *testing.T) {
	srv, hits := serve(t, http.StatusBadGateway, ``)
	l := NewLoader(srv.URL, time.Second, zap.NewNop())

	for range 5 {
		assert.Nil(t, l.LoadJSON(context.Background(), ProjectsFile))
	}
	assert.Equal(t, 3, *hits)
}

func TestLoadProjects_FileBaseURL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", ProjectsFile),
		[]byte(`{"projects":[{"id":"7","name":"Local"}]}`), 0o644))
	l := NewLoader("file://"+dir, time.Second, zap.NewNop())

	projects, ok := l.LoadProjects(context.Background())

	require.True(t, ok)
	require.Len(t, projects, 1)
	assert.Equal(t, "Local", projects[0].Name)

	assert.Nil(t, l.LoadJSON(context.Background(), "team.json"))
}
