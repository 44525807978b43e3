package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hmadashboard/internal/model"
	"hmadashboard/internal/repository"
	"hmadashboard/internal/tracking"
)

type stubSnapshot struct{ projects []model.Project }

func (s stubSnapshot) LoadProjects(context.Context) ([]model.Project, bool) {
	return s.projects, true
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	today := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store := tracking.New(repository.NewMemoryKV(), stubSnapshot{projects: []model.Project{
		{ID: "1", Name: "Brochure", Description: "Print run", Status: model.StatusOngoing, CompletionPercentage: 40},
	}}, zap.NewNop(), tracking.WithClock(func() time.Time { return today }))
	store.Load(context.Background())

	ph := NewProjectHandler(store, zap.NewNop())
	mh := NewMilestoneHandler(store, zap.NewNop())

	r := gin.New()
	r.GET("/projects", ph.ListProjects)
	r.POST("/projects", ph.CreateProject)
	r.GET("/projects/:id", ph.GetProject)
	r.PATCH("/projects/:id", ph.UpdateProject)
	r.DELETE("/projects/:id", ph.DeleteProject)
	r.PUT("/projects/:id/status", ph.UpdateStatus)
	r.POST("/projects/:id/progress", ph.RecomputeProgress)
	r.GET("/projects/:id/tracking", ph.GetTracking)
	r.POST("/projects/:id/updates", ph.AddUpdate)
	r.POST("/projects/:id/milestones", mh.AddMilestone)
	r.PATCH("/projects/:id/milestones/:mid", mh.UpdateMilestone)
	r.DELETE("/projects/:id/milestones/:mid", mh.DeleteMilestone)
	r.POST("/requests/convert", ph.ConvertRequest)
	r.POST("/refresh", ph.Refresh)
	r.GET("/tracking", ph.ListTracking)
	r.GET("/status", ph.Status)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func createProject(t *testing.T, r http.Handler) string {
	t.Helper()
	w, out := do(t, r, http.MethodPost, "/projects",
		`{"name":"Launch","description":"Spring launch","startDate":"2025-01-01","endDate":"2025-01-31"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return out["project"].(map[string]any)["id"].(string)
}

func TestListProjects(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodGet, "/projects", "")

	assert.Equal(t, http.StatusOK, w.Code)
	projects := out["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "Brochure", projects[0].(map[string]any)["name"])
}

func TestCreateProject(t *testing.T) {
	r := newTestEngine(t)
	id := createProject(t, r)

	w, out := do(t, r, http.MethodGet, "/projects/"+id+"/tracking", "")
	require.Equal(t, http.StatusOK, w.Code)
	tr := out["tracking"].(map[string]any)
	assert.Len(t, tr["milestones"], 4)
	assert.Equal(t, "Marketing Executive", tr["owner"])
}

func TestCreateProject_ValidationError(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPost, "/projects", `{"name":"","description":"x","endDate":"2024-01-01","startDate":"2025-01-01"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "End date must be after start date, Project name is required", out["error"])
	fields := out["fields"].(map[string]any)
	assert.Equal(t, "Project name is required", fields["name"])
}

func TestCreateProject_MalformedJSON(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPost, "/projects", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", out["error"])
}

func TestGetProject_NotFound(t *testing.T) {
	r := newTestEngine(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/projects/404", ""},
		{http.MethodPatch, "/projects/404", `{"name":"x"}`},
		{http.MethodDelete, "/projects/404", ""},
		{http.MethodPut, "/projects/404/status", `{"status":"Completed"}`},
		{http.MethodPost, "/projects/404/progress", ""},
		{http.MethodPost, "/projects/404/updates", `{"message":"hi"}`},
		{http.MethodDelete, "/projects/1/milestones/m-x", ""},
	} {
		w, out := do(t, r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
		assert.Equal(t, "item no longer exists", out["error"])
	}
}

func TestUpdateProject(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPatch, "/projects/1", `{"priority":"High","assignedTo":"Dana"}`)

	require.Equal(t, http.StatusOK, w.Code)
	p := out["project"].(map[string]any)
	assert.Equal(t, "High", p["priority"])
	assert.Equal(t, "Dana", p["assignedTo"])
	assert.Equal(t, float64(40), p["completionPercentage"])
}

func TestUpdateStatus(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPut, "/projects/1/status", `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Completed", out["project"].(map[string]any)["status"])

	w, _ = do(t, r, http.MethodPut, "/projects/1/status", `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMilestoneLifecycle(t *testing.T) {
	r := newTestEngine(t)
	id := createProject(t, r)

	w, out := do(t, r, http.MethodPost, "/projects/"+id+"/milestones", `{"name":"Press kit","dueDate":"2025-01-10"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mid := out["milestone"].(map[string]any)["id"].(string)

	w, out = do(t, r, http.MethodPatch, "/projects/"+id+"/milestones/"+mid, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, out["milestone"].(map[string]any)["completedDate"])

	w, out = do(t, r, http.MethodPost, "/projects/"+id+"/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(20), out["progress"])

	w, _ = do(t, r, http.MethodDelete, "/projects/"+id+"/milestones/"+mid, "")
	require.Equal(t, http.StatusOK, w.Code)

	_, out = do(t, r, http.MethodGet, "/projects/"+id, "")
	assert.Equal(t, float64(0), out["project"].(map[string]any)["completionPercentage"])
}

func TestAddMilestone_PastDueDate(t *testing.T) {
	r := newTestEngine(t)
	id := createProject(t, r)

	w, out := do(t, r, http.MethodPost, "/projects/"+id+"/milestones", `{"name":"Late","dueDate":"2024-06-01"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Due date cannot be in the past", out["error"])
}

func TestAddUpdate(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPost, "/projects/1/updates", `{"message":"Proofs received","type":"achievement"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	u := out["update"].(map[string]any)
	assert.Equal(t, "achievement", u["type"])
	assert.Equal(t, "Marketing Executive", u["user"])
}

func TestConvertRequest(t *testing.T) {
	r := newTestEngine(t)

	w, out := do(t, r, http.MethodPost, "/requests/convert",
		`{"id":"REQ-9","title":"Newsletter","description":"March issue","priority":"high","type":"email","dueDate":"2025-02-01","requestedBy":"Lee"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := out["project"].(map[string]any)
	assert.Equal(t, "Marketing", p["category"])
	assert.Equal(t, "High", p["priority"])
	assert.Equal(t, "REQ-9", p["requestId"])

	_, out = do(t, r, http.MethodGet, "/tracking", "")
	records := out["tracking"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "Lee", records[0].(map[string]any)["owner"])
}

func TestDeleteProjectAndStatus(t *testing.T) {
	r := newTestEngine(t)

	w, _ := do(t, r, http.MethodDelete, "/projects/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	_, out := do(t, r, http.MethodGet, "/projects", "")
	assert.Empty(t, out["projects"])

	w, out = do(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, out["loading"])
	assert.NotContains(t, out, "error")
}

func TestRefresh(t *testing.T) {
	r := newTestEngine(t)
	createProject(t, r)

	w, out := do(t, r, http.MethodPost, "/refresh", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), out["projects"])
}
