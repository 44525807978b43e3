// Package snapshot fetches the read-only JSON documents bundled with the
// public assets. Every failure degrades to a nil document.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"hmadashboard/internal/model"
	"hmadashboard/pkg/circuitbreaker"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/metrics"
	"hmadashboard/pkg/trace"
)

// ProjectsFile is the bundled project snapshot.
const ProjectsFile = "enhanced_projects.json"

const fileScheme = "file://"

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 10 << 20

type Loader struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewLoader serves documents from <baseURL>/data/<file>. baseURL is either
// an http(s) URL or a file:// path to a local assets directory.
func NewLoader(baseURL string, timeout time.Duration, logger *zap.Logger) *Loader {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb:     circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger: logger,
	}
}

// LoadJSON returns the raw document, or nil when it is missing, unreachable
// or not valid JSON.
func (l *Loader) LoadJSON(ctx context.Context, file string) json.RawMessage {
	log := logger.WithTrace(ctx, l.logger).With(zap.String("file", file))

	var body []byte
	err := l.cb.Execute(func() error {
		var fetchErr error
		body, fetchErr = l.fetch(ctx, file)
		return fetchErr
	})
	if err != nil {
		metrics.IncrementSnapshotLoad(file, "error")
		log.Warn("Failed to load static data, using fallback", zap.Error(err))
		return nil
	}

	if !json.Valid(body) {
		metrics.IncrementSnapshotLoad(file, "invalid")
		log.Warn("Static data is not valid JSON, using fallback", zap.Int("bytes", len(body)))
		return nil
	}

	metrics.IncrementSnapshotLoad(file, "ok")
	log.Debug("Static data loaded", zap.Int("bytes", len(body)))
	return json.RawMessage(body)
}

// LoadProjects reads the bundled project snapshot. ok is false when the
// document is unavailable or lacks a usable projects array.
func (l *Loader) LoadProjects(ctx context.Context) ([]model.Project, bool) {
	raw := l.LoadJSON(ctx, ProjectsFile)
	if raw == nil {
		return nil, false
	}

	var doc struct {
		Projects []model.Project `json:"projects"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		metrics.IncrementSnapshotLoad(ProjectsFile, "invalid")
		logger.WithTrace(ctx, l.logger).Warn("Project snapshot has an unexpected shape", zap.Error(err))
		return nil, false
	}
	if doc.Projects == nil {
		doc.Projects = []model.Project{}
	}
	return doc.Projects, true
}

func (l *Loader) fetch(ctx context.Context, file string) ([]byte, error) {
	if root, ok := strings.CutPrefix(l.baseURL, fileScheme); ok {
		return os.ReadFile(filepath.Join(root, "data", filepath.Base(file)))
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/data/"+file, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Static data fetched",
		zap.String("file", file),
		zap.Duration("latency", time.Since(start)),
	)
	return body, nil
}
