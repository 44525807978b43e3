// Package tracking holds the project tracking store: the reconciled working
// set of projects plus their tracking records (milestones, update log,
// budget), persisted to a key-value backend after every mutation.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"hmadashboard/internal/model"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/metrics"
)

// Keys of the two persisted blobs.
const (
	ProjectsKey = "projects"
	TrackingKey = "projectTracking"
)

const loadFailedMessage = "Failed to load project data"

// KVStore is the key-value persistence the store writes its blobs to.
type KVStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// SnapshotSource yields the bundled read-only project snapshot. ok is false
// when the snapshot could not be fetched or parsed.
type SnapshotSource interface {
	LoadProjects(ctx context.Context) (projects []model.Project, ok bool)
}

// Publisher receives domain events after successful mutations.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Status is the loading / error pair exposed to consumers.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type Store struct {
	kv       KVStore
	snapshot SnapshotSource
	events   Publisher
	logger   *zap.Logger
	strict   bool

	now         func() time.Time
	projectID   func(now time.Time) string
	milestoneID func() string

	mu       sync.RWMutex
	projects []model.Project
	tracking []model.Tracking
	status   Status
}

type Option func(*Store)

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.events = p }
}

// WithStrictPersistence makes mutations return *PersistError when the
// key-value write fails instead of only logging it.
func WithStrictPersistence(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithProjectIDs(gen func(now time.Time) string) Option {
	return func(s *Store) { s.projectID = gen }
}

func WithMilestoneIDs(gen func() string) Option {
	return func(s *Store) { s.milestoneID = gen }
}

func New(kv KVStore, snapshot SnapshotSource, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		snapshot:    snapshot,
		logger:      logger,
		now:         time.Now,
		projectID:   generateProjectID,
		milestoneID: generateMilestoneID,
		projects:    []model.Project{},
		tracking:    []model.Tracking{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the bundled snapshot and the persisted overrides and replaces
// the working set with their reconciliation. Failures are recorded in Status
// rather than returned; a missing snapshot leaves only the local overrides.
// The overrides are read under the store lock so no mutation can commit
// between the read and the swap.
func (s *Store) Load(ctx context.Context) {
	log := logger.WithTrace(ctx, s.logger)

	s.mu.Lock()
	s.status = Status{Loading: true}
	s.mu.Unlock()

	var loadErr string

	seed, ok := s.snapshot.LoadProjects(ctx)
	if !ok {
		log.Warn("Bundled project snapshot unavailable, using local overrides only")
		loadErr = loadFailedMessage
		seed = nil
	}

	s.mu.Lock()

	var localProjects []model.Project
	if err := s.readBlob(ctx, ProjectsKey, &localProjects); err != nil {
		log.Error("Failed to read persisted projects", zap.Error(err))
		loadErr = loadFailedMessage
		localProjects = nil
	}

	var localTracking []model.Tracking
	if err := s.readBlob(ctx, TrackingKey, &localTracking); err != nil {
		log.Error("Failed to read persisted tracking records", zap.Error(err))
		loadErr = loadFailedMessage
		localTracking = nil
	}
	if localTracking == nil {
		localTracking = []model.Tracking{}
	}

	merged := Reconcile(seed, localProjects)
	s.projects = merged
	s.tracking = localTracking
	s.status = Status{Error: loadErr}

	s.mu.Unlock()

	log.Info("Project data loaded",
		zap.Int("snapshot_projects", len(seed)),
		zap.Int("local_projects", len(localProjects)),
		zap.Int("projects", len(merged)),
		zap.Int("tracking_records", len(localTracking)),
		zap.Bool("snapshot_ok", ok),
	)
}

// Refresh re-runs initialization.
func (s *Store) Refresh(ctx context.Context) {
	s.Load(ctx)
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Projects returns copies of all projects in working-set order.
func (s *Store) Projects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, s.view(p))
	}
	return out
}

// TrackingRecords returns copies of all tracking records.
func (s *Store) TrackingRecords() []model.Tracking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Tracking, 0, len(s.tracking))
	for _, t := range s.tracking {
		out = append(out, t.Clone())
	}
	return out
}

func (s *Store) GetByID(id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.projectIndex(model.ID(id))
	if i < 0 {
		return nil, &NotFoundError{Kind: "project", ID: id}
	}
	p := s.view(s.projects[i])
	return &p, nil
}

func (s *Store) GetTracking(id string) (*model.Tracking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.projectIndex(model.ID(id)) < 0 {
		return nil, &NotFoundError{Kind: "project", ID: id}
	}
	i := s.trackingIndex(model.ID(id))
	if i < 0 {
		return nil, &NotFoundError{Kind: "tracking", ID: id}
	}
	t := s.tracking[i].Clone()
	return &t, nil
}

// view returns a copy of p whose completion is derived from its tracking
// record. Projects without one keep the value they were loaded with.
// Caller holds mu.
func (s *Store) view(p model.Project) model.Project {
	c := p.Clone()
	if i := s.trackingIndex(p.ID); i >= 0 {
		c.CompletionPercentage = s.tracking[i].Progress
	}
	return c
}

func (s *Store) projectIndex(id model.ID) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) trackingIndex(id model.ID) int {
	for i := range s.tracking {
		if s.tracking[i].ProjectID == id {
			return i
		}
	}
	return -1
}

// ensureTracking returns the index of the tracking record for the project at
// index pi, creating an empty record if the project has none. Caller holds mu.
func (s *Store) ensureTracking(pi int) int {
	p := s.projects[pi]
	if i := s.trackingIndex(p.ID); i >= 0 {
		return i
	}
	s.tracking = append(s.tracking, newTracking(p, ""))
	return len(s.tracking) - 1
}

// recompute refreshes the progress of the tracking record at index ti.
// Caller holds mu.
func (s *Store) recompute(ti int) int {
	progress := Progress(s.tracking[ti].Milestones)
	s.tracking[ti].Progress = progress
	metrics.ObserveProgress(progress)
	return progress
}

func (s *Store) readBlob(ctx context.Context, key string, out any) error {
	raw, ok, err := s.kv.GetItem(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

// persist rewrites the named blobs from the current working set. Failures are
// logged and counted; they are returned only in strict mode. Caller holds mu.
func (s *Store) persist(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		var value any
		switch key {
		case ProjectsKey:
			projects := make([]model.Project, 0, len(s.projects))
			for _, p := range s.projects {
				projects = append(projects, s.view(p))
			}
			value = projects
		case TrackingKey:
			value = s.tracking
		}

		if err := s.writeBlob(ctx, key, value); err != nil {
			metrics.IncrementPersistFailure(key)
			logger.WithTrace(ctx, s.logger).Error("Failed to persist blob",
				zap.String("key", key),
				zap.Error(err),
			)
			errs = append(errs, &PersistError{Key: key, Err: err})
		}
	}

	if !s.strict || len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (s *Store) writeBlob(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.kv.SetItem(ctx, key, string(raw))
}

// observe counts an operation outcome.
func observe(op string, err error) {
	var (
		vErr *ValidationError
		nErr *NotFoundError
	)
	switch {
	case err == nil:
		metrics.IncrementStoreOperation(op, "ok")
	case errors.As(err, &vErr):
		metrics.IncrementStoreOperation(op, "invalid")
	case errors.As(err, &nErr):
		metrics.IncrementStoreOperation(op, "not_found")
	default:
		metrics.IncrementStoreOperation(op, "error")
	}
}
