package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hmadashboard/internal/model"
)

type fakeKV struct {
	mu       sync.Mutex
	items    map[string]string
	failKeys map[string]bool
	writes   map[string]int
}

func newFakeKV() *fakeKV {
	return &fakeKV{items: map[string]string{}, failKeys: map[string]bool{}, writes: map[string]int{}}
}

func (f *fakeKV) GetItem(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *fakeKV) SetItem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return errors.New("quota exceeded")
	}
	f.items[key] = value
	f.writes[key]++
	return nil
}

// gatedKV blocks reads of one key while armed until release is closed.
type gatedKV struct {
	*fakeKV
	key     string
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedKV(kv *fakeKV, key string) *gatedKV {
	return &gatedKV{fakeKV: kv, key: key, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	if g.armed && key == g.key {
		g.armed = false
		close(g.entered)
		<-g.release
	}
	return g.fakeKV.GetItem(ctx, key)
}

type fakeSnapshot struct {
	projects []model.Project
	ok       bool
}

func (f fakeSnapshot) LoadProjects(context.Context) ([]model.Project, bool) {
	return f.projects, f.ok
}

type publishedEvent struct {
	key     string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{key: key, payload: payload})
	return f.err
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.events))
	for _, e := range f.events {
		keys = append(keys, e.key)
	}
	return keys
}

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

var baseTime = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs() (func(time.Time) string, func() string) {
	var mu sync.Mutex
	projects, milestones := 0, 0
	return func(now time.Time) string {
			mu.Lock()
			defer mu.Unlock()
			projects++
			return fmt.Sprintf("PROJ-%d-%03d", now.Year(), projects)
		}, func() string {
			mu.Lock()
			defer mu.Unlock()
			milestones++
			return fmt.Sprintf("m%d", milestones)
		}
}

func newTestStore(t *testing.T, kv *fakeKV, snap fakeSnapshot, opts ...Option) *Store {
	t.Helper()
	clock := &stepClock{t: baseTime}
	pid, mid := sequentialIDs()
	all := append([]Option{WithClock(clock.now), WithProjectIDs(pid), WithMilestoneIDs(mid)}, opts...)
	s := New(kv, snap, zap.NewNop(), all...)
	s.Load(context.Background())
	return s
}

func createLaunch(t *testing.T, s *Store) *model.Project {
	t.Helper()
	p, err := s.Create(context.Background(), model.ProjectInput{
		Name:        "Launch",
		Description: "desc",
		StartDate:   "2025-01-01",
		EndDate:     "2025-01-31",
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }
