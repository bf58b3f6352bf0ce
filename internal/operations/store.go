package operations

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

// entry is the mutable record behind a run snapshot
type entry struct {
	mu      sync.Mutex
	run     Run
	result  *reconcile.Result
	tracker *ProgressTracker
	cancel  context.CancelFunc
}

func (e *entry) snapshot() Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := e.run
	if e.tracker != nil && !run.Status.Terminal() {
		run.Progress, run.Stage = e.tracker.GetProgress()
		run.ETA = e.tracker.GetETA()
	}
	return run
}

// RunStore keeps runs in memory. Active runs never expire; finished runs
// are evicted after the retention period and onEvict is called with the ID.
type RunStore struct {
	cache     *cache.Cache
	retention time.Duration
	logger    *slog.Logger
}

// NewRunStore creates a store that evicts finished runs after retention,
// sweeping every cleanupInterval. onEvict may be nil.
func NewRunStore(retention, cleanupInterval time.Duration, onEvict func(id string), logger *slog.Logger) *RunStore {
	s := &RunStore{
		cache:     cache.New(retention, cleanupInterval),
		retention: retention,
		logger:    infrastructure.WithComponent(logger, "run_store"),
	}
	s.cache.OnEvicted(func(id string, _ interface{}) {
		s.logger.Info("run evicted", slog.String("run_id", id))
		if onEvict != nil {
			onEvict(id)
		}
	})
	return s
}

// add stores a new, active entry. It fails when the ID is taken.
func (s *RunStore) add(e *entry) error {
	return s.cache.Add(e.run.ID, e, cache.NoExpiration)
}

// retire restarts the expiry clock of a finished entry
func (s *RunStore) retire(e *entry) {
	s.cache.Set(e.run.ID, e, s.retention)
}

func (s *RunStore) get(id string) (*entry, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// Get returns a snapshot of the run
func (s *RunStore) Get(id string) (Run, bool) {
	e, ok := s.get(id)
	if !ok {
		return Run{}, false
	}
	return e.snapshot(), true
}

// List returns snapshots of all retained runs, newest first
func (s *RunStore) List() []Run {
	items := s.cache.Items()
	runs := make([]Run, 0, len(items))
	for _, item := range items {
		runs = append(runs, item.Object.(*entry).snapshot())
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// Delete removes a run, calling the eviction hook
func (s *RunStore) Delete(id string) {
	s.cache.Delete(id)
}

// Len returns the number of retained runs
func (s *RunStore) Len() int {
	return s.cache.ItemCount()
}
