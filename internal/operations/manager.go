package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

// ErrRunNotFinished is returned for the result of a run still in progress
var ErrRunNotFinished = errors.New("run has not finished")

// Manager starts reconciliation runs in the background and tracks them
type Manager struct {
	runner    Runner
	store     *RunStore
	publisher Publisher
	tracer    *RunTracer
	timeout   time.Duration
	logger    *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a run manager. publisher and tracer may be nil; a
// timeout of zero leaves runs unbounded.
func NewManager(runner Runner, store *RunStore, publisher Publisher, tracer *RunTracer, timeout time.Duration, logger *slog.Logger) *Manager {
	if tracer == nil {
		tracer = NewRunTracer(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		runner:    runner,
		store:     store,
		publisher: publisher,
		tracer:    tracer,
		timeout:   timeout,
		logger:    infrastructure.WithComponent(logger, "run_manager"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.New().String()
}

// Start registers the run and executes it in the background. The run
// outlives ctx; only its trace ID is carried over.
func (m *Manager) Start(ctx context.Context, req RunRequest) (Run, error) {
	if m.ctx.Err() != nil {
		return Run{}, apperrors.NewConflictError("run manager is shutting down")
	}
	if req.ID == "" {
		req.ID = NewRunID()
	}

	traceID := infrastructure.GetTraceID(ctx)
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if m.timeout > 0 {
		runCtx, cancel = context.WithTimeout(m.ctx, m.timeout)
	} else {
		runCtx, cancel = context.WithCancel(m.ctx)
	}
	runCtx = infrastructure.WithTraceID(runCtx, traceID)

	e := &entry{
		run: Run{
			ID:        req.ID,
			Status:    RunStatusPending,
			TraceID:   traceID,
			CreatedAt: time.Now(),
		},
		tracker: NewProgressTracker(),
		cancel:  cancel,
	}
	if err := m.store.add(e); err != nil {
		cancel()
		return Run{}, apperrors.NewConflictError(fmt.Sprintf("run %s already exists", req.ID))
	}

	m.logger.InfoContext(runCtx, "run queued", slog.String("run_id", req.ID))
	m.publish(e)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.execute(runCtx, e, req.Inputs)
	}()

	return e.snapshot(), nil
}

func (m *Manager) execute(ctx context.Context, e *entry, in reconcile.Inputs) {
	ctx, span := m.tracer.StartRun(ctx, e.run.ID, in)

	started := time.Now()
	e.mu.Lock()
	e.run.Status = RunStatusRunning
	e.run.StartedAt = &started
	e.mu.Unlock()
	m.publish(e)

	res, err := m.runner.Run(ctx, in, func(fraction float64, message string) {
		if e.tracker.Update(fraction, message) {
			m.publish(e)
		}
	})

	finished := time.Now()
	e.mu.Lock()
	e.run.FinishedAt = &finished
	switch {
	case err == nil:
		e.run.Status = RunStatusCompleted
		e.run.Progress = 100
		e.run.Stage = "Reconciliation complete"
		e.run.ETA = ""
		e.run.Warnings = res.Warnings
		e.run.Summary = &res.Summary
		e.run.Inputs = res.Inputs
		e.result = res
	case errors.Is(err, context.Canceled):
		e.run.Status = RunStatusCancelled
		e.run.Error = "run cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		e.run.Status = RunStatusFailed
		e.run.Error = fmt.Sprintf("run exceeded its %s time limit", m.timeout)
	default:
		e.run.Status = RunStatusFailed
		e.run.Error = err.Error()
		if t, ok := apperrors.TypeOf(err); ok {
			e.run.ErrorType = string(t)
		}
	}
	if e.run.Status != RunStatusCompleted {
		e.run.Progress, e.run.Stage = e.tracker.GetProgress()
		e.run.ETA = ""
	}
	run := e.run
	e.mu.Unlock()

	m.tracer.EndRun(span, run, err)
	m.store.retire(e)
	m.publish(e)

	m.logger.InfoContext(ctx, "run finished",
		slog.String("run_id", run.ID),
		slog.String("status", string(run.Status)),
		slog.Duration("elapsed", finished.Sub(started)))
}

func (m *Manager) publish(e *entry) {
	if m.publisher != nil {
		m.publisher.PublishRun(e.snapshot())
	}
}

// Get returns a snapshot of the run
func (m *Manager) Get(id string) (Run, bool) {
	return m.store.Get(id)
}

// List returns all retained runs, newest first
func (m *Manager) List() []Run {
	return m.store.List()
}

// Result returns the result of a completed run
func (m *Manager) Result(id string) (*reconcile.Result, error) {
	e, ok := m.store.get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("run " + id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.run.Status {
	case RunStatusCompleted:
		return e.result, nil
	case RunStatusFailed, RunStatusCancelled:
		return nil, apperrors.NewConflictError(fmt.Sprintf("run %s %s without a result", id, e.run.Status))
	}
	return nil, apperrors.NewConflictError(fmt.Sprintf("run %s is %s", id, e.run.Status)).
		WithContext("cause", ErrRunNotFinished.Error())
}

// Cancel stops an active run
func (m *Manager) Cancel(id string) error {
	e, ok := m.store.get(id)
	if !ok {
		return apperrors.NewNotFoundError("run " + id)
	}
	e.mu.Lock()
	status := e.run.Status
	e.mu.Unlock()

	if status.Terminal() {
		return apperrors.NewConflictError(fmt.Sprintf("run %s already %s", id, status))
	}
	e.cancel()
	m.logger.Info("run cancellation requested", slog.String("run_id", id))
	return nil
}

// Shutdown cancels every active run and waits for them to stop or for ctx
// to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("run manager stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("run manager stop timeout exceeded")
		return fmt.Errorf("timeout waiting for runs to stop: %w", ctx.Err())
	}
}
