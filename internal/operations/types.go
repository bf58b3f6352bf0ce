package operations

import (
	"time"

	"switchrecon/internal/reconcile"
	"switchrecon/pkg/contracts/domain"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the run has finished, successfully or not
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Run is a point-in-time snapshot of one reconciliation run. It is the
// only run structure handed to API clients and websocket subscribers.
type Run struct {
	ID         string                `json:"id"`
	Status     RunStatus             `json:"status"`
	Progress   int                   `json:"progress"` // 0-100
	Stage      string                `json:"stage,omitempty"`
	ETA        string                `json:"eta,omitempty"`
	Error      string                `json:"error,omitempty"`
	ErrorType  string                `json:"error_type,omitempty"`
	Warnings   []domain.Warning      `json:"warnings,omitempty"`
	Summary    *reconcile.Summary    `json:"summary,omitempty"`
	Inputs     []reconcile.InputFile `json:"inputs,omitempty"`
	TraceID    string                `json:"trace_id,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	StartedAt  *time.Time            `json:"started_at,omitempty"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
}

// RunRequest describes a run to start
type RunRequest struct {
	// ID is generated when empty
	ID     string
	Inputs reconcile.Inputs
}
