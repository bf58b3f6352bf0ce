package operations

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// ProgressTracker tracks the completed fraction of a run. Reports that
// would move progress backwards are ignored.
type ProgressTracker struct {
	mu        sync.Mutex
	fraction  float64
	message   string
	startTime time.Time
	now       func() time.Time
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{startTime: time.Now(), now: time.Now}
}

// Update records a new fraction in [0, 1] and stage message. It reports
// whether the visible progress changed.
func (p *ProgressTracker) Update(fraction float64, message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fraction = math.Max(0, math.Min(1, fraction))
	if fraction < p.fraction {
		return false
	}
	changed := percent(fraction) != percent(p.fraction) || message != p.message
	p.fraction = fraction
	p.message = message
	return changed
}

// GetProgress returns the progress as a 0-100 percentage and the stage message
func (p *ProgressTracker) GetProgress() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return percent(p.fraction), p.message
}

// GetETA estimates the remaining time from the average rate so far
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fraction <= 0 {
		return "calculating..."
	}
	if p.fraction >= 1 {
		return ""
	}

	elapsed := p.now().Sub(p.startTime).Seconds()
	remaining := elapsed / p.fraction * (1 - p.fraction)

	if remaining < 60 {
		return fmt.Sprintf("%.0f seconds", remaining)
	} else if remaining < 3600 {
		return fmt.Sprintf("%.1f minutes", remaining/60)
	}
	return fmt.Sprintf("%.1f hours", remaining/3600)
}

// GetElapsedTime returns the elapsed time since start
func (p *ProgressTracker) GetElapsedTime() time.Duration {
	return p.now().Sub(p.startTime)
}

func percent(fraction float64) int {
	return int(math.Round(fraction * 100))
}
