// Package tracker turns a target's stream of check outcomes into failure
// windows.
//
// A tracker starts Healthy with no windows. An unhealthy outcome while
// Healthy opens a window; a healthy outcome while Failing closes it. Repeated
// outcomes of the same health are no-ops. At most one window is open at a
// time, and the tracker is Failing exactly when the last window is open.
//
// Outcomes for one tracker must be applied in the order their checks were
// issued and never concurrently; the scheduler routes them that way. The
// mutex only protects readers (status API, report) from a concurrent writer.
package tracker

import (
	"sync"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

type State int

const (
	Healthy State = iota
	Failing
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Failing:
		return "failing"
	default:
		return "unknown"
	}
}

// Transition reports what an observed outcome did to the tracker.
type Transition int

const (
	Unchanged Transition = iota
	WentDown
	Recovered
)

type Tracker struct {
	mu      sync.RWMutex
	current State
	windows []domain.FailureWindow
}

func New() *Tracker {
	return &Tracker{current: Healthy}
}

// Observe applies one outcome.
func (t *Tracker) Observe(o domain.CheckOutcome) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.current == Healthy && !o.Healthy:
		t.windows = append(t.windows, domain.FailureWindow{StartedAt: o.ObservedAt})
		t.current = Failing
		return WentDown
	case t.current == Failing && o.Healthy:
		t.windows[len(t.windows)-1].EndedAt = o.ObservedAt
		t.current = Healthy
		return Recovered
	default:
		return Unchanged
	}
}

// CloseIfOpen closes a still-open window at `at` and marks it incomplete.
// It reports whether a window was closed.
func (t *Tracker) CloseIfOpen(at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != Failing {
		return false
	}
	last := &t.windows[len(t.windows)-1]
	last.EndedAt = at
	last.Incomplete = true
	t.current = Healthy
	return true
}

func (t *Tracker) Current() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Windows returns a copy of the recorded windows in chronological order.
func (t *Tracker) Windows() []domain.FailureWindow {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.windows) == 0 {
		return nil
	}
	out := make([]domain.FailureWindow, len(t.windows))
	copy(out, t.windows)
	return out
}
