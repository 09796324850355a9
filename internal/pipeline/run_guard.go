package pipeline

// run_guard.go keeps pipeline runs from overlapping.
//
// Every stage reads and rewrites the shared staging areas, so at most one
// run (or single stage) may be active at a time. The guard is a one-slot
// semaphore: the HTTP API fails fast with ErrRunInProgress, the CLI may wait
// for the slot, and shutdown drains through WaitForDrain.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when another run holds the staging area.
var ErrRunInProgress = errors.New("run in progress")

// RunGuard serializes access to the staging area.
type RunGuard struct {
	slot chan struct{}

	mu      sync.RWMutex
	runID   string
	stage   string
	started time.Time
}

// NewRunGuard creates an idle guard.
func NewRunGuard() *RunGuard {
	return &RunGuard{slot: make(chan struct{}, 1)}
}

// TryAcquire takes the slot without blocking.
func (g *RunGuard) TryAcquire(runID, stage string) error {
	select {
	case g.slot <- struct{}{}:
		g.set(runID, stage)
		return nil
	default:
		return ErrRunInProgress
	}
}

// Acquire waits up to maxWait for the slot. The caller must call Release.
func (g *RunGuard) Acquire(ctx context.Context, runID, stage string, maxWait time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.set(runID, stage)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInProgress
	}
}

// Release frees the slot. It must be called exactly once per successful
// acquire.
func (g *RunGuard) Release() {
	g.set("", "")
	<-g.slot
}

func (g *RunGuard) set(runID, stage string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runID = runID
	g.stage = stage
	if runID != "" {
		g.started = time.Now()
	} else {
		g.started = time.Time{}
	}
}

// GuardStatus is a snapshot of the active run, if any.
type GuardStatus struct {
	Active    bool      `json:"active"`
	RunID     string    `json:"run_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Status returns the current guard state for monitoring.
func (g *RunGuard) Status() GuardStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return GuardStatus{
		Active:    g.runID != "",
		RunID:     g.runID,
		Stage:     g.stage,
		StartedAt: g.started,
	}
}

// WaitForDrain blocks until no run is active or ctx is done.
func (g *RunGuard) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(g.slot) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
