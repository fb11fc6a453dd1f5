package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

// ShutdownTimeout is the maximum time to wait for the driver to stop.
const ShutdownTimeout = 10 * time.Second

// Phase is the lifecycle phase of one executor run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaitingForPose
	PhaseRendering
	PhaseExecuting
	PhaseFinished
	PhaseFailed
	PhaseCanceled
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseWaitingForPose:
		return "WaitingForPose"
	case PhaseRendering:
		return "Rendering"
	case PhaseExecuting:
		return "Executing"
	case PhaseFinished:
		return "Finished"
	case PhaseFailed:
		return "Failed"
	case PhaseCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseFailed || p == PhaseCanceled
}

// Active reports whether a driver is running in phase p.
func (p Phase) Active() bool {
	return p == PhaseWaitingForPose || p == PhaseRendering || p == PhaseExecuting
}

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	PhaseIdle:           {PhaseWaitingForPose},
	PhaseWaitingForPose: {PhaseRendering, PhaseExecuting, PhaseFailed, PhaseCanceled},
	PhaseRendering:      {PhaseExecuting, PhaseFailed, PhaseCanceled},
	PhaseExecuting:      {PhaseFinished, PhaseFailed, PhaseCanceled},
	PhaseFinished:       {PhaseWaitingForPose},
	PhaseFailed:         {PhaseWaitingForPose},
	PhaseCanceled:       {PhaseWaitingForPose},
}

// EventEmitter is called when the run phase changes.
type EventEmitter interface {
	OnPhaseChange(previous, current Phase, reason string)
}

// Lifecycle manages the phase machine and the driver goroutine of a run.
type Lifecycle struct {
	mu           sync.RWMutex
	phase        Phase
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewLifecycle creates a lifecycle in PhaseIdle.
func NewLifecycle(logger log.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		phase:        PhaseIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// TransitionTo moves to next. Starting a run from an active phase returns
// ErrAlreadyRunning; any other invalid transition returns ErrNotRunning.
func (l *Lifecycle) TransitionTo(next Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase

	allowed := false
	for _, p := range transitions[prev] {
		if p == next {
			allowed = true
			break
		}
	}
	if !allowed {
		l.mu.Unlock()
		if prev.Active() {
			return domain.ErrAlreadyRunning
		}
		return domain.ErrNotRunning
	}

	l.phase = next
	l.mu.Unlock()

	// Emit outside of lock.
	if l.eventEmitter != nil {
		l.eventEmitter.OnPhaseChange(prev, next, reason)
	}

	l.logger.Info("phase transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}

// CanStart returns true if a new run may begin.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase == PhaseIdle || l.phase.Terminal()
}

// CanStop returns true while a driver is active.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase.Active()
}

// SetCancel stores the cancel function of the running driver.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel asks the running driver to stop.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers to finish.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, driver still running",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
