package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/angle"
	"github.com/bft-labs/driveseq/pkg/log"
)

// Tracker holds the latest pose reported by the vehicle.
//
// It has a single writer (the transport delivering feedback through Update)
// and a single reader (the control-loop driver). Each accepted update bumps
// a sequence number and wakes any driver blocked in Next, so the driver
// never polls a flag.
type Tracker struct {
	logger log.Logger

	mu       sync.Mutex
	pose     domain.Pose
	seq      uint64
	rejected uint64
	ready    chan struct{}
	changed  chan struct{}
}

// NewTracker creates a tracker with no pose.
func NewTracker(logger log.Logger) *Tracker {
	return &Tracker{
		logger:  logger,
		ready:   make(chan struct{}),
		changed: make(chan struct{}),
	}
}

// Update applies one feedback message. Updates that would corrupt state
// (non-finite position, non-unit orientation) are rejected with
// ErrInvalidPose and leave both pose and readiness unchanged.
func (t *Tracker) Update(u domain.PoseUpdate) error {
	p := u.Position
	if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
		return t.reject(fmt.Errorf("%w: position %v", domain.ErrInvalidPose, p))
	}
	heading, err := angle.Yaw(u.Orientation)
	if err != nil {
		return t.reject(fmt.Errorf("%w: %v", domain.ErrInvalidPose, err))
	}

	t.mu.Lock()
	t.pose = domain.Pose{Position: p, Heading: heading}
	t.seq++
	first := t.seq == 1
	close(t.changed)
	t.changed = make(chan struct{})
	if first {
		close(t.ready)
	}
	t.mu.Unlock()

	if first {
		t.logger.Info("pose feedback ready",
			log.Float64("x", p.X),
			log.Float64("y", p.Y),
			log.Float64("heading", heading),
		)
	}
	return nil
}

func (t *Tracker) reject(err error) error {
	t.mu.Lock()
	t.rejected++
	n := t.rejected
	t.mu.Unlock()

	t.logger.Warn("rejected pose feedback", log.Err(err), log.Uint64("rejected_total", n))
	return err
}

// Ready reports whether at least one update has been accepted.
func (t *Tracker) Ready() bool {
	select {
	case <-t.ready:
		return true
	default:
		return false
	}
}

// Snapshot returns the latest pose and its sequence number. ok is false
// until the first update.
func (t *Tracker) Snapshot() (pose domain.Pose, seq uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pose, t.seq, t.seq > 0
}

// Rejected returns the number of rejected updates.
func (t *Tracker) Rejected() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rejected
}

// WaitReady blocks until the first update arrives. A positive timeout bounds
// the wait and yields ErrSensorTimeout when it expires.
func (t *Tracker) WaitReady(ctx context.Context, timeout time.Duration) (domain.Pose, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-t.ready:
		pose, _, _ := t.Snapshot()
		return pose, nil
	case <-expired:
		return domain.Pose{}, fmt.Errorf("%w: no pose feedback within %s", domain.ErrSensorTimeout, timeout)
	case <-ctx.Done():
		return domain.Pose{}, ctx.Err()
	}
}

// Next yields to the feedback path: it blocks until an update newer than
// after has been applied, or until wait elapses, and returns the latest pose
// either way. The only error is ctx ending.
func (t *Tracker) Next(ctx context.Context, after uint64, wait time.Duration) (domain.Pose, uint64, error) {
	t.mu.Lock()
	if t.seq > after {
		pose, seq := t.pose, t.seq
		t.mu.Unlock()
		return pose, seq, nil
	}
	changed := t.changed
	t.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-changed:
	case <-timer.C:
	case <-ctx.Done():
		return domain.Pose{}, after, ctx.Err()
	}

	pose, seq, _ := t.Snapshot()
	return pose, seq, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
