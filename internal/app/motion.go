package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/angle"
	"github.com/bft-labs/driveseq/pkg/log"
)

// Default motion parameters.
const (
	DefaultLinearSpeed      = 2.9  // m/s
	DefaultAngularSpeed     = 0.4  // rad/s
	DefaultHeadingTolerance = 0.05 // rad, about 2.9 degrees
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultStopSettle       = 500 * time.Millisecond
	DefaultOvershootWindow  = math.Pi / 4
)

// stopTimeout bounds the final stop command when the run context is gone.
const stopTimeout = 2 * time.Second

// MotionConfig holds the control parameters shared by all primitives.
type MotionConfig struct {
	LinearSpeed      float64
	AngularSpeed     float64
	HeadingTolerance float64
	PollInterval     time.Duration
	StopSettle       time.Duration

	// CorrectOvershoot recomputes the rotation direction from the live
	// heading error once the error is inside OvershootWindow. Outside the
	// window the direction of the requested delta is kept.
	CorrectOvershoot bool
	OvershootWindow  float64
}

// DefaultMotionConfig returns the stock control parameters.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		LinearSpeed:      DefaultLinearSpeed,
		AngularSpeed:     DefaultAngularSpeed,
		HeadingTolerance: DefaultHeadingTolerance,
		PollInterval:     DefaultPollInterval,
		StopSettle:       DefaultStopSettle,
		OvershootWindow:  DefaultOvershootWindow,
	}
}

// Validate checks the parameters.
func (c MotionConfig) Validate() error {
	switch {
	case !(c.LinearSpeed > 0):
		return fmt.Errorf("%w: linear speed must be positive", domain.ErrInvalidConfig)
	case !(c.AngularSpeed > 0):
		return fmt.Errorf("%w: angular speed must be positive", domain.ErrInvalidConfig)
	case !(c.HeadingTolerance > 0) || c.HeadingTolerance >= math.Pi:
		return fmt.Errorf("%w: heading tolerance must be in (0, π)", domain.ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrInvalidConfig)
	case c.StopSettle < 0:
		return fmt.Errorf("%w: stop settle must not be negative", domain.ErrInvalidConfig)
	case c.CorrectOvershoot && !(c.OvershootWindow > c.HeadingTolerance):
		return fmt.Errorf("%w: overshoot window must exceed heading tolerance", domain.ErrInvalidConfig)
	}
	return nil
}

// ControlState is the state of one primitive invocation.
type ControlState int

const (
	ControlRunning ControlState = iota
	ControlConverged
	ControlStopped
)

func (s ControlState) String() string {
	switch s {
	case ControlRunning:
		return "Running"
	case ControlConverged:
		return "Converged"
	case ControlStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Outcome describes a finished primitive.
type Outcome struct {
	State ControlState
	Ticks int
	Start domain.Pose
	Final domain.Pose
}

// Motion runs the move and rotate primitives against a tracker and a
// velocity sink. Only one primitive may run at a time.
type Motion struct {
	cfg     MotionConfig
	tracker *Tracker
	sink    ports.VelocitySink
	logger  log.Logger
}

// NewMotion creates the primitives.
func NewMotion(cfg MotionConfig, tracker *Tracker, sink ports.VelocitySink, logger log.Logger) *Motion {
	return &Motion{cfg: cfg, tracker: tracker, sink: sink, logger: logger}
}

// controlLoop is the per-invocation state: origin, last observed pose and
// how many velocity commands were issued.
type controlLoop struct {
	m     *Motion
	name  string
	state ControlState
	start domain.Pose
	pose  domain.Pose
	seq   uint64
	ticks int
}

func (m *Motion) begin(name string) (*controlLoop, error) {
	pose, seq, ok := m.tracker.Snapshot()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotReady)
	}
	return &controlLoop{m: m, name: name, start: pose, pose: pose, seq: seq}, nil
}

// tick publishes cmd and yields until fresher feedback arrives or the poll
// interval elapses.
func (l *controlLoop) tick(ctx context.Context, cmd domain.VelocityCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.m.sink.Publish(ctx, cmd); err != nil {
		return fmt.Errorf("publish velocity: %w", err)
	}
	l.ticks++

	pose, seq, err := l.m.tracker.Next(ctx, l.seq, l.m.cfg.PollInterval)
	if err != nil {
		return err
	}
	l.pose, l.seq = pose, seq
	return nil
}

// converge marks convergence.
func (l *controlLoop) converge() {
	l.state = ControlConverged
}

// finish issues the stop command and returns the outcome. It always
// attempts the stop, on a context that outlives cancellation of ctx, and
// joins a stop failure with cause.
func (l *controlLoop) finish(ctx context.Context, cause error) (Outcome, error) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	if err := l.m.sink.Publish(stopCtx, domain.Stop()); err != nil {
		l.m.logger.Error("stop command failed", log.String("primitive", l.name), log.Err(err))
		if cause == nil {
			cause = fmt.Errorf("publish stop: %w", err)
		} else {
			cause = fmt.Errorf("%w (stop also failed: %v)", cause, err)
		}
	} else {
		l.state = ControlStopped
	}

	if cause == nil && ctx.Err() == nil && l.m.cfg.StopSettle > 0 {
		timer := time.NewTimer(l.m.cfg.StopSettle)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if pose, _, ok := l.m.tracker.Snapshot(); ok {
		l.pose = pose
	}
	out := Outcome{State: l.state, Ticks: l.ticks, Start: l.start, Final: l.pose}
	if cause != nil {
		return out, fmt.Errorf("%s: %w", l.name, cause)
	}
	return out, nil
}

// Move drives forward until the planar displacement from the starting
// position reaches distance. A negative or non-finite distance is rejected
// before any command is issued.
func (m *Motion) Move(ctx context.Context, distance float64) (Outcome, error) {
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return Outcome{}, fmt.Errorf("move %v: %w: distance must be finite and non-negative", distance, domain.ErrInvalidArgument)
	}
	l, err := m.begin("move")
	if err != nil {
		return Outcome{}, err
	}
	m.logger.Info("moving", log.Float64("distance_m", distance))

	origin := l.start.Planar()
	forward := domain.VelocityCommand{LinearX: m.cfg.LinearSpeed}
	for {
		traveled := r3.Norm(r3.Sub(l.pose.Planar(), origin))
		if traveled >= distance {
			l.converge()
			break
		}
		if err := l.tick(ctx, forward); err != nil {
			return l.finish(ctx, err)
		}
		m.logger.Debug("move tick", log.Int("tick", l.ticks), log.Float64("traveled_m", traveled))
	}
	return l.finish(ctx, nil)
}

// Rotate turns in place by deltaDeg degrees (positive is counter-clockwise)
// until the heading is within HeadingTolerance of the target.
func (m *Motion) Rotate(ctx context.Context, deltaDeg float64) (Outcome, error) {
	if math.IsNaN(deltaDeg) || math.IsInf(deltaDeg, 0) {
		return Outcome{}, fmt.Errorf("rotate %v: %w: angle must be finite", deltaDeg, domain.ErrInvalidArgument)
	}
	l, err := m.begin("rotate")
	if err != nil {
		return Outcome{}, err
	}
	m.logger.Info("rotating", log.Float64("delta_deg", deltaDeg))

	delta := angle.Radians(deltaDeg)
	target := angle.MustNormalize(l.start.Heading + delta)

	// The direction comes from the requested delta, not from the wrapped
	// error, so turns beyond 180 degrees start the intended way.
	direction := math.Copysign(1, delta)

	for {
		headingErr := angle.MustNormalize(target - l.pose.Heading)
		if delta == 0 || math.Abs(headingErr) < m.cfg.HeadingTolerance {
			l.converge()
			break
		}
		sign := direction
		if m.cfg.CorrectOvershoot && math.Abs(headingErr) < m.cfg.OvershootWindow {
			sign = math.Copysign(1, headingErr)
		}
		if err := l.tick(ctx, domain.VelocityCommand{AngularZ: sign * m.cfg.AngularSpeed}); err != nil {
			return l.finish(ctx, err)
		}
		m.logger.Debug("rotate tick", log.Int("tick", l.ticks), log.Float64("error_rad", headingErr))
	}
	return l.finish(ctx, nil)
}
