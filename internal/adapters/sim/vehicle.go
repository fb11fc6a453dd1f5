// Package sim provides a kinematic differential-drive vehicle that acts as
// both a pose source and a velocity sink, plus a recording marker sink.
//
// The vehicle integrates each velocity command over one fixed step and
// publishes the resulting pose synchronously, so a control loop driven by
// it is deterministic.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/angle"
)

// DefaultStep is the integration step, matching the control poll interval.
const DefaultStep = 100 * time.Millisecond

// Option configures a Vehicle.
type Option func(*Vehicle)

// WithStart sets the initial pose.
func WithStart(pose domain.Pose) Option {
	return func(v *Vehicle) {
		v.position = pose.Position
		v.heading = angle.MustNormalize(pose.Heading)
	}
}

// WithStep sets the integration step.
func WithStep(step time.Duration) Option {
	return func(v *Vehicle) {
		if step > 0 {
			v.step = step
		}
	}
}

// WithRealtime makes Publish sleep for one step, so the vehicle moves at
// wall-clock speed.
func WithRealtime() Option {
	return func(v *Vehicle) {
		v.realtime = true
	}
}

// WithSilentStart suppresses the pose published on Subscribe. The vehicle
// then reports nothing until the first velocity command or Emit.
func WithSilentStart() Option {
	return func(v *Vehicle) {
		v.silent = true
	}
}

type subscriber struct {
	ctx    context.Context
	handle ports.PoseHandler
}

// Vehicle is a simulated differential-drive base.
type Vehicle struct {
	step     time.Duration
	realtime bool
	silent   bool

	mu          sync.Mutex
	position    r3.Vec
	heading     float64
	subscribers []subscriber
	commands    []domain.VelocityCommand
	failNext    error
}

// NewVehicle creates a vehicle at the origin facing +X.
func NewVehicle(opts ...Option) *Vehicle {
	v := &Vehicle{step: DefaultStep}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Subscribe implements ports.PoseSource. The current pose is delivered
// immediately unless the vehicle was created with WithSilentStart.
func (v *Vehicle) Subscribe(ctx context.Context, handle ports.PoseHandler) error {
	v.mu.Lock()
	v.subscribers = append(v.subscribers, subscriber{ctx: ctx, handle: handle})
	update := v.updateLocked()
	v.mu.Unlock()

	if !v.silent {
		handle(update)
	}
	return nil
}

// Publish implements ports.VelocitySink: it records cmd, advances the
// model by one step and publishes the new pose to subscribers.
func (v *Vehicle) Publish(ctx context.Context, cmd domain.VelocityCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	if err := v.failNext; err != nil {
		v.failNext = nil
		v.mu.Unlock()
		return err
	}
	v.commands = append(v.commands, cmd)

	dt := v.step.Seconds()
	v.position.X += cmd.LinearX * math.Cos(v.heading) * dt
	v.position.Y += cmd.LinearX * math.Sin(v.heading) * dt
	v.heading = angle.MustNormalize(v.heading + cmd.AngularZ*dt)

	update := v.updateLocked()
	subs := append([]subscriber(nil), v.subscribers...)
	v.mu.Unlock()

	if v.realtime {
		timer := time.NewTimer(v.step)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	deliver(subs, update)
	return nil
}

// Emit delivers an arbitrary feedback message to subscribers without
// changing the model.
func (v *Vehicle) Emit(update domain.PoseUpdate) {
	v.mu.Lock()
	subs := append([]subscriber(nil), v.subscribers...)
	v.mu.Unlock()

	deliver(subs, update)
}

// FailNextPublish makes the next Publish return err without moving.
func (v *Vehicle) FailNextPublish(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failNext = err
}

// Pose returns the true pose of the model.
func (v *Vehicle) Pose() domain.Pose {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.Pose{Position: v.position, Heading: v.heading}
}

// Commands returns every velocity command received so far.
func (v *Vehicle) Commands() []domain.VelocityCommand {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.VelocityCommand(nil), v.commands...)
}

func (v *Vehicle) updateLocked() domain.PoseUpdate {
	return domain.PoseUpdate{
		Position:    v.position,
		Orientation: angle.FromYaw(v.heading),
		Stamp:       time.Now(),
	}
}

func deliver(subs []subscriber, update domain.PoseUpdate) {
	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		s.handle(update)
	}
}
