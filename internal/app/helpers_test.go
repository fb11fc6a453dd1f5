package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/driveseq/internal/adapters/sim"
	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

// testMotionConfig returns the stock parameters without the stop hold.
func testMotionConfig() MotionConfig {
	cfg := DefaultMotionConfig()
	cfg.StopSettle = 0
	return cfg
}

// rig wires a tracker and motion primitives to a simulated vehicle.
type rig struct {
	vehicle *sim.Vehicle
	tracker *Tracker
	motion  *Motion
}

func newRig(t *testing.T, cfg MotionConfig, opts ...sim.Option) *rig {
	t.Helper()

	tracker := NewTracker(log.NewNoopLogger())
	vehicle := sim.NewVehicle(opts...)
	require.NoError(t, vehicle.Subscribe(context.Background(), func(u domain.PoseUpdate) {
		_ = tracker.Update(u)
	}))

	return &rig{
		vehicle: vehicle,
		tracker: tracker,
		motion:  NewMotion(cfg, tracker, vehicle, log.NewNoopLogger()),
	}
}

// observingSink forwards to a vehicle and records the pose the vehicle had
// when each command was issued.
type observingSink struct {
	vehicle *sim.Vehicle

	mu     sync.Mutex
	before []domain.Pose
	cmds   []domain.VelocityCommand
}

func (s *observingSink) Publish(ctx context.Context, cmd domain.VelocityCommand) error {
	s.mu.Lock()
	s.before = append(s.before, s.vehicle.Pose())
	s.cmds = append(s.cmds, cmd)
	s.mu.Unlock()
	return s.vehicle.Publish(ctx, cmd)
}

// scriptedSink reports a scripted heading after each command and can
// cancel the caller after a number of commands.
type scriptedSink struct {
	tracker     *Tracker
	headings    []float64
	cancel      context.CancelFunc
	cancelAfter int

	cmds []domain.VelocityCommand
}

func (s *scriptedSink) Publish(_ context.Context, cmd domain.VelocityCommand) error {
	s.cmds = append(s.cmds, cmd)
	n := len(s.cmds)
	if n <= len(s.headings) {
		_ = s.tracker.Update(domain.PoseUpdate{Orientation: yawQuat(s.headings[n-1])})
	}
	if s.cancel != nil && n == s.cancelAfter {
		s.cancel()
	}
	return nil
}

func stops(cmds []domain.VelocityCommand) int {
	n := 0
	for _, c := range cmds {
		if c.IsStop() {
			n++
		}
	}
	return n
}
