package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/angle"
	"github.com/bft-labs/driveseq/pkg/log"
)

func yawQuat(yaw float64) quat.Number {
	return angle.FromYaw(yaw)
}

func TestTracker_NotReadyInitially(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())

	assert.False(t, tr.Ready())
	_, seq, ok := tr.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, seq)
}

func TestTracker_UpdateExtractsHeading(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())

	err := tr.Update(domain.PoseUpdate{
		Position:    r3.Vec{X: 1, Y: -2, Z: 0.1},
		Orientation: yawQuat(math.Pi / 3),
	})
	require.NoError(t, err)

	pose, seq, ok := tr.Snapshot()
	require.True(t, ok)
	assert.True(t, tr.Ready())
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, r3.Vec{X: 1, Y: -2, Z: 0.1}, pose.Position)
	assert.InDelta(t, math.Pi/3, pose.Heading, 1e-9)
}

func TestTracker_RejectsInvalidUpdates(t *testing.T) {
	tests := []struct {
		name   string
		update domain.PoseUpdate
	}{
		{"nan position", domain.PoseUpdate{Position: r3.Vec{X: math.NaN()}, Orientation: yawQuat(0)}},
		{"inf position", domain.PoseUpdate{Position: r3.Vec{Y: math.Inf(1)}, Orientation: yawQuat(0)}},
		{"zero quaternion", domain.PoseUpdate{}},
		{"non-unit quaternion", domain.PoseUpdate{Orientation: quat.Number{Real: 2}}},
		{"nan quaternion", domain.PoseUpdate{Orientation: quat.Number{Real: math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(log.NewNoopLogger())

			err := tr.Update(tt.update)
			assert.ErrorIs(t, err, domain.ErrInvalidPose)
			assert.False(t, tr.Ready())
			assert.Equal(t, uint64(1), tr.Rejected())
		})
	}
}

func TestTracker_RejectedUpdateKeepsPreviousPose(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	require.NoError(t, tr.Update(domain.PoseUpdate{Position: r3.Vec{X: 5}, Orientation: yawQuat(1)}))

	err := tr.Update(domain.PoseUpdate{Position: r3.Vec{X: math.NaN()}, Orientation: yawQuat(0)})
	require.Error(t, err)

	pose, seq, _ := tr.Snapshot()
	assert.Equal(t, 5.0, pose.Position.X)
	assert.InDelta(t, 1.0, pose.Heading, 1e-9)
	assert.Equal(t, uint64(1), seq)
}

func TestTracker_UpdatesAppliedInOrder(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())

	for i := 1; i <= 5; i++ {
		require.NoError(t, tr.Update(domain.PoseUpdate{Position: r3.Vec{X: float64(i)}, Orientation: yawQuat(0)}))
	}

	pose, seq, _ := tr.Snapshot()
	assert.Equal(t, uint64(5), seq)
	assert.Equal(t, 5.0, pose.Position.X)
}

func TestTracker_WaitReady(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = tr.Update(domain.PoseUpdate{Position: r3.Vec{X: 3}, Orientation: yawQuat(0)})
	}()

	pose, err := tr.WaitReady(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3.0, pose.Position.X)
}

func TestTracker_WaitReadyTimeout(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())

	_, err := tr.WaitReady(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrSensorTimeout)
}

func TestTracker_WaitReadyCancelled(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.WaitReady(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTracker_NextWakesOnUpdate(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	require.NoError(t, tr.Update(domain.PoseUpdate{Orientation: yawQuat(0)}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = tr.Update(domain.PoseUpdate{Position: r3.Vec{X: 1}, Orientation: yawQuat(0)})
	}()

	started := time.Now()
	pose, seq, err := tr.Next(context.Background(), 1, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, 1.0, pose.Position.X)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestTracker_NextReturnsNewerImmediately(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	require.NoError(t, tr.Update(domain.PoseUpdate{Orientation: yawQuat(0)}))
	require.NoError(t, tr.Update(domain.PoseUpdate{Position: r3.Vec{X: 2}, Orientation: yawQuat(0)}))

	pose, seq, err := tr.Next(context.Background(), 1, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, 2.0, pose.Position.X)
}

func TestTracker_NextTimesOutWithLatestPose(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	require.NoError(t, tr.Update(domain.PoseUpdate{Position: r3.Vec{X: 4}, Orientation: yawQuat(0)}))

	pose, seq, err := tr.Next(context.Background(), 1, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, 4.0, pose.Position.X)
}

func TestTracker_NextCancelled(t *testing.T) {
	tr := NewTracker(log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, seq, err := tr.Next(ctx, 0, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, seq)
}
