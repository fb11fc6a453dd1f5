package messaging

import (
	"context"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

// vehicleQueueSize bounds the twists waiting for the vehicle.
const vehicleQueueSize = 64

// Vehicle is a pose source that also accepts velocity commands.
type Vehicle interface {
	ports.PoseSource
	ports.VelocitySink
}

// ServeVehicle exposes vehicle on the bus: twist documents from the
// velocity topic drive it and its poses are published as odometry in
// frame. It blocks until ctx ends.
//
// The subscription handler only queues decoded twists and must not block
// the transport's delivery goroutine. The vehicle is stepped and its
// odometry published on the calling goroutine. When the queue is full the
// oldest twist is dropped.
func ServeVehicle(ctx context.Context, t Transport, topics Topics, frame string, vehicle Vehicle, logger log.Logger) error {
	publisher := NewPosePublisher(t, topics.Pose, frame, logger)
	if err := vehicle.Subscribe(ctx, publisher.Handle); err != nil {
		return err
	}

	queue := make(chan domain.VelocityCommand, vehicleQueueSize)
	err := t.Subscribe(ctx, topics.Velocity, func(payload []byte) {
		cmd, err := DecodeTwist(payload)
		if err != nil {
			logger.Warn("dropping velocity message", log.String("topic", topics.Velocity), log.Err(err))
			return
		}
		for {
			select {
			case queue <- cmd:
				return
			default:
			}
			select {
			case <-queue:
				logger.Warn("vehicle lagging, dropped oldest velocity command")
			default:
			}
		}
	})
	if err != nil {
		return err
	}

	logger.Info("simulated vehicle on the bus",
		log.String("pose_topic", topics.Pose),
		log.String("velocity_topic", topics.Velocity),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-queue:
			if err := vehicle.Publish(ctx, cmd); err != nil {
				logger.Warn("vehicle rejected command", log.Err(err))
			}
		}
	}
}
