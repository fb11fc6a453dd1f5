package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

// VelocitySink publishes twist documents.
type VelocitySink struct {
	transport Transport
	topic     string
}

var _ ports.VelocitySink = (*VelocitySink)(nil)

// NewVelocitySink creates a sink writing to topic.
func NewVelocitySink(transport Transport, topic string) *VelocitySink {
	return &VelocitySink{transport: transport, topic: topic}
}

// Publish implements ports.VelocitySink.
func (s *VelocitySink) Publish(ctx context.Context, cmd domain.VelocityCommand) error {
	payload, err := EncodeTwist(cmd)
	if err != nil {
		return err
	}
	if err := s.transport.Publish(ctx, s.topic, payload); err != nil {
		return fmt.Errorf("publish %s: %w", s.topic, err)
	}
	return nil
}

// MarkerSink publishes marker documents with best-effort redundancy.
type MarkerSink struct {
	transport Transport
	topic     string
	logger    log.Logger
	now       func() time.Time
}

var _ ports.MarkerSink = (*MarkerSink)(nil)

// NewMarkerSink creates a sink writing to topic.
func NewMarkerSink(transport Transport, topic string, logger log.Logger) *MarkerSink {
	return &MarkerSink{transport: transport, topic: topic, logger: logger, now: time.Now}
}

// Deliver implements ports.MarkerSink. Each copy is stamped when sent.
func (s *MarkerSink) Deliver(ctx context.Context, marker domain.Marker, policy domain.DeliveryPolicy) (int, error) {
	sent, err := policy.Run(ctx, func(i int) (bool, error) {
		payload, err := EncodeMarker(marker, s.now())
		if err != nil {
			return false, err
		}
		if err := s.transport.Publish(ctx, s.topic, payload); err != nil {
			s.logger.Debug("marker copy lost", log.Int("copy", i), log.Err(err))
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return sent, err
	}

	if sent < policy.Copies {
		s.logger.Warn("marker partially delivered",
			log.String("topic", s.topic),
			log.Int("sent", sent),
			log.Int("copies", policy.Copies),
		)
	}
	return sent, nil
}
