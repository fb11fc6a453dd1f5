package messaging

import (
	"context"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

// PoseSource receives odometry documents from a topic.
type PoseSource struct {
	transport Transport
	topic     string
	logger    log.Logger
}

var _ ports.PoseSource = (*PoseSource)(nil)

// NewPoseSource creates a pose source reading topic.
func NewPoseSource(transport Transport, topic string, logger log.Logger) *PoseSource {
	return &PoseSource{transport: transport, topic: topic, logger: logger}
}

// Subscribe implements ports.PoseSource. Undecodable documents are logged
// and dropped.
func (s *PoseSource) Subscribe(ctx context.Context, handle ports.PoseHandler) error {
	return s.transport.Subscribe(ctx, s.topic, func(payload []byte) {
		update, err := DecodeOdometry(payload)
		if err != nil {
			s.logger.Warn("dropping pose message", log.String("topic", s.topic), log.Err(err))
			return
		}
		handle(update)
	})
}

// DefaultPublishTimeout bounds a single odometry publish.
const DefaultPublishTimeout = 2 * time.Second

// PosePublisher publishes pose updates as odometry documents. It lets a
// simulated vehicle stand in for a real one on the bus.
type PosePublisher struct {
	transport Transport
	topic     string
	frame     string
	timeout   time.Duration
	logger    log.Logger
}

// NewPosePublisher creates a publisher writing to topic in frame.
func NewPosePublisher(transport Transport, topic, frame string, logger log.Logger) *PosePublisher {
	return &PosePublisher{
		transport: transport,
		topic:     topic,
		frame:     frame,
		timeout:   DefaultPublishTimeout,
		logger:    logger,
	}
}

// Handle publishes u. It has the ports.PoseHandler signature.
func (p *PosePublisher) Handle(u domain.PoseUpdate) {
	payload, err := EncodeOdometry(u, p.frame)
	if err != nil {
		p.logger.Error("encode odometry", log.Err(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.transport.Publish(ctx, p.topic, payload); err != nil {
		p.logger.Warn("publish odometry failed", log.String("topic", p.topic), log.Err(err))
	}
}
