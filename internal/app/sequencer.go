package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

// DefaultReadyTimeout bounds the wait for the first pose message.
const DefaultReadyTimeout = 30 * time.Second

// CommandEventEmitter is notified about sequencer progress. Calls are made
// synchronously from the driver goroutine.
type CommandEventEmitter interface {
	OnContourRendered(delivered int)
	OnCommandStart(index int, cmd domain.Command)
	OnCommandDone(index int, cmd domain.Command, out Outcome, elapsed time.Duration, err error)
}

// Sequencer executes a description: it waits for pose feedback, renders
// the contour if there is one, then dispatches commands strictly in order.
type Sequencer struct {
	tracker      *Tracker
	motion       *Motion
	renderer     *Renderer
	lifecycle    *Lifecycle
	emitter      CommandEventEmitter
	logger       log.Logger
	readyTimeout time.Duration
}

// NewSequencer creates a sequencer. lifecycle and emitter may be nil.
func NewSequencer(
	tracker *Tracker,
	motion *Motion,
	renderer *Renderer,
	lifecycle *Lifecycle,
	emitter CommandEventEmitter,
	logger log.Logger,
	readyTimeout time.Duration,
) *Sequencer {
	return &Sequencer{
		tracker:      tracker,
		motion:       motion,
		renderer:     renderer,
		lifecycle:    lifecycle,
		emitter:      emitter,
		logger:       logger,
		readyTimeout: readyTimeout,
	}
}

// Run executes desc. Any error aborts the run; commands after a failed one
// are never dispatched.
func (s *Sequencer) Run(ctx context.Context, desc domain.Description) error {
	s.logger.Info("loaded commands",
		log.Int("commands", len(desc.Commands)),
		log.Bool("contour", desc.Contour != nil),
	)
	s.logger.Info("waiting for pose feedback", log.Duration("timeout", s.readyTimeout))

	if _, err := s.tracker.WaitReady(ctx, s.readyTimeout); err != nil {
		return err
	}

	if desc.Contour != nil {
		s.enter(PhaseRendering, "pose feedback ready")
		sent, err := s.renderer.Render(ctx, *desc.Contour)
		if err != nil {
			return err
		}
		if s.emitter != nil {
			s.emitter.OnContourRendered(sent)
		}
	}

	s.enter(PhaseExecuting, "starting command execution")
	for i, cmd := range desc.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.emitter != nil {
			s.emitter.OnCommandStart(i, cmd)
		}

		started := time.Now()
		out, err := s.dispatch(ctx, cmd)
		elapsed := time.Since(started)

		if s.emitter != nil {
			s.emitter.OnCommandDone(i, cmd, out, elapsed, err)
		}
		if err != nil {
			return fmt.Errorf("command %d %s: %w", i, cmd, err)
		}
		s.logger.Info("command done",
			log.Int("index", i),
			log.String("command", cmd.String()),
			log.Int("ticks", out.Ticks),
			log.Float64("x", out.Final.Position.X),
			log.Float64("y", out.Final.Position.Y),
			log.Float64("heading", out.Final.Heading),
		)
	}

	s.logger.Info("all commands executed", log.Int("commands", len(desc.Commands)))
	return nil
}

func (s *Sequencer) dispatch(ctx context.Context, cmd domain.Command) (Outcome, error) {
	switch cmd.Kind {
	case domain.KindRotate:
		return s.motion.Rotate(ctx, cmd.DeltaAngleDeg)
	case domain.KindMove:
		return s.motion.Move(ctx, cmd.DistanceM)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, string(cmd.Kind))
	}
}

func (s *Sequencer) enter(p Phase, reason string) {
	if s.lifecycle == nil {
		return
	}
	if err := s.lifecycle.TransitionTo(p, reason); err != nil {
		s.logger.Warn("phase transition rejected", log.String("to", p.String()), log.Err(err))
	}
}
