package executor

import (
	"time"

	"github.com/bft-labs/driveseq/internal/app"
	"github.com/bft-labs/driveseq/internal/domain"
)

// Phase is the lifecycle phase of a run.
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
	return app.Phase(p).String()
}

func convertPhase(p app.Phase) Phase {
	return Phase(p)
}

// PhaseChangeEvent is emitted on every phase transition.
type PhaseChangeEvent struct {
	Previous Phase
	Current  Phase
	Reason   string
}

// ContourEvent is emitted after the contour marker was handed to the sink.
type ContourEvent struct {
	Delivered int
	Requested int
}

// CommandEvent is emitted before a command is dispatched.
type CommandEvent struct {
	Index   int
	Command Command
}

// CommandDoneEvent is emitted after a command finished or failed.
type CommandDoneEvent struct {
	Index    int
	Command  Command
	Ticks    int
	Final    Pose
	Duration time.Duration
	Error    error
}

// EventHandler receives executor notifications.
type EventHandler interface {
	OnPhaseChange(event PhaseChangeEvent)
	OnContourRendered(event ContourEvent)
	OnCommandStart(event CommandEvent)
	OnCommandDone(event CommandDoneEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events of interest.
type BaseEventHandler struct{}

func (BaseEventHandler) OnPhaseChange(PhaseChangeEvent) {}
func (BaseEventHandler) OnContourRendered(ContourEvent) {}
func (BaseEventHandler) OnCommandStart(CommandEvent)    {}
func (BaseEventHandler) OnCommandDone(CommandDoneEvent) {}

// eventEmitterWrapper adapts EventHandler to the internal emitter
// interfaces and feeds the run report.
type eventEmitterWrapper struct {
	recorder *app.Recorder
	handler  EventHandler
	copies   int
}

func (e *eventEmitterWrapper) OnPhaseChange(previous, current app.Phase, reason string) {
	e.recorder.OnPhaseChange(previous, current, reason)
	if e.handler == nil {
		return
	}
	e.handler.OnPhaseChange(PhaseChangeEvent{
		Previous: convertPhase(previous),
		Current:  convertPhase(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnContourRendered(delivered int) {
	e.recorder.OnContourRendered(delivered)
	if e.handler == nil {
		return
	}
	e.handler.OnContourRendered(ContourEvent{Delivered: delivered, Requested: e.copies})
}

func (e *eventEmitterWrapper) OnCommandStart(index int, cmd domain.Command) {
	e.recorder.OnCommandStart(index, cmd)
	if e.handler == nil {
		return
	}
	e.handler.OnCommandStart(CommandEvent{Index: index, Command: cmd})
}

func (e *eventEmitterWrapper) OnCommandDone(index int, cmd domain.Command, out app.Outcome, elapsed time.Duration, err error) {
	e.recorder.OnCommandDone(index, cmd, out, elapsed, err)
	if e.handler == nil {
		return
	}
	e.handler.OnCommandDone(CommandDoneEvent{
		Index:    index,
		Command:  cmd,
		Ticks:    out.Ticks,
		Final:    out.Final,
		Duration: elapsed,
		Error:    err,
	})
}
