package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/driveseq/internal/domain"
)

// Recorder builds a RunReport from lifecycle and sequencer events.
type Recorder struct {
	mu     sync.Mutex
	report domain.RunReport
	next   EventEmitter
}

// NewRecorder creates a recorder with a fresh run ID. Phase events are
// forwarded to next when it is not nil.
func NewRecorder(next EventEmitter) *Recorder {
	return &Recorder{
		report: domain.RunReport{RunID: uuid.NewString(), Phase: PhaseIdle.String()},
		next:   next,
	}
}

// RunID returns the identifier of the recorded run.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.RunID
}

// OnPhaseChange implements EventEmitter.
func (r *Recorder) OnPhaseChange(previous, current Phase, reason string) {
	r.mu.Lock()
	r.report.Phase = current.String()
	switch {
	case current == PhaseWaitingForPose:
		r.report.StartedAt = time.Now().UTC()
		r.report.FinishedAt = time.Time{}
		r.report.Commands = nil
		r.report.ContourDelivered = 0
		r.report.Error = ""
	case current.Terminal():
		r.report.FinishedAt = time.Now().UTC()
	}
	r.mu.Unlock()

	if r.next != nil {
		r.next.OnPhaseChange(previous, current, reason)
	}
}

// OnContourRendered implements CommandEventEmitter.
func (r *Recorder) OnContourRendered(delivered int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.ContourDelivered = delivered
}

// OnCommandStart implements CommandEventEmitter.
func (r *Recorder) OnCommandStart(int, domain.Command) {}

// OnCommandDone implements CommandEventEmitter.
func (r *Recorder) OnCommandDone(index int, cmd domain.Command, out Outcome, elapsed time.Duration, err error) {
	res := domain.CommandResult{
		Index:    index,
		Command:  cmd.String(),
		Ticks:    out.Ticks,
		Duration: elapsed,
		FinalX:   out.Final.Position.X,
		FinalY:   out.Final.Position.Y,
		Heading:  out.Final.Heading,
	}
	if err != nil {
		res.Error = err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Commands = append(r.report.Commands, res)
}

// Fail records the error that ended the run.
func (r *Recorder) Fail(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Error = err.Error()
}

// Report returns a copy of the current report.
func (r *Recorder) Report() domain.RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.report
	out.Commands = append([]domain.CommandResult(nil), r.report.Commands...)
	return out
}
