package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/driveseq/internal/app"
	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

// reportTimeout bounds saving the run report.
const reportTimeout = 5 * time.Second

// Executor runs one description against a vehicle.
// Use New() to create an instance, then Run() or Start() and Wait().
type Executor struct {
	config    Config
	desc      Description
	opts      options
	logger    Logger
	lifecycle *app.Lifecycle
	tracker   *app.Tracker
	sequencer *app.Sequencer
	recorder  *app.Recorder

	mu     sync.Mutex
	done   chan struct{}
	runErr error
}

// New creates an executor for desc. The instance is created in PhaseIdle;
// call Start() or Run() to execute. Returns an error if the configuration
// is invalid or a required collaborator is missing.
func New(cfg Config, desc Description, opts ...Option) (*Executor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.poseSource == nil || o.velocitySink == nil {
		return nil, fmt.Errorf("%w: a pose source and a velocity sink are required", domain.ErrInvalidConfig)
	}
	if desc.Contour != nil && o.markerSink == nil {
		return nil, fmt.Errorf("%w: the description has a contour but no marker sink is set", domain.ErrInvalidConfig)
	}

	var logger Logger = log.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	recorder := app.NewRecorder(nil)
	logger = log.With(logger, log.String("run_id", recorder.RunID()))
	emitter := &eventEmitterWrapper{recorder: recorder, handler: o.eventHandler, copies: cfg.MarkerCopies}
	lifecycle := app.NewLifecycle(logger, emitter)
	tracker := app.NewTracker(logger)
	motion := app.NewMotion(cfg.motion(), tracker, o.velocitySink, logger)
	renderer := app.NewRenderer(cfg.render(), o.markerSink, logger)
	sequencer := app.NewSequencer(tracker, motion, renderer, lifecycle, emitter, logger, cfg.ReadyTimeout)

	return &Executor{
		config:    cfg,
		desc:      desc,
		opts:      o,
		logger:    logger,
		lifecycle: lifecycle,
		tracker:   tracker,
		sequencer: sequencer,
		recorder:  recorder,
	}, nil
}

// Start subscribes to pose feedback and starts the driver goroutine.
// Returns immediately; use Wait() for the outcome. The provided context
// bounds the whole run.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := e.lifecycle.TransitionTo(app.PhaseWaitingForPose, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.lifecycle.SetCancel(cancel)

	err := e.opts.poseSource.Subscribe(runCtx, func(u domain.PoseUpdate) {
		_ = e.tracker.Update(u)
	})
	if err != nil {
		cancel()
		err = fmt.Errorf("subscribe to pose feedback: %w", err)
		e.recorder.Fail(err)
		_ = e.lifecycle.TransitionTo(app.PhaseFailed, err.Error())
		return err
	}

	done := make(chan struct{})
	e.done = done
	e.runErr = nil

	e.lifecycle.AddWorker()
	go func() {
		defer e.lifecycle.WorkerDone()
		defer close(done)
		defer cancel()

		err := e.sequencer.Run(runCtx, e.desc)
		e.finish(err)
	}()

	return nil
}

func (e *Executor) finish(err error) {
	switch {
	case err == nil:
		_ = e.lifecycle.TransitionTo(app.PhaseFinished, "all commands executed")
	case errors.Is(err, context.Canceled):
		e.recorder.Fail(err)
		_ = e.lifecycle.TransitionTo(app.PhaseCanceled, "run canceled")
	default:
		e.logger.Error("run failed", log.Err(err))
		e.recorder.Fail(err)
		_ = e.lifecycle.TransitionTo(app.PhaseFailed, err.Error())
	}

	e.mu.Lock()
	e.runErr = err
	e.mu.Unlock()

	if e.opts.reportRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if saveErr := e.opts.reportRepo.Save(ctx, e.recorder.Report()); saveErr != nil {
			e.logger.Warn("failed to save run report", log.Err(saveErr))
		}
	}
}

// Wait blocks until the run started by Start ends and returns its error.
func (e *Executor) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return domain.ErrNotRunning
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runErr
}

// Run starts the executor and waits for the run to end.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	return e.Wait(context.Background())
}

// Stop cancels the running primitive, which still emits its stop command,
// and waits up to ShutdownTimeout for the driver to exit.
// Returns nil on graceful shutdown, ErrShutdownTimeout if it did not exit.
func (e *Executor) Stop() error {
	if !e.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}

	e.lifecycle.Cancel()
	return e.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
}

// Status returns the current phase.
// Safe to call concurrently from any goroutine.
func (e *Executor) Status() Phase {
	return convertPhase(e.lifecycle.Phase())
}

// Pose returns the latest accepted pose; ok is false before any feedback.
func (e *Executor) Pose() (pose Pose, ok bool) {
	pose, _, ok = e.tracker.Snapshot()
	return pose, ok
}

// Report returns the report of the current or last run.
func (e *Executor) Report() RunReport {
	return e.recorder.Report()
}

// RunID returns the identifier used in logs and reports.
func (e *Executor) RunID() string {
	return e.recorder.RunID()
}
