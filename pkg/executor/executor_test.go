package executor_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bft-labs/driveseq/internal/adapters/sim"
	"github.com/bft-labs/driveseq/pkg/executor"
)

func fastConfig() executor.Config {
	return executor.Config{
		StopSettle:     -1,
		MarkerInterval: time.Millisecond,
		ReadyTimeout:   time.Second,
	}
}

type recordingHandler struct {
	executor.BaseEventHandler

	mu       sync.Mutex
	phases   []executor.Phase
	done     []executor.CommandDoneEvent
	rendered []executor.ContourEvent
}

func (h *recordingHandler) OnPhaseChange(e executor.PhaseChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phases = append(h.phases, e.Current)
}

func (h *recordingHandler) OnContourRendered(e executor.ContourEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rendered = append(h.rendered, e)
}

func (h *recordingHandler) OnCommandDone(e executor.CommandDoneEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = append(h.done, e)
}

type memoryReports struct {
	mu      sync.Mutex
	reports []executor.RunReport
}

func (m *memoryReports) Save(_ context.Context, r executor.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func TestNew_RequiresCollaborators(t *testing.T) {
	vehicle := sim.NewVehicle()
	contour := executor.Contour{Points: []r3.Vec{{}}}

	_, err := executor.New(fastConfig(), executor.Description{})
	assert.ErrorIs(t, err, executor.ErrInvalidConfig)

	_, err = executor.New(fastConfig(), executor.Description{Contour: &contour},
		executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle))
	assert.ErrorIs(t, err, executor.ErrInvalidConfig)

	cfg := fastConfig()
	cfg.LinearSpeed = -1
	_, err = executor.New(cfg, executor.Description{},
		executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle))
	assert.ErrorIs(t, err, executor.ErrInvalidConfig)
}

func TestRun_RotateThenMoveWithContour(t *testing.T) {
	vehicle := sim.NewVehicle()
	markers := sim.NewMarkerRecorder()
	handler := &recordingHandler{}
	reports := &memoryReports{}
	contour := executor.Contour{Points: []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}}

	ex, err := executor.New(fastConfig(), executor.Description{
		Commands: []executor.Command{
			{Kind: executor.KindRotate, DeltaAngleDeg: 90},
			{Kind: executor.KindMove, DistanceM: 2.0},
		},
		Contour: &contour,
	},
		executor.WithPoseSource(vehicle),
		executor.WithVelocitySink(vehicle),
		executor.WithMarkerSink(markers),
		executor.WithEventHandler(handler),
		executor.WithReportRepository(reports),
	)
	require.NoError(t, err)
	assert.Equal(t, executor.PhaseIdle, ex.Status())

	require.NoError(t, ex.Run(context.Background()))
	assert.Equal(t, executor.PhaseFinished, ex.Status())

	pose, ok := ex.Pose()
	require.True(t, ok)
	assert.InDelta(t, math.Pi/2, pose.Heading, 0.05)
	assert.InDelta(t, 2.0, math.Hypot(pose.Position.X, pose.Position.Y), 0.3)

	assert.Len(t, markers.Markers(), 20)
	assert.Equal(t, []executor.Phase{
		executor.PhaseWaitingForPose,
		executor.PhaseRendering,
		executor.PhaseExecuting,
		executor.PhaseFinished,
	}, handler.phases)
	assert.Equal(t, []executor.ContourEvent{{Delivered: 20, Requested: 20}}, handler.rendered)
	require.Len(t, handler.done, 2)
	assert.NoError(t, handler.done[1].Error)

	require.Len(t, reports.reports, 1)
	report := reports.reports[0]
	assert.Equal(t, ex.RunID(), report.RunID)
	assert.Equal(t, "Finished", report.Phase)
	assert.Len(t, report.Commands, 2)
	assert.Empty(t, report.Error)
	assert.Equal(t, 20, report.ContourDelivered)
}

func TestRun_UnknownCommandFails(t *testing.T) {
	vehicle := sim.NewVehicle()
	reports := &memoryReports{}

	ex, err := executor.New(fastConfig(), executor.Description{
		Commands: []executor.Command{{Kind: "spin"}, {Kind: executor.KindMove, DistanceM: 1}},
	}, executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle), executor.WithReportRepository(reports))
	require.NoError(t, err)

	err = ex.Run(context.Background())
	assert.ErrorIs(t, err, executor.ErrUnknownCommand)
	assert.Equal(t, executor.PhaseFailed, ex.Status())
	assert.Empty(t, vehicle.Commands())
	require.Len(t, reports.reports, 1)
	assert.Contains(t, reports.reports[0].Error, "unknown command")
}

func TestRun_SensorTimeout(t *testing.T) {
	vehicle := sim.NewVehicle(sim.WithSilentStart())
	cfg := fastConfig()
	cfg.ReadyTimeout = 20 * time.Millisecond

	ex, err := executor.New(cfg, executor.Description{
		Commands: []executor.Command{{Kind: executor.KindMove, DistanceM: 1}},
	}, executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle))
	require.NoError(t, err)

	err = ex.Run(context.Background())
	assert.ErrorIs(t, err, executor.ErrSensorTimeout)
	assert.Empty(t, vehicle.Commands())
}

func TestStop_CancelsAndStopsVehicle(t *testing.T) {
	vehicle := sim.NewVehicle(sim.WithRealtime(), sim.WithStep(5*time.Millisecond))
	handler := &recordingHandler{}

	ex, err := executor.New(fastConfig(), executor.Description{
		Commands: []executor.Command{{Kind: executor.KindMove, DistanceM: 1000}},
	}, executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle), executor.WithEventHandler(handler))
	require.NoError(t, err)

	require.NoError(t, ex.Start(context.Background()))
	assert.ErrorIs(t, ex.Start(context.Background()), executor.ErrAlreadyRunning)

	require.Eventually(t, func() bool { return len(vehicle.Commands()) > 3 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, ex.Stop())

	err = ex.Wait(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, executor.PhaseCanceled, ex.Status())

	cmds := vehicle.Commands()
	assert.True(t, cmds[len(cmds)-1].IsStop(), "vehicle must be left stopped")
	assert.ErrorIs(t, ex.Stop(), executor.ErrNotRunning)
}

func TestWait_BeforeStart(t *testing.T) {
	vehicle := sim.NewVehicle()
	ex, err := executor.New(fastConfig(), executor.Description{},
		executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle))
	require.NoError(t, err)

	assert.ErrorIs(t, ex.Wait(context.Background()), executor.ErrNotRunning)
}

func TestRun_CanRestartAfterFinish(t *testing.T) {
	vehicle := sim.NewVehicle()
	ex, err := executor.New(fastConfig(), executor.Description{
		Commands: []executor.Command{{Kind: executor.KindMove, DistanceM: 0.5}},
	}, executor.WithPoseSource(vehicle), executor.WithVelocitySink(vehicle))
	require.NoError(t, err)

	require.NoError(t, ex.Run(context.Background()))
	first := vehicle.Pose().Position.X
	require.NoError(t, ex.Run(context.Background()))

	assert.Greater(t, vehicle.Pose().Position.X, first)
	assert.Len(t, ex.Report().Commands, 1)
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg executor.Config
	cfg.SetDefaults()

	assert.Equal(t, 2.9, cfg.LinearSpeed)
	assert.Equal(t, 0.4, cfg.AngularSpeed)
	assert.Equal(t, 0.05, cfg.HeadingTolerance)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.StopSettle)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, "odom", cfg.MarkerFrame)
	assert.Equal(t, 20, cfg.MarkerCopies)
	assert.Equal(t, 50*time.Millisecond, cfg.MarkerInterval)
	assert.Equal(t, executor.Color{G: 1, A: 1}, cfg.MarkerColor)
	assert.NoError(t, cfg.Validate())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "Executing", executor.PhaseExecuting.String())
	assert.Equal(t, "Canceled", executor.PhaseCanceled.String())
}
