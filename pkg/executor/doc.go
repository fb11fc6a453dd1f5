// Package executor provides an embeddable closed-loop motion command
// executor for a wheeled vehicle.
//
// An Executor takes a [Description] (an ordered list of rotate and move
// commands plus an optional contour), waits for pose feedback, renders the
// contour and then runs each command as a feedback loop that ends with a
// stop command.
//
// # Basic Usage
//
//	desc, err := driveseq.LoadDescription("commands.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ex, err := executor.New(executor.Config{}, desc,
//	    executor.WithPoseSource(odometry),
//	    executor.WithVelocitySink(drive),
//	    executor.WithMarkerSink(viewer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := ex.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// Zero fields of [Config] are filled by [Config.SetDefaults]: 2.9 m/s
// forward speed, 0.4 rad/s turn rate, 0.05 rad heading tolerance, 100ms
// poll interval, 500ms stop hold and 30s readiness timeout. The contour is
// drawn as a green 0.05 wide line strip in the "odom" frame, sent 20 times
// 50ms apart.
//
// # Event Handling
//
// Implement [EventHandler] (embed [BaseEventHandler] for no-op defaults) and
// pass it via [WithEventHandler]. Events are called synchronously from the
// driver goroutine and should return quickly.
//
// # Phases
//
// A run moves through [PhaseWaitingForPose], [PhaseRendering] (only with a
// contour) and [PhaseExecuting], and ends in [PhaseFinished], [PhaseFailed]
// or [PhaseCanceled]. Use [Executor.Status] to query it.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package executor
