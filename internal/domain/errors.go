package domain

import "errors"

// Domain errors. These are returned wrapped by the public API and can be
// checked with errors.Is.
var (
	// ErrMalformedDescription is returned when a description cannot be parsed
	// into the expected shape.
	ErrMalformedDescription = errors.New("driveseq: malformed description")

	// ErrMissingField is returned when a command or contour point lacks a
	// required numeric field.
	ErrMissingField = errors.New("driveseq: missing field")

	// ErrUnknownCommand is returned when the sequencer meets a command kind it
	// cannot dispatch.
	ErrUnknownCommand = errors.New("driveseq: unknown command")

	// ErrSensorTimeout is returned when no pose feedback arrives within the
	// readiness bound.
	ErrSensorTimeout = errors.New("driveseq: sensor timeout")

	// ErrInvalidArgument is returned by a motion primitive for an argument it
	// refuses to execute, such as a negative distance.
	ErrInvalidArgument = errors.New("driveseq: invalid primitive argument")

	// ErrNotReady is returned when a primitive is invoked before any pose
	// feedback has been observed.
	ErrNotReady = errors.New("driveseq: pose feedback not ready")

	// ErrInvalidPose is returned for pose feedback that would corrupt state.
	ErrInvalidPose = errors.New("driveseq: invalid pose feedback")

	// ErrEmptyContour is returned when a contour has no points.
	ErrEmptyContour = errors.New("driveseq: contour has no points")

	// ErrAlreadyRunning is returned when Start() is called on a running executor.
	ErrAlreadyRunning = errors.New("driveseq: already running")

	// ErrNotRunning is returned when Stop() is called on an idle executor.
	ErrNotRunning = errors.New("driveseq: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("driveseq: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("driveseq: invalid configuration")
)
