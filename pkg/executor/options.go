package executor

// Option configures optional behavior of an Executor.
type Option func(*options)

// options holds the collaborators of an Executor instance.
type options struct {
	logger       Logger
	eventHandler EventHandler
	poseSource   PoseSource
	velocitySink VelocitySink
	markerSink   MarkerSink
	reportRepo   ReportRepository
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for executor events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPoseSource sets where pose feedback comes from. Required.
func WithPoseSource(src PoseSource) Option {
	return func(o *options) {
		o.poseSource = src
	}
}

// WithVelocitySink sets where velocity commands go. Required.
func WithVelocitySink(sink VelocitySink) Option {
	return func(o *options) {
		o.velocitySink = sink
	}
}

// WithMarkerSink sets where the contour marker goes. Required when the
// description has a contour.
func WithMarkerSink(sink MarkerSink) Option {
	return func(o *options) {
		o.markerSink = sink
	}
}

// WithReportRepository saves a run report whenever a run ends.
func WithReportRepository(repo ReportRepository) Option {
	return func(o *options) {
		o.reportRepo = repo
	}
}
