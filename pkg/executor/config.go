package executor

import (
	"fmt"
	"time"

	"github.com/bft-labs/driveseq/internal/app"
	"github.com/bft-labs/driveseq/internal/domain"
)

// Config holds the executor parameters. Zero values are replaced by
// defaults in SetDefaults.
type Config struct {
	// LinearSpeed is the forward speed of move commands in m/s.
	LinearSpeed float64
	// AngularSpeed is the turn rate of rotate commands in rad/s.
	AngularSpeed float64
	// HeadingTolerance is the rotate convergence band in radians.
	HeadingTolerance float64
	// PollInterval bounds the wait for fresh feedback on each tick.
	PollInterval time.Duration
	// StopSettle is how long the vehicle is held stopped after a command.
	// Use a negative value to disable the hold.
	StopSettle time.Duration
	// CorrectOvershoot lets rotate reverse when it passes the target.
	CorrectOvershoot bool
	// OvershootWindow is the heading error below which the live error
	// sign is used. Only meaningful with CorrectOvershoot.
	OvershootWindow float64

	// ReadyTimeout bounds the wait for the first pose message.
	ReadyTimeout time.Duration

	MarkerFrame     string
	MarkerNamespace string
	MarkerWidth     float64
	MarkerColor     Color
	MarkerCopies    int
	MarkerInterval  time.Duration
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	motion := app.DefaultMotionConfig()
	render := app.DefaultRenderConfig()

	if c.LinearSpeed == 0 {
		c.LinearSpeed = motion.LinearSpeed
	}
	if c.AngularSpeed == 0 {
		c.AngularSpeed = motion.AngularSpeed
	}
	if c.HeadingTolerance == 0 {
		c.HeadingTolerance = motion.HeadingTolerance
	}
	if c.PollInterval == 0 {
		c.PollInterval = motion.PollInterval
	}
	if c.StopSettle == 0 {
		c.StopSettle = motion.StopSettle
	}
	if c.OvershootWindow == 0 {
		c.OvershootWindow = motion.OvershootWindow
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = app.DefaultReadyTimeout
	}
	if c.MarkerFrame == "" {
		c.MarkerFrame = render.Frame
	}
	if c.MarkerNamespace == "" {
		c.MarkerNamespace = render.Namespace
	}
	if c.MarkerWidth == 0 {
		c.MarkerWidth = render.Width
	}
	if c.MarkerColor == (Color{}) {
		c.MarkerColor = render.Color
	}
	if c.MarkerCopies == 0 {
		c.MarkerCopies = render.Delivery.Copies
	}
	if c.MarkerInterval == 0 {
		c.MarkerInterval = render.Delivery.Interval
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c Config) Validate() error {
	if err := c.motion().Validate(); err != nil {
		return err
	}
	switch {
	case c.ReadyTimeout < 0:
		return fmt.Errorf("%w: ready timeout must not be negative", domain.ErrInvalidConfig)
	case c.MarkerCopies < 1:
		return fmt.Errorf("%w: marker copies must be at least 1", domain.ErrInvalidConfig)
	case c.MarkerInterval < 0:
		return fmt.Errorf("%w: marker interval must not be negative", domain.ErrInvalidConfig)
	case !(c.MarkerWidth > 0):
		return fmt.Errorf("%w: marker width must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (c Config) motion() app.MotionConfig {
	settle := c.StopSettle
	if settle < 0 {
		settle = 0
	}
	return app.MotionConfig{
		LinearSpeed:      c.LinearSpeed,
		AngularSpeed:     c.AngularSpeed,
		HeadingTolerance: c.HeadingTolerance,
		PollInterval:     c.PollInterval,
		StopSettle:       settle,
		CorrectOvershoot: c.CorrectOvershoot,
		OvershootWindow:  c.OvershootWindow,
	}
}

func (c Config) render() app.RenderConfig {
	return app.RenderConfig{
		Frame:     c.MarkerFrame,
		Namespace: c.MarkerNamespace,
		Width:     c.MarkerWidth,
		Color:     c.MarkerColor,
		Delivery: domain.DeliveryPolicy{
			Copies:   c.MarkerCopies,
			Interval: c.MarkerInterval,
		},
	}
}
