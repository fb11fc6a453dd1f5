package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

// Default contour rendering parameters.
const (
	DefaultMarkerFrame    = "odom"
	DefaultMarkerWidth    = 0.05
	DefaultMarkerCopies   = 20
	DefaultMarkerInterval = 50 * time.Millisecond
)

// RenderConfig controls how a contour is turned into a marker and delivered.
type RenderConfig struct {
	Frame     string
	Namespace string
	Width     float64
	Color     domain.RGBA
	Delivery  domain.DeliveryPolicy
}

// DefaultRenderConfig returns a green line strip in the odometry frame,
// delivered 20 times 50ms apart.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Frame:     DefaultMarkerFrame,
		Namespace: "contour",
		Width:     DefaultMarkerWidth,
		Color:     domain.RGBA{G: 1, A: 1},
		Delivery: domain.DeliveryPolicy{
			Copies:   DefaultMarkerCopies,
			Interval: DefaultMarkerInterval,
		},
	}
}

// Renderer turns a contour into a closed polyline marker.
type Renderer struct {
	cfg    RenderConfig
	sink   ports.MarkerSink
	logger log.Logger
}

// NewRenderer creates a renderer delivering to sink.
func NewRenderer(cfg RenderConfig, sink ports.MarkerSink, logger log.Logger) *Renderer {
	return &Renderer{cfg: cfg, sink: sink, logger: logger}
}

// Build returns the marker for contour. More than one point closes the loop.
func (r *Renderer) Build(contour domain.Contour) (domain.Marker, error) {
	points, err := contour.Closed()
	if err != nil {
		return domain.Marker{}, err
	}
	return domain.Marker{
		Frame:     r.cfg.Frame,
		Namespace: r.cfg.Namespace,
		Kind:      domain.MarkerLineStrip,
		Width:     r.cfg.Width,
		Color:     r.cfg.Color,
		Points:    points,
	}, nil
}

// Render builds the marker and hands it to the sink under the configured
// delivery policy. It returns the number of copies delivered.
func (r *Renderer) Render(ctx context.Context, contour domain.Contour) (int, error) {
	marker, err := r.Build(contour)
	if err != nil {
		return 0, err
	}

	r.logger.Info("rendering contour",
		log.Int("points", len(marker.Points)),
		log.Int("copies", r.cfg.Delivery.Copies),
	)
	sent, err := r.sink.Deliver(ctx, marker, r.cfg.Delivery)
	if err != nil {
		return sent, fmt.Errorf("deliver contour: %w", err)
	}
	if sent == 0 && r.cfg.Delivery.Copies > 0 {
		r.logger.Warn("contour marker was not delivered", log.Int("copies", r.cfg.Delivery.Copies))
	}
	return sent, nil
}
