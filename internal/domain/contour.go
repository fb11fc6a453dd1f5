package domain

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Contour is an ordered list of points in the pose frame.
type Contour struct {
	Points []r3.Vec
}

// Closed returns the points with the first point appended when the contour
// has more than one point. The receiver is not modified.
func (c Contour) Closed() ([]r3.Vec, error) {
	if len(c.Points) == 0 {
		return nil, ErrEmptyContour
	}
	out := make([]r3.Vec, len(c.Points), len(c.Points)+1)
	copy(out, c.Points)
	if len(c.Points) > 1 {
		out = append(out, c.Points[0])
	}
	return out, nil
}

// MarkerKind mirrors the visualization primitive types of the viewer.
type MarkerKind int

// MarkerLineStrip is a connected polyline.
const MarkerLineStrip MarkerKind = 4

// RGBA is a color with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Marker is one polyline visualization record.
type Marker struct {
	Frame     string
	Namespace string
	ID        int
	Kind      MarkerKind
	Width     float64
	Color     RGBA
	Points    []r3.Vec
}

// DeliveryPolicy describes best-effort, at-least-N delivery over a lossy
// channel: the record is sent Copies times, Interval apart, without
// acknowledgment.
type DeliveryPolicy struct {
	Copies   int
	Interval time.Duration
}

// Run calls send once per copy, Interval apart, and returns the number of
// copies send reported delivered. A lost copy is not retried. Run stops
// early with ctx's error or the first error send returns.
func (p DeliveryPolicy) Run(ctx context.Context, send func(i int) (bool, error)) (int, error) {
	sent := 0
	for i := 0; i < p.Copies; i++ {
		if i > 0 && p.Interval > 0 {
			timer := time.NewTimer(p.Interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return sent, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		ok, err := send(i)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}
