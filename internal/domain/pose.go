package domain

import (
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is the vehicle position in the fixed frame plus its heading.
// Heading is always normalized to (−π, π].
type Pose struct {
	Position r3.Vec
	Heading  float64
}

// PoseUpdate is one pose-feedback message as received from the transport.
type PoseUpdate struct {
	Position    r3.Vec
	Orientation quat.Number
	Stamp       time.Time
}

// Planar returns the position projected onto the ground plane.
func (p Pose) Planar() r3.Vec {
	return r3.Vec{X: p.Position.X, Y: p.Position.Y}
}
