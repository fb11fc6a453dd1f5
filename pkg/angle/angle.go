package angle

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// UnitTolerance is how far |q| may deviate from 1 before Yaw rejects q.
const UnitTolerance = 0.01

var (
	// ErrNonFinite is returned for NaN or infinite input.
	ErrNonFinite = errors.New("angle: non-finite value")

	// ErrNotUnit is returned by Yaw for quaternions that are not unit length.
	ErrNotUnit = errors.New("angle: quaternion is not unit length")
)

const twoPi = 2 * math.Pi

// Normalize returns the angle equivalent to a modulo 2π in (−π, π].
// Input already in range is returned unchanged, so Normalize is idempotent.
func Normalize(a float64) (float64, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, a)
	}
	if a > -math.Pi && a <= math.Pi {
		return a, nil
	}

	r := math.Mod(a+math.Pi, twoPi)
	if r <= 0 {
		r += twoPi
	}
	r -= math.Pi

	// Rounding can land exactly on −π or marginally past π.
	if r <= -math.Pi || r > math.Pi {
		r = math.Pi
	}
	return r, nil
}

// MustNormalize is Normalize for values known to be finite. It panics otherwise.
func MustNormalize(a float64) float64 {
	r, err := Normalize(a)
	if err != nil {
		panic(err)
	}
	return r
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Distance returns the absolute angular separation of a and b in [0, π].
func Distance(a, b float64) (float64, error) {
	d, err := Normalize(a - b)
	if err != nil {
		return 0, err
	}
	return math.Abs(d), nil
}

// Yaw returns the rotation about the vertical axis encoded by the unit
// quaternion q, normalized to (−π, π].
//
//	yaw = atan2(2(w·z + x·y), 1 − 2(y² + z²))
func Yaw(q quat.Number) (float64, error) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	for _, v := range [...]float64{w, x, y, z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: quaternion %v", ErrNonFinite, q)
		}
	}
	if n := quat.Abs(q); math.Abs(n-1) > UnitTolerance {
		return 0, fmt.Errorf("%w: |q| = %.4f", ErrNotUnit, n)
	}

	siny := 2 * (w*z + x*y)
	cosy := 1 - 2*(y*y+z*z)
	return Normalize(math.Atan2(siny, cosy))
}

// FromYaw returns the unit quaternion for a pure rotation of yaw radians
// about the vertical axis.
func FromYaw(yaw float64) quat.Number {
	half := yaw / 2
	return quat.Number{Real: math.Cos(half), Kmag: math.Sin(half)}
}
