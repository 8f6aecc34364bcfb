// Package geometry provides the 2D primitives used to turn body keypoints into joint angles.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// normEpsilon keeps the cosine denominator away from zero for degenerate vectors.
const normEpsilon = 1e-6

// Point is a 2D position in a consistent coordinate space (pixels or normalized).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns the vector p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) vec() []float64 {
	return []float64{p.X, p.Y}
}

// Angle returns the angle ABC in degrees, with b as the vertex.
// The result is always in [0, 180]. Zero-length vectors do not fail: the
// epsilon in the denominator drives the cosine to 0 and the clamp keeps
// floating-point overshoot out of acos.
func Angle(a, b, c Point) float64 {
	ba := a.Sub(b).vec()
	bc := c.Sub(b).vec()

	cos := floats.Dot(ba, bc) / (floats.Norm(ba, 2)*floats.Norm(bc, 2) + normEpsilon)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// AngleFromVertical returns the absolute angle in degrees between the
// from→to vector and the image vertical (positive Y). A vector pointing
// straight down yields 0, a horizontal one 90.
func AngleFromVertical(from, to Point) float64 {
	v := to.Sub(from)
	return math.Abs(math.Atan2(v.X, v.Y) * 180 / math.Pi)
}

// HorizontalDistance returns |a.X - b.X|.
func HorizontalDistance(a, b Point) float64 {
	return math.Abs(a.X - b.X)
}
