// Package geom holds the fixed-size vector and matrix types used to
// describe camera poses: 3-vectors, 3x3 rotation blocks and 4x4 poses.
//
// Everything here is a pure function over value types.
package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vec3 is a 3-vector used for translations, Euler angle triples and points.
type Vec3 = r3.Vector

// Add returns a + b.
func Add(a, b Vec3) Vec3 {
	return a.Add(b)
}

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return a.Sub(b)
}

// Scale returns a * s.
func Scale(a Vec3, s float64) Vec3 {
	return a.Mul(s)
}

// Div returns a / s componentwise. Division by zero follows IEEE-754.
func Div(a Vec3, s float64) Vec3 {
	return Vec3{X: a.X / s, Y: a.Y / s, Z: a.Z / s}
}

// RotX rotates t about the X axis by r.X radians.
func RotX(t, r Vec3) Vec3 {
	c, s := math.Cos(r.X), math.Sin(r.X)
	return Vec3{
		X: t.X,
		Y: c*t.Y - s*t.Z,
		Z: s*t.Y + c*t.Z,
	}
}

// RotY rotates t about the Y axis by r.Y radians.
func RotY(t, r Vec3) Vec3 {
	c, s := math.Cos(r.Y), math.Sin(r.Y)
	return Vec3{
		X: c*t.X + s*t.Z,
		Y: t.Y,
		Z: -s*t.X + c*t.Z,
	}
}

// RotZ rotates t about the Z axis by r.Z radians.
func RotZ(t, r Vec3) Vec3 {
	c, s := math.Cos(r.Z), math.Sin(r.Z)
	return Vec3{
		X: c*t.X - s*t.Y,
		Y: s*t.X + c*t.Y,
		Z: t.Z,
	}
}
