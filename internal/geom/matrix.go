package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mat3x3 is a 3x3 matrix with components named a<row><col>.
// It represents a rotation when orthonormal with determinant +1; nothing in
// this package checks that.
type Mat3x3 struct {
	A11, A12, A13 float64
	A21, A22, A23 float64
	A31, A32, A33 float64
}

// Mat4x4 is a homogeneous camera pose. The top-left 3x3 block is the rotation
// and A14, A24, A34 hold the translation. The bottom row is carried but never
// read by the flow pipeline.
type Mat4x4 struct {
	A11, A12, A13, A14 float64
	A21, A22, A23, A24 float64
	A31, A32, A33, A34 float64
	A41, A42, A43, A44 float64
}

// Identity3 returns the 3x3 identity.
func Identity3() Mat3x3 {
	return Mat3x3{A11: 1, A22: 1, A33: 1}
}

// Identity4 returns the 4x4 identity pose.
func Identity4() Mat4x4 {
	return Mat4x4{A11: 1, A22: 1, A33: 1, A44: 1}
}

// MakeRotationMatrix builds the rotation for XYZ Euler angles x, y, z
// (radians). The element layout is the transpose of Rz·Ry·Rx, while ToEuler
// reads Rz·Ry·Rx, so ToEuler(MakeRotationMatrix(x, y, z).Transpose())
// recovers (x, y, z) away from y = ±π/2.
func MakeRotationMatrix(x, y, z float64) Mat3x3 {
	c1, c2, c3 := math.Cos(x), math.Cos(y), math.Cos(z)
	s1, s2, s3 := math.Sin(x), math.Sin(y), math.Sin(z)

	return Mat3x3{
		A11: c2 * c3,
		A12: c2 * s3,
		A13: -s2,

		A21: c3*s1*s2 - c1*s3,
		A22: c1*c3 + s1*s2*s3,
		A23: c2 * s1,

		A31: s1*s3 + c1*c3*s2,
		A32: c1*s2*s3 - c3*s1,
		A33: c1 * c2,
	}
}

// MakeRotationMatrixVec is MakeRotationMatrix(v.X, v.Y, v.Z).
func MakeRotationMatrixVec(v Vec3) Mat3x3 {
	return MakeRotationMatrix(v.X, v.Y, v.Z)
}

// Transpose returns mᵗ, which is the inverse of m for a proper rotation.
func (m Mat3x3) Transpose() Mat3x3 {
	return Mat3x3{
		A11: m.A11, A12: m.A21, A13: m.A31,
		A21: m.A12, A22: m.A22, A23: m.A32,
		A31: m.A13, A32: m.A23, A33: m.A33,
	}
}

// MulVec returns m·v.
func (m Mat3x3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m.A11*v.X + m.A12*v.Y + m.A13*v.Z,
		Y: m.A21*v.X + m.A22*v.Y + m.A23*v.Z,
		Z: m.A31*v.X + m.A32*v.Y + m.A33*v.Z,
	}
}

// Mul returns m·b.
func (m Mat3x3) Mul(b Mat3x3) Mat3x3 {
	return Mat3x3{
		A11: m.A11*b.A11 + m.A12*b.A21 + m.A13*b.A31,
		A12: m.A11*b.A12 + m.A12*b.A22 + m.A13*b.A32,
		A13: m.A11*b.A13 + m.A12*b.A23 + m.A13*b.A33,

		A21: m.A21*b.A11 + m.A22*b.A21 + m.A23*b.A31,
		A22: m.A21*b.A12 + m.A22*b.A22 + m.A23*b.A32,
		A23: m.A21*b.A13 + m.A22*b.A23 + m.A23*b.A33,

		A31: m.A31*b.A11 + m.A32*b.A21 + m.A33*b.A31,
		A32: m.A31*b.A12 + m.A32*b.A22 + m.A33*b.A32,
		A33: m.A31*b.A13 + m.A32*b.A23 + m.A33*b.A33,
	}
}

// Det returns the determinant of m.
func (m Mat3x3) Det() float64 {
	return m.A11*(m.A22*m.A33-m.A23*m.A32) -
		m.A12*(m.A21*m.A33-m.A23*m.A31) +
		m.A13*(m.A21*m.A32-m.A22*m.A31)
}

// Dense copies m into a gonum matrix.
func (m Mat3x3) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m.A11, m.A12, m.A13,
		m.A21, m.A22, m.A23,
		m.A31, m.A32, m.A33,
	})
}

// ToEuler recovers XYZ Euler angles from a rotation of the form Rz·Ry·Rx.
//
// Gimbal lock (a32 = a33 = 0, y = ±π/2) is not handled: atan2(0, 0) returns
// 0 and the x/z split is lost.
func ToEuler(m Mat3x3) Vec3 {
	return Vec3{
		X: math.Atan2(m.A32, m.A33),
		Y: math.Atan2(-m.A31, math.Sqrt(m.A32*m.A32+m.A33*m.A33)),
		Z: math.Atan2(m.A21, m.A11),
	}
}

// ExtractRot returns the rotation block of a pose.
func ExtractRot(m Mat4x4) Mat3x3 {
	return Mat3x3{
		A11: m.A11, A12: m.A12, A13: m.A13,
		A21: m.A21, A22: m.A22, A23: m.A23,
		A31: m.A31, A32: m.A32, A33: m.A33,
	}
}

// ExtractTrans returns the translation column of a pose.
func ExtractTrans(m Mat4x4) Vec3 {
	return Vec3{X: m.A14, Y: m.A24, Z: m.A34}
}

// Mat4x4FromColumnMajor builds a pose from 16 values listed column by
// column: a11, a21, a31, a41, a12, ... a44. This is how the Blender
// trajectory export writes its rows.
func Mat4x4FromColumnMajor(v [16]float64) Mat4x4 {
	return Mat4x4{
		A11: v[0], A21: v[1], A31: v[2], A41: v[3],
		A12: v[4], A22: v[5], A32: v[6], A42: v[7],
		A13: v[8], A23: v[9], A33: v[10], A43: v[11],
		A14: v[12], A24: v[13], A34: v[14], A44: v[15],
	}
}

// RowMajor flattens m as m00, m01, m02, m03, m10, ...
func (m Mat4x4) RowMajor() [16]float64 {
	return [16]float64{
		m.A11, m.A12, m.A13, m.A14,
		m.A21, m.A22, m.A23, m.A24,
		m.A31, m.A32, m.A33, m.A34,
		m.A41, m.A42, m.A43, m.A44,
	}
}

// ApplyPose transforms point p by the rigid part of m.
func ApplyPose(m Mat4x4, p Vec3) Vec3 {
	return Add(ExtractRot(m).MulVec(p), ExtractTrans(m))
}

func (m Mat3x3) String() string {
	return fmt.Sprintf("M = [%+4.4f %+4.4f %+4.4f\n     %+4.4f %+4.4f %+4.4f\n     %+4.4f %+4.4f %+4.4f]",
		m.A11, m.A12, m.A13,
		m.A21, m.A22, m.A23,
		m.A31, m.A32, m.A33)
}

func (m Mat4x4) String() string {
	return fmt.Sprintf("M = [%+4.4f %+4.4f %+4.4f %+4.4f\n     %+4.4f %+4.4f %+4.4f %+4.4f\n     %+4.4f %+4.4f %+4.4f %+4.4f\n     %+4.4f %+4.4f %+4.4f %+4.4f]",
		m.A11, m.A12, m.A13, m.A14,
		m.A21, m.A22, m.A23, m.A24,
		m.A31, m.A32, m.A33, m.A34,
		m.A41, m.A42, m.A43, m.A44)
}
