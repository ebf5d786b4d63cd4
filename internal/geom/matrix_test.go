package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-12

func assertMat3Near(t *testing.T, want, got Mat3x3, eps float64) {
	t.Helper()
	w := [9]float64{want.A11, want.A12, want.A13, want.A21, want.A22, want.A23, want.A31, want.A32, want.A33}
	g := [9]float64{got.A11, got.A12, got.A13, got.A21, got.A22, got.A23, got.A31, got.A32, got.A33}
	for i := range w {
		if math.Abs(w[i]-g[i]) > eps {
			t.Fatalf("element %d: want %.15g, got %.15g\nwant %v\ngot  %v", i, w[i], g[i], want, got)
		}
	}
}

func TestMakeRotationMatrix_ToEulerRoundTrip(t *testing.T) {
	t.Parallel()

	angles := []Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: -0.2, Z: 0.3},
		{X: -1.2, Y: 0.7, Z: 2.9},
		{X: 3.0, Y: -1.5, Z: -3.0},
		{X: math.Pi / 4, Y: math.Pi / 6, Z: -math.Pi / 3},
	}
	for _, a := range angles {
		got := ToEuler(MakeRotationMatrixVec(a).Transpose())
		assert.InDelta(t, a.X, got.X, 1e-9, "x for %v", a)
		assert.InDelta(t, a.Y, got.Y, 1e-9, "y for %v", a)
		assert.InDelta(t, a.Z, got.Z, 1e-9, "z for %v", a)
	}
}

func TestToEuler_SingleAxisSignFlip(t *testing.T) {
	t.Parallel()

	// Without the transpose a single-axis rotation reads back negated.
	got := ToEuler(MakeRotationMatrix(0.3, 0, 0))
	assert.InDelta(t, -0.3, got.X, tol)
	got = ToEuler(MakeRotationMatrix(0, 0, -0.8))
	assert.InDelta(t, 0.8, got.Z, tol)
}

func TestToEuler_GimbalLock(t *testing.T) {
	t.Parallel()

	// At y = π/2 a32 and a33 collapse to ~0.
	m := MakeRotationMatrix(0.4, math.Pi/2, 0.1).Transpose()
	got := ToEuler(m)
	assert.InDelta(t, math.Pi/2, got.Y, 1e-6)
	assert.False(t, math.IsNaN(got.X) || math.IsNaN(got.Z))

	// Exact zeros take the atan2(0, 0) = 0 branch.
	exact := Mat3x3{A13: -1, A21: 0, A22: 1, A31: 1}
	got = ToEuler(exact)
	assert.Equal(t, 0.0, got.X)
	assert.InDelta(t, -math.Pi/2, got.Y, tol)
}

func TestTranspose_Involution(t *testing.T) {
	t.Parallel()

	m := Mat3x3{
		A11: 1, A12: 2, A13: 3,
		A21: 4, A22: 5, A23: 6,
		A31: 7, A32: 8, A33: 9,
	}
	assert.Equal(t, m, m.Transpose().Transpose())
	assert.Equal(t, 4.0, m.Transpose().A12)
	assert.Equal(t, 3.0, m.Transpose().A31)
}

func TestRotationTimesTransposeIsIdentity(t *testing.T) {
	t.Parallel()

	for _, a := range []Vec3{{X: 0.3, Y: 0.2, Z: 0.1}, {X: -2, Y: 1.1, Z: 0.5}, {X: 1, Y: -1, Z: 3}} {
		r := MakeRotationMatrixVec(a)
		assertMat3Near(t, Identity3(), r.Mul(r.Transpose()), 1e-12)
		assert.InDelta(t, 1.0, r.Det(), 1e-12)
	}
}

func TestDet_MatchesGonum(t *testing.T) {
	t.Parallel()

	m := Mat3x3{
		A11: 2, A12: -1, A13: 0.5,
		A21: 0, A22: 3, A23: 1,
		A31: 4, A32: 1, A33: -2,
	}
	assert.InDelta(t, mat.Det(m.Dense()), m.Det(), 1e-12)
}

func TestMul_AgainstGonum(t *testing.T) {
	t.Parallel()

	a := MakeRotationMatrix(0.2, 0.4, -0.7)
	b := Mat3x3{A11: 1, A12: 2, A13: 3, A21: -1, A22: 0, A23: 2, A31: 0.5, A32: 0.25, A33: -4}

	var want mat.Dense
	want.Mul(a.Dense(), b.Dense())
	got := a.Mul(b).Dense()
	assert.True(t, mat.EqualApprox(&want, got, 1e-12))
}

func TestMulVec(t *testing.T) {
	t.Parallel()

	m := Mat3x3{
		A11: 1, A12: 2, A13: 3,
		A21: 4, A22: 5, A23: 6,
		A31: 7, A32: 8, A33: 9,
	}
	got := m.MulVec(Vec3{X: 1, Y: 0, Z: -1})
	assert.Equal(t, Vec3{X: -2, Y: -2, Z: -2}, got)
}

func TestAxisRotations(t *testing.T) {
	t.Parallel()

	quarter := math.Pi / 2
	tests := []struct {
		name string
		rot  func(Vec3, Vec3) Vec3
		r    Vec3
		in   Vec3
		want Vec3
	}{
		{"x maps y to z", RotX, Vec3{X: quarter}, Vec3{Y: 1}, Vec3{Z: 1}},
		{"y maps z to x", RotY, Vec3{Y: quarter}, Vec3{Z: 1}, Vec3{X: 1}},
		{"z maps x to y", RotZ, Vec3{Z: quarter}, Vec3{X: 1}, Vec3{Y: 1}},
		{"x ignores other components", RotX, Vec3{Y: 1, Z: 1}, Vec3{X: 2}, Vec3{X: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rot(tt.in, tt.r)
			assert.True(t, got.ApproxEqual(tt.want), "got %v, want %v", got, tt.want)
			assert.InDelta(t, tt.in.Norm(), got.Norm(), tol)
		})
	}
}

func TestVectorArithmetic(t *testing.T) {
	t.Parallel()

	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 0.5, Y: -1, Z: 4}
	assert.Equal(t, Vec3{X: 1.5, Y: 1, Z: 7}, Add(a, b))
	assert.Equal(t, Vec3{X: 0.5, Y: 3, Z: -1}, Sub(a, b))
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, Scale(a, 2))
	assert.Equal(t, Vec3{X: 0.5, Y: 1, Z: 1.5}, Div(a, 2))
}

func TestMat4x4FromColumnMajor(t *testing.T) {
	t.Parallel()

	// Columns: x axis, y axis, z axis, translation.
	m := Mat4x4FromColumnMajor([16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		5, 6, 7, 1,
	})
	assert.Equal(t, Vec3{X: 5, Y: 6, Z: 7}, ExtractTrans(m))
	assert.Equal(t, Identity3(), ExtractRot(m))
	assert.Equal(t, 1.0, m.A44)
	assert.Equal(t, 0.0, m.A41)

	rm := m.RowMajor()
	assert.Equal(t, 5.0, rm[3])
	assert.Equal(t, 6.0, rm[7])
	assert.Equal(t, 7.0, rm[11])
}

func TestApplyPose(t *testing.T) {
	t.Parallel()

	r := MakeRotationMatrix(0, 0, math.Pi/2)
	m := Mat4x4{
		A11: r.A11, A12: r.A12, A13: r.A13, A14: 1,
		A21: r.A21, A22: r.A22, A23: r.A23, A24: 2,
		A31: r.A31, A32: r.A32, A33: r.A33, A34: 3,
		A44: 1,
	}
	got := ApplyPose(m, Vec3{X: 1})
	want := Add(r.MulVec(Vec3{X: 1}), Vec3{X: 1, Y: 2, Z: 3})
	assert.True(t, got.ApproxEqual(want))
}

func TestMatrixString(t *testing.T) {
	t.Parallel()

	s := Identity3().String()
	assert.Contains(t, s, "+1.0000 +0.0000 +0.0000")
	assert.Contains(t, Identity4().String(), "+0.0000 +0.0000 +0.0000 +1.0000]")
}
