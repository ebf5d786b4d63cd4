package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/depthflow/internal/geom"
)

func makePose(r geom.Mat3x3, t geom.Vec3) geom.Mat4x4 {
	return geom.Mat4x4{
		A11: r.A11, A12: r.A12, A13: r.A13, A14: t.X,
		A21: r.A21, A22: r.A22, A23: r.A23, A24: t.Y,
		A31: r.A31, A32: r.A32, A33: r.A33, A34: t.Z,
		A44: 1,
	}
}

func assertVecNear(t *testing.T, want, got geom.Vec3, eps float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestDecompose_SamePoseIsZeroMotion(t *testing.T) {
	t.Parallel()

	poses := []geom.Mat4x4{
		geom.Identity4(),
		makePose(geom.MakeRotationMatrix(0.3, -0.2, 1.1), geom.Vec3{X: 4, Y: -2, Z: 9}),
		makePose(geom.MakeRotationMatrix(-2.5, 1.2, 0.01), geom.Vec3{X: -100, Y: 0.5, Z: 3}),
	}
	for _, p := range poses {
		m := Decompose(p, p)
		assertVecNear(t, geom.Vec3{}, m.Translation, 1e-12)
		assertVecNear(t, geom.Vec3{}, m.Rotation, 1e-12)
	}
	assert.True(t, Decompose(geom.Identity4(), geom.Identity4()).IsZero())
}

func TestDecompose_PureTranslation(t *testing.T) {
	t.Parallel()

	prev := makePose(geom.Identity3(), geom.Vec3{X: 1, Y: 2, Z: 3})
	next := makePose(geom.Identity3(), geom.Vec3{X: 1.5, Y: 2, Z: 2})

	m := Decompose(prev, next)
	assert.Equal(t, geom.Vec3{X: 0.5, Y: 0, Z: -1}, m.Translation)
	assert.Equal(t, geom.Vec3{}, m.Rotation)
}

func TestDecompose_TranslationInFirstCameraFrame(t *testing.T) {
	t.Parallel()

	// Camera 0 is yawed 90 degrees; a world +x step is camera -y.
	r0 := geom.MakeRotationMatrix(0, 0, math.Pi/2).Transpose()
	prev := makePose(r0, geom.Vec3{})
	next := makePose(r0, geom.Vec3{X: 1})

	m := Decompose(prev, next)
	assertVecNear(t, r0.Transpose().MulVec(geom.Vec3{X: 1}), m.Translation, 1e-12)
	assertVecNear(t, geom.Vec3{X: 0, Y: -1, Z: 0}, m.Translation, 1e-12)
	assertVecNear(t, geom.Vec3{}, m.Rotation, 1e-12)
}

func TestDecompose_RotationFromIdentity(t *testing.T) {
	t.Parallel()

	want := geom.Vec3{X: 0.01, Y: -0.02, Z: 0.03}
	next := makePose(geom.MakeRotationMatrixVec(want).Transpose(), geom.Vec3{})

	m := Decompose(geom.Identity4(), next)
	assertVecNear(t, want, m.Rotation, 1e-12)
	assertVecNear(t, geom.Vec3{}, m.Translation, 1e-12)
}

func TestDecompose_EulerRotatedLikeVector(t *testing.T) {
	t.Parallel()

	r0 := geom.MakeRotationMatrix(0.2, 0.1, -0.4)
	step := geom.MakeRotationMatrix(0.001, 0.002, -0.003)
	r1 := step.Mul(r0)

	m := Decompose(makePose(r0, geom.Vec3{}), makePose(r1, geom.Vec3{}))
	want := r0.Transpose().MulVec(geom.ToEuler(r1.Mul(r0.Transpose())))
	assert.Equal(t, want, m.Rotation)
}

func TestMotionString(t *testing.T) {
	t.Parallel()

	m := Motion{Translation: geom.Vec3{X: 1}, Rotation: geom.Vec3{Z: -0.5}}
	assert.Equal(t, "t=[+1.0000 +0.0000 +0.0000] r=[+0.0000 +0.0000 -0.5000]", m.String())
	assert.False(t, m.IsZero())
}
