// Package pose turns consecutive camera poses into the relative rigid motion
// the flow model consumes, and reads the trajectory those poses come from.
package pose

import (
	"fmt"

	"github.com/banshee-data/depthflow/internal/geom"
)

// Motion is the camera motion from one pose to the next, expressed in the
// first camera's frame. Rotation holds XYZ Euler angles in radians.
type Motion struct {
	Translation geom.Vec3
	Rotation    geom.Vec3
}

// IsZero reports whether the motion has no translation and no rotation.
func (m Motion) IsZero() bool {
	return m == Motion{}
}

func (m Motion) String() string {
	return fmt.Sprintf("t=[%+.4f %+.4f %+.4f] r=[%+.4f %+.4f %+.4f]",
		m.Translation.X, m.Translation.Y, m.Translation.Z,
		m.Rotation.X, m.Rotation.Y, m.Rotation.Z)
}

// Decompose computes the motion from prev to next in prev's camera frame.
//
// The Euler triple of R1·R0ᵗ is rotated into camera 0 as if it were a
// vector. That only holds for small inter-frame rotations; the sequence of
// operations is kept as-is so results stay comparable with existing ground
// truth sets.
func Decompose(prev, next geom.Mat4x4) Motion {
	r0 := geom.ExtractRot(prev)
	r1 := geom.ExtractRot(next)
	r0t := r0.Transpose()

	eulWorld := geom.ToEuler(r1.Mul(r0t))
	eulCam := r0t.MulVec(eulWorld)

	transWorld := geom.Sub(geom.ExtractTrans(next), geom.ExtractTrans(prev))
	transCam := r0t.MulVec(transWorld)

	return Motion{Translation: transCam, Rotation: eulCam}
}
