package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/depthflow/internal/geom"
)

// Rigid-transform tolerances.
const (
	// OrthonormalTolerance bounds |R·Rᵗ - I| elementwise.
	OrthonormalTolerance = 1e-3
	// DeterminantTolerance bounds |det(R) - 1|.
	DeterminantTolerance = 1e-3
	// HomogeneousTolerance bounds the bottom row's deviation from 0,0,0,1.
	HomogeneousTolerance = 1e-6
)

// ValidationResult contains the outcome of a pose check.
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// Validate checks that m is a proper rigid transform: finite, orthonormal
// rotation block with determinant +1, and a 0,0,0,1 bottom row.
//
// The flow pipeline itself never needs these properties. They catch
// trajectories exported in the wrong layout, where a transposed matrix would
// otherwise corrupt every rotation without failing.
func Validate(m geom.Mat4x4) ValidationResult {
	result := ValidationResult{Issues: make([]string, 0)}

	for i, v := range m.RowMajor() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result.Issues = append(result.Issues, fmt.Sprintf("element %d is not finite", i))
			return result
		}
	}

	r := geom.ExtractRot(m)
	var rrt mat.Dense
	rd := r.Dense()
	rrt.Mul(rd, rd.T())
	if !mat.EqualApprox(&rrt, geom.Identity3().Dense(), OrthonormalTolerance) {
		result.Issues = append(result.Issues, "rotation block is not orthonormal")
	}

	if det := r.Det(); math.Abs(det-1.0) > DeterminantTolerance {
		result.Issues = append(result.Issues, fmt.Sprintf("rotation determinant is %.4f, want 1", det))
	}

	bottomOK := math.Abs(m.A41) <= HomogeneousTolerance &&
		math.Abs(m.A42) <= HomogeneousTolerance &&
		math.Abs(m.A43) <= HomogeneousTolerance &&
		math.Abs(m.A44-1.0) <= HomogeneousTolerance
	if !bottomOK {
		issue := "bottom row is not [0 0 0 1]"
		if geom.ExtractTrans(m) == (geom.Vec3{}) {
			issue += "; translation sits in the bottom row, the matrix may be transposed"
		}
		result.Issues = append(result.Issues, issue)
	}

	result.Valid = len(result.Issues) == 0
	return result
}
