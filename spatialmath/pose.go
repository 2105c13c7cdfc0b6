// Package spatialmath defines the rigid-body math used to turn authored camera poses into rig
// geometry: 4x4 homogeneous poses, rotation matrices, and rigid transforms.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// singularEpsilon is the determinant magnitude below which a pose is treated as non-invertible.
const singularEpsilon = 1e-12

// Pose is a 4x4 homogeneous transform: rotation in the upper-left 3x3 block, translation in the
// rightmost column, and [0 0 0 1] as the bottom row. A world pose maps points from a camera's
// local frame into the shared world frame.
type Pose struct {
	mat mgl64.Mat4
}

// NewIdentityPose returns the identity transform.
func NewIdentityPose() Pose {
	return Pose{mgl64.Ident4()}
}

// NewPoseFromRowMajor builds a pose from 16 values laid out row by row.
func NewPoseFromRowMajor(vals [16]float64) Pose {
	var m mgl64.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			// mgl64 stores matrices column-major.
			m[col*4+row] = vals[row*4+col]
		}
	}
	return Pose{m}
}

// NewPoseFromTranslation returns a pose with no rotation, offset by the given vector.
func NewPoseFromTranslation(pt r3.Vector) Pose {
	return Pose{mgl64.Translate3D(pt.X, pt.Y, pt.Z)}
}

// NewPose composes a pose from a rotation and a translation.
func NewPose(rot RotationMatrix, pt r3.Vector) Pose {
	m := mgl64.Ident4()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m[col*4+row] = rot.At(row, col)
		}
	}
	m[12], m[13], m[14] = pt.X, pt.Y, pt.Z
	return Pose{m}
}

// At returns the element at the given row and column.
func (p Pose) At(row, col int) float64 {
	return p.mat.At(row, col)
}

// RowMajor returns the 16 elements of the pose laid out row by row.
func (p Pose) RowMajor() [16]float64 {
	var vals [16]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			vals[row*4+col] = p.mat.At(row, col)
		}
	}
	return vals
}

// Rotation returns the upper-left 3x3 block. No re-orthonormalization is applied.
func (p Pose) Rotation() RotationMatrix {
	m := p.mat
	return RotationMatrix{mgl64.Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}}
}

// Translation returns the rightmost column.
func (p Pose) Translation() r3.Vector {
	return r3.Vector{X: p.mat[12], Y: p.mat[13], Z: p.mat[14]}
}

// Compose returns p * other: other is applied first, then p.
func (p Pose) Compose(other Pose) Pose {
	return Pose{p.mat.Mul4(other.mat)}
}

// Inverse returns the general matrix inverse of the pose. Singular poses are rejected rather than
// silently mapped to the zero matrix.
func (p Pose) Inverse() (Pose, error) {
	det := p.mat.Det()
	if math.IsNaN(det) || math.Abs(det) < singularEpsilon {
		return Pose{}, errors.Errorf("pose is not invertible (determinant %g)", det)
	}
	return Pose{p.mat.Inv()}, nil
}

// HasAffineBottomRow reports whether the bottom row equals [0 0 0 1] within tol.
func (p Pose) HasAffineBottomRow(tol float64) bool {
	return math.Abs(p.mat.At(3, 0)) <= tol &&
		math.Abs(p.mat.At(3, 1)) <= tol &&
		math.Abs(p.mat.At(3, 2)) <= tol &&
		math.Abs(p.mat.At(3, 3)-1) <= tol
}

// PoseAlmostEqual reports whether every element of the two poses differs by at most epsilon.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > epsilon {
			return false
		}
	}
	return true
}

func (p Pose) String() string {
	vals := p.RowMajor()
	return fmt.Sprintf("[%g %g %g %g; %g %g %g %g; %g %g %g %g; %g %g %g %g]",
		vals[0], vals[1], vals[2], vals[3],
		vals[4], vals[5], vals[6], vals[7],
		vals[8], vals[9], vals[10], vals[11],
		vals[12], vals[13], vals[14], vals[15])
}
