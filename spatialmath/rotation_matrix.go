package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/rigsfm/utils"
)

// RotationMatrix is a 3x3 matrix that is expected, but not guaranteed, to be a proper rotation.
// Use Validate before treating it as one.
type RotationMatrix struct {
	mat mgl64.Mat3
}

// NewIdentityRotation returns the identity rotation.
func NewIdentityRotation() RotationMatrix {
	return RotationMatrix{mgl64.Ident3()}
}

// NewRotationMatrixFromRowMajor builds a rotation matrix from 9 values laid out row by row.
func NewRotationMatrixFromRowMajor(vals [9]float64) RotationMatrix {
	var m mgl64.Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m[col*3+row] = vals[row*3+col]
		}
	}
	return RotationMatrix{m}
}

// At returns the element at the given row and column.
func (rm RotationMatrix) At(row, col int) float64 {
	return rm.mat.At(row, col)
}

// RowMajor returns the 9 elements laid out row by row.
func (rm RotationMatrix) RowMajor() [9]float64 {
	var vals [9]float64
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			vals[row*3+col] = rm.mat.At(row, col)
		}
	}
	return vals
}

// Det returns the determinant.
func (rm RotationMatrix) Det() float64 {
	return rm.mat.Det()
}

// Trace returns the sum of the diagonal.
func (rm RotationMatrix) Trace() float64 {
	return rm.mat.Trace()
}

// OrthonormalityError returns the largest absolute element of R^T R - I.
func (rm RotationMatrix) OrthonormalityError() float64 {
	prod := rm.mat.Transpose().Mul3(rm.mat)
	ident := mgl64.Ident3()
	worst := 0.
	for i := range prod {
		worst = math.Max(worst, math.Abs(prod[i]-ident[i]))
	}
	return worst
}

// Validate checks that the matrix is orthonormal and has determinant +1 within tol.
func (rm RotationMatrix) Validate(tol float64) error {
	for _, v := range rm.mat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNonFiniteRotationError()
		}
	}
	if orthoErr := rm.OrthonormalityError(); orthoErr > tol {
		return NewNonOrthonormalRotationError(orthoErr, tol)
	}
	if det := rm.Det(); math.Abs(det-1) > tol {
		return NewImproperRotationError(det)
	}
	return nil
}

// AngleDegrees returns the magnitude of the rotation in degrees, recovered from the trace. The
// cosine is clamped to [-1, 1] so round-off cannot push it outside the domain of arccos.
func (rm RotationMatrix) AngleDegrees() float64 {
	cosAngle := utils.Clamp((rm.Trace()-1)/2, -1, 1)
	return utils.RadToDeg(math.Acos(cosAngle))
}

// Quaternion returns the unit quaternion for the rotation with a non-negative real part, so the
// same rotation always yields the same four numbers.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (rm RotationMatrix) Quaternion() quat.Number {
	m00, m01, m02 := rm.At(0, 0), rm.At(0, 1), rm.At(0, 2)
	m10, m11, m12 := rm.At(1, 0), rm.At(1, 1), rm.At(1, 2)
	m20, m21, m22 := rm.At(2, 0), rm.At(2, 1), rm.At(2, 2)

	var q quat.Number
	tr := m00 + m11 + m22
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: 0.25 * s, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}

	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// QuatToRotationMatrix converts a quaternion to a rotation matrix. The quaternion is normalized
// first.
func QuatToRotationMatrix(q quat.Number) RotationMatrix {
	q = quat.Scale(1/quat.Abs(q), q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return NewRotationMatrixFromRowMajor([9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// QuaternionAlmostEqual is an equality test for quaternions that treats q and -q as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := utils.Float64AlmostEqual(a.Real, b.Real, tol) &&
		utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol)
	if same {
		return true
	}
	return utils.Float64AlmostEqual(a.Real, -b.Real, tol) &&
		utils.Float64AlmostEqual(a.Imag, -b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, -b.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, -b.Kmag, tol)
}
