package spatialmath

import "github.com/pkg/errors"

// NewNonFiniteRotationError is used when a rotation block contains NaN or infinite values.
func NewNonFiniteRotationError() error {
	return errors.New("rotation contains non-finite values")
}

// NewNonOrthonormalRotationError is used when R^T R deviates from the identity by more than tol.
func NewNonOrthonormalRotationError(deviation, tol float64) error {
	return errors.Errorf("rotation is not orthonormal (max |R^T R - I| = %g, tolerance %g)", deviation, tol)
}

// NewImproperRotationError is used when a rotation block has a determinant other than +1, such
// as a reflection.
func NewImproperRotationError(det float64) error {
	return errors.Errorf("rotation is improper (determinant %g, want +1)", det)
}

// NewNonAffineBottomRowError is used when a pose's bottom row is not [0 0 0 1].
func NewNonAffineBottomRowError(p Pose) error {
	return errors.Errorf("pose bottom row is [%g %g %g %g], want [0 0 0 1]",
		p.At(3, 0), p.At(3, 1), p.At(3, 2), p.At(3, 3))
}
