package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RigidTransform is a rotation followed by a translation, with no scale or shear.
type RigidTransform struct {
	Rotation    RotationMatrix
	Translation r3.Vector
}

// NewIdentityRigidTransform returns the transform that leaves every point in place.
func NewIdentityRigidTransform() RigidTransform {
	return RigidTransform{Rotation: NewIdentityRotation()}
}

// RigidTransformFromPose decomposes a pose into rotation and translation. The rotation block is
// taken as-is; it must already be a proper rotation within tol or an error is returned.
func RigidTransformFromPose(p Pose, tol float64) (RigidTransform, error) {
	if !p.HasAffineBottomRow(tol) {
		return RigidTransform{}, NewNonAffineBottomRowError(p)
	}
	rot := p.Rotation()
	if err := rot.Validate(tol); err != nil {
		return RigidTransform{}, err
	}
	return RigidTransform{Rotation: rot, Translation: p.Translation()}, nil
}

// Pose returns the transform as a 4x4 pose.
func (rt RigidTransform) Pose() Pose {
	return NewPose(rt.Rotation, rt.Translation)
}

// Quaternion returns the rotation as a unit quaternion with a non-negative real part.
func (rt RigidTransform) Quaternion() quat.Number {
	return rt.Rotation.Quaternion()
}

// Distance is the Euclidean norm of the translation.
func (rt RigidTransform) Distance() float64 {
	return rt.Translation.Norm()
}

// AngleDegrees is the magnitude of the rotation in degrees.
func (rt RigidTransform) AngleDegrees() float64 {
	return rt.Rotation.AngleDegrees()
}
