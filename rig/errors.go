package rig

import "fmt"

// InvalidPoseGeometryError is returned when a camera's converted pose is not a proper rigid
// transform: a non-orthonormal or reflected rotation, a bad bottom row, or a singular matrix.
type InvalidPoseGeometryError struct {
	Session string
	Camera  string
	Err     error
}

// NewInvalidPoseGeometryError returns an *InvalidPoseGeometryError.
func NewInvalidPoseGeometryError(session, camera string, err error) error {
	return &InvalidPoseGeometryError{Session: session, Camera: camera, Err: err}
}

func (e *InvalidPoseGeometryError) Error() string {
	return fmt.Sprintf("invalid pose geometry for camera %q in session %q: %v", e.Camera, e.Session, e.Err)
}

func (e *InvalidPoseGeometryError) Unwrap() error {
	return e.Err
}
