package spatialmath

import "github.com/go-gl/mathgl/mgl64"

// axisFlip is diag(1, -1, -1, 1) in mgl64's column-major layout. It is only handed out by value.
var axisFlip = mgl64.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, -1, 0,
	0, 0, 0, 1,
}

// AuthoringToReconstruction returns the transform that flips the local Y and Z axes of a camera
// frame. It maps the authoring convention (right-handed, Y up, camera looking down -Z) onto the
// reconstruction convention (right-handed, Y down, camera looking down +Z).
//
// The matrix is diag(1, -1, -1, 1) and is its own inverse: applying it twice is exactly the
// identity, so the same matrix converts in either direction. Every entry is 0 or +-1, which keeps
// the conversion exact in floating point.
func AuthoringToReconstruction() Pose {
	return Pose{axisFlip}
}

// ConvertAuthoredPose converts an authored world pose into the reconstruction convention by
// applying the axis flip on the local (right) side: converted = authored * flip. Because the
// flip is an involution, converting a converted pose returns the original.
func ConvertAuthoredPose(authored Pose) Pose {
	return authored.Compose(AuthoringToReconstruction())
}
