package rig

import "math"

// SimplePinholeModel is the engine camera model used when intrinsics are known.
const SimplePinholeModel = "SIMPLE_PINHOLE"

// Intrinsics pairs the authored lens settings with the pixel size of the camera's images.
type Intrinsics struct {
	// Lens is the focal length in millimeters.
	Lens         float64
	SensorWidth  float64
	SensorHeight float64
	ImageWidth   int
	ImageHeight  int
}

// FocalLengthPixels converts the focal length to pixels using the authoring tool's automatic
// sensor fit: the sensor width spans the larger image dimension.
func (in Intrinsics) FocalLengthPixels() (float64, bool) {
	if in.Lens <= 0 || in.SensorWidth <= 0 || in.ImageWidth <= 0 || in.ImageHeight <= 0 {
		return 0, false
	}
	largest := math.Max(float64(in.ImageWidth), float64(in.ImageHeight))
	return in.Lens * largest / in.SensorWidth, true
}

// SimplePinholeParams returns [f, cx, cy] for the SIMPLE_PINHOLE model.
func (in Intrinsics) SimplePinholeParams() ([]float64, bool) {
	f, ok := in.FocalLengthPixels()
	if !ok {
		return nil, false
	}
	return []float64{f, float64(in.ImageWidth) / 2, float64(in.ImageHeight) / 2}, true
}
