package rig

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/spatialmath"
)

func rotation(axis r3.Vector, deg float64) spatialmath.RotationMatrix {
	axis = axis.Normalize()
	half := deg * math.Pi / 360
	s := math.Sin(half)
	return spatialmath.QuatToRotationMatrix(quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s})
}

func ringPoses() map[string]spatialmath.Pose {
	return map[string]spatialmath.Pose{
		"Camera0": spatialmath.ConvertAuthoredPose(spatialmath.NewPose(rotation(r3.Vector{Z: 1}, 0), r3.Vector{X: 2, Y: 0, Z: 1})),
		"Camera1": spatialmath.ConvertAuthoredPose(spatialmath.NewPose(rotation(r3.Vector{Z: 1}, 90), r3.Vector{X: 0, Y: 2, Z: 1})),
		"Camera2": spatialmath.ConvertAuthoredPose(spatialmath.NewPose(rotation(r3.Vector{Z: 1}, 180), r3.Vector{X: -2, Y: 0, Z: 1})),
		"Camera3": spatialmath.ConvertAuthoredPose(spatialmath.NewPose(rotation(r3.Vector{X: 1, Z: 1}, 270), r3.Vector{X: 0, Y: -2, Z: 1.5})),
	}
}

var exactRotation = cmp.Comparer(func(a, b spatialmath.RotationMatrix) bool {
	return a.RowMajor() == b.RowMajor()
})

func TestDeriveGeometryExample(t *testing.T) {
	logger := logging.NewTestLogger(t)
	poses := map[string]spatialmath.Pose{
		"Camera0": spatialmath.NewIdentityPose(),
		"Camera1": spatialmath.NewPoseFromTranslation(r3.Vector{X: 1}),
	}

	desc, err := Derive("table2_low", poses, Options{Reference: "Camera0"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, desc.Reference, test.ShouldEqual, "Camera0")
	test.That(t, len(desc.Cameras), test.ShouldEqual, 2)

	cam1, ok := desc.Camera("Camera1")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cam1.Reference, test.ShouldBeFalse)
	test.That(t, cam1.ImagePrefix, test.ShouldEqual, "table2_low/Camera1/")
	test.That(t, cam1.CamFromRig.Rotation.RowMajor(), test.ShouldResemble, spatialmath.NewIdentityRotation().RowMajor())
	test.That(t, cam1.CamFromRig.Translation.Norm(), test.ShouldAlmostEqual, 1.0, 1e-6)
	test.That(t, cam1.CamFromRig.Translation.X, test.ShouldAlmostEqual, -1.0, 1e-12)
	test.That(t, cam1.Distance, test.ShouldAlmostEqual, 1.0, 1e-6)
	test.That(t, cam1.AngleDegrees, test.ShouldEqual, 0.0)
}

func TestReferenceIsIdentity(t *testing.T) {
	desc, err := Derive("s", ringPoses(), Options{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	ref := desc.ReferenceCamera()
	test.That(t, ref.Name, test.ShouldEqual, DefaultReferenceCamera)
	test.That(t, ref.Reference, test.ShouldBeTrue)
	test.That(t, ref.CamFromRig, test.ShouldBeNil)
	test.That(t, ref.Distance, test.ShouldEqual, 0)
	test.That(t, ref.AngleDegrees, test.ShouldEqual, 0)

	refCount := 0
	for _, cam := range desc.Cameras {
		if cam.Reference {
			refCount++
		}
	}
	test.That(t, refCount, test.ShouldEqual, 1)
}

func TestDeriveIsDeterministic(t *testing.T) {
	logger := logging.NewTestLogger(t)
	first, err := Derive("s", ringPoses(), Options{}, logger)
	test.That(t, err, test.ShouldBeNil)

	names := []string{"Camera3", "Camera1", "Camera0", "Camera2"}
	source := ringPoses()
	for i := 0; i < 10; i++ {
		// rebuild the map in a rotated insertion order every time.
		poses := map[string]spatialmath.Pose{}
		for j := range names {
			name := names[(i+j)%len(names)]
			poses[name] = source[name]
		}
		again, err := Derive("s", poses, Options{}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmp.Diff(first, again, exactRotation), test.ShouldBeEmpty)
	}

	prefixes := make([]string, 0, len(first.Cameras))
	for _, cam := range first.Cameras {
		prefixes = append(prefixes, cam.ImagePrefix)
	}
	test.That(t, prefixes, test.ShouldResemble, []string{"s/Camera0/", "s/Camera1/", "s/Camera2/", "s/Camera3/"})
}

func TestRoundTripComposition(t *testing.T) {
	poses := ringPoses()
	desc, err := Derive("s", poses, Options{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	refWorld := poses[desc.Reference]
	for _, cam := range desc.Cameras {
		if cam.Reference {
			continue
		}
		// cam_from_rig = inv(M_cam) * M_ref  =>  M_cam = M_ref * inv(cam_from_rig)
		rigFromCam, err := cam.CamFromRig.Pose().Inverse()
		test.That(t, err, test.ShouldBeNil)
		reconstructed := refWorld.Compose(rigFromCam)
		test.That(t, spatialmath.PoseAlmostEqual(reconstructed, poses[cam.Name], 1e-9), test.ShouldBeTrue)
	}

	cam1, _ := desc.Camera("Camera1")
	test.That(t, cam1.AngleDegrees, test.ShouldAlmostEqual, 90, 1e-9)
	test.That(t, cam1.Distance, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-9)
	cam2, _ := desc.Camera("Camera2")
	test.That(t, cam2.AngleDegrees, test.ShouldAlmostEqual, 180, 1e-4)
	test.That(t, cam2.Distance, test.ShouldAlmostEqual, 4, 1e-9)
}

func TestMissingReferenceFallsBack(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	poses := map[string]spatialmath.Pose{
		"right": spatialmath.NewPoseFromTranslation(r3.Vector{X: 1}),
		"left":  spatialmath.NewIdentityPose(),
		"top":   spatialmath.NewPoseFromTranslation(r3.Vector{Y: -1}),
	}

	desc, err := Derive("s", poses, Options{Reference: "Camera0"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, desc.Reference, test.ShouldEqual, "left")
	test.That(t, desc.ReferenceCamera().Name, test.ShouldEqual, "left")

	fallback := logs.FilterMessage("preferred reference camera not found, using fallback")
	test.That(t, fallback.Len(), test.ShouldEqual, 1)
	test.That(t, fallback.All()[0].ContextMap()["reference"], test.ShouldEqual, "left")
	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 0)
}

func TestFallbackReferenceIgnoresValidity(t *testing.T) {
	poses := map[string]spatialmath.Pose{
		"left": spatialmath.NewPoseFromRowMajor([16]float64{
			2, 0, 0, 0,
			0, 2, 0, 0,
			0, 0, 2, 0,
			0, 0, 0, 1,
		}),
		"right": spatialmath.NewPoseFromTranslation(r3.Vector{X: 1}),
	}

	desc, err := Derive("s", poses, Options{Reference: "Camera0"}, logging.NewTestLogger(t))
	test.That(t, desc, test.ShouldBeNil)
	var invalid *InvalidPoseGeometryError
	test.That(t, errors.As(err, &invalid), test.ShouldBeTrue)
	test.That(t, invalid.Camera, test.ShouldEqual, "left")
}

func TestEmptySessionHasNoDescriptor(t *testing.T) {
	desc, err := Derive("s", map[string]spatialmath.Pose{}, Options{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, desc, test.ShouldBeNil)
}

func TestInvalidCameraIsExcluded(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	poses := ringPoses()
	// a reflection: orthonormal but determinant -1.
	poses["Camera2"] = spatialmath.NewPoseFromRowMajor([16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, 1,
	})
	// a scaled camera.
	poses["Camera3"] = spatialmath.NewPoseFromRowMajor([16]float64{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	})

	desc, err := Derive("s", poses, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(desc.Cameras), test.ShouldEqual, 2)
	test.That(t, desc.Excluded, test.ShouldResemble, []string{"Camera2", "Camera3"})
	_, ok := desc.Camera("Camera2")
	test.That(t, ok, test.ShouldBeFalse)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	test.That(t, len(warnings), test.ShouldEqual, 2)
	test.That(t, warnings[0].ContextMap()["error"], test.ShouldContainSubstring, `camera "Camera2"`)
	test.That(t, warnings[0].ContextMap()["error"], test.ShouldContainSubstring, "improper")
	test.That(t, warnings[1].ContextMap()["error"], test.ShouldContainSubstring, "not orthonormal")
}

func TestInvalidReferenceFailsSession(t *testing.T) {
	poses := ringPoses()
	poses["Camera0"] = spatialmath.NewPoseFromRowMajor([16]float64{
		1, 0.5, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	desc, err := Derive("table2_top", poses, Options{}, logging.NewTestLogger(t))
	test.That(t, desc, test.ShouldBeNil)
	var invalid *InvalidPoseGeometryError
	test.That(t, errors.As(err, &invalid), test.ShouldBeTrue)
	test.That(t, invalid.Session, test.ShouldEqual, "table2_top")
	test.That(t, invalid.Camera, test.ShouldEqual, "Camera0")
	test.That(t, err.Error(), test.ShouldContainSubstring, "not orthonormal")
}

func TestIntrinsics(t *testing.T) {
	in := Intrinsics{Lens: 50, SensorWidth: 36, SensorHeight: 24, ImageWidth: 1920, ImageHeight: 1080}
	f, ok := in.FocalLengthPixels()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f, test.ShouldAlmostEqual, 50*1920/36.)

	portrait := Intrinsics{Lens: 50, SensorWidth: 36, ImageWidth: 1080, ImageHeight: 1920}
	f, ok = portrait.FocalLengthPixels()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f, test.ShouldAlmostEqual, 50*1920/36.)

	params, ok := in.SimplePinholeParams()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, params[1:], test.ShouldResemble, []float64{960, 540})

	_, ok = Intrinsics{Lens: 50}.SimplePinholeParams()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestBaselines(t *testing.T) {
	desc, err := Derive("s", map[string]spatialmath.Pose{
		"Camera0": spatialmath.NewIdentityPose(),
		"Camera1": spatialmath.NewPoseFromTranslation(r3.Vector{X: 1}),
		"Camera2": spatialmath.NewPoseFromTranslation(r3.Vector{Y: 3}),
	}, Options{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	baselines, ok := desc.Baselines()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, baselines.Count, test.ShouldEqual, 2)
	test.That(t, baselines.Min, test.ShouldAlmostEqual, 1)
	test.That(t, baselines.Max, test.ShouldAlmostEqual, 3)
	test.That(t, baselines.Mean, test.ShouldAlmostEqual, 2)
	test.That(t, baselines.StdDev, test.ShouldAlmostEqual, 1)

	single, err := Derive("solo", map[string]spatialmath.Pose{"Camera0": spatialmath.NewIdentityPose()},
		Options{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	_, ok = single.Baselines()
	test.That(t, ok, test.ShouldBeFalse)
}
