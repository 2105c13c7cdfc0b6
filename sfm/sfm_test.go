package sfm

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestEngineFailureError(t *testing.T) {
	err := errors.Wrap(NewEngineFailureError(StageMatch, context.Canceled), "run failed")
	test.That(t, err.Error(), test.ShouldContainSubstring, "engine failure during feature_matching")

	var engineErr *EngineFailureError
	test.That(t, errors.As(err, &engineErr), test.ShouldBeTrue)
	test.That(t, engineErr.Stage, test.ShouldEqual, StageMatch)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestCameraModeString(t *testing.T) {
	test.That(t, SingleCameraPerFolder.String(), test.ShouldEqual, "single_camera_per_folder")
	test.That(t, SingleCamera.String(), test.ShouldEqual, "single_camera")
	test.That(t, CameraPerImage.String(), test.ShouldEqual, "camera_per_image")
	test.That(t, CameraMode(42).String(), test.ShouldEqual, "unknown")
}
