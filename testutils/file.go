// Package testutils provides fixtures for tests: capture session directories with pose
// documents and image folders.
package testutils

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/rigsfm/posefile"
	"go.viam.com/rigsfm/spatialmath"
)

// DefaultLens is the lens written for fixture cameras: a 50mm lens on a 36x24mm sensor.
var DefaultLens = posefile.CameraPose{Lens: 50, SensorWidth: 36, SensorHeight: 24}

// WriteSession creates root/name containing a pose document for the given authored world poses
// and one image folder per camera holding a single frame.
func WriteSession(t *testing.T, root, name string, poses map[string]spatialmath.Pose) string {
	t.Helper()
	dir := WriteSessionWithoutImages(t, root, name, poses)
	for camName := range poses {
		WriteImage(t, filepath.Join(dir, camName, "frame_0001.png"), 64, 48)
	}
	return dir
}

// WriteSessionWithoutImages is like WriteSession but creates no image folders.
func WriteSessionWithoutImages(t *testing.T, root, name string, poses map[string]spatialmath.Pose) string {
	t.Helper()
	dir := filepath.Join(root, name)
	test.That(t, os.MkdirAll(dir, 0o750), test.ShouldBeNil)

	doc := &posefile.Document{Cameras: map[string]posefile.CameraPose{}}
	for camName, pose := range poses {
		cam := DefaultLens
		cam.Name = camName
		cam.World = pose
		doc.Cameras[camName] = cam
	}
	test.That(t, posefile.WriteFile(filepath.Join(dir, posefile.DefaultFileName), doc), test.ShouldBeNil)
	return dir
}

// WriteImageSession creates root/name with image folders for the given cameras but no pose
// document.
func WriteImageSession(t *testing.T, root, name string, cameras ...string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	for _, camName := range cameras {
		WriteImage(t, filepath.Join(dir, camName, "frame_0001.png"), 64, 48)
	}
	test.That(t, os.MkdirAll(dir, 0o750), test.ShouldBeNil)
	return dir
}

// WriteImage writes a blank PNG of the given size, creating parent directories.
func WriteImage(t *testing.T, path string, width, height int) {
	t.Helper()
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o750), test.ShouldBeNil)
	//nolint:gosec
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, f.Close(), test.ShouldBeNil)
	}()
	test.That(t, png.Encode(f, image.NewGray(image.Rect(0, 0, width, height))), test.ShouldBeNil)
}
