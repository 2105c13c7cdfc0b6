package session

import (
	"image"
	// decoders for image.DecodeConfig.
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"go.viam.com/utils"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/posefile"
	"go.viam.com/rigsfm/rig"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// estimateIntrinsics pairs the authored lens settings with the pixel size of the first image in
// the camera folder. It returns nil when no image can be probed.
func estimateIntrinsics(imageDir string, cam posefile.CameraPose, logger logging.Logger) *rig.Intrinsics {
	path, err := firstImage(imageDir)
	if err != nil || path == "" {
		logger.Warnw("cannot estimate intrinsics; no readable image", "camera", cam.Name, "dir", imageDir)
		return nil
	}
	width, height, err := probeImageSize(path)
	if err != nil {
		logger.Warnw("cannot estimate intrinsics", "camera", cam.Name, "image", path, "error", err)
		return nil
	}

	in := &rig.Intrinsics{
		Lens:         cam.Lens,
		SensorWidth:  cam.SensorWidth,
		SensorHeight: cam.SensorHeight,
		ImageWidth:   width,
		ImageHeight:  height,
	}
	if _, ok := in.FocalLengthPixels(); !ok {
		logger.Warnw("lens settings are unusable for intrinsics", "camera", cam.Name,
			"lens", cam.Lens, "sensor_width", cam.SensorWidth)
		return nil
	}
	return in
}

func firstImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

func probeImageSize(path string) (int, int, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
