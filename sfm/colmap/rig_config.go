package colmap

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rigsfm/rig"
)

// RigConfigFileName is written next to the database before rigs are applied.
const RigConfigFileName = "rig_config.json"

// RigConfig is one rig in the engine's rig configuration file.
type RigConfig struct {
	Cameras []RigCameraConfig `json:"cameras"`
}

// RigCameraConfig is one camera of a rig. The reference sensor carries no transform.
type RigCameraConfig struct {
	ImagePrefix string `json:"image_prefix"`
	RefSensor   bool   `json:"ref_sensor,omitempty"`
	// CamFromRigRotation is a unit quaternion [w, x, y, z].
	CamFromRigRotation    []float64 `json:"cam_from_rig_rotation,omitempty"`
	CamFromRigTranslation []float64 `json:"cam_from_rig_translation,omitempty"`
	CameraModelName       string    `json:"camera_model_name,omitempty"`
	CameraParams          []float64 `json:"camera_params,omitempty"`
}

// NewRigConfigs converts descriptors to the engine's rig configuration, one rig per descriptor.
// The reference camera is listed first, the others follow by name.
func NewRigConfigs(descs []*rig.Descriptor) []RigConfig {
	configs := make([]RigConfig, 0, len(descs))
	for _, desc := range descs {
		ref := desc.ReferenceCamera()
		cameras := []RigCameraConfig{newRigCameraConfig(ref)}
		for _, cam := range desc.Cameras {
			if cam.Reference {
				continue
			}
			cameras = append(cameras, newRigCameraConfig(cam))
		}
		configs = append(configs, RigConfig{Cameras: cameras})
	}
	return configs
}

func newRigCameraConfig(cam rig.Camera) RigCameraConfig {
	cfg := RigCameraConfig{ImagePrefix: cam.ImagePrefix}
	if cam.Reference || cam.CamFromRig == nil {
		cfg.RefSensor = true
	} else {
		q := cam.CamFromRig.Quaternion()
		t := cam.CamFromRig.Translation
		cfg.CamFromRigRotation = []float64{q.Real, q.Imag, q.Jmag, q.Kmag}
		cfg.CamFromRigTranslation = []float64{t.X, t.Y, t.Z}
	}
	if cam.Intrinsics != nil {
		if params, ok := cam.Intrinsics.SimplePinholeParams(); ok {
			cfg.CameraModelName = rig.SimplePinholeModel
			cfg.CameraParams = params
		}
	}
	return cfg
}

// WriteRigConfigs writes the rig configuration for descs as indented JSON.
func WriteRigConfigs(w io.Writer, descs []*rig.Descriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewRigConfigs(descs))
}

// WriteRigConfigFile writes the rig configuration for descs to path.
func WriteRigConfigFile(path string, descs []*rig.Descriptor) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create rig config %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteRigConfigs(f, descs)
}
