package posefile

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Write serializes the document in the layout the authoring tool exports: nested 4x4 rows, the
// camera location, and lens settings, indented by four spaces.
func Write(w io.Writer, doc *Document) error {
	out := make(map[string]exportedCamera, len(doc.Cameras))
	for name, cam := range doc.Cameras {
		vals := cam.World.RowMajor()
		var rows [4][4]float64
		for i := range rows {
			copy(rows[i][:], vals[i*4:i*4+4])
		}
		tr := cam.World.Translation()
		out[name] = exportedCamera{
			MatrixWorld:  rows,
			Location:     [3]float64{tr.X, tr.Y, tr.Z},
			Lens:         cam.Lens,
			SensorWidth:  cam.SensorWidth,
			SensorHeight: cam.SensorHeight,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return errors.Wrap(enc.Encode(out), "failed to encode pose document")
}

// WriteFile writes the document to path.
func WriteFile(path string, doc *Document) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return Write(f, doc)
}

// exportedCamera is the layout the authoring tool writes. It doubles as the source for the
// document's JSON schema.
type exportedCamera struct {
	MatrixWorld  [4][4]float64 `json:"matrix_world" jsonschema:"description=row-major 4x4 local-to-world transform"`
	Location     [3]float64    `json:"location,omitempty" jsonschema:"description=translation column of matrix_world"`
	Lens         float64       `json:"lens" jsonschema:"description=focal length in millimeters"`
	SensorWidth  float64       `json:"sensor_width" jsonschema:"description=sensor width in millimeters"`
	SensorHeight float64       `json:"sensor_height" jsonschema:"description=sensor height in millimeters"`
}
