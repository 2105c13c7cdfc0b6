// Package posefile reads and writes the per-session pose-exchange document: one JSON object
// mapping camera names to their authored world transform and lens settings.
//
// The authoring tool writes the transform as four rows of four numbers under "matrix_world".
// A flat array of 16 row-major numbers is accepted as well. Shape is validated here; whether the
// rotation block is a proper rotation is left to the rig derivation.
package posefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/rigsfm/spatialmath"
	rutils "go.viam.com/rigsfm/utils"
)

// DefaultFileName is the well-known name of the pose document inside each session directory.
const DefaultFileName = "cameras.json"

// locationTolerance bounds how far an explicit "location" may drift from the transform's
// translation column. The exporter writes both from the same float32 matrix.
const locationTolerance = 1e-6

// CameraPose is one camera's authored world transform and intrinsics. It is immutable once parsed.
type CameraPose struct {
	Name string
	// World maps points from the camera's local frame to the world frame, in the authoring
	// convention.
	World spatialmath.Pose
	// Lens is the focal length in millimeters.
	Lens float64
	// SensorWidth and SensorHeight are in millimeters.
	SensorWidth  float64
	SensorHeight float64
}

// Document is a parsed pose-exchange document for one capture session.
type Document struct {
	Cameras map[string]CameraPose
}

// Names returns the camera names in lexicographic order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Cameras))
	for name := range d.Cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorldPoses returns the authored world pose of every camera keyed by name.
func (d *Document) WorldPoses() map[string]spatialmath.Pose {
	poses := make(map[string]spatialmath.Pose, len(d.Cameras))
	for name, cam := range d.Cameras {
		poses[name] = cam.World
	}
	return poses
}

// cameraEntry is the on-disk shape of one camera.
type cameraEntry struct {
	MatrixWorld  json.RawMessage `json:"matrix_world"`
	Location     []*float64      `json:"location,omitempty"`
	Lens         float64         `json:"lens"`
	SensorWidth  float64         `json:"sensor_width"`
	SensorHeight float64         `json:"sensor_height"`
}

// ReadFile parses the pose document at path.
func ReadFile(path string) (*Document, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	doc, err := Read(f)
	if err != nil {
		var malformed *MalformedDocumentError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Read parses a pose document. Any structural problem is reported as a *MalformedDocumentError.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pose document")
	}

	if err := checkUniqueNames(data); err != nil {
		return nil, NewMalformedDocumentError("", err.Error())
	}
	var raw map[string]cameraEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewMalformedDocumentError("", err.Error())
	}

	doc := &Document{Cameras: make(map[string]CameraPose, len(raw))}
	for name, entry := range raw {
		cam, err := parseCamera(name, entry)
		if err != nil {
			return nil, err
		}
		doc.Cameras[name] = cam
	}
	return doc, nil
}

func parseCamera(name string, entry cameraEntry) (CameraPose, error) {
	if name == "" {
		return CameraPose{}, NewMalformedDocumentError("", "camera name is empty")
	}
	if len(entry.MatrixWorld) == 0 || string(entry.MatrixWorld) == "null" {
		return CameraPose{}, NewMalformedDocumentError(name, `missing "matrix_world"`)
	}
	vals, err := parseMatrix(entry.MatrixWorld)
	if err != nil {
		return CameraPose{}, NewMalformedDocumentError(name, err.Error())
	}
	if !rutils.AllFinite(vals[:]...) {
		return CameraPose{}, NewMalformedDocumentError(name, `"matrix_world" contains non-finite values`)
	}
	world := spatialmath.NewPoseFromRowMajor(vals)

	if entry.Location != nil {
		if len(entry.Location) != 3 {
			return CameraPose{}, NewMalformedDocumentError(name, `"location" must have 3 elements`)
		}
		var loc [3]float64
		for i, v := range entry.Location {
			if v == nil {
				return CameraPose{}, NewMalformedDocumentError(name, fmt.Sprintf(`"location" element %d is not a number`, i))
			}
			loc[i] = *v
		}
		tr := world.Translation()
		if math.Abs(tr.X-loc[0]) > locationTolerance ||
			math.Abs(tr.Y-loc[1]) > locationTolerance ||
			math.Abs(tr.Z-loc[2]) > locationTolerance {
			return CameraPose{}, NewMalformedDocumentError(name, `"location" disagrees with the translation of "matrix_world"`)
		}
	}
	if !rutils.AllFinite(entry.Lens, entry.SensorWidth, entry.SensorHeight) {
		return CameraPose{}, NewMalformedDocumentError(name, "lens settings contain non-finite values")
	}

	return CameraPose{
		Name:         name,
		World:        world,
		Lens:         entry.Lens,
		SensorWidth:  entry.SensorWidth,
		SensorHeight: entry.SensorHeight,
	}, nil
}

// parseMatrix accepts either [[r0], [r1], [r2], [r3]] or a flat 16 element row-major array.
// Entries decode through pointers because json leaves a float64 untouched on null.
func parseMatrix(raw json.RawMessage) ([16]float64, error) {
	var vals [16]float64

	var rows [][]*float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) != 4 {
			return vals, errors.Errorf(`"matrix_world" has %d rows, want 4`, len(rows))
		}
		for i, row := range rows {
			if len(row) != 4 {
				return vals, errors.Errorf(`"matrix_world" row %d has %d columns, want 4`, i, len(row))
			}
			for j, v := range row {
				if v == nil {
					return vals, errors.Errorf(`"matrix_world" row %d column %d is not a number`, i, j)
				}
				vals[i*4+j] = *v
			}
		}
		return vals, nil
	}

	var flat []*float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return vals, errors.New(`"matrix_world" must be a 4x4 array or 16 numbers`)
	}
	if len(flat) != 16 {
		return vals, errors.Errorf(`"matrix_world" has %d elements, want 16`, len(flat))
	}
	for i, v := range flat {
		if v == nil {
			return vals, errors.Errorf(`"matrix_world" element %d is not a number`, i)
		}
		vals[i] = *v
	}
	return vals, nil
}

// checkUniqueNames walks the top-level object and rejects repeated camera names, which a plain
// unmarshal would silently collapse into the last entry.
func checkUniqueNames(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("document is not a JSON object")
	}

	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected token %v", tok)
		}
		if seen[name] {
			return errors.Errorf("camera %q appears more than once", name)
		}
		seen[name] = true

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return nil
}
