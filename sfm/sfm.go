// Package sfm defines the narrow contract between the pipeline and an external
// structure-from-motion engine. An engine owns a database artifact on disk and exposes five
// blocking operations over it; each may only be interrupted by cancelling its context.
package sfm

import (
	"context"

	"go.viam.com/rigsfm/rig"
)

// CameraMode selects how extracted images are grouped into engine camera records.
type CameraMode int

const (
	// SingleCameraPerFolder groups every image in the same folder as one logical camera.
	SingleCameraPerFolder CameraMode = iota
	// SingleCamera shares one camera record across all images.
	SingleCamera
	// CameraPerImage gives every image its own camera record.
	CameraPerImage
)

func (m CameraMode) String() string {
	switch m {
	case SingleCameraPerFolder:
		return "single_camera_per_folder"
	case SingleCamera:
		return "single_camera"
	case CameraPerImage:
		return "camera_per_image"
	default:
		return "unknown"
	}
}

// MatchOptions control feature matching.
type MatchOptions struct {
	// RigVerification uses known rig geometry to verify candidate matches.
	RigVerification bool
	// SkipImagePairsInSameFrame suppresses pairs captured by the same rig at the same instant.
	SkipImagePairsInSameFrame bool
}

// Reconstruction is one map produced by incremental reconstruction.
type Reconstruction struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
	// Summary is the engine's human readable description of the map.
	Summary string `json:"summary"`
}

// Engine is an external structure-from-motion engine.
type Engine interface {
	// CreateDatabase creates an empty database at path. Callers remove stale databases first.
	CreateDatabase(ctx context.Context, dbPath string) error
	// ExtractFeatures extracts features for every image below imageRoot.
	ExtractFeatures(ctx context.Context, dbPath, imageRoot string, mode CameraMode) error
	// ApplyRigs binds each descriptor's camera prefixes to the extracted camera records.
	ApplyRigs(ctx context.Context, dbPath string, rigs []*rig.Descriptor) error
	// MatchFeatures matches features between images.
	MatchFeatures(ctx context.Context, dbPath string, opts MatchOptions) error
	// Reconstruct runs incremental reconstruction into outputDir. Maps are ordered by ID.
	Reconstruct(ctx context.Context, dbPath, imageRoot, outputDir string) ([]Reconstruction, error)
}

// BindingInspector is implemented by engines whose database can report how many images each
// rig prefix binds. A nil map means the engine cannot tell.
type BindingInspector interface {
	ImageCountsByPrefix(ctx context.Context, dbPath string, prefixes []string) (map[string]int, error)
}
