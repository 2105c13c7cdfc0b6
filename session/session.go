// Package session discovers capture sessions under a root directory and derives one rig
// descriptor per session.
//
// Each subdirectory of the root is a session. A session holds a pose document plus one image
// folder per camera, named exactly like the camera in the document. Problems inside one session
// are logged as warnings and only skip that session; the scan as a whole only fails when the
// root itself cannot be read.
package session

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/posefile"
	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/spatialmath"
	"go.viam.com/rigsfm/utils"
)

// Options control scanning.
type Options struct {
	// PoseFileName is the pose document name inside each session. Defaults to cameras.json.
	PoseFileName string
	Rig          rig.Options
	// EstimateIntrinsics probes each camera's first image for its pixel size.
	EstimateIntrinsics bool
}

func (opts Options) poseFileName() string {
	if opts.PoseFileName == "" {
		return posefile.DefaultFileName
	}
	return opts.PoseFileName
}

// Result is the outcome of a scan.
type Result struct {
	// Sessions lists every session directory found, sorted by name.
	Sessions []string
	// Descriptors holds one descriptor per session that produced one, sorted by session name.
	Descriptors []*rig.Descriptor
	// Skipped maps sessions without a descriptor to the reason.
	Skipped map[string]error
}

// Scan enumerates the sessions under root and derives their rig descriptors.
func Scan(ctx context.Context, root string, opts Options, logger logging.Logger) (*Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read input directory %q", root)
	}
	sessions := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		return entry.Name(), entry.IsDir() && !strings.HasPrefix(entry.Name(), ".")
	})
	sort.Strings(sessions)
	logger.Infof("found %d subdirectories in %s", len(sessions), root)

	result := &Result{Sessions: sessions, Skipped: map[string]error{}}
	for _, name := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		desc, err := Load(filepath.Join(root, name), opts, logger.Sublogger(name))
		switch {
		case err != nil:
			logger.Warnw("skipping rig config for session", "session", name, "error", err)
			result.Skipped[name] = err
		case desc == nil:
			err := errors.Errorf("pose document for session %q lists no cameras", name)
			logger.Warnw("skipping rig config for session", "session", name, "error", err)
			result.Skipped[name] = err
		default:
			result.Descriptors = append(result.Descriptors, desc)
		}
	}

	if len(result.Descriptors) == 0 {
		logger.Warn("no valid rig configurations found; reconstruction will not be rig constrained")
	}
	return result, nil
}

// Load reads one session directory and derives its descriptor. The returned error is one of
// *MissingPoseDocumentError, *posefile.MalformedDocumentError or *rig.InvalidPoseGeometryError.
// A session whose document lists no cameras yields a nil descriptor and no error.
func Load(dir string, opts Options, logger logging.Logger) (*rig.Descriptor, error) {
	name := filepath.Base(dir)
	posePath := filepath.Join(dir, opts.poseFileName())
	if _, err := os.Stat(posePath); err != nil {
		if os.IsNotExist(err) {
			return nil, NewMissingPoseDocumentError(name, posePath)
		}
		return nil, errors.Wrapf(err, "failed to stat %q", posePath)
	}

	doc, err := posefile.ReadFile(posePath)
	if err != nil {
		return nil, err
	}

	converted := make(map[string]spatialmath.Pose, len(doc.Cameras))
	for camName, cam := range doc.Cameras {
		converted[camName] = spatialmath.ConvertAuthoredPose(cam.World)
	}

	desc, err := rig.Derive(name, converted, opts.Rig, logger)
	if err != nil || desc == nil {
		return nil, err
	}

	for i := range desc.Cameras {
		cam := &desc.Cameras[i]
		imageDir, err := utils.SafeJoinDir(dir, cam.Name)
		if err != nil || !utils.IsDir(imageDir) {
			logger.Warnw("camera has no image folder; no images will bind to its prefix",
				"session", name, "camera", cam.Name, "prefix", cam.ImagePrefix)
			continue
		}
		if opts.EstimateIntrinsics {
			cam.Intrinsics = estimateIntrinsics(imageDir, doc.Cameras[cam.Name], logger)
		}
	}
	return desc, nil
}
