// Package rig derives multi-camera rig descriptors from camera world poses.
//
// The rig frame coincides with the reference camera's frame. For every other camera the
// descriptor holds cam_from_rig, the rigid transform taking a point expressed in the rig frame
// into that camera's local frame:
//
//	cam_from_rig = inverse(M_cam) * M_ref
//
// where M_cam and M_ref are world poses (local to world) in the reconstruction convention.
package rig

import (
	"sort"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/spatialmath"
)

const (
	// DefaultReferenceCamera is the camera preferred as the rig reference.
	DefaultReferenceCamera = "Camera0"
	// DefaultTolerance bounds the deviation from a proper rotation that is still accepted. Poses
	// exported in single precision are orthonormal to roughly 1e-7.
	DefaultTolerance = 1e-4
)

// Options control how a descriptor is derived.
type Options struct {
	// Reference is the preferred reference camera. When absent from the session, the
	// lexicographically smallest camera name is used.
	Reference string
	// Tolerance is the accepted deviation from orthonormality and unit determinant.
	Tolerance float64
}

func (opts Options) withDefaults() Options {
	if opts.Reference == "" {
		opts.Reference = DefaultReferenceCamera
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return opts
}

// Camera is one member of a rig.
type Camera struct {
	Name string
	// ImagePrefix binds the camera to its images in the engine database: "<session>/<camera>/".
	ImagePrefix string
	Reference   bool
	// CamFromRig is nil for the reference camera, whose transform is the identity by definition.
	CamFromRig *spatialmath.RigidTransform
	// Distance (baseline to the reference) and AngleDegrees are reported for diagnostics only.
	Distance     float64
	AngleDegrees float64
	// Intrinsics is optional and filled in by the session scanner when requested.
	Intrinsics *Intrinsics
}

// Descriptor describes one capture session's rig. It is immutable once derived.
type Descriptor struct {
	Session   string
	Reference string
	// Cameras holds every valid camera, the reference included, ordered by name.
	Cameras []Camera
	// Excluded lists cameras dropped for invalid geometry, ordered by name.
	Excluded []string
}

// ReferenceCamera returns the reference member.
func (d *Descriptor) ReferenceCamera() Camera {
	for _, cam := range d.Cameras {
		if cam.Reference {
			return cam
		}
	}
	return Camera{}
}

// Camera returns the member with the given name.
func (d *Descriptor) Camera(name string) (Camera, bool) {
	idx := sort.Search(len(d.Cameras), func(i int) bool { return d.Cameras[i].Name >= name })
	if idx < len(d.Cameras) && d.Cameras[idx].Name == name {
		return d.Cameras[idx], true
	}
	return Camera{}, false
}

// ImagePrefix returns the image-name prefix for a camera of a session.
func ImagePrefix(session, camera string) string {
	return session + "/" + camera + "/"
}

// Derive builds the rig descriptor for one session from converted world poses. It returns a nil
// descriptor and no error for a session without cameras.
//
// A camera whose geometry is invalid is excluded with a warning. If the reference camera itself
// is invalid, derivation fails with an *InvalidPoseGeometryError.
func Derive(
	session string,
	poses map[string]spatialmath.Pose,
	opts Options,
	logger logging.Logger,
) (*Descriptor, error) {
	if len(poses) == 0 {
		return nil, nil
	}
	opts = opts.withDefaults()

	names := make([]string, 0, len(poses))
	for name := range poses {
		names = append(names, name)
	}
	sort.Strings(names)

	ref := selectReference(names, opts.Reference)
	if ref != opts.Reference {
		logger.Infow("preferred reference camera not found, using fallback",
			"session", session, "preferred", opts.Reference, "reference", ref)
	}
	logger.Infow("creating rig config", "session", session, "reference", ref, "cameras", len(names))

	refPose := poses[ref]
	if _, err := spatialmath.RigidTransformFromPose(refPose, opts.Tolerance); err != nil {
		return nil, NewInvalidPoseGeometryError(session, ref, err)
	}
	// camera-from-world of the reference; a singular reference cannot anchor the rig.
	if _, err := refPose.Inverse(); err != nil {
		return nil, NewInvalidPoseGeometryError(session, ref, err)
	}

	desc := &Descriptor{Session: session, Reference: ref}
	for _, name := range names {
		cam := Camera{Name: name, ImagePrefix: ImagePrefix(session, name)}
		if name == ref {
			cam.Reference = true
			desc.Cameras = append(desc.Cameras, cam)
			continue
		}

		camFromRig, err := relativeTransform(poses[name], refPose, opts.Tolerance)
		if err != nil {
			logger.Warnw("excluding camera from rig", "error", NewInvalidPoseGeometryError(session, name, err))
			desc.Excluded = append(desc.Excluded, name)
			continue
		}
		cam.CamFromRig = &camFromRig
		cam.Distance = camFromRig.Distance()
		cam.AngleDegrees = camFromRig.AngleDegrees()
		logger.Infof("  %s -> %s: distance=%.3f, rotation=%.1f deg", name, ref, cam.Distance, cam.AngleDegrees)
		desc.Cameras = append(desc.Cameras, cam)
	}
	return desc, nil
}

// selectReference returns preferred when present, otherwise the first of the sorted names.
func selectReference(sortedNames []string, preferred string) string {
	idx := sort.SearchStrings(sortedNames, preferred)
	if idx < len(sortedNames) && sortedNames[idx] == preferred {
		return preferred
	}
	return sortedNames[0]
}

// relativeTransform computes inverse(camWorld) * refWorld and checks that both the camera pose
// and the result are proper rigid transforms.
func relativeTransform(camWorld, refWorld spatialmath.Pose, tol float64) (spatialmath.RigidTransform, error) {
	if _, err := spatialmath.RigidTransformFromPose(camWorld, tol); err != nil {
		return spatialmath.RigidTransform{}, err
	}
	camFromWorld, err := camWorld.Inverse()
	if err != nil {
		return spatialmath.RigidTransform{}, err
	}
	return spatialmath.RigidTransformFromPose(camFromWorld.Compose(refWorld), tol)
}
