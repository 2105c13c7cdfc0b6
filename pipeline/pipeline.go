// Package pipeline runs the rig-aware reconstruction end to end: scan sessions, then drive the
// engine through database creation, feature extraction, rig application, matching and
// reconstruction. Each engine stage depends on the previous one; the first failure aborts the
// run with an *sfm.EngineFailureError.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/rigsfm/config"
	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/session"
	"go.viam.com/rigsfm/sfm"
	"go.viam.com/rigsfm/utils"
)

// Result is the outcome of a successful run.
type Result struct {
	RunID           string
	Scan            *session.Result
	Reconstructions []sfm.Reconstruction
	// Bindings maps each rig image prefix to its extracted image count. Nil when the engine
	// cannot inspect its database or no rigs were applied.
	Bindings map[string]int
	Manifest *Manifest
}

// Run executes the pipeline described by cfg. cfg must be validated.
func Run(ctx context.Context, cfg *config.Config, engine sfm.Engine, logger logging.Logger) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	logger.Infow("starting run", "run_id", runID, "input", cfg.InputPath, "output", cfg.OutputPath)

	if err := os.MkdirAll(cfg.OutputPath, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %q", cfg.OutputPath)
	}

	scan, err := session.Scan(ctx, cfg.InputPath, cfg.SessionOptions(), logger.Sublogger("session"))
	if err != nil {
		return nil, err
	}
	result := &Result{RunID: runID, Scan: scan}

	dbPath := cfg.DatabasePath()
	if err := runStage(ctx, sfm.StageCreateDatabase, logger, func() error {
		if err := utils.RemoveIfExists(dbPath); err != nil {
			return err
		}
		return engine.CreateDatabase(ctx, dbPath)
	}); err != nil {
		return nil, err
	}

	if err := runStage(ctx, sfm.StageExtract, logger, func() error {
		return engine.ExtractFeatures(ctx, dbPath, cfg.InputPath, sfm.SingleCameraPerFolder)
	}); err != nil {
		return nil, err
	}

	if len(scan.Descriptors) > 0 {
		logger.Infof("applying %d rig configurations", len(scan.Descriptors))
		if err := runStage(ctx, sfm.StageApplyRigs, logger, func() error {
			return engine.ApplyRigs(ctx, dbPath, scan.Descriptors)
		}); err != nil {
			return nil, err
		}
		result.Bindings = verifyBindings(ctx, engine, dbPath, scan.Descriptors, logger)
	} else {
		logger.Info("no rigs to apply; matching and reconstruction are unconstrained")
	}

	if err := runStage(ctx, sfm.StageMatch, logger, func() error {
		return engine.MatchFeatures(ctx, dbPath, sfm.MatchOptions{
			RigVerification:           true,
			SkipImagePairsInSameFrame: true,
		})
	}); err != nil {
		return nil, err
	}

	if err := runStage(ctx, sfm.StageReconstruct, logger, func() error {
		recs, err := engine.Reconstruct(ctx, dbPath, cfg.InputPath, cfg.SparsePath())
		result.Reconstructions = recs
		return err
	}); err != nil {
		return nil, err
	}
	if len(result.Reconstructions) == 0 {
		logger.Warn("reconstruction produced no maps")
	}
	for _, rec := range result.Reconstructions {
		logger.Infof("Reconstruction #%d: %s", rec.ID, rec.Summary)
	}

	result.Manifest = newManifest(runID, started, cfg, result)
	if err := WriteManifestFile(cfg.ManifestPath(), result.Manifest); err != nil {
		return nil, err
	}
	logger.Infow("done", "run_id", runID, "reconstructions", len(result.Reconstructions))
	return result, nil
}

func runStage(ctx context.Context, stage sfm.Stage, logger logging.Logger, f func() error) error {
	if err := ctx.Err(); err != nil {
		return sfm.NewEngineFailureError(stage, err)
	}
	logger.Infow("running stage", "stage", stage)
	start := time.Now()
	stop := utils.ProgressLogger(ctx, "stage still running", "stage", stage, logger)
	err := f()
	stop()
	if err != nil {
		return sfm.NewEngineFailureError(stage, err)
	}
	logger.Debugw("stage finished", "stage", stage, "duration", time.Since(start).String())
	return nil
}

// verifyBindings warns for every rig prefix that matched no extracted image. Inspection
// problems are reported but never fail the run.
func verifyBindings(
	ctx context.Context,
	engine sfm.Engine,
	dbPath string,
	descs []*rig.Descriptor,
	logger logging.Logger,
) map[string]int {
	inspector, ok := engine.(sfm.BindingInspector)
	if !ok {
		return nil
	}
	prefixes := lo.FlatMap(descs, func(desc *rig.Descriptor, _ int) []string {
		return lo.Map(desc.Cameras, func(cam rig.Camera, _ int) string { return cam.ImagePrefix })
	})
	counts, err := inspector.ImageCountsByPrefix(ctx, dbPath, prefixes)
	if err != nil {
		logger.Warnw("cannot verify rig bindings", "error", err)
		return nil
	}
	if counts == nil {
		return nil
	}
	for _, prefix := range prefixes {
		if counts[prefix] == 0 {
			logger.Warnw("rig camera prefix matched no images", "prefix", prefix)
			continue
		}
		logger.Debugw("rig camera bound", "prefix", prefix, "images", counts[prefix])
	}
	return counts
}
