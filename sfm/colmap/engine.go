// Package colmap drives the COLMAP command line tools as a structure-from-motion engine.
package colmap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/rexec"
	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/sfm"
)

// Engine runs each operation as one COLMAP command.
type Engine struct {
	opts   Options
	runner rexec.Runner
	logger logging.Logger
}

var (
	_ sfm.Engine           = (*Engine)(nil)
	_ sfm.BindingInspector = (*Engine)(nil)
)

// NewEngine returns an engine running commands through runner.
func NewEngine(opts Options, runner rexec.Runner, logger logging.Logger) *Engine {
	return &Engine{opts: opts.withDefaults(), runner: runner, logger: logger}
}

// CreateDatabase implements sfm.Engine.
func (e *Engine) CreateDatabase(ctx context.Context, dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return err
	}
	return e.run(ctx, "database_creator", false, "--database_path", dbPath)
}

// ExtractFeatures implements sfm.Engine.
func (e *Engine) ExtractFeatures(ctx context.Context, dbPath, imageRoot string, mode sfm.CameraMode) error {
	args := []string{"--database_path", dbPath, "--image_path", imageRoot}
	switch mode {
	case sfm.SingleCameraPerFolder:
		args = append(args, "--ImageReader.single_camera_per_folder", "1")
	case sfm.SingleCamera:
		args = append(args, "--ImageReader.single_camera", "1")
	case sfm.CameraPerImage:
	default:
		return errors.Errorf("unsupported camera mode %v", mode)
	}
	args = append(args, "--FeatureExtraction.use_gpu", boolArg(e.opts.UseGPU))
	return e.run(ctx, "feature_extractor", true, args...)
}

// ApplyRigs implements sfm.Engine. The rig configuration is written next to the database.
func (e *Engine) ApplyRigs(ctx context.Context, dbPath string, rigs []*rig.Descriptor) error {
	configPath := filepath.Join(filepath.Dir(dbPath), RigConfigFileName)
	if err := WriteRigConfigFile(configPath, rigs); err != nil {
		return err
	}
	e.logger.Debugw("wrote rig config", "path", configPath, "rigs", len(rigs))
	return e.run(ctx, "rig_configurator", false, "--database_path", dbPath, "--rig_config_path", configPath)
}

// MatchFeatures implements sfm.Engine.
func (e *Engine) MatchFeatures(ctx context.Context, dbPath string, opts sfm.MatchOptions) error {
	args := []string{
		"--database_path", dbPath,
		"--FeatureMatching.rig_verification", boolArg(opts.RigVerification),
		"--FeatureMatching.skip_image_pairs_in_same_frame", boolArg(opts.SkipImagePairsInSameFrame),
		"--FeatureMatching.use_gpu", boolArg(e.opts.UseGPU),
	}
	if e.opts.Matcher == MatcherVocabTree && e.opts.VocabTreePath != "" {
		args = append(args, "--VocabTreeMatching.vocab_tree_path", e.opts.VocabTreePath)
	}
	return e.run(ctx, e.opts.Matcher.Command(), true, args...)
}

// Reconstruct implements sfm.Engine. Each numbered subdirectory of outputDir written by the
// mapper is one reconstruction.
func (e *Engine) Reconstruct(ctx context.Context, dbPath, imageRoot, outputDir string) ([]sfm.Reconstruction, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, err
	}
	if err := e.run(ctx, "mapper", true,
		"--database_path", dbPath, "--image_path", imageRoot, "--output_path", outputDir); err != nil {
		return nil, err
	}

	ids, err := listModels(outputDir)
	if err != nil {
		return nil, err
	}
	recs := make([]sfm.Reconstruction, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(outputDir, strconv.Itoa(id))
		summary, err := e.analyze(ctx, path)
		if err != nil {
			return nil, err
		}
		recs = append(recs, sfm.Reconstruction{ID: id, Path: path, Summary: summary})
	}
	return recs, nil
}

// ImageCountsByPrefix implements sfm.BindingInspector by reading the database directly.
func (e *Engine) ImageCountsByPrefix(ctx context.Context, dbPath string, prefixes []string) (counts map[string]int, err error) {
	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, db.Close())
	}()

	counts = make(map[string]int, len(prefixes))
	for _, prefix := range prefixes {
		n, err := db.CountImagesWithPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		counts[prefix] = n
	}
	return counts, nil
}

func (e *Engine) analyze(ctx context.Context, modelPath string) (string, error) {
	var out bytes.Buffer
	if err := e.runWithOutput(ctx, "model_analyzer", false, &out, "--path", modelPath); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func (e *Engine) run(ctx context.Context, command string, seeded bool, args ...string) error {
	return e.runWithOutput(ctx, command, seeded, nil, args...)
}

func (e *Engine) runWithOutput(ctx context.Context, command string, seeded bool, out *bytes.Buffer, args ...string) error {
	full := append([]string{command}, args...)
	if seeded {
		full = append(full, "--random_seed", strconv.Itoa(e.opts.RandomSeed))
	}
	full = append(full, e.opts.ExtraArgs[command]...)

	config := rexec.ProcessConfig{
		ID:          command,
		Name:        e.opts.Binary,
		Args:        full,
		Environment: e.opts.Env,
		Log:         true,
	}
	if out != nil {
		config.Output = out
	}
	e.logger.Infow("running engine command", "command", command)
	return e.runner.Run(ctx, config)
}

// listModels returns the numeric subdirectory names of dir in ascending order.
func listModels(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ids := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (int, bool) {
		if !entry.IsDir() {
			return 0, false
		}
		id, err := strconv.Atoi(entry.Name())
		return id, err == nil && id >= 0
	})
	sort.Ints(ids)
	return ids, nil
}
