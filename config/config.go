// Package config defines the run configuration and how it is read.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/rigsfm/logging"
	"go.viam.com/rigsfm/posefile"
	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/session"
	"go.viam.com/rigsfm/sfm/colmap"
)

// Output layout below OutputPath.
const (
	DatabaseFileName = "database.db"
	SparseDirName    = "sparse"
	ManifestFileName = "run.json"
)

// A Config describes one pipeline run.
type Config struct {
	// InputPath holds one subdirectory per capture session.
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	ReferenceCamera    string  `json:"reference_camera,omitempty"`
	PoseFileName       string  `json:"pose_file_name,omitempty"`
	Tolerance          float64 `json:"tolerance,omitempty"`
	EstimateIntrinsics bool    `json:"estimate_intrinsics,omitempty"`
	Debug              bool    `json:"debug,omitempty"`
	// LogLevel is one of debug, info, warn or error. Debug forces debug.
	LogLevel string `json:"log_level,omitempty"`
	// LogFile additionally writes logs to a rotated file.
	LogFile string `json:"log_file,omitempty"`

	Engine EngineConfig `json:"engine"`
}

// EngineConfig configures the reconstruction engine.
type EngineConfig struct {
	Binary        string `json:"binary,omitempty"`
	Matcher       string `json:"matcher,omitempty"`
	VocabTreePath string `json:"vocab_tree_path,omitempty"`
	RandomSeed    int    `json:"random_seed"`
	UseGPU        bool   `json:"use_gpu,omitempty"`
	// ExtraArgs are appended per engine command, keyed by command name.
	ExtraArgs map[string][]string `json:"extra_args,omitempty"`
	Env       map[string]string   `json:"env,omitempty"`
}

// ApplyDefaults fills in every unset optional field.
func (c *Config) ApplyDefaults() {
	if c.ReferenceCamera == "" {
		c.ReferenceCamera = rig.DefaultReferenceCamera
	}
	if c.PoseFileName == "" {
		c.PoseFileName = posefile.DefaultFileName
	}
	if c.Tolerance == 0 {
		c.Tolerance = rig.DefaultTolerance
	}
	if c.Engine.Binary == "" {
		c.Engine.Binary = colmap.DefaultBinary
	}
	if c.Engine.Matcher == "" {
		c.Engine.Matcher = string(colmap.MatcherVocabTree)
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.InputPath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "input_path")
	}
	if c.OutputPath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "output_path")
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		return utils.NewConfigValidationError(path, errors.New("output_path must differ from input_path"))
	}
	if c.PoseFileName != "" && (strings.ContainsAny(c.PoseFileName, `/\`) || c.PoseFileName == "..") {
		return utils.NewConfigValidationError(path,
			errors.Errorf("pose_file_name %q must be a file name, not a path", c.PoseFileName))
	}
	if c.Tolerance < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("tolerance must be positive, got %v", c.Tolerance))
	}
	if _, err := c.Level(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return c.Engine.Validate(joinPath(path, "engine"))
}

// Level returns the configured log level. Debug wins over log_level, and the default is info.
func (c *Config) Level() (logging.Level, error) {
	if c.Debug {
		return logging.DEBUG, nil
	}
	if c.LogLevel == "" {
		return logging.INFO, nil
	}
	return logging.LevelFromString(c.LogLevel)
}

// Validate ensures all parts of the config are valid.
func (c *EngineConfig) Validate(path string) error {
	matcher, err := colmap.ParseMatcher(c.Matcher)
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if c.RandomSeed < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("random_seed must be non-negative, got %d", c.RandomSeed))
	}
	if c.VocabTreePath != "" && matcher != colmap.MatcherVocabTree {
		return utils.NewConfigValidationError(path, errors.New("vocab_tree_path is only used by the vocab_tree matcher"))
	}
	return nil
}

// SessionOptions returns the options for scanning sessions.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		PoseFileName:       c.PoseFileName,
		Rig:                rig.Options{Reference: c.ReferenceCamera, Tolerance: c.Tolerance},
		EstimateIntrinsics: c.EstimateIntrinsics,
	}
}

// EngineOptions returns the options for the reconstruction engine.
func (c *Config) EngineOptions() (colmap.Options, error) {
	matcher, err := colmap.ParseMatcher(c.Engine.Matcher)
	if err != nil {
		return colmap.Options{}, err
	}
	return colmap.Options{
		Binary:        c.Engine.Binary,
		Matcher:       matcher,
		VocabTreePath: c.Engine.VocabTreePath,
		RandomSeed:    c.Engine.RandomSeed,
		UseGPU:        c.Engine.UseGPU,
		ExtraArgs:     c.Engine.ExtraArgs,
		Env:           c.Engine.Env,
	}, nil
}

// DatabasePath is where the engine database is created.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.OutputPath, DatabaseFileName)
}

// SparsePath is the directory receiving reconstruction maps.
func (c *Config) SparsePath() string {
	return filepath.Join(c.OutputPath, SparseDirName)
}

// ManifestPath is where the run manifest is written.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.OutputPath, ManifestFileName)
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
