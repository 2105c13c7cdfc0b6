// Package inject provides implementations of interfaces whose methods can be swapped out in
// tests.
package inject

import (
	"context"

	"go.viam.com/rigsfm/rig"
	"go.viam.com/rigsfm/sfm"
)

// Engine is an injected reconstruction engine.
type Engine struct {
	sfm.Engine
	CreateDatabaseFunc      func(ctx context.Context, dbPath string) error
	ExtractFeaturesFunc     func(ctx context.Context, dbPath, imageRoot string, mode sfm.CameraMode) error
	ApplyRigsFunc           func(ctx context.Context, dbPath string, rigs []*rig.Descriptor) error
	MatchFeaturesFunc       func(ctx context.Context, dbPath string, opts sfm.MatchOptions) error
	ReconstructFunc         func(ctx context.Context, dbPath, imageRoot, outputDir string) ([]sfm.Reconstruction, error)
	ImageCountsByPrefixFunc func(ctx context.Context, dbPath string, prefixes []string) (map[string]int, error)
}

// CreateDatabase calls the injected CreateDatabase or the real version.
func (e *Engine) CreateDatabase(ctx context.Context, dbPath string) error {
	if e.CreateDatabaseFunc == nil {
		return e.Engine.CreateDatabase(ctx, dbPath)
	}
	return e.CreateDatabaseFunc(ctx, dbPath)
}

// ExtractFeatures calls the injected ExtractFeatures or the real version.
func (e *Engine) ExtractFeatures(ctx context.Context, dbPath, imageRoot string, mode sfm.CameraMode) error {
	if e.ExtractFeaturesFunc == nil {
		return e.Engine.ExtractFeatures(ctx, dbPath, imageRoot, mode)
	}
	return e.ExtractFeaturesFunc(ctx, dbPath, imageRoot, mode)
}

// ApplyRigs calls the injected ApplyRigs or the real version.
func (e *Engine) ApplyRigs(ctx context.Context, dbPath string, rigs []*rig.Descriptor) error {
	if e.ApplyRigsFunc == nil {
		return e.Engine.ApplyRigs(ctx, dbPath, rigs)
	}
	return e.ApplyRigsFunc(ctx, dbPath, rigs)
}

// MatchFeatures calls the injected MatchFeatures or the real version.
func (e *Engine) MatchFeatures(ctx context.Context, dbPath string, opts sfm.MatchOptions) error {
	if e.MatchFeaturesFunc == nil {
		return e.Engine.MatchFeatures(ctx, dbPath, opts)
	}
	return e.MatchFeaturesFunc(ctx, dbPath, opts)
}

// Reconstruct calls the injected Reconstruct or the real version.
func (e *Engine) Reconstruct(ctx context.Context, dbPath, imageRoot, outputDir string) ([]sfm.Reconstruction, error) {
	if e.ReconstructFunc == nil {
		return e.Engine.Reconstruct(ctx, dbPath, imageRoot, outputDir)
	}
	return e.ReconstructFunc(ctx, dbPath, imageRoot, outputDir)
}

// ImageCountsByPrefix calls the injected ImageCountsByPrefix, the real version when the wrapped
// engine inspects bindings, or reports that bindings are unknown.
func (e *Engine) ImageCountsByPrefix(ctx context.Context, dbPath string, prefixes []string) (map[string]int, error) {
	if e.ImageCountsByPrefixFunc != nil {
		return e.ImageCountsByPrefixFunc(ctx, dbPath, prefixes)
	}
	if inspector, ok := e.Engine.(sfm.BindingInspector); ok {
		return inspector.ImageCountsByPrefix(ctx, dbPath, prefixes)
	}
	return nil, nil
}
