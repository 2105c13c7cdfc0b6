package pipeline

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rigsfm/config"
	"go.viam.com/rigsfm/sfm"
)

// Manifest records what a run did. It is written as run.json in the output directory.
type Manifest struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Sessions   []string  `json:"sessions"`
	Rigs       []RigInfo `json:"rigs"`
	// Skipped maps sessions without a rig to the reason.
	Skipped         map[string]string    `json:"skipped,omitempty"`
	Bindings        map[string]int       `json:"bindings,omitempty"`
	Reconstructions []sfm.Reconstruction `json:"reconstructions"`
}

// RigInfo summarizes one applied rig.
type RigInfo struct {
	Session   string   `json:"session"`
	Reference string   `json:"reference"`
	Cameras   []string `json:"cameras"`
	Excluded  []string `json:"excluded,omitempty"`
}

func newManifest(runID string, started time.Time, cfg *config.Config, result *Result) *Manifest {
	m := &Manifest{
		RunID:           runID,
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
		InputPath:       cfg.InputPath,
		OutputPath:      cfg.OutputPath,
		Sessions:        result.Scan.Sessions,
		Rigs:            []RigInfo{},
		Bindings:        result.Bindings,
		Reconstructions: result.Reconstructions,
	}
	if m.Reconstructions == nil {
		m.Reconstructions = []sfm.Reconstruction{}
	}
	for _, desc := range result.Scan.Descriptors {
		info := RigInfo{Session: desc.Session, Reference: desc.Reference, Excluded: desc.Excluded}
		for _, cam := range desc.Cameras {
			info.Cameras = append(info.Cameras, cam.Name)
		}
		m.Rigs = append(m.Rigs, info)
	}
	if len(result.Scan.Skipped) > 0 {
		m.Skipped = make(map[string]string, len(result.Scan.Skipped))
		for name, err := range result.Scan.Skipped {
			m.Skipped[name] = err.Error()
		}
	}
	sort.Slice(m.Rigs, func(i, j int) bool { return m.Rigs[i].Session < m.Rigs[j].Session })
	return m
}

// WriteManifestFile writes m as indented JSON.
func WriteManifestFile(path string, m *Manifest) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create manifest %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// ReadManifestFile reads a manifest written by WriteManifestFile.
func ReadManifestFile(path string) (*Manifest, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %q", path)
	}
	return &m, nil
}
