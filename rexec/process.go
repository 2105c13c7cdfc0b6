// Package rexec runs external processes on behalf of the reconstruction engine, on top of
// go.viam.com/utils/pexec one-shot processes.
package rexec

import (
	"context"
	"io"

	"go.viam.com/utils"
)

// ProcessConfig describes how to run a one-shot process.
type ProcessConfig struct {
	// ID names the process in logs and errors.
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Args []string `json:"args"`
	CWD  string   `json:"cwd"`
	// Environment is added to the current process environment.
	Environment map[string]string `json:"env,omitempty"`
	// Log streams the process output to the logger line by line.
	Log bool `json:"log"`
	// Output, when set, receives every output line of both streams.
	Output io.Writer `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (config *ProcessConfig) Validate(path string) error {
	if config.ID == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "id")
	}
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	return nil
}

// A Runner runs a process to completion.
type Runner interface {
	Run(ctx context.Context, config ProcessConfig) error
}
