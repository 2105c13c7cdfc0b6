package inject

import (
	"context"

	"go.viam.com/rigsfm/rexec"
)

// Runner is an injected process runner.
type Runner struct {
	rexec.Runner
	RunFunc func(ctx context.Context, config rexec.ProcessConfig) error
}

// Run calls the injected Run or the real version.
func (r *Runner) Run(ctx context.Context, config rexec.ProcessConfig) error {
	if r.RunFunc == nil {
		return r.Runner.Run(ctx, config)
	}
	return r.RunFunc(ctx, config)
}
