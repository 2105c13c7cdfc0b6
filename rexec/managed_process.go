package rexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils/pexec"

	"go.viam.com/rigsfm/logging"
)

// maxTailLines is how many trailing output lines are kept for error reports.
const maxTailLines = 20

// ProcessError is returned when a process exits unsuccessfully. Tail holds its last output lines.
type ProcessError struct {
	ID   string
	Err  error
	Tail []string
}

func (e *ProcessError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("process %q failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("process %q failed: %v; last output:\n%s", e.ID, e.Err, strings.Join(e.Tail, "\n"))
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewRunner returns a Runner that starts real processes and logs through logger.
func NewRunner(logger logging.Logger) Runner {
	return &runner{logger: logger}
}

type runner struct {
	logger logging.Logger
}

func (r *runner) Run(ctx context.Context, config ProcessConfig) error {
	return NewManagedProcess(config, r.logger.Sublogger(config.ID)).Run(ctx)
}

// A ManagedProcess runs a single configured process to completion as a pexec one-shot process.
// Cancelling the context kills it.
type ManagedProcess struct {
	config ProcessConfig
	logger logging.Logger

	mu   sync.Mutex
	tail []string
}

// NewManagedProcess returns a new, unstarted, managed process.
func NewManagedProcess(config ProcessConfig, logger logging.Logger) *ManagedProcess {
	return &ManagedProcess{config: config, logger: logger}
}

// ID returns the configured ID.
func (p *ManagedProcess) ID() string {
	return p.config.ID
}

// Run starts the process and waits for it to exit. Output of both streams is handed over line by
// line once the process has exited.
func (p *ManagedProcess) Run(ctx context.Context) error {
	if err := p.config.Validate("process"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	output := &lineWriter{onLine: p.handleLine}
	proc := pexec.NewManagedProcess(pexec.ProcessConfig{
		ID:          p.config.ID,
		Name:        p.config.Name,
		Args:        p.config.Args,
		CWD:         p.config.CWD,
		OneShot:     true,
		Environment: p.config.Environment,
		LogWriter:   output,
	}, p.logger.AsZap())

	p.logger.Debugw("starting process", "name", p.config.Name, "args", p.config.Args)
	start := time.Now()
	runErr := proc.Start(ctx)
	output.flush()
	p.logger.Debugw("process exited", "duration", time.Since(start).String())
	if runErr == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return multierr.Combine(ctxErr, &ProcessError{ID: p.config.ID, Err: runErr})
	}

	// anything but an exit status means the process never ran.
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return errors.Wrapf(runErr, "failed to run process %q", p.config.ID)
	}
	p.mu.Lock()
	tail := append([]string(nil), p.tail...)
	p.mu.Unlock()
	return &ProcessError{ID: p.config.ID, Err: runErr, Tail: tail}
}

func (p *ManagedProcess) handleLine(line string) {
	p.mu.Lock()
	p.tail = append(p.tail, line)
	if len(p.tail) > maxTailLines {
		p.tail = p.tail[len(p.tail)-maxTailLines:]
	}
	if p.config.Output != nil {
		//nolint:errcheck
		io.WriteString(p.config.Output, line+"\n")
	}
	p.mu.Unlock()

	if p.config.Log {
		p.logger.Debugw("output", "line", line)
	}
}

// lineWriter splits written bytes into lines. A trailing partial line is emitted on flush.
type lineWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	onLine func(line string)
}

func (w *lineWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(data)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.onLine(strings.TrimRight(line, "\r\n"))
	}
	return len(data), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.onLine(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}
