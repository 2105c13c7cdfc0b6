package rexec

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/rigsfm/logging"
)

func TestProcessConfigRoundTripJSON(t *testing.T) {
	config := ProcessConfig{
		ID:   "mapper",
		Name: "colmap",
		Args: []string{"mapper", "--database_path", "db"},
		CWD:  "dir",
		Log:  true,
	}
	md, err := json.Marshal(config)
	test.That(t, err, test.ShouldBeNil)

	var rt ProcessConfig
	test.That(t, json.Unmarshal(md, &rt), test.ShouldBeNil)
	test.That(t, rt, test.ShouldResemble, config)

	var rtLower ProcessConfig
	test.That(t, json.Unmarshal(bytes.ToLower(md), &rtLower), test.ShouldBeNil)
	test.That(t, rtLower.ID, test.ShouldEqual, "mapper")
}

func TestProcessConfigValidate(t *testing.T) {
	config := ProcessConfig{}
	err := config.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"id" is required`)

	config.ID = "foo"
	err = config.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"name" is required`)

	config.Name = "bar"
	test.That(t, config.Validate("path"), test.ShouldBeNil)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
}

func TestManagedProcessRun(t *testing.T) {
	requireShell(t)

	t.Run("success logs output", func(t *testing.T) {
		logger, logs := logging.NewObservedTestLogger(t)
		logger.SetLevel(logging.DEBUG)
		proc := NewManagedProcess(ProcessConfig{
			ID:          "echo",
			Name:        "sh",
			Args:        []string{"-c", "echo hello $RIG_NAME; echo oops 1>&2"},
			Environment: map[string]string{"RIG_NAME": "table2"},
			Log:         true,
		}, logger)
		test.That(t, proc.Run(context.Background()), test.ShouldBeNil)
		test.That(t, proc.ID(), test.ShouldEqual, "echo")

		lines := map[string]bool{}
		for _, entry := range logs.FilterLevelExact(zapcore.DebugLevel).All() {
			if line, ok := entry.ContextMap()["line"].(string); ok {
				lines[line] = true
			}
		}
		test.That(t, lines["hello table2"], test.ShouldBeTrue)
		test.That(t, lines["oops"], test.ShouldBeTrue)
	})

	t.Run("captures output", func(t *testing.T) {
		var out bytes.Buffer
		err := NewRunner(logging.NewTestLogger(t)).Run(context.Background(), ProcessConfig{
			ID:     "summary",
			Name:   "sh",
			Args:   []string{"-c", "printf 'Cameras: 4\\nImages: 120'"},
			Output: &out,
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.String(), test.ShouldEqual, "Cameras: 4\nImages: 120\n")
	})

	t.Run("failure keeps tail", func(t *testing.T) {
		proc := NewManagedProcess(ProcessConfig{
			ID:   "fail",
			Name: "sh",
			Args: []string{"-c", "echo first; echo last 1>&2; exit 3"},
		}, logging.NewTestLogger(t))
		err := proc.Run(context.Background())
		var procErr *ProcessError
		test.That(t, errors.As(err, &procErr), test.ShouldBeTrue)
		test.That(t, procErr.ID, test.ShouldEqual, "fail")
		test.That(t, procErr.Tail, test.ShouldContain, "first")
		test.That(t, procErr.Tail, test.ShouldContain, "last")
		var exitErr *exec.ExitError
		test.That(t, errors.As(err, &exitErr), test.ShouldBeTrue)
		test.That(t, exitErr.ExitCode(), test.ShouldEqual, 3)
	})

	t.Run("missing binary", func(t *testing.T) {
		proc := NewManagedProcess(ProcessConfig{ID: "nope", Name: "/definitely/not/a/binary"}, logging.NewTestLogger(t))
		err := proc.Run(context.Background())
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to run process")
	})

	t.Run("cancel kills", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := NewRunner(logging.NewTestLogger(t)).Run(ctx, ProcessConfig{ID: "sleep", Name: "sh", Args: []string{"-c", "exec sleep 30"}})
		test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
		test.That(t, time.Since(start) < 10*time.Second, test.ShouldBeTrue)
	})

	t.Run("tail is bounded", func(t *testing.T) {
		proc := NewManagedProcess(ProcessConfig{
			ID:   "noisy",
			Name: "sh",
			Args: []string{"-c", "i=0; while [ $i -lt 50 ]; do echo line$i; i=$((i+1)); done; exit 1"},
		}, logging.NewTestLogger(t))
		var procErr *ProcessError
		test.That(t, errors.As(proc.Run(context.Background()), &procErr), test.ShouldBeTrue)
		test.That(t, len(procErr.Tail), test.ShouldEqual, maxTailLines)
		test.That(t, procErr.Tail[len(procErr.Tail)-1], test.ShouldEqual, "line49")
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewRunner(logging.NewTestLogger(t)).Run(ctx, ProcessConfig{ID: "x", Name: "sh"})
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	})
}
