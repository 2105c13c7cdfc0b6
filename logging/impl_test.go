package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func newBufferLogger(buf *bytes.Buffer) *impl {
	logger := newImpl("impl", INFO, true)
	logger.AddAppender(NewWriterAppender(buf))
	return logger
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.Debug("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Infof("derived %d cameras", 3)
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	test.That(t, len(parts), test.ShouldBeGreaterThanOrEqualTo, 5)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "impl")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "derived 3 cameras")

	logger.Warnw("camera excluded", "camera", "Camera2", "baseline", 1.5)
	line, err = buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldContainSubstring, "WARN")
	test.That(t, line, test.ShouldContainSubstring, `{"camera": "Camera2", "baseline": 1.5}`)
}

func TestSubloggerNaming(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	sub := logger.Sublogger("session").Sublogger("table2_low")
	sub.Info("loaded")
	test.That(t, buf.String(), test.ShouldContainSubstring, "impl.session.table2_low")

	// levels are copied, not shared.
	buf.Reset()
	sub.SetLevel(ERROR)
	sub.Warn("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	logger.Info("shown")
	test.That(t, buf.String(), test.ShouldContainSubstring, "shown")
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Warnw("session skipped", "session", "s1")
	logger.Info("unrelated")
	logger.AsZap().Warnw("through zap", "stage", "match")

	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	test.That(t, warnings.Len(), test.ShouldEqual, 2)
	test.That(t, warnings.All()[0].ContextMap()["session"], test.ShouldEqual, "s1")
	test.That(t, warnings.All()[1].ContextMap()["stage"], test.ShouldEqual, "match")
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("odd", "lonely")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["lonely"], test.ShouldEqual, "<unpaired log key>")
}

func TestLevelFromString(t *testing.T) {
	for inp, expected := range map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
	} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown log level "verbose"`)

	test.That(t, WARN.String(), test.ShouldEqual, "warn")
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
}

func TestAsZapHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)
	logger.AsZap().Debugw("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.SetLevel(DEBUG)
	logger.AsZap().Debugw("through zap", "stage", "mapper")
	test.That(t, buf.String(), test.ShouldContainSubstring, "impl")
	test.That(t, buf.String(), test.ShouldContainSubstring, `{"stage": "mapper"}`)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rigsfm.log")
	appender := NewFileAppender(path)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Warnw("rig camera prefix matched no images", "prefix", "table2_low/Camera1/")
	test.That(t, appender.Close(), test.ShouldBeNil)

	//nolint:gosec
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "WARN")
	test.That(t, string(data), test.ShouldContainSubstring, "rig camera prefix matched no images")
	test.That(t, string(data), test.ShouldContainSubstring, `"prefix": "table2_low/Camera1/"`)
}
