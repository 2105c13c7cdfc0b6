package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// callerSkip is the number of frames between runtime.Caller in callerOf and the code that called
// a Logger method: callerOf, emit, the sprint helper and the Logger method itself.
const callerSkip = 4

type impl struct {
	name      string
	level     zap.AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newImpl(name string, level Level, inUTC bool) *impl {
	return &impl{name: name, level: zap.NewAtomicLevelAt(level.AsZap()), inUTC: inUTC}
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	sub := newImpl(name, Level(imp.level.Level()), imp.inUTC)
	sub.appenders = imp.appenders
	return sub
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	cores := make([]zapcore.Core, 0, len(imp.appenders))
	for _, appender := range imp.appenders {
		cores = append(cores, &appenderCore{enabler: imp.level, appender: appender})
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar().Named(imp.name)
}

func (imp *impl) emit(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     callerOf(callerSkip),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			//nolint:errcheck
			fmt.Fprintln(os.Stderr, "failed to write log entry:", err)
		}
	}
}

func (imp *impl) sprint(level Level, args []interface{}) {
	if imp.level.Enabled(level.AsZap()) {
		imp.emit(level, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) sprintf(level Level, template string, args []interface{}) {
	if imp.level.Enabled(level.AsZap()) {
		imp.emit(level, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) sprintw(level Level, msg string, keysAndValues []interface{}) {
	if imp.level.Enabled(level.AsZap()) {
		imp.emit(level, msg, fieldsOf(keysAndValues))
	}
}

func (imp *impl) Debug(args ...interface{}) { imp.sprint(DEBUG, args) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.sprintf(DEBUG, template, args) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sprintw(DEBUG, msg, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) { imp.sprint(INFO, args) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.sprintf(INFO, template, args) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sprintw(INFO, msg, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) { imp.sprint(WARN, args) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.sprintf(WARN, template, args) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sprintw(WARN, msg, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) { imp.sprint(ERROR, args) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.sprintf(ERROR, template, args) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sprintw(ERROR, msg, keysAndValues)
}

// fieldsOf pairs up alternating keys and values. A trailing key without a value is kept with an
// error value so the mistake shows up in the output.
func fieldsOf(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.String(key, "<unpaired log key>"))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func callerOf(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
