// Package logging adapts logrus to the Debug/Info/Warn/Error logger contract
// consumed by the core service.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry. Variadic args are read as key/value pairs.
type Logger struct {
	entry *logrus.Entry
}

// New builds a logger writing to out at the given level ("debug", "info", ...)
// in "text" or "json" format.
func New(out io.Writer, level, format string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(lvl)
	switch format {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return FromEntry(logrus.NewEntry(base)), nil
}

// FromEntry wraps an existing entry, keeping any fields already attached.
func FromEntry(entry *logrus.Entry) *Logger {
	return &Logger{entry: entry}
}

// With returns a child logger carrying additional key/value fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(args))}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }

func (l *Logger) log(level logrus.Level, msg string, args []any) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	l.entry.WithFields(fields(args)).Log(level, msg)
}

// fields pairs args into logrus fields. A trailing key without a value is
// kept under "!BADKEY", and non-string keys are formatted with %v.
func fields(args []any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}
	out := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out[key] = args[i+1]
	}
	return out
}
