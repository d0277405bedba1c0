// logging.go - Structured logging with a separate audit trail.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap logger that also owns an optional audit sink. Audit entries
// are written regardless of the configured level.
type Logger struct {
	*zap.Logger
	audit *zap.Logger
	files []*os.File
}

// New builds a logger writing JSON to stdout and, when logFile is set, to
// that file as well. An empty auditFile disables the audit trail.
func New(level, logFile, auditFile string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	l := &Logger{}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}

	if logFile != "" {
		f, err := openAppend(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.files = append(l.files, f)
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), lvl))
	}
	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	if auditFile != "" {
		f, err := openAppend(auditFile)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		l.files = append(l.files, f)
		l.audit = zap.New(zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)).Named("audit")
	}
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Wrap adapts an existing zap logger, typically one from zaptest.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{Logger: z}
}

// ParseLevel accepts the usual zap level names. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// Audit records an audit event. It is a no-op when no audit file is configured.
func (l *Logger) Audit(event string, details map[string]interface{}) {
	if l == nil || l.audit == nil {
		return
	}
	fields := make([]zap.Field, 0, len(details)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	l.audit.Info("audit", fields...)
}

// Close flushes buffered entries and closes any files.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if l.Logger != nil {
		_ = l.Logger.Sync()
	}
	if l.audit != nil {
		_ = l.audit.Sync()
	}
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
