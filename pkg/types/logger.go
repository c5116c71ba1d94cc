package types

import "log/slog"

// SlogLogger adapts a *slog.Logger to the Logger contract.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the provided logger, falling back to slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// With returns a logger that always carries the supplied fields.
func (l *SlogLogger) With(fields ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(fields...)}
}

func (l *SlogLogger) Debug(msg string, fields ...any) { l.logger.Debug(msg, fields...) }

func (l *SlogLogger) Info(msg string, fields ...any) { l.logger.Info(msg, fields...) }

func (l *SlogLogger) Warn(msg string, fields ...any) { l.logger.Warn(msg, fields...) }

func (l *SlogLogger) Error(msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err)
	}
	l.logger.Error(msg, fields...)
}

var _ Logger = (*SlogLogger)(nil)
