package fetch

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger forwards resty's internal messages to slog.
type restyLogger struct {
	logger *slog.Logger
}

func newRestyLogger(logger *slog.Logger) *restyLogger {
	return &restyLogger{logger: logger.With("component", "resty")}
}

// Errorf implements resty.Logger.
func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(trimMessage(format, v...))
}

// Warnf implements resty.Logger.
func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(trimMessage(format, v...))
}

// Debugf implements resty.Logger.
func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(trimMessage(format, v...))
}

func trimMessage(format string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
