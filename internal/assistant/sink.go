package assistant

import "go.uber.org/zap"

// ResponseSink receives every raw model response for offline inspection.
// It is injected so callers decide where responses go instead of the
// service owning a process-wide log.
type ResponseSink interface {
	Record(operation, response string)
}

type logSink struct {
	logger *zap.Logger
}

// NewLogSink records responses through a zap logger.
func NewLogSink(logger *zap.Logger) ResponseSink {
	return &logSink{logger: logger}
}

func (s *logSink) Record(operation, response string) {
	s.logger.Info("model response",
		zap.String("operation", operation),
		zap.String("response", response))
}

type nopSink struct{}

// NopSink discards responses.
func NopSink() ResponseSink { return nopSink{} }

func (nopSink) Record(string, string) {}
