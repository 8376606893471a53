// Package monitoring defines the fire-and-forget telemetry sink shared by every
// adapter. Sinks must never block the primary operation: a failure to record an
// event is swallowed, not surfaced to the caller.
package monitoring

import (
	"log/slog"
	"strings"
)

// Sink receives events, exceptions, and metrics from the adapter framework.
// Implementations must be safe for concurrent use and must not return errors;
// emitting telemetry is best-effort by contract.
type Sink interface {
	TrackEvent(name string, props map[string]any)
	TrackException(err error, props map[string]any)
	TrackMetric(name string, value float64, props map[string]any)
}

// NopSink discards everything. Useful as a default and in tests.
type NopSink struct{}

func (NopSink) TrackEvent(string, map[string]any)           {}
func (NopSink) TrackException(error, map[string]any)        {}
func (NopSink) TrackMetric(string, float64, map[string]any) {}

// LogSink writes monitoring traffic to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s LogSink) TrackEvent(name string, props map[string]any) {
	s.logger().Info("monitor event", attrs(name, props)...)
}

func (s LogSink) TrackException(err error, props map[string]any) {
	args := attrs("exception", props)
	if err != nil {
		args = append(args, slog.Any("err", err))
	}
	s.logger().Error("monitor exception", args...)
}

func (s LogSink) TrackMetric(name string, value float64, props map[string]any) {
	args := attrs(name, props)
	args = append(args, slog.Float64("value", value))
	s.logger().Debug("monitor metric", args...)
}

func attrs(name string, props map[string]any) []any {
	args := make([]any, 0, 2+2*len(props))
	args = append(args, slog.String("name", strings.TrimSpace(name)))
	for k, v := range props {
		args = append(args, slog.Any(k, v))
	}
	return args
}

// MultiSink fans out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) TrackEvent(name string, props map[string]any) {
	for _, s := range m {
		if s != nil {
			s.TrackEvent(name, props)
		}
	}
}

func (m MultiSink) TrackException(err error, props map[string]any) {
	for _, s := range m {
		if s != nil {
			s.TrackException(err, props)
		}
	}
}

func (m MultiSink) TrackMetric(name string, value float64, props map[string]any) {
	for _, s := range m {
		if s != nil {
			s.TrackMetric(name, value, props)
		}
	}
}
