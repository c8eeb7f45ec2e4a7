// Package metrics defines observability hooks for the preference store and a
// Prometheus-backed implementation.
package metrics

import "time"

// Operation labels for IncOperation.
const (
	OpGet    = "get"
	OpPut    = "put"
	OpRemove = "remove"
	OpClear  = "clear"
)

// Recorder receives store events. Implementations must be safe for
// concurrent use. NoopRecorder is the default when metrics are not
// configured.
type Recorder interface {
	IncOperation(namespace, op string, success bool)
	IncKindMismatch(namespace string)
	IncRestoreSkipped(namespace string)
	ObserveKeywordRebuild(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncOperation(string, string, bool)  {}
func (NoopRecorder) IncKindMismatch(string)             {}
func (NoopRecorder) IncRestoreSkipped(string)           {}
func (NoopRecorder) ObserveKeywordRebuild(time.Duration) {}
