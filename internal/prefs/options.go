package prefs

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/prefstore/internal/defaults"
	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/internal/workflow"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Option customizes the registry, the keyword cache and the facade.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	defaults types.DefaultProvider
	parser   types.WorkflowParser
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: metrics.NoopRecorder{},
		parser:   workflow.Parser{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.defaults == nil {
		o.defaults = defaults.Embedded()
	}
	return o
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder. The default records nothing.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithDefaults sets the default-value provider for the settings namespace.
// The default is the embedded defaults.yaml.
func WithDefaults(p types.DefaultProvider) Option {
	return func(o *options) {
		if p != nil {
			o.defaults = p
		}
	}
}

// WithParser sets the workflow parser used by the keyword cache.
func WithParser(p types.WorkflowParser) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
	}
}
