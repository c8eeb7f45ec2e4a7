package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/defaults"
	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/internal/memory"
	"github.com/mesh-intelligence/prefstore/internal/prefs"
	"github.com/mesh-intelligence/prefstore/pkg/sqlite"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// openBackend creates and attaches the configured medium. The caller must
// Detach it.
func openBackend(cfg types.Config, logger *slog.Logger) (types.Backend, error) {
	if cfg.Backend == types.BackendMemory {
		logger.Warn("memory backend keeps nothing after the command exits")
		return memory.New(), nil
	}
	b := sqlite.NewBackend(logger)
	if err := b.Attach(cfg); err != nil {
		return nil, err
	}
	logger.Debug("storage attached", logfields.Path(cfg.DataDir))
	return b, nil
}

// withPrefs attaches storage, runs fn and detaches. A detach failure is
// reported only when fn succeeded.
func (a *app) withPrefs(cmd *cobra.Command, fn func(ctx context.Context, p *prefs.Preferences) error) error {
	cfg, err := a.storeConfig()
	if err != nil {
		return userError("%w", err)
	}
	opts := []prefs.Option{prefs.WithLogger(a.logger), prefs.WithRecorder(a.recorder)}
	if file := a.config.GetString(cfgKeyDefaultsFile); file != "" {
		provider, err := defaults.LoadFile(file)
		if err != nil {
			return userError("load defaults: %w", err)
		}
		opts = append(opts, prefs.WithDefaults(provider))
	}

	backend, err := openBackend(cfg, a.logger)
	if err != nil {
		return sysError("attach storage: %w", err)
	}

	runErr := fn(cmd.Context(), prefs.Open(backend, opts...))
	if err := backend.Detach(); err != nil && runErr == nil {
		return sysError("detach storage: %w", err)
	}
	return runErr
}

// storeFor resolves a namespace argument.
func storeFor(p *prefs.Preferences, namespace string) (*prefs.Store, error) {
	s, err := p.Store(namespace)
	if err != nil {
		return nil, userError("%w (valid: %v)", err, types.Namespaces)
	}
	return s, nil
}
