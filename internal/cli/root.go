// Package cli implements the prefstore command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/prefstore/internal/metrics"
	"github.com/mesh-intelligence/prefstore/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError tags a command error with the process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by the root command to an exit code.
// Errors cobra raises itself (bad flags, wrong arg count) are user errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	stats     bool
}

// app is the state shared by one command invocation.
type app struct {
	flags    rootFlags
	config   *viper.Viper
	logger   *slog.Logger
	registry *prometheus.Registry // set with --stats
	recorder metrics.Recorder
}

// NewRootCmd creates the top-level "prefstore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: metrics.NoopRecorder{},
	}

	root := &cobra.Command{
		Use:   "prefstore",
		Short: "Namespaced preference store for the notes app",
		Long: "prefstore reads and writes the settings, state and repository\n" +
			"property namespaces, and exports or restores them as JSON.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.printStats,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: per-user data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&a.flags.stats, "stats", false, "print operation counters to stderr after the command")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newRmCmd(a),
		newListCmd(a),
		newClearCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newExportSettingsCmd(a),
		newImportSettingsCmd(a),
		newResetCmd(a),
		newRepoCmd(a),
		newKeywordsCmd(a),
		newStatesCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return ExitCode(err)
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	a.config, err = loadConfig(configDir)
	if err != nil {
		return sysError("%w", err)
	}
	a.logger = newLogger(cmd.ErrOrStderr(), a.config.GetString(cfgKeyLogLevel))

	if a.flags.stats {
		a.registry = prometheus.NewRegistry()
		a.recorder = metrics.NewPrometheusRecorder(a.registry)
	}
	return nil
}

// printStats writes the gathered counters in the Prometheus text format.
func (a *app) printStats(cmd *cobra.Command, args []string) error {
	if a.registry == nil {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return sysError("gather stats: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return sysError("write stats: %w", err)
		}
	}
	return nil
}

// newLogger builds the stderr text logger. Unknown levels fall back to warn.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelWarn
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = slog.LevelWarn
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
