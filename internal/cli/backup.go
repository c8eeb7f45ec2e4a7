package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/logfields"
	"github.com/mesh-intelligence/prefstore/internal/prefs"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// exportFileName returns a fresh default name for an export file.
func exportFileName() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "prefs-" + id.String() + ".json", nil
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all namespaces to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := out
			if path == "" {
				name, err := exportFileName()
				if err != nil {
					return sysError("generate file name: %w", err)
				}
				path = name
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				doc, err := p.Snapshots.CaptureAll(ctx)
				if err != nil {
					return sysError("%w", err)
				}
				if err := prefs.SaveDocument(path, doc); err != nil {
					return sysError("%w", err)
				}
				a.logger.Info("exported preferences", logfields.Path(path))
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default: prefs-<uuid>.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore all namespaces from a JSON export",
		Long: "Import clears settings and state, then writes every entry of the file.\n" +
			"Repository properties are merged: bags absent from the file are kept.\n" +
			"Values of unsupported kinds are skipped and listed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := prefs.LoadDocument(args[0])
			if err != nil {
				return userError("%w", err)
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				report, err := p.Snapshots.RestoreAll(ctx, doc)
				if err != nil {
					return sysError("%w", err)
				}
				return a.writeReport(cmd, report)
			})
		},
	}
}

func newExportSettingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-settings",
		Short: "Print the settings namespace as a JSON object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				entries, err := p.Snapshots.ExportSettings(ctx)
				if err != nil {
					return sysError("%w", err)
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
}

func newImportSettingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-settings <file>",
		Short: "Merge a JSON object into the settings namespace",
		Long:  "Import-settings writes each entry without clearing existing settings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return userError("read %s: %w", args[0], err)
			}
			var entries types.Entries
			if err := json.Unmarshal(data, &entries); err != nil {
				return userError("decode %s: %w", args[0], err)
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				report, err := p.Snapshots.ImportSettings(ctx, entries)
				if err != nil {
					return sysError("%w", err)
				}
				return a.writeReport(cmd, report)
			})
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults and clear state",
		Long:  "Reset clears settings and state and writes every default setting. Repository properties are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				if err := p.Snapshots.ResetToDefaults(ctx); err != nil {
					return sysError("%w", err)
				}
				return nil
			})
		},
	}
}

func (a *app) writeReport(cmd *cobra.Command, report prefs.RestoreReport) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "restored %d entries\n", report.Restored)
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "skipped %s/%s: unsupported value\n", s.Namespace, s.Key)
	}
	return nil
}
