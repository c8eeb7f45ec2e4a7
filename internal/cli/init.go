package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/prefs"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize prefstore storage",
		Long:  "Create the configuration and data directories, then attach and detach the storage backend once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				fmt.Fprintln(cmd.OutOrStdout(), "prefstore initialized")
				return nil
			})
		},
	}
}
