package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/prefs"
)

func newKeywordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "Print the TODO and DONE keywords derived from the states setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				kw := p.Keywords.Snapshot(ctx)
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), kw)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "todo: %s\ndone: %s\n",
					strings.Join(kw.Todo, " "), strings.Join(kw.Done, " "))
				return nil
			})
		},
	}
}

func newStatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states",
		Short: "Print the workflow states setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				fmt.Fprintln(cmd.OutOrStdout(), p.States(ctx))
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <states>",
		Short: "Replace the workflow states setting",
		Long:  `Set stores a states string such as "TODO NEXT | DONE; WAIT | CANCELLED".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				if err := p.SetStates(ctx, args[0]); err != nil {
					return sysError("%w", err)
				}
				kw := p.Keywords.Snapshot(ctx)
				if len(kw.Todo) == 0 && len(kw.Done) == 0 {
					a.logger.Warn("states setting yields no keywords")
				}
				return nil
			})
		},
	})
	return cmd
}
