package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/prefs"
)

func newRepoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage per-repository property bags",
	}
	cmd.AddCommand(newRepoGetCmd(a), newRepoSetCmd(a), newRepoRmCmd(a), newRepoListCmd(a))
	return cmd
}

func parseRepoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 0 {
		return 0, userError("invalid repository id %q", arg)
	}
	return id, nil
}

func newRepoGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print the properties of one repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				props, err := p.Repos.Get(ctx, id)
				if err != nil {
					return sysError("%w", err)
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), props)
				}
				names := make([]string, 0, len(props))
				for name := range props {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, props[name])
				}
				return nil
			})
		},
	}
}

func newRepoSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <name=value>...",
		Short: "Replace the properties of one repository",
		Long:  "Set deletes every existing property of the repository, then writes the given ones.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			props := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				name, value, ok := strings.Cut(pair, "=")
				if !ok || name == "" {
					return userError("expected name=value, got %q", pair)
				}
				props[name] = value
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				if err := p.Repos.Set(ctx, id, props); err != nil {
					return sysError("%w", err)
				}
				return nil
			})
		},
	}
}

func newRepoRmCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete the properties of one repository, or of all with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				if all {
					if err := p.Repos.DeleteAll(ctx); err != nil {
						return sysError("%w", err)
					}
					return nil
				}
				id, err := parseRepoID(args[0])
				if err != nil {
					return err
				}
				if err := p.Repos.Delete(ctx, id); err != nil {
					return sysError("%w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every repository's properties")
	return cmd
}

func newRepoListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repository ids that have properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				ids, err := p.Repos.IDs(ctx)
				if err != nil {
					return sysError("%w", err)
				}
				if a.flags.jsonMode {
					if ids == nil {
						ids = []int64{}
					}
					return writeJSON(cmd.OutOrStdout(), ids)
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}
