package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/internal/prefs"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

var namespaceHelp = "Namespaces: " + strings.Join(types.Namespaces, ", ")

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <namespace> <key>",
		Short: "Print one stored value",
		Long:  "Get prints the value stored under key.\n\n" + namespaceHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				s, err := storeFor(p, args[0])
				if err != nil {
					return err
				}
				v, ok, err := s.Lookup(ctx, args[1])
				if err != nil {
					return sysError("%w", err)
				}
				if !ok {
					return userError("key %q not found in %s", args[1], args[0])
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), v)
				}
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
				return nil
			})
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "set <namespace> <key> <value>",
		Short: "Store one value",
		Long: "Set writes value under key, replacing any previous value and kind.\n" +
			"String sets are given comma separated.\n\n" + namespaceHelp,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := types.ParseKind(kind)
			if err != nil {
				return userError("%w", err)
			}
			v, err := types.ParseValue(k, args[2])
			if err != nil {
				return userError("%w", err)
			}
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				s, err := storeFor(p, args[0])
				if err != nil {
					return err
				}
				if err := s.Put(ctx, args[1], v); err != nil {
					return writeError(err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(types.KindString), "value kind: "+kindNames())
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <namespace> <key>...",
		Short: "Remove keys",
		Long:  "Rm removes the given keys. Missing keys are ignored.\n\n" + namespaceHelp,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				s, err := storeFor(p, args[0])
				if err != nil {
					return err
				}
				if err := s.Remove(ctx, args[1:]...); err != nil {
					return writeError(err)
				}
				return nil
			})
		},
	}
}

// writeError maps a rejected key to a usage error and anything else to a
// storage failure.
func writeError(err error) error {
	if errors.Is(err, types.ErrEmptyKey) {
		return userError("%w", err)
	}
	return sysError("%w", err)
}

func newListCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list <namespace>",
		Short: "List the entries of a namespace",
		Long:  "List prints every entry as key, kind and value, sorted by key.\n\n" + namespaceHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				s, err := storeFor(p, args[0])
				if err != nil {
					return err
				}
				entries, err := s.AllEntries(ctx)
				if err != nil {
					return sysError("%w", err)
				}
				if prefix != "" {
					for k := range entries {
						if !strings.HasPrefix(k, prefix) {
							delete(entries, k)
						}
					}
				}
				return a.writeEntries(cmd, entries)
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys starting with prefix")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <namespace>",
		Short: "Remove every key of one namespace",
		Long:  "Clear empties one namespace. The others are untouched.\n\n" + namespaceHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPrefs(cmd, func(ctx context.Context, p *prefs.Preferences) error {
				s, err := storeFor(p, args[0])
				if err != nil {
					return err
				}
				if err := s.Clear(ctx); err != nil {
					return sysError("%w", err)
				}
				return nil
			})
		},
	}
}

func kindNames() string {
	names := make([]string, len(types.Kinds))
	for i, k := range types.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
