package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError("encode output: %w", err)
	}
	return nil
}

// writeEntries prints entries sorted by key, as JSON or as a
// key/kind/value table.
func (a *app) writeEntries(cmd *cobra.Command, entries types.Entries) error {
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, k := range keys {
		v := entries[k]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, v.Kind(), v.String())
	}
	return tw.Flush()
}
