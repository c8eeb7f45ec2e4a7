// Package logfields holds canonical slog attribute keys so packages agree on
// field names.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyNamespace  = "namespace"
	KeyKey        = "key"
	KeyKind       = "kind"
	KeyRepoID     = "repo_id"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Attribute helpers for the keys above.
func Namespace(ns string) slog.Attr   { return slog.String(KeyNamespace, ns) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func RepoID(id int64) slog.Attr       { return slog.Int64(KeyRepoID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Error returns the error attribute. A nil error logs as "".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
