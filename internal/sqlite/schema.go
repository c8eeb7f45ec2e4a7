package sqlite

import _ "embed"

// schemaSQL is applied on every Attach; all statements are idempotent.
//
//go:embed schema.sql
var schemaSQL string

// Statements used by the write paths.
const (
	upsertEntry = `INSERT INTO entries (namespace, key, kind, value, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`
	deleteEntry     = `DELETE FROM entries WHERE namespace = ? AND key = ?`
	deleteNamespace = `DELETE FROM entries WHERE namespace = ?`
	selectEntries   = `SELECT namespace, key, kind, value FROM entries`
)
