// Package types defines the value model, the persistence medium contract,
// the export document, and the standard errors for prefstore.
//
// A Value is a closed sum over the primitive kinds a preference can hold:
// boolean, 32-bit integer, 64-bit integer, float, string and string set.
// Mediums store Values per namespace; the prefs package builds typed stores,
// the repository property adapter, snapshots and the keyword cache on top.
package types
