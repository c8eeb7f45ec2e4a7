package types

// Fixed namespace names.
const (
	NamespaceSettings  = "settings"
	NamespaceState     = "state"
	NamespaceRepoProps = "repoProps"
)

// Namespaces lists every namespace in registry order.
var Namespaces = []string{
	NamespaceSettings,
	NamespaceState,
	NamespaceRepoProps,
}

// ValidNamespace reports whether name is one of the fixed namespaces.
func ValidNamespace(name string) bool {
	switch name {
	case NamespaceSettings, NamespaceState, NamespaceRepoProps:
		return true
	}
	return false
}
