package types

// Document is the export interchange artifact: one bag per namespace.
type Document struct {
	Settings  Entries `json:"defaultPrefsValues"`
	State     Entries `json:"statePrefsValues"`
	RepoProps Entries `json:"reposPrefsValues"`
}

// Bag returns the entries of the named namespace.
func (d *Document) Bag(namespace string) Entries {
	switch namespace {
	case NamespaceSettings:
		return d.Settings
	case NamespaceState:
		return d.State
	case NamespaceRepoProps:
		return d.RepoProps
	}
	return nil
}
