package types

// Workflow is one ordered group of TODO keywords followed by DONE keywords.
type Workflow struct {
	Todo []string
	Done []string
}

// WorkflowParser turns the states setting into workflows. A string that
// yields nothing usable returns an empty slice, never an error.
type WorkflowParser interface {
	Parse(states string) []Workflow
}

// WorkflowParserFunc adapts a function to WorkflowParser.
type WorkflowParserFunc func(states string) []Workflow

// Parse calls f.
func (f WorkflowParserFunc) Parse(states string) []Workflow { return f(states) }

// DefaultProvider resolves symbolic setting names to default values.
type DefaultProvider interface {
	// Lookup returns the default for name, if one is defined.
	Lookup(name string) (Value, bool)

	// Entries returns every default. Used to reset settings.
	Entries() Entries
}
