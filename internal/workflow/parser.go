// Package workflow parses the states setting into keyword workflows.
//
// The setting holds one or more workflows separated by ";" or newlines.
// Each workflow lists TODO keywords, a "|" and then DONE keywords:
//
//	TODO NEXT | DONE; WAITING | CANCELLED
//
// Keywords may carry an Org-style fast-access annotation such as "TODO(t)"
// or "DONE(d!)"; the annotation is dropped. A workflow without "|" treats
// its last keyword as DONE when it has more than one keyword.
package workflow

import (
	"strings"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Parser is the default types.WorkflowParser.
type Parser struct{}

var _ types.WorkflowParser = Parser{}

// Parse splits states into workflows. Workflows with no keywords are
// dropped, so malformed input degrades to fewer workflows, never an error.
func (Parser) Parse(states string) []types.Workflow {
	var out []types.Workflow
	for _, chunk := range strings.FieldsFunc(states, isWorkflowSeparator) {
		if wf, ok := parseWorkflow(chunk); ok {
			out = append(out, wf)
		}
	}
	return out
}

func isWorkflowSeparator(r rune) bool {
	return r == ';' || r == '\n' || r == '\r'
}

func parseWorkflow(chunk string) (types.Workflow, bool) {
	var wf types.Workflow
	sawBar := false
	for _, tok := range strings.Fields(strings.ReplaceAll(chunk, "|", " | ")) {
		if tok == "|" {
			sawBar = true
			continue
		}
		kw := keyword(tok)
		if kw == "" {
			continue
		}
		if sawBar {
			wf.Done = append(wf.Done, kw)
		} else {
			wf.Todo = append(wf.Todo, kw)
		}
	}
	if !sawBar && len(wf.Todo) > 1 {
		last := len(wf.Todo) - 1
		wf.Done = []string{wf.Todo[last]}
		wf.Todo = wf.Todo[:last]
	}
	if len(wf.Todo) == 0 && len(wf.Done) == 0 {
		return types.Workflow{}, false
	}
	return wf, true
}

// keyword strips a trailing "(...)" annotation.
func keyword(tok string) string {
	if i := strings.IndexByte(tok, '('); i >= 0 {
		tok = tok[:i]
	}
	return strings.TrimSpace(tok)
}
