package parsetree

import "github.com/apexlab/sema/internal/sym"

// Provider is the external parser collaborator. Given source text it returns
// either a tree or a structured parse-error list; a file that fails to parse
// produces diagnostics and a nil tree, which blocks symbol-table
// construction for that file only.
type Provider interface {
	Parse(fileURI string, version int, content []byte) (*Tree, []sym.Diagnostic)
}
