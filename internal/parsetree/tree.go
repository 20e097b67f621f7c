// Package parsetree defines the neutral parse-tree records the semantic core
// consumes. The grammar-level parser is an external collaborator; the core
// never re-implements grammar rules, it only walks trees of these nodes.
package parsetree

import "github.com/apexlab/sema/internal/sym"

// NodeKind identifies the grammatical construct a node represents.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota
	NodeCompilationUnit
	NodeClassDecl
	NodeInterfaceDecl
	NodeEnumDecl
	NodeTriggerDecl
	NodeMethodDecl
	NodeConstructorDecl
	NodeFieldDecl
	NodePropertyDecl
	NodeVariableDecl
	NodeParameterDecl
	NodeEnumValue
	NodeBlock
	NodeTypeRef
	NodeMethodCall
	NodeFieldAccess
	NodeNewExpr
)

func (k NodeKind) String() string {
	switch k {
	case NodeCompilationUnit:
		return "compilation_unit"
	case NodeClassDecl:
		return "class_decl"
	case NodeInterfaceDecl:
		return "interface_decl"
	case NodeEnumDecl:
		return "enum_decl"
	case NodeTriggerDecl:
		return "trigger_decl"
	case NodeMethodDecl:
		return "method_decl"
	case NodeConstructorDecl:
		return "constructor_decl"
	case NodeFieldDecl:
		return "field_decl"
	case NodePropertyDecl:
		return "property_decl"
	case NodeVariableDecl:
		return "variable_decl"
	case NodeParameterDecl:
		return "parameter_decl"
	case NodeEnumValue:
		return "enum_value"
	case NodeBlock:
		return "block"
	case NodeTypeRef:
		return "type_ref"
	case NodeMethodCall:
		return "method_call"
	case NodeFieldAccess:
		return "field_access"
	case NodeNewExpr:
		return "new_expr"
	default:
		return "invalid"
	}
}

// Node is one parse-tree node. Attrs carries grammar-level detail the core
// reads but does not interpret structurally: "modifiers" (space-separated
// keywords), "type" (declared/return type as written), "super", "interfaces"
// (comma-separated), "namespace".
type Node struct {
	Kind       NodeKind
	Name       string
	Range      sym.Range
	IdentRange sym.Range
	Attrs      map[string]string
	Children   []*Node
}

// Attr returns a grammar attribute or "".
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// ChildrenOfKind filters immediate children by kind.
func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits the node and all descendants depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Tree is a parsed file handed to the core by the parse-tree provider.
type Tree struct {
	FileURI string
	Version int
	Root    *Node
}
