package sym

import (
	"fmt"
	"strings"
)

// ID is a symbol's stable identity key: file path + enclosing scope path +
// name, with an ordinal suffix when the same name repeats in one scope.
// Identity never changes after creation; only resolved payload does.
type ID string

// MakeID builds an identity key. ordinal is 0 for the first occurrence of a
// name within a scope and counts up for shadowing re-declarations.
func MakeID(fileURI, scopePath, name string, ordinal int) ID {
	if ordinal == 0 {
		return ID(fileURI + "#" + scopePath + "/" + name)
	}
	return ID(fmt.Sprintf("%s#%s/%s~%d", fileURI, scopePath, name, ordinal))
}

// FileURI returns the owning file encoded in the key.
func (id ID) FileURI() string {
	if i := strings.IndexByte(string(id), '#'); i >= 0 {
		return string(id)[:i]
	}
	return ""
}

// Detail is the population state of a symbol. Stubs carry identity, kind and
// location only; the full payload is attached by an explicit materialize
// step, never by mutation-on-read.
type Detail uint8

const (
	DetailStub Detail = iota
	DetailFull
)

func (d Detail) String() string {
	if d == DetailFull {
		return "full"
	}
	return "stub"
}

// TypeRef names a type as written in source, with generic arguments kept
// separate so resolution can unwrap them recursively.
type TypeRef struct {
	Name     string    `json:"name"`
	TypeArgs []TypeRef `json:"type_args,omitempty"`
}

func (t TypeRef) String() string {
	if len(t.TypeArgs) == 0 {
		return t.Name
	}
	args := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ",") + ">"
}

// Namespace returns the namespace prefix of a dotted type name, or "" for
// unqualified names.
func (t TypeRef) Namespace() string {
	if i := strings.IndexByte(t.Name, '.'); i > 0 {
		return t.Name[:i]
	}
	return ""
}

// TypeInfo is the kind-specific payload for classes, interfaces, enums and
// triggers.
type TypeInfo struct {
	SuperType  *TypeRef  `json:"super_type,omitempty"`
	Interfaces []TypeRef `json:"interfaces,omitempty"`
}

// MethodInfo is the payload for methods and constructors.
type MethodInfo struct {
	ReturnType TypeRef `json:"return_type"`
	Parameters []ID    `json:"parameters,omitempty"`
}

// VariableInfo is the payload for fields, properties, variables and
// parameters.
type VariableInfo struct {
	DeclaredType TypeRef `json:"declared_type"`
}

// Symbol is a declared program entity.
type Symbol struct {
	ID        ID        `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	FQN       string    `json:"fqn,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
	Location  Location  `json:"location"`
	Modifiers Modifiers `json:"modifiers"`
	ScopePath string    `json:"scope_path"`
	Detail    Detail    `json:"detail"`

	// Kind-specific payload; at most one is non-nil, and only when
	// Detail == DetailFull.
	Type     *TypeInfo     `json:"type,omitempty"`
	Method   *MethodInfo   `json:"method,omitempty"`
	Variable *VariableInfo `json:"variable,omitempty"`
}

// Stub creates an unmaterialized symbol carrying identity only.
func Stub(id ID, kind Kind, loc Location) *Symbol {
	return &Symbol{ID: id, Kind: kind, Location: loc, Detail: DetailStub}
}

// IsStub reports whether the symbol still awaits materialization.
func (s *Symbol) IsStub() bool { return s.Detail == DetailStub }

// QualifiedName returns the FQN when known, falling back to the simple name.
func (s *Symbol) QualifiedName() string {
	if s.FQN != "" {
		return s.FQN
	}
	return s.Name
}

// ReferencedTypes returns every type name the symbol's payload mentions:
// supertype, interfaces, return type, declared type. Generic arguments are
// unwrapped recursively. Used for namespace dependency extraction.
func (s *Symbol) ReferencedTypes() []TypeRef {
	var out []TypeRef
	var walk func(t TypeRef)
	walk = func(t TypeRef) {
		out = append(out, t)
		for _, a := range t.TypeArgs {
			walk(a)
		}
	}
	if s.Type != nil {
		if s.Type.SuperType != nil {
			walk(*s.Type.SuperType)
		}
		for _, i := range s.Type.Interfaces {
			walk(i)
		}
	}
	if s.Method != nil {
		walk(s.Method.ReturnType)
	}
	if s.Variable != nil {
		walk(s.Variable.DeclaredType)
	}
	return out
}
