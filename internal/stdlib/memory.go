package stdlib

import (
	"fmt"
	"sort"
	"sync"

	"github.com/apexlab/sema/internal/sym"
)

// MemoryProvider is an in-memory Provider built from TypeSpecs. Used by
// tests and by hosts that decode the platform catalog themselves.
type MemoryProvider struct {
	mu    sync.RWMutex
	types map[string]TypeSpec // fqn -> spec
}

// NewMemoryProvider creates a provider from the given specs.
func NewMemoryProvider(specs ...TypeSpec) *MemoryProvider {
	p := &MemoryProvider{types: make(map[string]TypeSpec)}
	for _, s := range specs {
		p.Add(s)
	}
	return p
}

// Add registers one type.
func (p *MemoryProvider) Add(spec TypeSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[spec.Namespace+"."+spec.Name] = spec
}

// Namespaces lists every namespace.
func (p *MemoryProvider) Namespaces() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, spec := range p.types {
		if !seen[spec.Namespace] {
			seen[spec.Namespace] = true
			out = append(out, spec.Namespace)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Entries lists the lightweight entries of one namespace.
func (p *MemoryProvider) Entries(namespace string) ([]Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Entry
	for fqn, spec := range p.types {
		if spec.Namespace == namespace {
			out = append(out, Entry{
				FQN:       fqn,
				Name:      spec.Name,
				Namespace: spec.Namespace,
				Kind:      spec.Kind,
				Artifact:  spec.Artifact,
			})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("namespace %s: %w", namespace, ErrNotFound)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Materialize builds the full symbol table for a type.
func (p *MemoryProvider) Materialize(fqn string) (*sym.Table, error) {
	p.mu.RLock()
	spec, ok := p.types[fqn]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("type %s: %w", fqn, ErrNotFound)
	}
	return buildTable(spec)
}

// buildTable turns a TypeSpec into a library symbol table. Shared shape
// with Catalog.Materialize so both providers mint identical tables.
func buildTable(spec TypeSpec) (*sym.Table, error) {
	fqn := spec.Namespace + "." + spec.Name
	uri := Entry{Namespace: spec.Namespace, Name: spec.Name}.LibraryURI()
	root := sym.NewFileScope(spec.Name+".cls", sym.Range{})
	table := sym.NewTable(uri, 0, root)
	table.Namespace = spec.Namespace

	typeSym := &sym.Symbol{
		ID:        sym.MakeID(uri, root.Path, spec.Name, 0),
		Kind:      spec.Kind,
		Name:      spec.Name,
		FQN:       fqn,
		Namespace: spec.Namespace,
		Location:  sym.Location{URI: uri},
		Modifiers: spec.Modifiers | sym.ModBuiltIn,
		Detail:    sym.DetailFull,
		Type:      &sym.TypeInfo{},
	}
	if spec.SuperType != "" {
		t := sym.ParseTypeRef(spec.SuperType)
		typeSym.Type.SuperType = &t
	}
	for _, iface := range spec.Interfaces {
		typeSym.Type.Interfaces = append(typeSym.Type.Interfaces, sym.ParseTypeRef(iface))
	}
	root.Declare(typeSym)
	typeScope := root.Child(sym.ScopeClass, spec.Name, sym.Range{})

	ordinals := make(map[string]int)
	for _, m := range spec.Members {
		ord := ordinals[m.Name]
		ordinals[m.Name] = ord + 1
		member := &sym.Symbol{
			ID:        sym.MakeID(uri, typeScope.Path, m.Name, ord),
			Kind:      m.Kind,
			Name:      m.Name,
			FQN:       fqn + "." + m.Name,
			Location:  sym.Location{URI: uri},
			Modifiers: m.Modifiers | sym.ModBuiltIn,
			Detail:    sym.DetailFull,
		}
		switch m.Kind {
		case sym.KindMethod, sym.KindConstructor:
			member.Method = &sym.MethodInfo{ReturnType: sym.ParseTypeRef(m.Type)}
			// Parameters live in a method scope, mirroring bound project
			// code; overloads share the scope path and differ by ordinal.
			methodScope := typeScope.Child(sym.ScopeMethod, m.Name, sym.Range{})
			for i, pt := range m.Params {
				pSym := &sym.Symbol{
					ID:        sym.MakeID(uri, methodScope.Path, fmt.Sprintf("arg%d", i), ord),
					Kind:      sym.KindParameter,
					Name:      fmt.Sprintf("arg%d", i),
					Location:  sym.Location{URI: uri},
					Modifiers: sym.ModBuiltIn,
					Detail:    sym.DetailFull,
					Variable:  &sym.VariableInfo{DeclaredType: sym.ParseTypeRef(pt)},
				}
				methodScope.Declare(pSym)
				member.Method.Parameters = append(member.Method.Parameters, pSym.ID)
			}
		case sym.KindField, sym.KindProperty, sym.KindEnumValue:
			member.Variable = &sym.VariableInfo{DeclaredType: sym.ParseTypeRef(m.Type)}
		}
		typeScope.Declare(member)
	}
	return table, nil
}
