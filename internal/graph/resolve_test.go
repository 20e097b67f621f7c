package graph

import (
	"errors"
	"testing"

	"github.com/apexlab/sema/internal/stdlib"
	"github.com/apexlab/sema/internal/sym"
)

// countingProvider counts Materialize calls to observe lazy loading.
type countingProvider struct {
	*stdlib.MemoryProvider
	calls int
}

func (p *countingProvider) Materialize(fqn string) (*sym.Table, error) {
	p.calls++
	return p.MemoryProvider.Materialize(fqn)
}

func systemStringSpec() stdlib.TypeSpec {
	return stdlib.TypeSpec{
		Namespace: "System",
		Name:      "String",
		Kind:      sym.KindClass,
		Artifact:  "String.cls",
		Modifiers: sym.ModPublic | sym.ModGlobal,
		Members: []stdlib.MemberSpec{
			{Name: "isBlank", Kind: sym.KindMethod, Type: "Boolean", Params: []string{"String"}, Modifiers: sym.ModPublic | sym.ModStatic},
		},
	}
}

func TestStandardTypeMaterializedOnFirstUse(t *testing.T) {
	provider := &countingProvider{MemoryProvider: stdlib.NewMemoryProvider(systemStringSpec())}
	m := New(provider)

	s, err := m.ResolveStandardApexClass("System.String")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Modifiers.Has(sym.ModBuiltIn) {
		t.Fatal("materialized type missing built-in modifier")
	}
	if !sym.IsLibraryURI(s.Location.URI) {
		t.Fatalf("library type stored under %s", s.Location.URI)
	}

	if _, err := m.ResolveStandardApexClass("System.String"); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 1 {
		t.Fatalf("want exactly 1 materialization, got %d", provider.calls)
	}
}

func TestStandardTypeNotFoundRetries(t *testing.T) {
	provider := &countingProvider{MemoryProvider: stdlib.NewMemoryProvider()}
	m := New(provider)

	_, err := m.ResolveStandardApexClass("System.Nope")
	if !errors.Is(err, stdlib.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// A later provider load may know the type; the miss must not be sticky.
	provider.Add(systemStringSpec())
	provider.Add(stdlib.TypeSpec{Namespace: "System", Name: "Nope", Kind: sym.KindClass, Artifact: "Nope.cls"})
	if _, err := m.ResolveStandardApexClass("System.Nope"); err != nil {
		t.Fatalf("retry after provider update: %v", err)
	}
}

func TestResolveBareNameThroughImplicitSystem(t *testing.T) {
	provider := &countingProvider{MemoryProvider: stdlib.NewMemoryProvider(systemStringSpec())}
	m := New(provider)

	uri := "file:///src/A.cls"
	table := classTable(uri, 1, "", "A", "")
	table.Refs = append(table.Refs, &sym.Reference{
		From:       sym.MakeID(uri, "A.cls", "A", 0),
		Kind:       sym.RefTypeUse,
		TargetName: "String",
	})
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatal(err)
	}

	res, err := m.ResolveFile(uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bound != 1 {
		t.Fatalf("want bare String bound via System, got %+v", res)
	}
	if got := m.Symbol(table.Refs[0].Target); got == nil || got.FQN != "System.String" {
		t.Fatalf("bound to %+v", got)
	}
}

func TestResolveMemberThroughTypedVariable(t *testing.T) {
	m := New(stdlib.NewMemoryProvider(systemStringSpec()))

	uri := "file:///src/A.cls"
	table := classTable(uri, 1, "", "A", "")
	classScope := table.Root.Kids[0]
	field := &sym.Symbol{
		ID:       sym.MakeID(uri, classScope.Path, "label", 0),
		Kind:     sym.KindField,
		Name:     "label",
		Location: sym.Location{URI: uri},
		Detail:   sym.DetailFull,
		Variable: &sym.VariableInfo{DeclaredType: sym.ParseTypeRef("System.String")},
	}
	classScope.Declare(field)
	table.Refs = append(table.Refs, &sym.Reference{
		From:       field.ID,
		Kind:       sym.RefMethodCall,
		TargetName: "label.isBlank",
	})
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatal(err)
	}

	res, err := m.ResolveFile(uri, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bound != 1 {
		t.Fatalf("member call not bound: %+v", res)
	}
	target := m.Symbol(table.Refs[0].Target)
	if target == nil || target.Name != "isBlank" {
		t.Fatalf("bound to %+v", target)
	}
}
