package stdlib

import (
	"errors"
	"testing"

	"github.com/apexlab/sema/internal/sym"
)

func systemStringSpec() TypeSpec {
	return TypeSpec{
		Namespace: "System",
		Name:      "String",
		Kind:      sym.KindClass,
		Artifact:  "apex-lib",
		Modifiers: sym.ModGlobal,
		Members: []MemberSpec{
			{Name: "length", Kind: sym.KindMethod, Type: "Integer", Modifiers: sym.ModGlobal},
			{Name: "split", Kind: sym.KindMethod, Type: "List<String>", Params: []string{"String"}, Modifiers: sym.ModGlobal},
		},
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer c.Close()

	if err := c.Insert(systemStringSpec()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := c.Insert(TypeSpec{Namespace: "Schema", Name: "Account", Kind: sym.KindClass}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	namespaces, err := c.Namespaces()
	if err != nil {
		t.Fatalf("Namespaces: %v", err)
	}
	if len(namespaces) != 2 || namespaces[0] != "Schema" || namespaces[1] != "System" {
		t.Errorf("namespaces: %v", namespaces)
	}

	entries, err := c.Entries("System")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].FQN != "System.String" {
		t.Errorf("entries: %+v", entries)
	}
	if entries[0].LibraryURI() != "apexlib://System/String.cls" {
		t.Errorf("library uri: %q", entries[0].LibraryURI())
	}
}

func TestCatalogMaterialize(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer c.Close()
	if err := c.Insert(systemStringSpec()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	table, err := c.Materialize("System.String")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !table.IsLibrary() {
		t.Error("materialized table must use the library scheme")
	}
	typeSym := table.Root.Lookup("String")
	if typeSym == nil || !typeSym.Modifiers.Has(sym.ModBuiltIn) {
		t.Fatal("type symbol missing or not built-in")
	}
	var split *sym.Symbol
	for _, s := range table.Symbols() {
		if s.Name == "split" {
			split = s
		}
	}
	if split == nil {
		t.Fatal("member split not materialized")
	}
	if split.Method.ReturnType.Name != "List" || split.Method.ReturnType.TypeArgs[0].Name != "String" {
		t.Errorf("return type: %+v", split.Method.ReturnType)
	}
	if len(split.Method.Parameters) != 1 {
		t.Errorf("params: %v", split.Method.Parameters)
	}
}

func TestCatalogNotFound(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer c.Close()

	if _, err := c.Materialize("System.Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Entries("Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogInsertReplacesMembers(t *testing.T) {
	c, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer c.Close()

	spec := systemStringSpec()
	if err := c.Insert(spec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	spec.Members = spec.Members[:1]
	if err := c.Insert(spec); err != nil {
		t.Fatalf("re-Insert: %v", err)
	}
	table, err := c.Materialize("System.String")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	methods := 0
	for _, s := range table.Symbols() {
		if s.Kind == sym.KindMethod {
			methods++
		}
	}
	if methods != 1 {
		t.Errorf("expected members replaced on re-insert, got %d methods", methods)
	}
}

func TestParameterIdentityMatchesScope(t *testing.T) {
	p := NewMemoryProvider(systemStringSpec())
	table, err := p.Materialize("System.String")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	var param *sym.Symbol
	for _, s := range table.Symbols() {
		if s.Kind == sym.KindParameter {
			param = s
			break
		}
	}
	if param == nil {
		t.Fatal("no parameter symbol for split(String)")
	}
	if want := sym.MakeID(table.FileURI, param.ScopePath, param.Name, 0); param.ID != want {
		t.Fatalf("identity key %q disagrees with scope path, want %q", param.ID, want)
	}
}

func TestMemoryProviderMatchesCatalogShape(t *testing.T) {
	p := NewMemoryProvider(systemStringSpec())
	table, err := p.Materialize("System.String")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if table.FileURI != "apexlib://System/String.cls" {
		t.Errorf("uri: %q", table.FileURI)
	}
	if _, err := p.Materialize("System.Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
