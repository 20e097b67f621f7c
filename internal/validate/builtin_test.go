package validate

import (
	"context"
	"testing"

	"github.com/apexlab/sema/internal/graph"
	"github.com/apexlab/sema/internal/sym"
)

func declare(scope *sym.Scope, uri, name string, kind sym.Kind, mods sym.Modifiers, ord int) *sym.Symbol {
	s := &sym.Symbol{
		ID:        sym.MakeID(uri, scope.Path, name, ord),
		Kind:      kind,
		Name:      name,
		Location:  sym.Location{URI: uri},
		Modifiers: mods,
		Detail:    sym.DetailFull,
	}
	scope.Declare(s)
	return s
}

func runFast(t *testing.T, table *sym.Table) Result {
	t.Helper()
	res, err := NewBuiltinRegistry().RunForTier(context.Background(), TierFast, Input{Table: table})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func findCode(diags []sym.Diagnostic, code string) []sym.Diagnostic {
	var out []sym.Diagnostic
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestDuplicateFieldFlagged(t *testing.T) {
	uri := "file:///src/A.cls"
	root := sym.NewFileScope("A.cls", sym.Range{})
	table := sym.NewTable(uri, 1, root)
	declare(root, uri, "A", sym.KindClass, sym.ModPublic, 0)
	cls := root.Child(sym.ScopeClass, "A", sym.Range{})
	declare(cls, uri, "count", sym.KindField, sym.ModPrivate, 0)
	declare(cls, uri, "count", sym.KindField, sym.ModPrivate, 1)

	res := runFast(t, table)
	if got := findCode(res.Diagnostics, "dup-decl"); len(got) != 1 {
		t.Fatalf("want 1 dup-decl diagnostic, got %d: %+v", len(got), res.Diagnostics)
	}
}

func TestMethodOverloadIsNotDuplicate(t *testing.T) {
	uri := "file:///src/A.cls"
	root := sym.NewFileScope("A.cls", sym.Range{})
	table := sym.NewTable(uri, 1, root)
	declare(root, uri, "A", sym.KindClass, sym.ModPublic, 0)
	cls := root.Child(sym.ScopeClass, "A", sym.Range{})
	declare(cls, uri, "run", sym.KindMethod, sym.ModPublic, 0)
	declare(cls, uri, "run", sym.KindMethod, sym.ModPublic, 1)

	res := runFast(t, table)
	if got := findCode(res.Diagnostics, "dup-decl"); len(got) != 0 {
		t.Fatalf("overload flagged as duplicate: %+v", got)
	}
}

func TestModifierConsistency(t *testing.T) {
	uri := "file:///src/A.cls"
	root := sym.NewFileScope("A.cls", sym.Range{})
	table := sym.NewTable(uri, 1, root)
	declare(root, uri, "A", sym.KindClass, sym.ModPublic|sym.ModAbstract|sym.ModFinal, 0)
	cls := root.Child(sym.ScopeClass, "A", sym.Range{})
	declare(cls, uri, "x", sym.KindField, sym.ModPublic|sym.ModPrivate, 0)

	res := runFast(t, table)
	got := findCode(res.Diagnostics, "modifiers")
	if len(got) != 2 {
		t.Fatalf("want 2 modifier diagnostics, got %d: %+v", len(got), got)
	}
}

func TestEnumShape(t *testing.T) {
	uri := "file:///src/Color.cls"
	root := sym.NewFileScope("Color.cls", sym.Range{})
	table := sym.NewTable(uri, 1, root)
	declare(root, uri, "Color", sym.KindEnum, sym.ModPublic, 0)
	enum := root.Child(sym.ScopeClass, "Color", sym.Range{})
	declare(enum, uri, "RED", sym.KindEnumValue, 0, 0)
	declare(enum, uri, "helper", sym.KindMethod, sym.ModPublic, 0)

	res := runFast(t, table)
	got := findCode(res.Diagnostics, "enum-shape")
	if len(got) != 1 {
		t.Fatalf("want 1 enum-shape diagnostic, got %+v", got)
	}

	// Empty enum warns.
	root2 := sym.NewFileScope("Empty.cls", sym.Range{})
	table2 := sym.NewTable("file:///src/Empty.cls", 1, root2)
	declare(root2, "file:///src/Empty.cls", "Empty", sym.KindEnum, sym.ModPublic, 0)
	root2.Child(sym.ScopeClass, "Empty", sym.Range{})
	res2 := runFast(t, table2)
	got2 := findCode(res2.Diagnostics, "enum-shape")
	if len(got2) != 1 || got2[0].Severity != sym.SeverityWarning {
		t.Fatalf("empty enum: %+v", got2)
	}
}

func TestUnresolvedRefsReported(t *testing.T) {
	uri := "file:///src/A.cls"
	root := sym.NewFileScope("A.cls", sym.Range{})
	table := sym.NewTable(uri, 1, root)
	cls := declare(root, uri, "A", sym.KindClass, sym.ModPublic, 0)
	ref := &sym.Reference{From: cls.ID, Kind: sym.RefInheritance, TargetName: "Missing"}
	ref.Fail("not found")
	table.Refs = append(table.Refs, ref)

	res, err := NewBuiltinRegistry().RunForTier(context.Background(), TierThorough,
		Input{Table: table, ResolutionDone: true})
	if err != nil {
		t.Fatal(err)
	}
	got := findCode(res.Diagnostics, "unresolved")
	if len(got) != 1 {
		t.Fatalf("want 1 unresolved diagnostic, got %+v", res.Diagnostics)
	}
	if got[0].Message != `unknown supertype "Missing"` {
		t.Fatalf("message %q", got[0].Message)
	}
}

func TestInheritanceCycleDetected(t *testing.T) {
	m := graph.New(nil)
	mkTable := func(name, super string) *sym.Table {
		uri := "file:///src/" + name + ".cls"
		root := sym.NewFileScope(name+".cls", sym.Range{})
		table := sym.NewTable(uri, 1, root)
		cls := declare(root, uri, name, sym.KindClass, sym.ModPublic|sym.ModVirtual, 0)
		cls.FQN = name
		cls.Type = &sym.TypeInfo{}
		if super != "" {
			t := sym.ParseTypeRef(super)
			cls.Type.SuperType = &t
			table.Refs = append(table.Refs, &sym.Reference{
				From: cls.ID, Kind: sym.RefInheritance, TargetName: super,
			})
		}
		return table
	}
	a := mkTable("A", "B")
	b := mkTable("B", "A")
	for _, table := range []*sym.Table{a, b} {
		if err := m.AddSymbolTable(table); err != nil {
			t.Fatal(err)
		}
	}
	for _, table := range []*sym.Table{a, b} {
		if _, err := m.ResolveFile(table.FileURI, nil); err != nil {
			t.Fatal(err)
		}
	}

	res, err := NewBuiltinRegistry().RunForTier(context.Background(), TierThorough,
		Input{Table: a, Graph: m, ResolutionDone: true, CrossFileReady: true})
	if err != nil {
		t.Fatal(err)
	}
	got := findCode(res.Diagnostics, "inheritance")
	if len(got) != 1 {
		t.Fatalf("cycle not reported: %+v", res.Diagnostics)
	}
}

func TestExtendFinalClassRejected(t *testing.T) {
	m := graph.New(nil)
	uri := "file:///src/B.cls"
	root := sym.NewFileScope("B.cls", sym.Range{})
	base := sym.NewTable(uri, 1, root)
	b := declare(root, uri, "B", sym.KindClass, sym.ModPublic|sym.ModFinal, 0)
	b.FQN = "B"
	b.Type = &sym.TypeInfo{}

	uriA := "file:///src/A.cls"
	rootA := sym.NewFileScope("A.cls", sym.Range{})
	derived := sym.NewTable(uriA, 1, rootA)
	a := declare(rootA, uriA, "A", sym.KindClass, sym.ModPublic, 0)
	a.FQN = "A"
	super := sym.ParseTypeRef("B")
	a.Type = &sym.TypeInfo{SuperType: &super}
	derived.Refs = append(derived.Refs, &sym.Reference{From: a.ID, Kind: sym.RefInheritance, TargetName: "B"})

	for _, table := range []*sym.Table{base, derived} {
		if err := m.AddSymbolTable(table); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.ResolveFile(uriA, nil); err != nil {
		t.Fatal(err)
	}

	res, err := NewBuiltinRegistry().RunForTier(context.Background(), TierThorough,
		Input{Table: derived, Graph: m, ResolutionDone: true, CrossFileReady: true})
	if err != nil {
		t.Fatal(err)
	}
	got := findCode(res.Diagnostics, "inheritance")
	if len(got) != 1 || got[0].Message != `cannot extend final type "B"` {
		t.Fatalf("diagnostics %+v", res.Diagnostics)
	}
}
