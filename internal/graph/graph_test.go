package graph

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/apexlab/sema/internal/sym"
)

// classTable builds a minimal one-class table for tests.
func classTable(uri string, version int, ns, name, super string) *sym.Table {
	root := sym.NewFileScope(name+".cls", sym.Range{})
	table := sym.NewTable(uri, version, root)
	table.Namespace = ns

	fqn := name
	if ns != "" {
		fqn = ns + "." + name
	}
	cls := &sym.Symbol{
		ID:        sym.MakeID(uri, root.Path, name, 0),
		Kind:      sym.KindClass,
		Name:      name,
		FQN:       fqn,
		Namespace: ns,
		Location:  sym.Location{URI: uri},
		Modifiers: sym.ModPublic,
		Detail:    sym.DetailFull,
		Type:      &sym.TypeInfo{},
	}
	if super != "" {
		t := sym.ParseTypeRef(super)
		cls.Type.SuperType = &t
		table.Refs = append(table.Refs, &sym.Reference{
			From:       cls.ID,
			Kind:       sym.RefInheritance,
			TargetName: super,
		})
	}
	root.Declare(cls)
	root.Child(sym.ScopeClass, name, sym.Range{})
	return table
}

func TestAddSymbolTableIdempotent(t *testing.T) {
	m := New(nil)
	table := classTable("file:///src/A.cls", 1, "", "A", "")
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := m.AddSymbolTable(classTable("file:///src/A.cls", 1, "", "A", "")); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if got := m.FindSymbolsByName("A"); len(got) != 1 {
		t.Fatalf("want 1 symbol named A after re-add, got %d", len(got))
	}
	if m.FindSymbolByFQN("A") == nil {
		t.Fatal("FQN lookup lost after re-add")
	}
	if st := m.Stats(); st.Files != 1 {
		t.Fatalf("want 1 file, got %d", st.Files)
	}
}

func TestStaleTableRejected(t *testing.T) {
	m := New(nil)
	if err := m.AddSymbolTable(classTable("file:///src/A.cls", 2, "", "A", "")); err != nil {
		t.Fatalf("add v2: %v", err)
	}
	err := m.AddSymbolTable(classTable("file:///src/A.cls", 1, "", "A", ""))
	if !errors.Is(err, ErrStale) {
		t.Fatalf("want ErrStale for v1 after v2, got %v", err)
	}
	if got := m.Table("file:///src/A.cls").Version; got != 2 {
		t.Fatalf("stale add changed version to %d", got)
	}
	if err := m.AddSymbolTable(classTable("file:///src/A.cls", 3, "", "A", "")); err != nil {
		t.Fatalf("add v3: %v", err)
	}
}

func TestRemoveFile(t *testing.T) {
	m := New(nil)
	if err := m.AddSymbolTable(classTable("file:///src/A.cls", 1, "", "A", "")); err != nil {
		t.Fatal(err)
	}
	m.RemoveFile("file:///src/A.cls")
	if m.FindSymbolByFQN("A") != nil {
		t.Fatal("symbol survived RemoveFile")
	}
	if len(m.Files()) != 0 {
		t.Fatal("file survived RemoveFile")
	}
}

func TestResolveInheritance(t *testing.T) {
	m := New(nil)
	a := classTable("file:///src/A.cls", 1, "", "A", "B")
	b := classTable("file:///src/B.cls", 1, "", "B", "")
	if err := m.AddSymbolTable(a); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSymbolTable(b); err != nil {
		t.Fatal(err)
	}

	res, err := m.ResolveFile("file:///src/A.cls", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bound != 1 || res.Failed != 0 {
		t.Fatalf("want 1 bound 0 failed, got %+v", res)
	}

	target := m.FindSymbolByFQN("B")
	refs := m.FindReferencesTo(target.ID, sym.RefInheritance)
	if len(refs) != 1 {
		t.Fatalf("want 1 inheritance reference to B, got %d", len(refs))
	}
	if refs[0].State != sym.RefResolved {
		t.Fatalf("reference state %v", refs[0].State)
	}
}

func TestResolveMissingTargetFails(t *testing.T) {
	m := New(nil)
	if err := m.AddSymbolTable(classTable("file:///src/A.cls", 1, "", "A", "Missing")); err != nil {
		t.Fatal(err)
	}
	res, err := m.ResolveFile("file:///src/A.cls", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 {
		t.Fatalf("want 1 failure, got %+v", res)
	}
	unresolved := m.Table("file:///src/A.cls").RefsByKind(sym.RefInheritance)
	if unresolved[0].State != sym.RefFailed || unresolved[0].FailReason == "" {
		t.Fatalf("failure not recorded: %+v", unresolved[0])
	}
}

func TestResolveAmbiguousName(t *testing.T) {
	m := New(nil)
	for i, ns := range []string{"alpha", "beta"} {
		uri := fmt.Sprintf("file:///src/util%d.cls", i)
		if err := m.AddSymbolTable(classTable(uri, 1, ns, "Util", "")); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.AddSymbolTable(classTable("file:///src/C.cls", 1, "", "C", "Util")); err != nil {
		t.Fatal(err)
	}

	res, err := m.ResolveFile("file:///src/C.cls", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 {
		t.Fatalf("want ambiguity failure, got %+v", res)
	}
	ref := m.Table("file:///src/C.cls").Refs[0]
	if ref.FailReason != "ambiguous: 2 candidates" {
		t.Fatalf("fail reason %q", ref.FailReason)
	}
}

func TestConcurrentResolveBindsOnce(t *testing.T) {
	uri := "file:///src/A.cls"
	table := classTable(uri, 1, "", "A", "")
	for i := 0; i < 200; i++ {
		table.Refs = append(table.Refs, &sym.Reference{
			From:       sym.MakeID(uri, "A.cls", "A", 0),
			Kind:       sym.RefTypeUse,
			TargetName: "B",
		})
	}
	m := New(nil)
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSymbolTable(classTable("file:///src/B.cls", 1, "", "B", "")); err != nil {
		t.Fatal(err)
	}

	// Two resolvers for the same file serialize on the file's lock; the
	// second finds everything bound and does nothing.
	results := make(chan ResolveResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.ResolveFile(uri, nil)
			if err != nil {
				t.Error(err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for res := range results {
		total += res.Bound
	}
	if total != 200 {
		t.Fatalf("want 200 references bound across both runs, got %d", total)
	}
	target := m.FindSymbolByFQN("B")
	if refs := m.FindReferencesTo(target.ID, sym.RefTypeUse); len(refs) != 200 {
		t.Fatalf("want 200 indexed references to B, got %d", len(refs))
	}
}

func TestYieldStrideConfigurable(t *testing.T) {
	uri := "file:///src/A.cls"
	table := classTable(uri, 1, "", "A", "")
	for i := 0; i < 25; i++ {
		table.Refs = append(table.Refs, &sym.Reference{
			From:       sym.MakeID(uri, "A.cls", "A", 0),
			Kind:       sym.RefTypeUse,
			TargetName: "Missing",
		})
	}
	m := New(nil)
	m.SetYieldStride(10)
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatal(err)
	}

	yields := 0
	if _, err := m.ResolveFile(uri, func() error { yields++; return nil }); err != nil {
		t.Fatal(err)
	}
	if yields != 2 {
		t.Fatalf("want 2 checkpoints at stride 10 over 25 refs, got %d", yields)
	}
}

func TestResolveYieldStopsEarly(t *testing.T) {
	uri := "file:///src/Big.cls"
	table := classTable(uri, 1, "", "Big", "")
	for i := 0; i < 100; i++ {
		table.Refs = append(table.Refs, &sym.Reference{
			From:       sym.MakeID(uri, "Big.cls", "Big", 0),
			Kind:       sym.RefTypeUse,
			TargetName: "Missing",
		})
	}
	m := New(nil)
	if err := m.AddSymbolTable(table); err != nil {
		t.Fatal(err)
	}

	stop := errors.New("cancelled")
	res, err := m.ResolveFile(uri, func() error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("want cancellation error, got %v", err)
	}
	processed := res.Bound + res.Failed
	if processed == 0 || processed >= 100 {
		t.Fatalf("expected a partial run, processed %d", processed)
	}
	if len(m.Table(uri).Unresolved()) == 0 {
		t.Fatal("cancelled run left no unresolved references")
	}
}
