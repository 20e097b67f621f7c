package sym

import "testing"

func buildScopeTree() (*Scope, *Scope, *Scope) {
	fileRange := Range{Start: Position{Line: 1}, End: Position{Line: 100}}
	root := NewFileScope("A.cls", fileRange)
	class := root.Child(ScopeClass, "A", Range{Start: Position{Line: 1}, End: Position{Line: 50}})
	method := class.Child(ScopeMethod, "run", Range{Start: Position{Line: 10}, End: Position{Line: 20}})
	return root, class, method
}

func TestScopePathImmutable(t *testing.T) {
	_, class, method := buildScopeTree()
	if class.Path != "A.cls/A" {
		t.Errorf("class path: %q", class.Path)
	}
	if method.Path != "A.cls/A/run" {
		t.Errorf("method path: %q", method.Path)
	}
}

func TestLookupChain(t *testing.T) {
	_, class, method := buildScopeTree()
	field := &Symbol{ID: MakeID("A.cls", class.Path, "count", 0), Kind: KindField, Name: "count"}
	class.Declare(field)
	local := &Symbol{ID: MakeID("A.cls", method.Path, "i", 0), Kind: KindVariable, Name: "i"}
	method.Declare(local)

	if got := method.LookupChain("count"); got != field {
		t.Error("expected field visible from method scope")
	}
	if got := method.LookupChain("i"); got != local {
		t.Error("expected local visible in its own scope")
	}
	if got := class.Lookup("i"); got != nil {
		t.Error("local must not leak into class scope")
	}
	if got := method.LookupChain("missing"); got != nil {
		t.Error("unknown name should be nil")
	}
}

func TestDeclareStampsScopePath(t *testing.T) {
	_, class, _ := buildScopeTree()
	s := &Symbol{Name: "x"}
	class.Declare(s)
	if s.ScopePath != "A.cls/A" {
		t.Errorf("scope path not stamped: %q", s.ScopePath)
	}
}

func TestInnermostAt(t *testing.T) {
	root, _, method := buildScopeTree()
	got := root.InnermostAt(Position{Line: 15})
	if got != method {
		t.Errorf("expected method scope, got %v", got.Path)
	}
	got = root.InnermostAt(Position{Line: 60})
	if got != root {
		t.Errorf("expected file scope outside class range, got %v", got.Path)
	}
}

func TestMakeIDOrdinal(t *testing.T) {
	a := MakeID("A.cls", "A.cls/A/run", "x", 0)
	b := MakeID("A.cls", "A.cls/A/run", "x", 1)
	if a == b {
		t.Error("ordinals must disambiguate repeated names")
	}
	if a.FileURI() != "A.cls" {
		t.Errorf("file uri: %q", a.FileURI())
	}
}
