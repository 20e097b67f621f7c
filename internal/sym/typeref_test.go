package sym

import "testing"

func TestParseTypeRefGenerics(t *testing.T) {
	got := ParseTypeRef("Map<Id, List<Account>>")
	if got.Name != "Map" || len(got.TypeArgs) != 2 {
		t.Fatalf("unexpected: %+v", got)
	}
	if got.TypeArgs[0].Name != "Id" {
		t.Errorf("first arg: %+v", got.TypeArgs[0])
	}
	if got.TypeArgs[1].Name != "List" || got.TypeArgs[1].TypeArgs[0].Name != "Account" {
		t.Errorf("nested args: %+v", got.TypeArgs[1])
	}
}

func TestParseTypeRefFlat(t *testing.T) {
	flat := ParseTypeRef("Schema.Account")
	if flat.Name != "Schema.Account" || len(flat.TypeArgs) != 0 {
		t.Errorf("flat: %+v", flat)
	}
	if flat.Namespace() != "Schema" {
		t.Errorf("namespace: %q", flat.Namespace())
	}
	if ParseTypeRef("Integer").Namespace() != "" {
		t.Error("unqualified name has no namespace")
	}
}

func TestParseTypeRefMalformed(t *testing.T) {
	// Unbalanced input degrades to a flat name.
	got := ParseTypeRef("List<Account")
	if got.Name != "List<Account" || len(got.TypeArgs) != 0 {
		t.Errorf("malformed: %+v", got)
	}
}

func TestTypeRefString(t *testing.T) {
	tr := ParseTypeRef("Map<Id, Account>")
	if s := tr.String(); s != "Map<Id,Account>" {
		t.Errorf("string: %q", s)
	}
}
