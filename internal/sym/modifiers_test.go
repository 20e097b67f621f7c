package sym

import "testing"

func TestModifiersExpandPack(t *testing.T) {
	cases := []Modifiers{
		0,
		ModPublic | ModStatic,
		ModGlobal | ModWebService,
		ModPrivate | ModFinal | ModTransient,
		ModProtected | ModVirtual,
		ModPublic | ModAbstract | ModTest,
		ModOverride | ModBuiltIn,
	}
	for _, m := range cases {
		got := m.Expand().Pack()
		if got != m {
			t.Errorf("round-trip %v: got %v", m, got)
		}
	}
}

func TestVisibilityWidestWins(t *testing.T) {
	m := ModPrivate | ModGlobal
	if v := m.Visibility(); v != VisibilityGlobal {
		t.Errorf("expected global, got %v", v)
	}
}

func TestExpandIsTotal(t *testing.T) {
	// Every possible bitset must expand without panicking and pack to a
	// bitset with at most one visibility bit.
	for m := Modifiers(0); m < 1<<13; m++ {
		set := m.Expand()
		packed := set.Pack()
		vis := packed & (ModPublic | ModPrivate | ModProtected | ModGlobal)
		if vis != 0 && vis&(vis-1) != 0 {
			t.Fatalf("bitset %v packed multiple visibility bits", m)
		}
	}
}

func TestParseModifier(t *testing.T) {
	if ParseModifier("webservice") != ModWebService {
		t.Error("webservice")
	}
	if ParseModifier("isTest") != ModTest {
		t.Error("isTest should map to test bit")
	}
	if ParseModifier("frobnicate") != 0 {
		t.Error("unknown keyword should map to zero")
	}
}

func TestModifiersString(t *testing.T) {
	m := ModPublic | ModStatic | ModFinal
	if s := m.String(); s != "public static final" {
		t.Errorf("unexpected: %q", s)
	}
}
