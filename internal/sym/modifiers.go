package sym

import "strings"

// Modifiers is a compact bitset of declaration modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModPrivate
	ModProtected
	ModGlobal
	ModStatic
	ModFinal
	ModAbstract
	ModVirtual
	ModOverride
	ModTransient
	ModTest
	ModWebService
	ModBuiltIn
)

// Visibility names the access level encoded in a modifier set.
type Visibility uint8

const (
	VisibilityDefault Visibility = iota // file-private, no keyword
	VisibilityPrivate
	VisibilityProtected
	VisibilityPublic
	VisibilityGlobal
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	case VisibilityGlobal:
		return "global"
	default:
		return "default"
	}
}

// ModifierSet is the expanded view of a Modifiers bitset. Conversion in both
// directions is pure and total: every bitset expands, every set packs.
type ModifierSet struct {
	Visibility Visibility `json:"visibility"`
	Static     bool       `json:"static,omitempty"`
	Final      bool       `json:"final,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
	Virtual    bool       `json:"virtual,omitempty"`
	Override   bool       `json:"override,omitempty"`
	Transient  bool       `json:"transient,omitempty"`
	Test       bool       `json:"test,omitempty"`
	WebService bool       `json:"web_service,omitempty"`
	BuiltIn    bool       `json:"built_in,omitempty"`
}

// Has reports whether every bit in mask is set.
func (m Modifiers) Has(mask Modifiers) bool { return m&mask == mask }

// With returns a copy with the given bits set.
func (m Modifiers) With(mask Modifiers) Modifiers { return m | mask }

// Visibility extracts the access level. If multiple visibility bits are set
// the widest wins; malformed input still expands to something definite.
func (m Modifiers) Visibility() Visibility {
	switch {
	case m.Has(ModGlobal):
		return VisibilityGlobal
	case m.Has(ModPublic):
		return VisibilityPublic
	case m.Has(ModProtected):
		return VisibilityProtected
	case m.Has(ModPrivate):
		return VisibilityPrivate
	default:
		return VisibilityDefault
	}
}

// Expand converts the bitset to its structured view.
func (m Modifiers) Expand() ModifierSet {
	return ModifierSet{
		Visibility: m.Visibility(),
		Static:     m.Has(ModStatic),
		Final:      m.Has(ModFinal),
		Abstract:   m.Has(ModAbstract),
		Virtual:    m.Has(ModVirtual),
		Override:   m.Has(ModOverride),
		Transient:  m.Has(ModTransient),
		Test:       m.Has(ModTest),
		WebService: m.Has(ModWebService),
		BuiltIn:    m.Has(ModBuiltIn),
	}
}

// Pack converts the structured view back to a bitset.
func (s ModifierSet) Pack() Modifiers {
	var m Modifiers
	switch s.Visibility {
	case VisibilityPrivate:
		m |= ModPrivate
	case VisibilityProtected:
		m |= ModProtected
	case VisibilityPublic:
		m |= ModPublic
	case VisibilityGlobal:
		m |= ModGlobal
	}
	if s.Static {
		m |= ModStatic
	}
	if s.Final {
		m |= ModFinal
	}
	if s.Abstract {
		m |= ModAbstract
	}
	if s.Virtual {
		m |= ModVirtual
	}
	if s.Override {
		m |= ModOverride
	}
	if s.Transient {
		m |= ModTransient
	}
	if s.Test {
		m |= ModTest
	}
	if s.WebService {
		m |= ModWebService
	}
	if s.BuiltIn {
		m |= ModBuiltIn
	}
	return m
}

var modifierNames = []struct {
	bit  Modifiers
	name string
}{
	{ModGlobal, "global"},
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModAbstract, "abstract"},
	{ModVirtual, "virtual"},
	{ModOverride, "override"},
	{ModTransient, "transient"},
	{ModTest, "testmethod"},
	{ModWebService, "webservice"},
	{ModBuiltIn, "builtin"},
}

func (m Modifiers) String() string {
	var parts []string
	for _, mn := range modifierNames {
		if m.Has(mn.bit) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifier maps a source keyword to its bit. Unknown keywords map to 0.
func ParseModifier(keyword string) Modifiers {
	switch strings.ToLower(keyword) {
	case "global":
		return ModGlobal
	case "public":
		return ModPublic
	case "protected":
		return ModProtected
	case "private":
		return ModPrivate
	case "static":
		return ModStatic
	case "final":
		return ModFinal
	case "abstract":
		return ModAbstract
	case "virtual":
		return ModVirtual
	case "override":
		return ModOverride
	case "transient":
		return ModTransient
	case "testmethod", "istest":
		return ModTest
	case "webservice":
		return ModWebService
	default:
		return 0
	}
}
