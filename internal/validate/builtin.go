package validate

import (
	"context"
	"fmt"

	"github.com/apexlab/sema/internal/sym"
)

// NewBuiltinRegistry returns a registry preloaded with the built-in
// validators. Fast tier: duplicate declarations, modifier consistency, enum
// shape. Thorough tier: unresolved references, inheritance sanity.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, d := range []Descriptor{
		{
			ID: "dup-decl", Name: "duplicate declarations", Tier: TierFast, Priority: 10,
			Run: checkDuplicateDeclarations,
		},
		{
			ID: "modifiers", Name: "modifier consistency", Tier: TierFast, Priority: 20,
			Requires: Requirements{MinDetail: sym.DetailFull},
			Run:      checkModifiers,
		},
		{
			ID: "enum-shape", Name: "enum shape", Tier: TierFast, Priority: 30,
			Requires: Requirements{MinDetail: sym.DetailFull},
			Run:      checkEnumShape,
		},
		{
			ID: "unresolved", Name: "unresolved references", Tier: TierThorough, Priority: 10,
			Requires: Requirements{ResolvedRefs: true},
			Run:      checkUnresolvedRefs,
		},
		{
			ID: "inheritance", Name: "inheritance sanity", Tier: TierThorough, Priority: 20,
			Requires: Requirements{ResolvedRefs: true, CrossFileComplete: true},
			Run:      checkInheritance,
		},
	} {
		if err := r.Register(d); err != nil {
			panic(err) // built-in set is static; a duplicate is a programming error
		}
	}
	return r
}

// checkDuplicateDeclarations flags same-name declarations within one scope.
// Callable symbols may overload; everything else may not.
func checkDuplicateDeclarations(_ context.Context, in Input) []sym.Diagnostic {
	var diags []sym.Diagnostic
	in.Table.Root.Walk(func(scope *sym.Scope) {
		seen := make(map[string]*sym.Symbol)
		for _, s := range scope.Symbols {
			prev, dup := seen[s.Name]
			if !dup {
				seen[s.Name] = s
				continue
			}
			if prev.Kind.IsCallable() && s.Kind.IsCallable() {
				continue // overload
			}
			diags = append(diags, sym.Diagnostic{
				Code:     "dup-decl",
				Message:  fmt.Sprintf("duplicate declaration of %q in %s", s.Name, scope.Path),
				Severity: sym.SeverityError,
				Range:    s.Location.Identifier,
			})
		}
	})
	return diags
}

func checkModifiers(_ context.Context, in Input) []sym.Diagnostic {
	var diags []sym.Diagnostic
	for _, s := range in.Table.Symbols() {
		bad := func(msg string) {
			diags = append(diags, sym.Diagnostic{
				Code:     "modifiers",
				Message:  fmt.Sprintf("%s %q %s", s.Kind, s.Name, msg),
				Severity: sym.SeverityError,
				Range:    s.Location.Identifier,
			})
		}
		m := s.Modifiers
		if m.Has(sym.ModAbstract) && m.Has(sym.ModFinal) {
			bad("cannot be both abstract and final")
		}
		if m.Has(sym.ModVirtual) && m.Has(sym.ModFinal) {
			bad("cannot be both virtual and final")
		}
		if m.Has(sym.ModAbstract) && m.Has(sym.ModStatic) {
			bad("cannot be both abstract and static")
		}
		visible := 0
		for _, v := range []sym.Modifiers{sym.ModPublic, sym.ModPrivate, sym.ModProtected, sym.ModGlobal} {
			if m.Has(v) {
				visible++
			}
		}
		if visible > 1 {
			bad("declares more than one visibility")
		}
		if s.Kind == sym.KindConstructor && m.Has(sym.ModStatic) {
			bad("cannot be static")
		}
	}
	return diags
}

// checkEnumShape requires an enum to declare at least one value and nothing
// but values.
func checkEnumShape(_ context.Context, in Input) []sym.Diagnostic {
	var diags []sym.Diagnostic
	for _, s := range in.Table.Symbols() {
		if s.Kind != sym.KindEnum {
			continue
		}
		members := symbolsInScope(in.Table, s.ScopePath+"/"+s.Name)
		values := 0
		for _, member := range members {
			if member.Kind == sym.KindEnumValue {
				values++
				continue
			}
			diags = append(diags, sym.Diagnostic{
				Code:     "enum-shape",
				Message:  fmt.Sprintf("enum %q may only declare values, found %s %q", s.Name, member.Kind, member.Name),
				Severity: sym.SeverityError,
				Range:    member.Location.Identifier,
			})
		}
		if values == 0 {
			diags = append(diags, sym.Diagnostic{
				Code:     "enum-shape",
				Message:  fmt.Sprintf("enum %q declares no values", s.Name),
				Severity: sym.SeverityWarning,
				Range:    s.Location.Identifier,
			})
		}
	}
	return diags
}

func checkUnresolvedRefs(_ context.Context, in Input) []sym.Diagnostic {
	var diags []sym.Diagnostic
	for _, r := range in.Table.Refs {
		if r.State != sym.RefFailed {
			continue
		}
		var msg string
		switch r.Kind {
		case sym.RefInheritance:
			msg = fmt.Sprintf("unknown supertype %q", r.TargetName)
		case sym.RefInterfaceImpl:
			msg = fmt.Sprintf("unknown interface %q", r.TargetName)
		case sym.RefMethodCall:
			msg = fmt.Sprintf("cannot resolve call to %q", r.TargetName)
		case sym.RefFieldAccess:
			msg = fmt.Sprintf("cannot resolve field access %q", r.TargetName)
		case sym.RefConstructorCall:
			msg = fmt.Sprintf("unknown type in constructor call %q", r.TargetName)
		default:
			msg = fmt.Sprintf("unknown type %q", r.TargetName)
		}
		if r.FailReason != "" && r.FailReason != "not found" {
			msg += " (" + r.FailReason + ")"
		}
		diags = append(diags, sym.Diagnostic{
			Code:     "unresolved",
			Message:  msg,
			Severity: sym.SeverityError,
			Range:    r.Site,
		})
	}
	return diags
}

// checkInheritance verifies resolved supertype and interface edges point at
// the right kind of symbol and do not form a cycle.
func checkInheritance(_ context.Context, in Input) []sym.Diagnostic {
	if in.Graph == nil {
		return nil
	}
	var diags []sym.Diagnostic
	for _, r := range in.Table.Refs {
		if r.State != sym.RefResolved {
			continue
		}
		switch r.Kind {
		case sym.RefInheritance:
			target := in.Graph.Symbol(r.Target)
			if target == nil {
				continue
			}
			from := in.Table.Symbol(r.From)
			switch {
			case target.Kind != sym.KindClass && !(from != nil && from.Kind == sym.KindInterface && target.Kind == sym.KindInterface):
				diags = append(diags, sym.Diagnostic{
					Code:     "inheritance",
					Message:  fmt.Sprintf("cannot extend %s %q", target.Kind, target.Name),
					Severity: sym.SeverityError,
					Range:    r.Site,
				})
			case target.Modifiers.Has(sym.ModFinal):
				diags = append(diags, sym.Diagnostic{
					Code:     "inheritance",
					Message:  fmt.Sprintf("cannot extend final type %q", target.Name),
					Severity: sym.SeverityError,
					Range:    r.Site,
				})
			case hasSupertypeCycle(in, r.From):
				diags = append(diags, sym.Diagnostic{
					Code:     "inheritance",
					Message:  fmt.Sprintf("inheritance cycle through %q", target.Name),
					Severity: sym.SeverityError,
					Range:    r.Site,
				})
			}
		case sym.RefInterfaceImpl:
			target := in.Graph.Symbol(r.Target)
			if target != nil && target.Kind != sym.KindInterface {
				diags = append(diags, sym.Diagnostic{
					Code:     "inheritance",
					Message:  fmt.Sprintf("cannot implement %s %q", target.Kind, target.Name),
					Severity: sym.SeverityError,
					Range:    r.Site,
				})
			}
		}
	}
	return diags
}

// hasSupertypeCycle follows resolved inheritance edges from a symbol and
// reports whether they lead back to it.
func hasSupertypeCycle(in Input, start sym.ID) bool {
	seen := map[sym.ID]bool{start: true}
	current := start
	for {
		refs := in.Graph.FindReferencesFrom(current, sym.RefInheritance)
		var next sym.ID
		for _, r := range refs {
			if r.State == sym.RefResolved {
				next = r.Target
				break
			}
		}
		if next == "" {
			return false
		}
		if seen[next] {
			return true
		}
		seen[next] = true
		current = next
	}
}

func symbolsInScope(table *sym.Table, path string) []*sym.Symbol {
	var out []*sym.Symbol
	table.Root.Walk(func(s *sym.Scope) {
		if s.Path == path {
			out = append(out, s.Symbols...)
		}
	})
	return out
}
