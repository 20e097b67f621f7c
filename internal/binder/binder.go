// Package binder builds per-file symbol tables from parse trees. It records
// every declaration as a symbol and every use of another entity as a
// reference, leaving cross-file targets unresolved for the graph manager.
package binder

import (
	"strings"

	"github.com/apexlab/sema/internal/parsetree"
	"github.com/apexlab/sema/internal/sym"
)

type binder struct {
	fileURI string
	table   *sym.Table
	// ordinals counts name occurrences per scope path so shadowing
	// re-declarations still get unique identity keys.
	ordinals map[string]int
}

// Bind constructs a symbol table for one parsed file.
func Bind(tree *parsetree.Tree) *sym.Table {
	root := sym.NewFileScope(tree.FileURI, tree.Root.Range)
	b := &binder{
		fileURI:  tree.FileURI,
		table:    sym.NewTable(tree.FileURI, tree.Version, root),
		ordinals: make(map[string]int),
	}
	b.table.Namespace = tree.Root.Attr("namespace")
	for _, decl := range tree.Root.Children {
		b.bindDecl(decl, root, "")
	}
	return b.table
}

func (b *binder) newID(scope *sym.Scope, name string) sym.ID {
	key := scope.Path + "/" + name
	ord := b.ordinals[key]
	b.ordinals[key] = ord + 1
	return sym.MakeID(b.fileURI, scope.Path, name, ord)
}

func (b *binder) declare(scope *sym.Scope, node *parsetree.Node, kind sym.Kind, fqn string) *sym.Symbol {
	s := &sym.Symbol{
		ID:   b.newID(scope, node.Name),
		Kind: kind,
		Name: node.Name,
		FQN:  fqn,
		Location: sym.Location{
			URI:        b.fileURI,
			Decl:       node.Range,
			Identifier: node.IdentRange,
		},
		Namespace: b.table.Namespace,
		Modifiers: parseModifiers(node.Attr("modifiers")),
		Detail:    sym.DetailFull,
	}
	scope.Declare(s)
	return s
}

func (b *binder) ref(from sym.ID, kind sym.RefKind, target string, site sym.Range) *sym.Reference {
	r := &sym.Reference{From: from, Kind: kind, TargetName: target, State: sym.RefUnresolved, Site: site}
	b.table.Refs = append(b.table.Refs, r)
	return r
}

func (b *binder) bindDecl(node *parsetree.Node, scope *sym.Scope, outerFQN string) {
	switch node.Kind {
	case parsetree.NodeClassDecl, parsetree.NodeInterfaceDecl, parsetree.NodeEnumDecl:
		b.bindType(node, scope, outerFQN)
	case parsetree.NodeTriggerDecl:
		b.bindTrigger(node, scope)
	case parsetree.NodeMethodDecl, parsetree.NodeConstructorDecl:
		b.bindMethod(node, scope, outerFQN)
	case parsetree.NodeFieldDecl, parsetree.NodePropertyDecl:
		b.bindVariable(node, scope, fieldKind(node.Kind), outerFQN)
	case parsetree.NodeVariableDecl:
		b.bindVariable(node, scope, sym.KindVariable, "")
	case parsetree.NodeEnumValue:
		s := b.declare(scope, node, sym.KindEnumValue, joinFQN(outerFQN, node.Name))
		s.Variable = &sym.VariableInfo{DeclaredType: sym.TypeRef{Name: outerFQN}}
	}
}

func fieldKind(k parsetree.NodeKind) sym.Kind {
	if k == parsetree.NodePropertyDecl {
		return sym.KindProperty
	}
	return sym.KindField
}

func typeKind(k parsetree.NodeKind) sym.Kind {
	switch k {
	case parsetree.NodeInterfaceDecl:
		return sym.KindInterface
	case parsetree.NodeEnumDecl:
		return sym.KindEnum
	default:
		return sym.KindClass
	}
}

func (b *binder) bindType(node *parsetree.Node, scope *sym.Scope, outerFQN string) {
	fqn := joinFQN(outerFQN, node.Name)
	if outerFQN == "" && b.table.Namespace != "" {
		fqn = b.table.Namespace + "." + node.Name
	}
	s := b.declare(scope, node, typeKind(node.Kind), fqn)
	s.Type = &sym.TypeInfo{}

	if super := node.Attr("super"); super != "" {
		t := sym.ParseTypeRef(super)
		s.Type.SuperType = &t
		b.ref(s.ID, sym.RefInheritance, super, node.IdentRange)
	}
	if ifaces := node.Attr("interfaces"); ifaces != "" {
		for _, name := range strings.Split(ifaces, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			s.Type.Interfaces = append(s.Type.Interfaces, sym.ParseTypeRef(name))
			b.ref(s.ID, sym.RefInterfaceImpl, name, node.IdentRange)
		}
	}

	typeScope := scope.Child(sym.ScopeClass, node.Name, node.Range)
	for _, member := range node.Children {
		b.bindDecl(member, typeScope, fqn)
		// Containment edges for nested types bind immediately: both ends
		// live in this file.
		if member.Kind == parsetree.NodeClassDecl || member.Kind == parsetree.NodeInterfaceDecl || member.Kind == parsetree.NodeEnumDecl {
			if nested := typeScope.Lookup(member.Name); nested != nil {
				r := b.ref(s.ID, sym.RefContainment, nested.Name, member.IdentRange)
				r.Bind(nested.ID)
			}
		}
	}
}

// bindTrigger binds a trigger declaration. The trigger body behaves like a
// method body, and the platform-provided Trigger context variable is
// declared implicitly.
func (b *binder) bindTrigger(node *parsetree.Node, scope *sym.Scope) {
	s := b.declare(scope, node, sym.KindTrigger, node.Name)
	s.Type = &sym.TypeInfo{}
	trigScope := scope.Child(sym.ScopeTrigger, node.Name, node.Range)

	ctx := &sym.Symbol{
		ID:        b.newID(trigScope, "Trigger"),
		Kind:      sym.KindVariable,
		Name:      "Trigger",
		Location:  sym.Location{URI: b.fileURI, Decl: node.IdentRange, Identifier: node.IdentRange},
		Modifiers: sym.ModBuiltIn | sym.ModFinal,
		Detail:    sym.DetailFull,
		Variable:  &sym.VariableInfo{DeclaredType: sym.TypeRef{Name: "System.Trigger"}},
	}
	trigScope.Declare(ctx)

	for _, child := range node.Children {
		b.bindBody(child, trigScope, s.ID)
	}
}

func (b *binder) bindMethod(node *parsetree.Node, scope *sym.Scope, outerFQN string) {
	kind := sym.KindMethod
	if node.Kind == parsetree.NodeConstructorDecl {
		kind = sym.KindConstructor
	}
	s := b.declare(scope, node, kind, joinFQN(outerFQN, node.Name))
	s.Method = &sym.MethodInfo{ReturnType: sym.ParseTypeRef(node.Attr("type"))}

	methodScope := scope.Child(sym.ScopeMethod, node.Name, node.Range)

	// Instance methods see an implicit this parameter typed as the
	// enclosing class.
	if kind == sym.KindMethod && !s.Modifiers.Has(sym.ModStatic) && outerFQN != "" {
		this := &sym.Symbol{
			ID:        b.newID(methodScope, "this"),
			Kind:      sym.KindParameter,
			Name:      "this",
			Location:  sym.Location{URI: b.fileURI, Decl: node.IdentRange, Identifier: node.IdentRange},
			Modifiers: sym.ModBuiltIn | sym.ModFinal,
			Detail:    sym.DetailFull,
			Variable:  &sym.VariableInfo{DeclaredType: sym.TypeRef{Name: outerFQN}},
		}
		methodScope.Declare(this)
		s.Method.Parameters = append(s.Method.Parameters, this.ID)
	}

	for _, child := range node.Children {
		switch child.Kind {
		case parsetree.NodeParameterDecl:
			p := b.declare(methodScope, child, sym.KindParameter, "")
			p.Variable = &sym.VariableInfo{DeclaredType: sym.ParseTypeRef(child.Attr("type"))}
			s.Method.Parameters = append(s.Method.Parameters, p.ID)
			b.typeUse(p.ID, child.Attr("type"), child.IdentRange)
		default:
			b.bindBody(child, methodScope, s.ID)
		}
	}

	if rt := node.Attr("type"); rt != "" && !isVoid(rt) {
		b.typeUse(s.ID, rt, node.IdentRange)
	}
}

func (b *binder) bindVariable(node *parsetree.Node, scope *sym.Scope, kind sym.Kind, outerFQN string) {
	fqn := ""
	if outerFQN != "" {
		fqn = joinFQN(outerFQN, node.Name)
	}
	s := b.declare(scope, node, kind, fqn)
	s.Variable = &sym.VariableInfo{DeclaredType: sym.ParseTypeRef(node.Attr("type"))}
	b.typeUse(s.ID, node.Attr("type"), node.IdentRange)
}

// bindBody walks statement-level nodes inside a method/trigger body.
func (b *binder) bindBody(node *parsetree.Node, scope *sym.Scope, owner sym.ID) {
	switch node.Kind {
	case parsetree.NodeBlock:
		blockScope := scope.Child(sym.ScopeBlock, "block", node.Range)
		for _, c := range node.Children {
			b.bindBody(c, blockScope, owner)
		}
	case parsetree.NodeVariableDecl:
		b.bindVariable(node, scope, sym.KindVariable, "")
	case parsetree.NodeMethodCall:
		b.ref(owner, sym.RefMethodCall, node.Name, node.Range)
		for _, c := range node.Children {
			b.bindBody(c, scope, owner)
		}
	case parsetree.NodeFieldAccess:
		b.ref(owner, sym.RefFieldAccess, node.Name, node.Range)
	case parsetree.NodeNewExpr:
		b.ref(owner, sym.RefConstructorCall, node.Name, node.Range)
		b.typeUse(owner, node.Name, node.Range)
	case parsetree.NodeTypeRef:
		b.typeUse(owner, node.Name, node.Range)
	default:
		for _, c := range node.Children {
			b.bindBody(c, scope, owner)
		}
	}
}

// typeUse records a type-use reference for the named type and, recursively,
// each of its generic arguments.
func (b *binder) typeUse(from sym.ID, typeName string, site sym.Range) {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" || isVoid(typeName) {
		return
	}
	t := sym.ParseTypeRef(typeName)
	var walk func(tr sym.TypeRef)
	walk = func(tr sym.TypeRef) {
		b.ref(from, sym.RefTypeUse, tr.Name, site)
		for _, a := range tr.TypeArgs {
			walk(a)
		}
	}
	walk(t)
}

func isVoid(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "void")
}

func joinFQN(outer, name string) string {
	if outer == "" {
		return name
	}
	return outer + "." + name
}

func parseModifiers(attr string) sym.Modifiers {
	var m sym.Modifiers
	for _, kw := range strings.Fields(attr) {
		m |= sym.ParseModifier(kw)
	}
	return m
}
