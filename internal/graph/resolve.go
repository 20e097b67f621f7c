package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/apexlab/sema/internal/stdlib"
	"github.com/apexlab/sema/internal/sym"
)

// ResolveResult summarizes one cross-file resolution run. Failures are
// per-reference and queryable from the references themselves; the run never
// aborts because a single reference could not be bound.
type ResolveResult struct {
	Bound  int
	Failed int
}

// yieldEvery is the default number of references processed between
// cooperative checkpoints when the caller supplies one.
const yieldEvery = 64

// ResolveFile attempts to bind every unresolved reference originating in a
// file: same-file first, then standard-library namespaces, then
// project-wide. yield, when non-nil, is invoked periodically; a non-nil
// return stops the run early at a reference boundary, leaving already-bound
// references intact.
//
// Binding mutates reference state, so the run holds the file's mutation lock
// the same way a table merge does. The run always binds the file's current
// table: a resolver scheduled against a since-superseded version finds the
// newer table's references here, and a re-run over already-bound references
// is a no-op.
func (m *Manager) ResolveFile(uri string, yield func() error) (ResolveResult, error) {
	m.mu.RLock()
	entry, ok := m.files[uri]
	m.mu.RUnlock()
	if !ok {
		return ResolveResult{}, fmt.Errorf("graph: no table for %s", uri)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	table := entry.table
	if table == nil {
		return ResolveResult{}, fmt.Errorf("graph: no table for %s", uri)
	}

	stride := m.yieldStride
	var res ResolveResult
	for i, ref := range table.Refs {
		if ref.State != sym.RefUnresolved {
			continue
		}
		if yield != nil && i%stride == stride-1 {
			if err := yield(); err != nil {
				return res, err
			}
		}
		if target, reason := m.resolveTarget(table, ref); target != "" {
			ref.Bind(target)
			m.mu.Lock()
			m.refsTo[target] = append(m.refsTo[target], ref)
			m.mu.Unlock()
			res.Bound++
		} else {
			ref.Fail(reason)
			res.Failed++
		}
	}

	slog.Debug("graph.resolve.done", "uri", uri, "bound", res.Bound, "failed", res.Failed)
	return res, nil
}

// resolveTarget finds the identity of a reference's target, or returns a
// failure reason. Resolution order mirrors lookup semantics: enclosing
// scopes, file-local declarations, standard-library namespaces, then the
// whole project.
func (m *Manager) resolveTarget(table *sym.Table, ref *sym.Reference) (sym.ID, string) {
	name := strings.TrimSpace(ref.TargetName)
	if name == "" {
		return "", "empty target name"
	}

	// 1. Scope chain from the referencing symbol outward.
	if from := table.Symbol(ref.From); from != nil {
		if scope := scopeByPath(table.Root, from.ScopePath); scope != nil {
			if s := scope.LookupChain(name); s != nil {
				return s.ID, ""
			}
		}
	}

	// 2. File-local declarations by simple or dotted name.
	for _, s := range table.Symbols() {
		if s.Name == name || s.FQN == name {
			return s.ID, ""
		}
	}

	// 3. Member access through a resolvable prefix ("recv.member").
	if prefix, member, ok := strings.Cut(name, "."); ok {
		if id, reason := m.resolveMember(table, prefix, member); id != "" || reason != "" {
			return id, reason
		}
	}

	// 4. Standard library: an explicit namespace prefix, or the implicit
	// System namespace for bare names.
	if id := m.resolveStandard(name); id != "" {
		return id, ""
	}

	// 5. Project-wide FQN, then unambiguous simple name.
	m.mu.RLock()
	if id, ok := m.byFQN[name]; ok {
		m.mu.RUnlock()
		return id, ""
	}
	candidates := append([]sym.ID(nil), m.byName[name]...)
	m.mu.RUnlock()
	switch len(candidates) {
	case 0:
		return "", "not found"
	case 1:
		return candidates[0], ""
	default:
		return "", fmt.Sprintf("ambiguous: %d candidates", len(candidates))
	}
}

// resolveMember binds "prefix.member" when the prefix names a type or a
// typed variable whose type is known to the graph. Returns ("", "") when
// the prefix cannot be interpreted, letting later strategies run.
func (m *Manager) resolveMember(table *sym.Table, prefix, member string) (sym.ID, string) {
	typeFQN := ""

	// Prefix as a variable in this file: use its declared type.
	for _, s := range table.Symbols() {
		if s.Name == prefix && s.Variable != nil {
			typeFQN = s.Variable.DeclaredType.Name
			break
		}
	}
	// Prefix as a type name, project or standard library.
	if typeFQN == "" {
		if t := m.FindSymbolByFQN(prefix); t != nil && t.Kind.IsType() {
			typeFQN = t.QualifiedName()
		} else if id := m.resolveStandard(prefix); id != "" {
			if t := m.Symbol(id); t != nil {
				typeFQN = t.QualifiedName()
			}
		}
	}
	if typeFQN == "" {
		return "", ""
	}

	if id := m.memberOf(typeFQN, member); id != "" {
		return id, ""
	}
	return "", fmt.Sprintf("no member %s on %s", member, typeFQN)
}

// memberOf finds a member symbol inside a type's table, following the
// type's supertype chain.
func (m *Manager) memberOf(typeFQN, member string) sym.ID {
	seen := make(map[string]bool)
	for typeFQN != "" && !seen[typeFQN] {
		seen[typeFQN] = true
		t := m.FindSymbolByFQN(typeFQN)
		if t == nil {
			if id := m.resolveStandard(typeFQN); id != "" {
				t = m.Symbol(id)
			}
		}
		if t == nil || t.Type == nil {
			return ""
		}
		owner := m.Table(t.ID.FileURI())
		if owner == nil {
			return ""
		}
		for _, s := range owner.Symbols() {
			if s.Name == member && s.ScopePath != owner.Root.Path {
				return s.ID
			}
		}
		if t.Type.SuperType == nil {
			return ""
		}
		typeFQN = t.Type.SuperType.Name
	}
	return ""
}

// resolveStandard tries the standard library for a type name, materializing
// its table on first use. Bare names are retried under the implicit System
// namespace.
func (m *Manager) resolveStandard(name string) sym.ID {
	if m.stdlib == nil {
		return ""
	}
	candidates := []string{}
	if strings.Contains(name, ".") {
		candidates = append(candidates, name)
	} else {
		candidates = append(candidates, "System."+name)
	}
	for _, fqn := range candidates {
		if s, err := m.ResolveStandardApexClass(fqn); err == nil {
			return s.ID
		}
	}
	return ""
}

// ResolveStandardApexClass materializes a standard-library type's full
// symbol data on first use and merges it into the graph. Subsequent calls
// are served from the graph.
func (m *Manager) ResolveStandardApexClass(fqn string) (*sym.Symbol, error) {
	if s := m.FindSymbolByFQN(fqn); s != nil && s.Modifiers.Has(sym.ModBuiltIn) {
		return s, nil
	}
	if m.stdlib == nil {
		return nil, fmt.Errorf("graph: no standard-library provider")
	}

	m.mu.Lock()
	once, ok := m.stdOnce[fqn]
	if !ok {
		once = &sync.Once{}
		m.stdOnce[fqn] = once
	}
	m.mu.Unlock()

	var materializeErr error
	once.Do(func() {
		table, err := m.stdlib.Materialize(fqn)
		if err != nil {
			materializeErr = err
			return
		}
		materializeErr = m.AddSymbolTable(table)
	})
	if materializeErr != nil {
		// Negative results are not cached permanently: a later provider
		// might know the type.
		if errors.Is(materializeErr, stdlib.ErrNotFound) {
			m.mu.Lock()
			delete(m.stdOnce, fqn)
			m.mu.Unlock()
		}
		return nil, materializeErr
	}
	if s := m.FindSymbolByFQN(fqn); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("type %s: %w", fqn, stdlib.ErrNotFound)
}

func scopeByPath(root *sym.Scope, path string) *sym.Scope {
	var found *sym.Scope
	root.Walk(func(s *sym.Scope) {
		if s.Path == path {
			found = s
		}
	})
	return found
}
