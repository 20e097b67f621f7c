package graph

import (
	"log/slog"
	"sort"

	"github.com/apexlab/sema/internal/sym"
)

// NamespaceDependency records one namespace, the namespaces it depends on,
// and how many types it declares. Dependencies are derived from supertypes,
// interfaces, and field/parameter/return types across the namespace's
// classes, with generic parameters unwrapped recursively.
type NamespaceDependency struct {
	Name       string
	DependsOn  []string
	ClassCount int
}

// foundationalNamespaces is the fixed fallback ordering used when the
// dependency graph is cyclic: the namespaces most other code depends on
// load first, everything else after.
var foundationalNamespaces = []string{"System", "Schema", "Database", "ApexPages"}

// NamespaceDependencies scans every project file in the graph and builds a
// dependency record per namespace. Library tables are skipped: the standard
// library has no load-order obligations toward project code.
func (m *Manager) NamespaceDependencies() []NamespaceDependency {
	m.mu.RLock()
	tables := make([]*sym.Table, 0, len(m.files))
	for _, entry := range m.files {
		if entry.table != nil && !entry.table.IsLibrary() {
			tables = append(tables, entry.table)
		}
	}
	m.mu.RUnlock()

	type record struct {
		deps    map[string]bool
		classes int
	}
	records := make(map[string]*record)
	for _, table := range tables {
		ns := table.Namespace
		if ns == "" {
			ns = "default"
		}
		rec, ok := records[ns]
		if !ok {
			rec = &record{deps: make(map[string]bool)}
			records[ns] = rec
		}
		for _, s := range table.Symbols() {
			if s.Kind.IsType() {
				rec.classes++
			}
			for _, t := range s.ReferencedTypes() {
				if dep := t.Namespace(); dep != "" && dep != ns {
					rec.deps[dep] = true
				}
			}
		}
	}

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NamespaceDependency, 0, len(names))
	for _, name := range names {
		rec := records[name]
		deps := make([]string, 0, len(rec.deps))
		for d := range rec.deps {
			deps = append(deps, d)
		}
		sort.Strings(deps)
		out = append(out, NamespaceDependency{Name: name, DependsOn: deps, ClassCount: rec.classes})
	}
	return out
}

// LoadOrder computes the namespace load order: a topological sort when the
// dependency graph is acyclic (dependencies before dependents), or the
// deterministic foundational-first fallback when a cycle is detected.
// Forward progress beats ordering correctness for cyclic input.
func LoadOrder(deps []NamespaceDependency) []string {
	// Collect every node: declared namespaces plus referenced-only ones.
	nodes := make(map[string]bool)
	edges := make(map[string][]string) // dependency -> dependents
	indegree := make(map[string]int)
	for _, d := range deps {
		nodes[d.Name] = true
		for _, dep := range d.DependsOn {
			nodes[dep] = true
		}
	}
	for _, d := range deps {
		for _, dep := range d.DependsOn {
			edges[dep] = append(edges[dep], d.Name)
			indegree[d.Name]++
		}
	}

	// Kahn's algorithm with a sorted frontier for determinism.
	var frontier []string
	for n := range nodes {
		if indegree[n] == 0 {
			frontier = append(frontier, n)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(nodes))
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		order = append(order, n)
		next := append([]string(nil), edges[n]...)
		sort.Strings(next)
		for _, dependent := range next {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				frontier = append(frontier, dependent)
			}
		}
		sort.Strings(frontier)
	}

	if len(order) == len(nodes) {
		return order
	}

	// Cycle: fall back to foundational namespaces first, the rest
	// alphabetical. Stable for identical input by construction.
	slog.Warn("graph.namespace.cycle", "resolved", len(order), "total", len(nodes))
	inOrder := make(map[string]bool)
	fallback := make([]string, 0, len(nodes))
	for _, f := range foundationalNamespaces {
		if nodes[f] {
			fallback = append(fallback, f)
			inOrder[f] = true
		}
	}
	var rest []string
	for n := range nodes {
		if !inOrder[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(fallback, rest...)
}
