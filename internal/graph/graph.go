// Package graph owns the authoritative multi-file symbol graph: per-file
// symbol tables, the cross-file reference index, and the scope hierarchy.
// Structural mutation is serialized per file; read queries run concurrently.
// Consistency is file-scoped — no operation spans a transaction across files.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/apexlab/sema/internal/stdlib"
	"github.com/apexlab/sema/internal/sym"
)

// ErrStale is returned when a table for an older document version arrives
// after a newer one has already been merged. The caller must no-op.
var ErrStale = errors.New("graph: superseded symbol table")

const defaultLookupCacheSize = 4096

// FileMeta is the lightweight per-file record kept for every file in the
// graph: scope paths and counts, not table contents. Queries that only need
// existence or hierarchy information are answered from here without
// touching the full table.
type FileMeta struct {
	URI         string
	Version     int
	Namespace   string
	ScopePaths  []string
	SymbolCount int
	RefCount    int
}

type fileEntry struct {
	mu    sync.Mutex // serializes mutation of this file's table
	table *sym.Table
	meta  FileMeta
}

// Manager is the symbol graph manager.
type Manager struct {
	mu      sync.RWMutex
	files   map[string]*fileEntry
	byFQN   map[string]sym.ID
	byName  map[string][]sym.ID
	refsTo  map[sym.ID][]*sym.Reference
	stdlib  stdlib.Provider
	stdOnce map[string]*sync.Once // fqn -> materialization guard

	lookupCache *lru.Cache[string, sym.ID]
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// yieldStride is the number of references resolved between cooperative
	// checkpoints. Set once at wiring time, before any resolution runs.
	yieldStride int
}

// New creates an empty graph bound to a standard-library provider.
func New(provider stdlib.Provider) *Manager {
	cache, _ := lru.New[string, sym.ID](defaultLookupCacheSize)
	return &Manager{
		files:       make(map[string]*fileEntry),
		byFQN:       make(map[string]sym.ID),
		byName:      make(map[string][]sym.ID),
		refsTo:      make(map[sym.ID][]*sym.Reference),
		stdlib:      provider,
		stdOnce:     make(map[string]*sync.Once),
		lookupCache: cache,
		yieldStride: yieldEvery,
	}
}

// SetYieldStride overrides how many references ResolveFile processes between
// cooperative checkpoints. Values below 1 keep the current stride.
func (m *Manager) SetYieldStride(n int) {
	if n > 0 {
		m.yieldStride = n
	}
}

// AddSymbolTable merges a file's table into the graph, replacing any
// existing table for that file. The merge is structurally complete on
// return; reference resolution is a separate step. A table older than the
// one already merged is rejected with ErrStale.
func (m *Manager) AddSymbolTable(table *sym.Table) error {
	if table == nil || table.Root == nil {
		return fmt.Errorf("graph: nil table")
	}
	m.mu.Lock()
	entry, ok := m.files[table.FileURI]
	if !ok {
		entry = &fileEntry{}
		m.files[table.FileURI] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.table != nil && entry.table.Version > table.Version {
		return fmt.Errorf("%w: have v%d, got v%d", ErrStale, entry.table.Version, table.Version)
	}

	m.mu.Lock()
	if entry.table != nil {
		m.unindexLocked(entry.table)
	}
	entry.table = table
	entry.meta = metaOf(table)
	m.indexLocked(table)
	m.mu.Unlock()

	m.lookupCache.Purge()
	slog.Debug("graph.add", "uri", table.FileURI, "version", table.Version,
		"symbols", entry.meta.SymbolCount, "refs", entry.meta.RefCount)
	return nil
}

// RemoveFile deletes a file's symbols, scopes and references entirely.
// Used only on file deletion; closing a file keeps its symbols.
func (m *Manager) RemoveFile(uri string) {
	m.mu.Lock()
	entry, ok := m.files[uri]
	if ok {
		if entry.table != nil {
			m.unindexLocked(entry.table)
		}
		delete(m.files, uri)
	}
	m.mu.Unlock()
	if ok {
		m.lookupCache.Purge()
		slog.Debug("graph.remove", "uri", uri)
	}
}

// indexLocked adds a table's symbols and resolved references to the global
// indexes. Caller holds m.mu.
func (m *Manager) indexLocked(table *sym.Table) {
	for _, s := range table.Symbols() {
		if s.FQN != "" {
			m.byFQN[s.FQN] = s.ID
		}
		m.byName[s.Name] = append(m.byName[s.Name], s.ID)
	}
	for _, r := range table.Refs {
		if r.State == sym.RefResolved {
			m.refsTo[r.Target] = append(m.refsTo[r.Target], r)
		}
	}
}

// unindexLocked removes a table's contributions. Caller holds m.mu.
func (m *Manager) unindexLocked(table *sym.Table) {
	for _, s := range table.Symbols() {
		if s.FQN != "" && m.byFQN[s.FQN] == s.ID {
			delete(m.byFQN, s.FQN)
		}
		ids := m.byName[s.Name]
		for i, id := range ids {
			if id == s.ID {
				m.byName[s.Name] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(m.byName[s.Name]) == 0 {
			delete(m.byName, s.Name)
		}
	}
	uri := table.FileURI
	for target, refs := range m.refsTo {
		kept := refs[:0]
		for _, r := range refs {
			if r.From.FileURI() != uri {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(m.refsTo, target)
		} else {
			m.refsTo[target] = kept
		}
	}
}

func metaOf(table *sym.Table) FileMeta {
	meta := FileMeta{
		URI:       table.FileURI,
		Version:   table.Version,
		Namespace: table.Namespace,
		RefCount:  len(table.Refs),
	}
	table.Root.Walk(func(s *sym.Scope) {
		meta.ScopePaths = append(meta.ScopePaths, s.Path)
		meta.SymbolCount += len(s.Symbols)
	})
	return meta
}

// Table returns the current table for a file, or nil.
func (m *Manager) Table(uri string) *sym.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.files[uri]; ok {
		return entry.table
	}
	return nil
}

// Meta returns the lightweight metadata for a file.
func (m *Manager) Meta(uri string) (FileMeta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.files[uri]; ok {
		return entry.meta, true
	}
	return FileMeta{}, false
}

// Files lists the URIs currently in the graph.
func (m *Manager) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for uri := range m.files {
		out = append(out, uri)
	}
	return out
}

// Symbol resolves an identity key to its symbol via the owning table.
func (m *Manager) Symbol(id sym.ID) *sym.Symbol {
	table := m.Table(id.FileURI())
	if table == nil {
		return nil
	}
	return table.Symbol(id)
}

// FindSymbolByFQN looks a symbol up by fully-qualified name. Hits are
// served from a bounded LRU cache.
func (m *Manager) FindSymbolByFQN(fqn string) *sym.Symbol {
	if id, ok := m.lookupCache.Get(fqn); ok {
		m.cacheHits.Add(1)
		return m.Symbol(id)
	}
	m.cacheMisses.Add(1)
	m.mu.RLock()
	id, ok := m.byFQN[fqn]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	m.lookupCache.Add(fqn, id)
	return m.Symbol(id)
}

// FindSymbolsByName returns every symbol with the given simple name.
func (m *Manager) FindSymbolsByName(name string) []*sym.Symbol {
	m.mu.RLock()
	ids := append([]sym.ID(nil), m.byName[name]...)
	m.mu.RUnlock()
	var out []*sym.Symbol
	for _, id := range ids {
		if s := m.Symbol(id); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// SymbolsInScope returns the symbols declared directly in a scope path of a
// file, or in the whole hierarchy below it when recursive is set.
func (m *Manager) SymbolsInScope(uri, scopePath string, recursive bool) []*sym.Symbol {
	table := m.Table(uri)
	if table == nil {
		return nil
	}
	var out []*sym.Symbol
	table.Root.Walk(func(s *sym.Scope) {
		match := s.Path == scopePath
		if recursive {
			match = match || len(s.Path) > len(scopePath) &&
				s.Path[:len(scopePath)+1] == scopePath+"/"
		}
		if match {
			out = append(out, s.Symbols...)
		}
	})
	return out
}

// FindReferencesTo returns references bound to the target symbol, optionally
// filtered by kind (sym.RefInvalid means all kinds).
func (m *Manager) FindReferencesTo(target sym.ID, kind sym.RefKind) []*sym.Reference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*sym.Reference
	for _, r := range m.refsTo[target] {
		if kind == sym.RefInvalid || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// FindReferencesFrom returns the references originating at a symbol,
// optionally filtered by kind.
func (m *Manager) FindReferencesFrom(from sym.ID, kind sym.RefKind) []*sym.Reference {
	table := m.Table(from.FileURI())
	if table == nil {
		return nil
	}
	var out []*sym.Reference
	for _, r := range table.Refs {
		if r.From != from {
			continue
		}
		if kind == sym.RefInvalid || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}
