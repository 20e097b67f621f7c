// Package docstate memoizes the most recent semantic results per open file.
// One entry per URI; an exact (uri, version) match is the only cache hit.
// Capacity is the caller's concern — typically one entry per open document.
package docstate

import (
	"fmt"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/apexlab/sema/internal/sym"
)

// State is the cached semantic snapshot for a file version.
type State struct {
	URI            string
	Version        int
	ContentHash    string
	DocumentLength int
	Table          *sym.Table
	Diagnostics    []sym.Diagnostic
	SymbolsIndexed bool
}

// Partial carries the fields a Merge call wants to update. Nil pointers
// leave the stored value untouched; the merge is shallow and field-level.
type Partial struct {
	Version        *int
	ContentHash    *string
	DocumentLength *int
	Table          *sym.Table
	Diagnostics    []sym.Diagnostic
	SymbolsIndexed *bool
}

// Cache maps file URIs to their latest known state.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*State
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*State)}
}

// Get returns the state for an exact (uri, version) pair. Any version
// mismatch is a miss: superseded results must trigger full re-processing.
func (c *Cache) Get(uri string, version int) (*State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[uri]
	if !ok || st.Version != version {
		return nil, false
	}
	return st, true
}

// Latest returns the newest state for a URI regardless of version.
func (c *Cache) Latest(uri string) (*State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[uri]
	return st, ok
}

// Merge applies a shallow field-level update to a URI's entry, creating it
// if absent. If the partial carries a newer version, the superseded entry's
// derived fields are discarded rather than merged; a partial carrying an
// older version than the stored one is dropped entirely.
func (c *Cache) Merge(uri string, p Partial) *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entries[uri]
	if !ok {
		st = &State{URI: uri}
		c.entries[uri] = st
	}
	if p.Version != nil {
		switch {
		case *p.Version < st.Version:
			// A late merge for an already-superseded version never
			// regresses the entry.
			return st
		case *p.Version > st.Version:
			// Version supersedes: stale results do not carry forward.
			*st = State{URI: uri, Version: *p.Version}
		}
	}
	if p.ContentHash != nil {
		st.ContentHash = *p.ContentHash
	}
	if p.DocumentLength != nil {
		st.DocumentLength = *p.DocumentLength
	}
	if p.Table != nil {
		st.Table = p.Table
	}
	if p.Diagnostics != nil {
		st.Diagnostics = p.Diagnostics
	}
	if p.SymbolsIndexed != nil {
		st.SymbolsIndexed = *p.SymbolsIndexed
	}
	return st
}

// GetSymbolResult returns the memoized symbol table for an exact version,
// or nil on any miss.
func (c *Cache) GetSymbolResult(uri string, version int) *sym.Table {
	st, ok := c.Get(uri, version)
	if !ok || !st.SymbolsIndexed {
		return nil
	}
	return st.Table
}

// Remove drops a URI's entry entirely (file deletion).
func (c *Cache) Remove(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fingerprint hashes document content for dedup keys and change detection.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}
