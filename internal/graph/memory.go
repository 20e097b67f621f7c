package graph

import (
	"fmt"
	"log/slog"
)

// Stats is a point-in-time snapshot of graph occupancy and lookup cache
// efficiency.
type Stats struct {
	Files        int
	LibraryFiles int
	Symbols      int
	References   int
	Namespaces   int
	CacheEntries int
	CacheHits    int64
	CacheMisses  int64
	HitRatio     float64
}

// OptimizeReport summarizes one memory optimization pass.
type OptimizeReport struct {
	SymbolsBefore    int
	SymbolsAfter     int
	EvictedLibraries int
	ReductionPercent float64
	HitRatio         float64
	Recommendations  []string
}

// Stats returns current graph usage numbers.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	st := Stats{
		Files:        len(m.files),
		CacheEntries: m.lookupCache.Len(),
	}
	namespaces := make(map[string]bool)
	for _, entry := range m.files {
		if entry.table == nil {
			continue
		}
		st.Symbols += entry.meta.SymbolCount
		st.References += entry.meta.RefCount
		if entry.table.IsLibrary() {
			st.LibraryFiles++
		} else if entry.meta.Namespace != "" {
			namespaces[entry.meta.Namespace] = true
		}
	}
	m.mu.RUnlock()
	st.Namespaces = len(namespaces)
	st.CacheHits = m.cacheHits.Load()
	st.CacheMisses = m.cacheMisses.Load()
	if total := st.CacheHits + st.CacheMisses; total > 0 {
		st.HitRatio = float64(st.CacheHits) / float64(total)
	}
	return st
}

// Optimize runs a memory optimization pass: library tables with no inbound
// resolved references are evicted (they re-materialize lazily on the next
// lookup), and the report carries the reduction achieved plus tuning
// recommendations. Project tables are never evicted; their lifetime is
// owned by document events.
func (m *Manager) Optimize() OptimizeReport {
	before := m.Stats()

	m.mu.RLock()
	var candidates []string
	for uri, entry := range m.files {
		if entry.table == nil || !entry.table.IsLibrary() {
			continue
		}
		referenced := false
		for _, s := range entry.table.Symbols() {
			if len(m.refsTo[s.ID]) > 0 {
				referenced = true
				break
			}
		}
		if !referenced {
			candidates = append(candidates, uri)
		}
	}
	m.mu.RUnlock()

	for _, uri := range candidates {
		m.releaseLibrary(uri)
	}

	after := m.Stats()
	report := OptimizeReport{
		SymbolsBefore:    before.Symbols,
		SymbolsAfter:     after.Symbols,
		EvictedLibraries: len(candidates),
		HitRatio:         after.HitRatio,
	}
	if before.Symbols > 0 {
		report.ReductionPercent = 100 * float64(before.Symbols-after.Symbols) / float64(before.Symbols)
	}
	report.Recommendations = recommend(after, report)

	slog.Info("graph.optimize",
		"evicted", report.EvictedLibraries,
		"symbols_before", report.SymbolsBefore,
		"symbols_after", report.SymbolsAfter,
		"reduction_pct", fmt.Sprintf("%.1f", report.ReductionPercent),
		"hit_ratio", fmt.Sprintf("%.2f", report.HitRatio))
	return report
}

// releaseLibrary drops a materialized library table and clears its
// materialization guards so a later lookup can rebuild it.
func (m *Manager) releaseLibrary(uri string) {
	m.mu.Lock()
	entry, ok := m.files[uri]
	if ok && entry.table != nil {
		for _, s := range entry.table.TopLevelTypes() {
			delete(m.stdOnce, s.FQN)
		}
		m.unindexLocked(entry.table)
		delete(m.files, uri)
	}
	m.mu.Unlock()
	if ok {
		m.lookupCache.Purge()
	}
}

func recommend(st Stats, report OptimizeReport) []string {
	var recs []string
	lookups := st.CacheHits + st.CacheMisses
	if lookups >= 100 && st.HitRatio < 0.5 {
		recs = append(recs, fmt.Sprintf("lookup cache hit ratio is %.0f%%; consider a larger cache", st.HitRatio*100))
	}
	if report.EvictedLibraries == 0 && st.LibraryFiles > 0 {
		recs = append(recs, "all materialized library types are referenced; nothing to evict")
	}
	if st.Files > 0 && st.Symbols/st.Files > 500 {
		recs = append(recs, "files average over 500 symbols; large files slow re-compilation")
	}
	if len(recs) == 0 {
		recs = append(recs, "graph is within expected bounds")
	}
	return recs
}
