package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apexlab/sema/internal/binder"
	"github.com/apexlab/sema/internal/docstate"
	"github.com/apexlab/sema/internal/graph"
)

// WorkspaceFile is one file handed to the initial index.
type WorkspaceFile struct {
	URI     string
	Content []byte
}

// IndexReport summarizes a workspace indexing run.
type IndexReport struct {
	Files       int
	ParseFailed int
	Symbols     int
	RefsBound   int
	RefsFailed  int
	Duration    time.Duration
	LoadOrder   []string
}

// IndexWorkspace builds the graph from scratch: parse and bind every file
// in parallel, merge the tables, then resolve in namespace load order.
// Cross-file validators unlock once this completes.
func (e *Engine) IndexWorkspace(ctx context.Context, files []WorkspaceFile) (IndexReport, error) {
	start := time.Now()
	slog.Info("index.start", "files", len(files))

	var mu sync.Mutex
	report := IndexReport{Files: len(files)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree, diags := e.provider.Parse(f.URI, 0, f.Content)
			hash := docstate.Fingerprint(f.Content)
			length := len(f.Content)
			version := 0
			e.cache.Merge(f.URI, docstate.Partial{
				Version:        &version,
				ContentHash:    &hash,
				DocumentLength: &length,
				Diagnostics:    diags,
			})
			if tree == nil {
				mu.Lock()
				report.ParseFailed++
				mu.Unlock()
				slog.Warn("index.parse_failed", "uri", f.URI, "diags", len(diags))
				return nil
			}
			table := binder.Bind(tree)
			if err := e.graph.AddSymbolTable(table); err != nil {
				return err
			}
			indexed := true
			e.cache.Merge(f.URI, docstate.Partial{Table: table, SymbolsIndexed: &indexed})
			mu.Lock()
			report.Symbols += len(table.Symbols())
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	slog.Info("index.merge.done", "symbols", report.Symbols, "parse_failed", report.ParseFailed)

	// Resolve dependencies before dependents so supertype chains are
	// already in place when a file's references bind.
	order := graph.LoadOrder(e.graph.NamespaceDependencies())
	report.LoadOrder = order
	rank := make(map[string]int, len(order))
	for i, ns := range order {
		rank[ns] = i
	}
	uris := e.graph.Files()
	sortByNamespaceRank(uris, e.graph, rank)
	yield := func() error { return ctx.Err() }
	for _, uri := range uris {
		res, err := e.graph.ResolveFile(uri, yield)
		report.RefsBound += res.Bound
		report.RefsFailed += res.Failed
		if err != nil {
			return report, err
		}
	}

	e.workspaceReady.Store(true)
	report.Duration = time.Since(start)
	slog.Info("index.done", "files", report.Files, "symbols", report.Symbols,
		"bound", report.RefsBound, "failed", report.RefsFailed,
		"namespaces", len(order), "took", report.Duration)
	return report, nil
}

// WorkspaceReady reports whether the initial index has completed.
func (e *Engine) WorkspaceReady() bool { return e.workspaceReady.Load() }

func sortByNamespaceRank(uris []string, m *graph.Manager, rank map[string]int) {
	nsOf := func(uri string) int {
		meta, ok := m.Meta(uri)
		if !ok {
			return len(rank)
		}
		ns := meta.Namespace
		if ns == "" {
			ns = "default"
		}
		if r, ok := rank[ns]; ok {
			return r
		}
		return len(rank)
	}
	sort.Slice(uris, func(i, j int) bool {
		ri, rj := nsOf(uris[i]), nsOf(uris[j])
		if ri != rj {
			return ri < rj
		}
		return uris[i] < uris[j]
	})
}
