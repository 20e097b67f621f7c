// Package engine wires the semantic components together and drives them
// from document lifecycle events. Each event schedules a compile pipeline
// (parse, bind, merge, resolve, validate) at an event-appropriate priority;
// results land in the document state cache and the symbol graph.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/apexlab/sema/internal/binder"
	"github.com/apexlab/sema/internal/config"
	"github.com/apexlab/sema/internal/docstate"
	"github.com/apexlab/sema/internal/graph"
	"github.com/apexlab/sema/internal/parsetree"
	"github.com/apexlab/sema/internal/sched"
	"github.com/apexlab/sema/internal/stdlib"
	"github.com/apexlab/sema/internal/sym"
	"github.com/apexlab/sema/internal/validate"
)

// Engine owns the component graph: parser collaborator in, diagnostics out.
type Engine struct {
	provider  parsetree.Provider
	graph     *graph.Manager
	cache     *docstate.Cache
	scheduler *sched.Scheduler
	registry  *validate.Registry
	cfg       *config.Config

	// workspaceReady flips once the initial workspace index completes;
	// cross-file validators wait for it.
	workspaceReady atomic.Bool
}

// New assembles an engine from its collaborators. lib may be nil when no
// standard-library catalog is available.
func New(provider parsetree.Provider, lib stdlib.Provider, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	g := graph.New(lib)
	g.SetYieldStride(cfg.EffectiveYieldEvery())
	return &Engine{
		provider:  provider,
		graph:     g,
		cache:     docstate.New(),
		scheduler: sched.New(schedulerOptions(cfg)),
		registry:  validate.NewBuiltinRegistry(),
		cfg:       cfg,
	}
}

// schedulerOptions overlays configured limits onto the scheduler defaults.
func schedulerOptions(cfg *config.Config) sched.Options {
	opts := sched.DefaultOptions()
	for p := sched.Critical; p.Valid(); p++ {
		capacity, concurrency := cfg.EffectiveClassLimits(p.String())
		if capacity > 0 {
			opts.QueueCapacity[p] = capacity
		}
		if concurrency > 0 {
			opts.Concurrency[p] = concurrency
		}
	}
	opts.MaxStreak = cfg.EffectiveMaxStreak()
	opts.IdleInterval = cfg.EffectiveIdleInterval()
	opts.NotifyInterval = cfg.EffectiveNotifyInterval()
	return opts
}

// Graph exposes the symbol graph for queries.
func (e *Engine) Graph() *graph.Manager { return e.graph }

// Cache exposes the document state cache.
func (e *Engine) Cache() *docstate.Cache { return e.cache }

// Scheduler exposes scheduler stats.
func (e *Engine) Scheduler() *sched.Scheduler { return e.scheduler }

// Validators exposes the validator registry so hosts can add their own.
func (e *Engine) Validators() *validate.Registry { return e.registry }

// Diagnostics returns the latest known diagnostics for a file.
func (e *Engine) Diagnostics(uri string) []sym.Diagnostic {
	if st, ok := e.cache.Latest(uri); ok {
		return st.Diagnostics
	}
	return nil
}

// Shutdown drains the scheduler.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.scheduler.Shutdown(ctx)
}

// DidOpen handles a file being opened. A cache hit on the exact version and
// content serves the stored result with no new work; the returned handle is
// nil in that case.
func (e *Engine) DidOpen(uri string, version int, content []byte) (*sched.Handle, error) {
	if e.cached(uri, version, content) {
		return nil, nil
	}
	return e.submitCompile(uri, version, content, "open", sched.Critical)
}

// DidChange handles an edit to an open file.
func (e *Engine) DidChange(uri string, version int, content []byte) (*sched.Handle, error) {
	return e.submitCompile(uri, version, content, "change", sched.Immediate)
}

// DidSave handles a save, which is when the thorough validators run by
// default. Saves always schedule work: a cache hit covers the symbols but
// not the save-time validation policy.
func (e *Engine) DidSave(uri string, version int, content []byte) (*sched.Handle, error) {
	return e.submitCompile(uri, version, content, "save", sched.High)
}

// DidDelete removes a file's symbols, references and cached state.
func (e *Engine) DidDelete(uri string) (*sched.Handle, error) {
	return e.scheduler.Submit(sched.Task{
		Key:      "delete:" + uri,
		Priority: sched.Immediate,
		Run: func(_ context.Context, _ func() error) error {
			e.graph.RemoveFile(uri)
			e.cache.Remove(uri)
			slog.Debug("engine.delete", "uri", uri)
			return nil
		},
	})
}

// cached reports whether the exact version and content are already fully
// processed.
func (e *Engine) cached(uri string, version int, content []byte) bool {
	st, ok := e.cache.Get(uri, version)
	return ok && st.SymbolsIndexed && st.ContentHash == docstate.Fingerprint(content)
}

func (e *Engine) submitCompile(uri string, version int, content []byte, event string, p sched.Priority) (*sched.Handle, error) {
	return e.scheduler.Submit(sched.Task{
		Key:      fmt.Sprintf("compile:%s@%d", uri, version),
		Priority: p,
		Run: func(ctx context.Context, yield func() error) error {
			return e.compile(ctx, uri, version, content, event, yield)
		},
	})
}

// compile runs the full per-file pipeline. A superseded version is a
// silent no-op; a parse failure publishes diagnostics and stops.
func (e *Engine) compile(ctx context.Context, uri string, version int, content []byte, event string, yield func() error) error {
	start := time.Now()
	if st, ok := e.cache.Latest(uri); ok && st.Version > version {
		slog.Debug("engine.compile.stale", "uri", uri, "version", version, "have", st.Version)
		return nil
	}
	hash := docstate.Fingerprint(content)
	length := len(content)

	tree, parseDiags := e.provider.Parse(uri, version, content)
	if parseDiags == nil {
		// A nil slice would leave a previous version's diagnostics in the
		// cache; a clean parse must clear them.
		parseDiags = []sym.Diagnostic{}
	}
	e.cache.Merge(uri, docstate.Partial{
		Version:        &version,
		ContentHash:    &hash,
		DocumentLength: &length,
		Diagnostics:    parseDiags,
	})
	if tree == nil {
		slog.Debug("engine.compile.parse_failed", "uri", uri, "version", version, "diags", len(parseDiags))
		return nil
	}

	table := binder.Bind(tree)
	if err := e.graph.AddSymbolTable(table); err != nil {
		if errors.Is(err, graph.ErrStale) {
			slog.Debug("engine.compile.stale", "uri", uri, "version", version)
			return nil
		}
		return fmt.Errorf("merge table: %w", err)
	}
	indexed := true
	e.cache.Merge(uri, docstate.Partial{Table: table, SymbolsIndexed: &indexed})

	if err := yield(); err != nil {
		return err
	}
	if _, err := e.graph.ResolveFile(uri, yield); err != nil {
		return err
	}

	diags := parseDiags
	in := validate.Input{
		Table:          table,
		Graph:          e.graph,
		ResolutionDone: true,
		CrossFileReady: e.workspaceReady.Load(),
	}
	for _, tier := range tiersFor(e.cfg.EffectivePolicy(event)) {
		res, err := e.registry.RunForTier(ctx, tier, in)
		if err != nil {
			return err
		}
		diags = append(diags, res.Diagnostics...)
	}
	e.cache.Merge(uri, docstate.Partial{Diagnostics: diags})

	slog.Debug("engine.compile.done", "uri", uri, "version", version,
		"event", event, "diags", len(diags), "took", time.Since(start))
	return nil
}

func tiersFor(policy config.TierPolicy) []validate.Tier {
	switch policy {
	case config.PolicyFast:
		return []validate.Tier{validate.TierFast}
	case config.PolicyThorough:
		return []validate.Tier{validate.TierThorough}
	case config.PolicyBoth:
		return []validate.Tier{validate.TierFast, validate.TierThorough}
	default:
		return nil
	}
}
