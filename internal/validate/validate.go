// Package validate runs registered validators over a file's symbol table in
// two tiers: fast structural checks and thorough cross-file checks.
// Validators declare prerequisites; a validator whose prerequisites are not
// met is skipped silently rather than reporting half-true findings.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/apexlab/sema/internal/graph"
	"github.com/apexlab/sema/internal/sym"
)

// Tier separates cheap per-file validators from expensive cross-file ones.
type Tier uint8

const (
	TierFast Tier = iota
	TierThorough
)

func (t Tier) String() string {
	if t == TierThorough {
		return "thorough"
	}
	return "fast"
}

// Requirements are a validator's prerequisites. An unmet requirement skips
// the validator for this run; it does not fail the run.
type Requirements struct {
	// MinDetail is the symbol population state the validator needs.
	MinDetail sym.Detail
	// ResolvedRefs requires reference resolution to have run for the file.
	ResolvedRefs bool
	// CrossFileComplete requires the surrounding workspace index to be
	// complete enough for cross-file conclusions.
	CrossFileComplete bool
}

// Input is everything a validator may consult. Graph is nil-safe for
// fast-tier validators that only read the table.
type Input struct {
	Table          *sym.Table
	Graph          *graph.Manager
	ResolutionDone bool
	CrossFileReady bool
}

// Func is a single validator implementation.
type Func func(ctx context.Context, in Input) []sym.Diagnostic

// Descriptor registers a validator with its tier, ordering and
// prerequisites. Lower Priority runs first within a tier.
type Descriptor struct {
	ID       string
	Name     string
	Tier     Tier
	Priority int
	Requires Requirements
	Run      Func
}

// Result aggregates one tier run over one file.
type Result struct {
	URI         string
	Tier        Tier
	Diagnostics []sym.Diagnostic
	Ran         []string
	Skipped     []string
	Errors      int
	Warnings    int
}

// IsValid reports whether the run produced no error-severity diagnostics.
// Warnings do not invalidate a file.
func (r Result) IsValid() bool { return r.Errors == 0 }

// Registry holds validators keyed by ID.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Descriptor)}
}

// Register adds a validator. Re-registering an ID is an error; validator
// sets are assembled once at startup.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" || d.Run == nil {
		return fmt.Errorf("validate: descriptor needs an ID and a Run func")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.validators[d.ID]; exists {
		return fmt.Errorf("validate: duplicate validator %q", d.ID)
	}
	r.validators[d.ID] = d
	return nil
}

// forTier returns the tier's validators in run order: ascending priority,
// ID as tiebreak.
func (r *Registry) forTier(tier Tier) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Descriptor
	for _, d := range r.validators {
		if d.Tier == tier {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RunForTier executes one tier over a file. Standard-library tables are
// valid by construction and short-circuit to an empty result. The run stops
// between validators when the context is cancelled, returning what was
// collected so far together with the context error.
func (r *Registry) RunForTier(ctx context.Context, tier Tier, in Input) (Result, error) {
	res := Result{Tier: tier}
	if in.Table == nil {
		return res, fmt.Errorf("validate: nil table")
	}
	res.URI = in.Table.FileURI
	if in.Table.IsLibrary() {
		return res, nil
	}

	start := time.Now()
	for _, d := range r.forTier(tier) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !met(d.Requires, in) {
			res.Skipped = append(res.Skipped, d.ID)
			continue
		}
		diags := d.Run(ctx, in)
		res.Ran = append(res.Ran, d.ID)
		res.Diagnostics = append(res.Diagnostics, diags...)
		for _, diag := range diags {
			if diag.Severity == sym.SeverityError {
				res.Errors++
			} else {
				res.Warnings++
			}
		}
	}

	slog.Debug("validate.done", "uri", res.URI, "tier", tier.String(),
		"ran", len(res.Ran), "skipped", len(res.Skipped),
		"errors", res.Errors, "warnings", res.Warnings,
		"took", time.Since(start))
	return res, nil
}

func met(req Requirements, in Input) bool {
	if req.ResolvedRefs && !in.ResolutionDone {
		return false
	}
	if req.CrossFileComplete && !in.CrossFileReady {
		return false
	}
	if req.MinDetail == sym.DetailFull {
		for _, s := range in.Table.Symbols() {
			if s.IsStub() {
				return false
			}
		}
	}
	return true
}
