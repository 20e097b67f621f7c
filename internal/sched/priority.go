package sched

// Priority orders task classes from most to least urgent. Dispatch always
// prefers the highest non-empty class, subject to the anti-starvation
// streak limit.
type Priority uint8

const (
	// Critical preempts everything else: open-file compilations whose
	// results the user is waiting on.
	Critical Priority = iota
	// Immediate covers visible-feedback work such as diagnostics for the
	// focused file.
	Immediate
	// High covers user-triggered work that tolerates slight delay.
	High
	// Normal is the default class for dependency and cross-file updates.
	Normal
	// Low covers prefetching and speculative work.
	Low
	// Background covers bulk indexing and maintenance.
	Background

	numPriorities
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case Immediate:
		return "immediate"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Background:
		return "background"
	default:
		return "invalid"
	}
}

// Valid reports whether p names a real class.
func (p Priority) Valid() bool { return p < numPriorities }
