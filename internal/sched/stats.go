package sched

import (
	"log/slog"
	"time"
)

type statCounters struct {
	submitted    [numPriorities]int64
	completed    [numPriorities]int64
	failed       [numPriorities]int64
	cancelled    [numPriorities]int64
	rejected     [numPriorities]int64
	deduplicated int64
}

// ClassStats is one priority class's counters plus current occupancy.
type ClassStats struct {
	Class     Priority
	Queued    int
	Running   int
	Submitted int64
	Completed int64
	Failed    int64
	Cancelled int64
	Rejected  int64
}

// Stats is a point-in-time snapshot across all classes.
type Stats struct {
	Classes      [numPriorities]ClassStats
	Deduplicated int64
}

// Totals sums the per-class counters.
func (s Stats) Totals() ClassStats {
	var t ClassStats
	for _, c := range s.Classes {
		t.Queued += c.Queued
		t.Running += c.Running
		t.Submitted += c.Submitted
		t.Completed += c.Completed
		t.Failed += c.Failed
		t.Cancelled += c.Cancelled
		t.Rejected += c.Rejected
	}
	return t
}

// Stats snapshots the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Stats
	for p := 0; p < int(numPriorities); p++ {
		out.Classes[p] = ClassStats{
			Class:     Priority(p),
			Queued:    len(s.queues[p]),
			Running:   s.inflight[p],
			Submitted: s.stats.submitted[p],
			Completed: s.stats.completed[p],
			Failed:    s.stats.failed[p],
			Cancelled: s.stats.cancelled[p],
			Rejected:  s.stats.rejected[p],
		}
	}
	out.Deduplicated = s.stats.deduplicated
	return out
}

// notify emits the periodic advisory report. Purely informational; nothing
// reads it back.
func (s *Scheduler) notify() {
	defer s.loops.Done()
	ticker := time.NewTicker(s.opts.NotifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st := s.Stats()
			t := st.Totals()
			slog.Info("sched.stats",
				"queued", t.Queued,
				"running", t.Running,
				"completed", t.Completed,
				"failed", t.Failed,
				"cancelled", t.Cancelled,
				"rejected", t.Rejected,
				"deduplicated", st.Deduplicated)
		case <-s.quit:
			return
		}
	}
}
