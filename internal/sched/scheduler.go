// Package sched is a priority task scheduler with bounded per-class queues.
// Saturation rejects the submission immediately instead of queueing
// unbounded work; callers decide whether to retry, degrade, or drop.
package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when a class queue is at capacity.
	ErrQueueFull = errors.New("sched: queue full")
	// ErrShutdown is returned for submissions after Shutdown began.
	ErrShutdown = errors.New("sched: shutting down")
)

// Options tunes the scheduler. Zero fields take defaults.
type Options struct {
	// QueueCapacity bounds each class queue.
	QueueCapacity [numPriorities]int
	// Concurrency caps simultaneously running tasks per class.
	Concurrency [numPriorities]int
	// MaxStreak is how many consecutive dispatches one class may take
	// while a lower class is waiting.
	MaxStreak int
	// IdleInterval is how long the dispatcher sleeps when nothing is
	// runnable.
	IdleInterval time.Duration
	// NotifyInterval is the period of the advisory stats report. Zero
	// disables reporting.
	NotifyInterval time.Duration
}

// DefaultOptions returns the production defaults: urgent classes get deep
// queues and wide concurrency, background work stays narrow.
func DefaultOptions() Options {
	return Options{
		QueueCapacity:  [numPriorities]int{64, 64, 128, 256, 256, 1024},
		Concurrency:    [numPriorities]int{4, 4, 4, 2, 2, 1},
		MaxStreak:      8,
		IdleInterval:   25 * time.Millisecond,
		NotifyInterval: time.Minute,
	}
}

func (o *Options) fillDefaults() {
	def := DefaultOptions()
	for p := 0; p < int(numPriorities); p++ {
		if o.QueueCapacity[p] <= 0 {
			o.QueueCapacity[p] = def.QueueCapacity[p]
		}
		if o.Concurrency[p] <= 0 {
			o.Concurrency[p] = def.Concurrency[p]
		}
	}
	if o.MaxStreak <= 0 {
		o.MaxStreak = def.MaxStreak
	}
	if o.IdleInterval <= 0 {
		o.IdleInterval = def.IdleInterval
	}
}

type exec struct {
	task   Task
	handle *Handle
}

// Scheduler dispatches tasks by priority class. One dispatcher goroutine
// pulls from the queues; tasks run on their own goroutines within the
// per-class concurrency caps.
type Scheduler struct {
	opts Options

	mu          sync.Mutex
	queues      [numPriorities][]*exec
	inflight    [numPriorities]int
	byKey       map[string]*Handle
	streakClass Priority
	streak      int
	shutdown    bool
	stats       statCounters

	wake    chan struct{}
	quit    chan struct{}
	loops   sync.WaitGroup // dispatcher + notifier
	running sync.WaitGroup // task goroutines
}

// New creates and starts a scheduler.
func New(opts Options) *Scheduler {
	opts.fillDefaults()
	s := &Scheduler{
		opts:  opts,
		byKey: make(map[string]*Handle),
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
	}
	s.loops.Add(1)
	go s.dispatch()
	if opts.NotifyInterval > 0 {
		s.loops.Add(1)
		go s.notify()
	}
	return s
}

// Submit enqueues a task. A full queue rejects with ErrQueueFull. A task
// whose Key matches one still waiting in a queue is coalesced: the
// returned handle is terminal in StatusDeduplicated and points at the
// surviving submission via Target.
func (s *Scheduler) Submit(t Task) (*Handle, error) {
	if !t.Priority.Valid() {
		return nil, fmt.Errorf("sched: invalid priority %d", t.Priority)
	}
	if t.Run == nil {
		return nil, fmt.Errorf("sched: task %q has no Run func", t.Key)
	}

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil, ErrShutdown
	}
	if t.Key != "" {
		if existing, ok := s.byKey[t.Key]; ok {
			dup := newHandle(t.Key, t.Priority)
			dup.Target = existing
			dup.status = StatusDeduplicated
			close(dup.done)
			s.stats.deduplicated++
			s.mu.Unlock()
			slog.Debug("sched.dedup", "key", t.Key, "target", existing.ID)
			return dup, nil
		}
	}
	p := t.Priority
	if len(s.queues[p]) >= s.opts.QueueCapacity[p] {
		s.stats.rejected[p]++
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: class %s at capacity %d", ErrQueueFull, p, s.opts.QueueCapacity[p])
	}
	h := newHandle(t.Key, p)
	s.queues[p] = append(s.queues[p], &exec{task: t, handle: h})
	if t.Key != "" {
		s.byKey[t.Key] = h
	}
	s.stats.submitted[p]++
	s.mu.Unlock()

	s.wakeUp()
	return h, nil
}

// Shutdown stops accepting tasks, drains the queues, and waits for running
// tasks up to the context deadline. Repeat calls wait on the same drain.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	first := !s.shutdown
	s.shutdown = true
	s.mu.Unlock()
	if first {
		close(s.quit)
	}
	s.wakeUp()

	done := make(chan struct{})
	go func() {
		s.loops.Wait()
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("sched.shutdown", "drained", true)
		return nil
	case <-ctx.Done():
		slog.Warn("sched.shutdown", "drained", false)
		return ctx.Err()
	}
}

func (s *Scheduler) wakeUp() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) dispatch() {
	defer s.loops.Done()
	for {
		s.mu.Lock()
		e := s.nextLocked()
		if e == nil {
			idle := s.shutdown && s.queuedLocked() == 0 && s.inflightLocked() == 0
			s.mu.Unlock()
			if idle {
				return
			}
			select {
			case <-s.wake:
			case <-time.After(s.opts.IdleInterval):
			}
			continue
		}
		s.inflight[e.handle.Priority]++
		s.mu.Unlock()
		s.running.Add(1)
		go s.run(e)
	}
}

// nextLocked picks the next runnable task: highest class first, FIFO within
// a class. When one class has taken MaxStreak consecutive dispatches while
// a lower class waits, the lower class gets the turn. Caller holds s.mu.
func (s *Scheduler) nextLocked() *exec {
	pick := -1
	for p := 0; p < int(numPriorities); p++ {
		s.dropCancelledLocked(Priority(p))
		if len(s.queues[p]) == 0 || s.inflight[p] >= s.opts.Concurrency[p] {
			continue
		}
		pick = p
		break
	}
	if pick < 0 {
		return nil
	}
	if Priority(pick) == s.streakClass && s.streak >= s.opts.MaxStreak {
		for p := pick + 1; p < int(numPriorities); p++ {
			if len(s.queues[p]) > 0 && s.inflight[p] < s.opts.Concurrency[p] {
				pick = p
				break
			}
		}
	}

	q := s.queues[pick]
	e := q[0]
	s.queues[pick] = q[1:]
	if Priority(pick) == s.streakClass {
		s.streak++
	} else {
		s.streakClass = Priority(pick)
		s.streak = 1
	}
	return e
}

// dropCancelledLocked discards queue heads that were cancelled before
// starting. Caller holds s.mu.
func (s *Scheduler) dropCancelledLocked(p Priority) {
	q := s.queues[p]
	for len(q) > 0 && q[0].handle.Status().Terminal() {
		e := q[0]
		q = q[1:]
		s.releaseKeyLocked(e.handle)
		s.stats.cancelled[p]++
	}
	s.queues[p] = q
}

func (s *Scheduler) releaseKeyLocked(h *Handle) {
	if h.Key != "" && s.byKey[h.Key] == h {
		delete(s.byKey, h.Key)
	}
}

func (s *Scheduler) queuedLocked() int {
	n := 0
	for p := range s.queues {
		n += len(s.queues[p])
	}
	return n
}

func (s *Scheduler) inflightLocked() int {
	n := 0
	for _, c := range s.inflight {
		n += c
	}
	return n
}

// run executes one task with panic containment. A panic fails the task and
// is logged; it never takes the scheduler down.
func (s *Scheduler) run(e *exec) {
	defer s.running.Done()
	p := e.handle.Priority

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The dedup window closes at start: a resubmission of the same key
	// from here on is new work against newer state.
	s.mu.Lock()
	s.releaseKeyLocked(e.handle)
	s.mu.Unlock()

	if !e.handle.start(cancel) {
		s.mu.Lock()
		s.inflight[p]--
		s.stats.cancelled[p]++
		s.mu.Unlock()
		s.wakeUp()
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sched: task %q panicked: %v", e.task.Key, r)
				slog.Error("sched.task.panic", "key", e.task.Key, "class", p.String(), "panic", r)
			}
		}()
		yield := func() error { return ctx.Err() }
		err = e.task.Run(ctx, yield)
	}()

	status := StatusDone
	switch {
	case errors.Is(err, context.Canceled):
		status = StatusCancelled
	case err != nil:
		status = StatusFailed
	}
	e.handle.finish(status, err)

	s.mu.Lock()
	s.inflight[p]--
	switch status {
	case StatusDone:
		s.stats.completed[p]++
	case StatusCancelled:
		s.stats.cancelled[p]++
	default:
		s.stats.failed[p]++
	}
	s.mu.Unlock()
	s.wakeUp()
}
