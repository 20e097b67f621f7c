package sched

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a submitted task.
type Status uint8

const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusCancelled
	// StatusDeduplicated marks a submission that was coalesced into an
	// already-pending task with the same key. It is terminal for the
	// duplicate handle; the surviving task runs exactly once.
	StatusDeduplicated
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusDeduplicated:
		return "deduplicated"
	default:
		return "invalid"
	}
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s != StatusQueued && s != StatusRunning
}

// Task is a unit of work. Key is the logical identity used for
// deduplication; submissions with an equal Key while one is still queued
// coalesce into a single execution. Run receives a yield checkpoint it
// should call at loop boundaries; a non-nil return means stop now.
type Task struct {
	Key      string
	Priority Priority
	Run      func(ctx context.Context, yield func() error) error
}

// Handle tracks one submission. Duplicate submissions get their own handle
// in StatusDeduplicated with Target pointing at the surviving one.
type Handle struct {
	ID       uuid.UUID
	Key      string
	Priority Priority
	// Target is the handle this submission was coalesced into, nil for
	// submissions that got their own execution.
	Target *Handle

	mu     sync.Mutex
	status Status
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

func newHandle(key string, p Priority) *Handle {
	return &Handle{
		ID:       uuid.New(),
		Key:      key,
		Priority: p,
		done:     make(chan struct{}),
	}
}

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err returns the task error once the handle is terminal.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the task reaches a terminal status or the context
// expires.
func (h *Handle) Wait(ctx context.Context) (Status, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.status, h.err
	case <-ctx.Done():
		return h.Status(), ctx.Err()
	}
}

// Cancel requests cancellation. A queued task is dropped before it starts;
// a running task is interrupted at its next yield checkpoint.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.status.Terminal() {
		h.mu.Unlock()
		return
	}
	if h.status == StatusQueued {
		h.status = StatusCancelled
		h.err = context.Canceled
		close(h.done)
		h.mu.Unlock()
		return
	}
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// finish moves the handle to a terminal state exactly once.
func (h *Handle) finish(status Status, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status.Terminal() {
		return false
	}
	h.status = status
	h.err = err
	close(h.done)
	return true
}

// start moves a queued handle to running, refusing if it was cancelled in
// the queue.
func (h *Handle) start(cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != StatusQueued {
		return false
	}
	h.status = StatusRunning
	h.cancel = cancel
	return true
}
