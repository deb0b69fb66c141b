// Package sched provides cancellable one-shot scheduled tasks.
//
// Tasks replace raw timer callbacks for time-driven transitions (breaker
// recovery, cooldown unlock checks): a pending task can be cancelled before
// it fires, and firing is idempotent, so a manual state change racing the
// timer is a no-op rather than an error.
package sched

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is a pending one-shot scheduled function.
type Task struct {
	// ID uniquely identifies this task.
	ID string

	timer *time.Timer
	fired bool
	done  bool
	mu    sync.Mutex
	sched *Scheduler
}

// Scheduler tracks pending tasks so they can be cancelled individually or
// all at once on Close.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*Task
	closed  bool
}

// New creates a scheduler.
func New() *Scheduler {
	return &Scheduler{
		pending: make(map[string]*Task),
	}
}

// After schedules fn to run once after d. The returned task can be
// cancelled before it fires. Returns nil if the scheduler is closed.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	task := &Task{
		ID:    "task-" + uuid.New().String()[:8],
		sched: s,
	}

	task.timer = time.AfterFunc(d, func() {
		task.mu.Lock()
		if task.done {
			task.mu.Unlock()
			return
		}
		task.done = true
		task.fired = true
		task.mu.Unlock()

		s.remove(task.ID)
		fn()
	})

	s.pending[task.ID] = task
	return task
}

// Pending returns the number of tasks that have neither fired nor been
// cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels all pending tasks. Further After calls return nil.
func (s *Scheduler) Close() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.pending))
	for _, t := range s.pending {
		tasks = append(tasks, t)
	}
	s.closed = true
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

func (s *Scheduler) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Cancel stops the task if it has not fired yet. Returns true if the task
// was cancelled, false if it already fired or was already cancelled.
// Cancelling twice, or after the task fired, is a no-op.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	t.mu.Unlock()

	t.timer.Stop()
	t.sched.remove(t.ID)
	return true
}

// Fired reports whether the task ran.
func (t *Task) Fired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
