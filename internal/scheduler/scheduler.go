// Package scheduler provides the queue a task schedules itself onto: the
// thing a task body "awaits" to transfer execution onto a particular
// worker thread or pool, as opposed to running inline on whatever goroutine
// started it.
package scheduler

import (
	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/taskqueue"
)

// Scheduler owns a queue of pending work and is consumed by one or more
// workerpool.Thread routines. It is the target of "schedule this task onto
// me" operations; it does not itself run anything.
type Scheduler struct {
	queue   *taskqueue.Queue
	metrics *forgekit.Metrics
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{queue: taskqueue.New()}
}

// SetMetrics attaches m so Schedule records each task handed to this
// Scheduler. A nil metrics (the default) means no metrics are recorded.
func (s *Scheduler) SetMetrics(m *forgekit.Metrics) {
	s.metrics = m
}

// Queue returns the underlying intrusive queue, for workerpool threads to
// consume from.
func (s *Scheduler) Queue() *taskqueue.Queue {
	return s.queue
}

// Schedule enqueues fn to run the next time a consuming thread drains this
// scheduler's queue, at the given priority (used by priority-sorted
// exclusive threads; ignored by FIFO ones).
func (s *Scheduler) Schedule(fn func(), priority uint8) {
	s.queue.PushBack(&taskqueue.Node{Run: fn, Priority: priority})
	if s.metrics != nil {
		s.metrics.RecordTaskScheduled()
	}
}

// EstimatedTaskCount reports whether the scheduler currently has pending
// work, for diagnostics; it is not an exact count since producers may be
// mid-push.
func (s *Scheduler) EstimatedTaskCount() int {
	if s.queue.Empty() {
		return 0
	}
	return 1
}
