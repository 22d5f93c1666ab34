// Package task implements the cooperative task runtime: lazily-started
// tasks, the Awaitable contract used to suspend and resume them, and the
// composite awaitables (fan-out, scheduled queue drain, manual wait) used to
// compose many tasks into a single unit of work.
//
// Go has no native stackful coroutines, so a Task's body runs on its own
// goroutine once started; "suspension" is a task blocking on a channel while
// it awaits something, and "resumption" is whatever completes that
// something sending on the channel. This preserves the lazy-start and
// explicit-suspension-point semantics of the underlying runtime model while
// staying idiomatic Go.
package task

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/forgelight/forgekit"
)

// State is the lifecycle of a Task.
type State uint8

const (
	NotStarted State = iota
	Running
	Suspended
	Completed
)

// Awaitable is anything a task can await: Ready reports whether the result
// is already available without blocking; Wait blocks the calling goroutine
// until it is.
type Awaitable[T any] interface {
	Ready() bool
	Wait() (T, error)
}

// Task is a lazily-started unit of cooperative work. It is itself an
// Awaitable[T]: awaiting an unstarted task starts it.
type Task[T any] struct {
	fn    func() (T, error)
	state atomic.Uint32

	once   sync.Once
	done   chan struct{}
	result T
	err    error

	metrics *forgekit.Metrics
}

// New creates a lazy task from fn. The task does not run until Start or
// Wait is called on it.
func New[T any](fn func() (T, error)) *Task[T] {
	return &Task[T]{fn: fn, done: make(chan struct{})}
}

// SetMetrics attaches m so Start records this task's completion latency and
// outcome. Returns t for chaining at construction time. A nil Task.metrics
// (the default) means no metrics are recorded.
func (t *Task[T]) SetMetrics(m *forgekit.Metrics) *Task[T] {
	t.metrics = m
	return t
}

// State reports the task's current lifecycle state.
func (t *Task[T]) State() State {
	return State(t.state.Load())
}

// Start begins running the task body on a new goroutine if it has not
// already been started. Safe to call multiple times and concurrently; only
// the first call has effect.
func (t *Task[T]) Start() {
	t.once.Do(func() {
		t.state.Store(uint32(Running))
		go func() {
			start := time.Now()
			result, err := t.fn()
			t.result, t.err = result, err
			t.state.Store(uint32(Completed))
			close(t.done)
			if t.metrics != nil {
				t.metrics.RecordTaskCompletion(uint64(time.Since(start).Nanoseconds()), err)
			}
		}()
	})
}

// Ready reports whether the task has completed.
func (t *Task[T]) Ready() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait starts the task if necessary and blocks until it completes,
// returning its result.
func (t *Task[T]) Wait() (T, error) {
	t.Start()
	<-t.done
	return t.result, t.err
}

// Done returns a channel that closes when the task completes, for use in
// select statements by schedulers and composite awaitables.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

var _ Awaitable[int] = (*Task[int])(nil)
