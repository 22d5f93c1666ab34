// Package workerpool implements TaskThread and TaskThreadPool: the worker
// goroutines that actually execute scheduled work, and the pool that owns
// collections of them. A Thread runs one of four routines — draining the
// pool-wide shared queue FIFO, draining its own exclusive queue FIFO,
// draining its own exclusive queue in priority order, or running a
// caller-supplied custom procedure — idling with a short busy-spin followed
// by a yield when it finds no work, mirroring the underlying runtime's
// thread_procedure<BusyWait> loop.
package workerpool

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/forgelight/forgekit/internal/scheduler"
	"github.com/forgelight/forgekit/internal/taskqueue"
)

// State is a Thread's lifecycle state.
type State uint32

const (
	StateInvalid State = iota
	StateActive
	StateDestroyed
)

// Request is a lifecycle transition asked of a Thread. RequestDestroy stores
// it; the routine loop itself stops on the thread's stop channel and does
// not read this value.
type Request uint32

const (
	RequestNone Request = iota
	RequestCreate
	RequestDestroy
)

// Routine selects which of the four loop shapes a Thread runs.
type Routine uint8

const (
	RoutineSharedFIFO Routine = iota
	RoutineExclusiveFIFO
	RoutineExclusivePriority
	RoutineCustom
)

// busyLoopCount is the number of empty-queue spins a Thread performs before
// yielding the OS thread, matching the underlying runtime's constant.
const busyLoopCount = 200

// Info configures a Thread.
type Info struct {
	Routine  Routine
	Exclusive *scheduler.Scheduler // required for Exclusive* routines
	Custom   func(pop func() *taskqueue.Node) (ranSomething bool)
	DebugName string
}

// Thread is one worker goroutine consuming from a scheduler's queue.
type Thread struct {
	info  Info
	shared *scheduler.Scheduler

	state   atomic.Uint32
	request atomic.Uint32

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewThread creates a Thread. shared is the pool-wide queue used by
// RoutineSharedFIFO; it is ignored by the exclusive/custom routines.
func NewThread(shared *scheduler.Scheduler, info Info) *Thread {
	return &Thread{info: info, shared: shared, stop: make(chan struct{})}
}

// Start transitions the Thread to Active and begins its routine loop on a
// new goroutine. Idempotent after the first call.
func (t *Thread) Start() {
	if !t.state.CompareAndSwap(uint32(StateInvalid), uint32(StateActive)) {
		return
	}
	t.wg.Add(1)
	go t.loop()
}

// State reports the thread's current lifecycle state.
func (t *Thread) State() State {
	return State(t.state.Load())
}

// RequestDestroy asks the thread to stop after it finishes whatever it is
// currently processing, and blocks until it has.
func (t *Thread) RequestDestroy() {
	t.request.Store(uint32(RequestDestroy))
	close(t.stop)
	t.wg.Wait()
	t.state.Store(uint32(StateDestroyed))
}

func (t *Thread) loop() {
	defer t.wg.Done()

	pop := func() *taskqueue.Node {
		switch t.info.Routine {
		case RoutineSharedFIFO:
			return t.shared.Queue().Pop()
		default:
			return t.info.Exclusive.Queue().Pop()
		}
	}

	idle := 0
	for {
		select {
		case <-t.stop:
			t.drainRemaining(pop)
			return
		default:
		}

		ran := t.runOnce(pop)
		if ran {
			idle = 0
			continue
		}

		idle++
		if idle < busyLoopCount {
			continue
		}
		runtime.Gosched()
	}
}

// drainRemaining runs whatever work is still queued before the thread
// actually exits, so a destroy request never silently drops scheduled work.
func (t *Thread) drainRemaining(pop func() *taskqueue.Node) {
	for t.runOnce(pop) {
	}
}

func (t *Thread) runOnce(pop func() *taskqueue.Node) bool {
	switch t.info.Routine {
	case RoutineSharedFIFO, RoutineExclusiveFIFO:
		n := pop()
		if n == nil {
			return false
		}
		n.Run()
		return true
	case RoutineExclusivePriority:
		return t.runPriorityBatch()
	case RoutineCustom:
		return t.info.Custom(pop)
	default:
		return false
	}
}

// runPriorityBatch drains every currently-queued node from the exclusive
// queue, stably sorts them by descending priority (equal priorities keep
// their relative arrival order), then runs them in that order.
func (t *Thread) runPriorityBatch() bool {
	var nodes []*taskqueue.Node
	t.info.Exclusive.Queue().Consume(func(n *taskqueue.Node) {
		nodes = append(nodes, n)
	})
	if len(nodes) == 0 {
		return false
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Priority > nodes[j].Priority
	})
	for _, n := range nodes {
		n.Run()
	}
	return true
}
