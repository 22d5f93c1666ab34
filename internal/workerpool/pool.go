package workerpool

import (
	"fmt"
	"sync"

	"github.com/forgelight/forgekit/internal/aio"
	"github.com/forgelight/forgekit/internal/scheduler"
	"github.com/forgelight/forgekit/internal/taskqueue"
)

// defaultDebugNameFormat is the format string New names its managed workers
// with when the caller doesn't supply one of its own (spec's "task thread
// debug names" are format-string-based, taking the worker's index as their
// one positional argument).
const defaultDebugNameFormat = "forgepool-worker-%d"

// Pool owns three distinct collections of threads, mirroring the
// underlying thread pool implementation:
//
//   - managed: created up front by the pool itself and torn down in the
//     reverse of creation order when the pool is destroyed.
//   - onDemand: created lazily via CreateThread, keyed by a caller-chosen
//     name, and destroyed individually via DestroyThread.
//   - attached: threads the pool does not own the lifecycle of — a caller
//     created the goroutine itself and merely registers it so the pool can
//     account for it; Detach removes it without signaling a stop.
type Pool struct {
	shared *scheduler.Scheduler

	mu       sync.Mutex
	managed  []*Thread
	onDemand map[string]*Thread
	attached map[string]*Thread
}

// New creates a Pool backed by a fresh shared scheduler and count managed
// threads running RoutineSharedFIFO, with no AIO port workers.
func New(count int) *Pool {
	return NewWithAIOPort(count, defaultDebugNameFormat, nil, 0)
}

// NewWithAIOPort creates a Pool exactly like New, but additionally names
// each managed worker via nameFormat (a %d format string taking the
// worker's index — an empty nameFormat falls back to defaultDebugNameFormat)
// and, when port is non-nil, spawns one additional RoutineCustom managed
// worker per aioPortWorkerSlots that repeatedly polls port for completions.
// This mirrors pool construction spawning thread_count managed workers
// named via a format string plus one additional worker per AIO port worker
// slot running the custom AIO poll routine.
func NewWithAIOPort(count int, nameFormat string, port aio.Port, aioPortWorkerSlots int) *Pool {
	if nameFormat == "" {
		nameFormat = defaultDebugNameFormat
	}

	p := &Pool{
		shared:   scheduler.New(),
		onDemand: make(map[string]*Thread),
		attached: make(map[string]*Thread),
	}
	for i := 0; i < count; i++ {
		th := NewThread(p.shared, Info{Routine: RoutineSharedFIFO, DebugName: fmt.Sprintf(nameFormat, i)})
		th.Start()
		p.managed = append(p.managed, th)
	}

	if port != nil {
		for i := 0; i < aioPortWorkerSlots; i++ {
			th := NewThread(p.shared, Info{
				Routine:   RoutineCustom,
				DebugName: fmt.Sprintf(nameFormat, count+i),
				Custom: func(pop func() *taskqueue.Node) bool {
					return port.Poll() > 0
				},
			})
			th.Start()
			p.managed = append(p.managed, th)
		}
	}

	return p
}

// Shared returns the pool-wide scheduler that managed threads consume from.
func (p *Pool) Shared() *scheduler.Scheduler {
	return p.shared
}

// ThreadCount returns the total number of threads across all three
// collections.
func (p *Pool) ThreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.managed) + len(p.onDemand) + len(p.attached)
}

// ManagedThreadCount returns the number of pool-owned managed threads.
func (p *Pool) ManagedThreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.managed)
}

// CreateThread creates and starts an on-demand thread with the given info,
// registered under name. Replaces any previous thread registered under the
// same name without destroying it — callers that want replacement-with-
// teardown should call DestroyThread first.
func (p *Pool) CreateThread(name string, info Info) *Thread {
	th := NewThread(p.shared, info)
	th.Start()

	p.mu.Lock()
	p.onDemand[name] = th
	p.mu.Unlock()
	return th
}

// FindThread looks up a thread previously created with CreateThread or
// registered with AttachThread.
func (p *Pool) FindThread(name string) (*Thread, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if th, ok := p.onDemand[name]; ok {
		return th, true
	}
	th, ok := p.attached[name]
	return th, ok
}

// DestroyThread requests the named on-demand thread stop and removes it
// from the pool. No-op if no such thread exists.
func (p *Pool) DestroyThread(name string) {
	p.mu.Lock()
	th, ok := p.onDemand[name]
	if ok {
		delete(p.onDemand, name)
	}
	p.mu.Unlock()

	if ok {
		th.RequestDestroy()
	}
}

// AttachThread registers an externally-managed thread under name without
// starting or otherwise taking ownership of it.
func (p *Pool) AttachThread(name string, th *Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached[name] = th
}

// DetachThread removes an attached thread's registration without signaling
// it to stop; the caller remains responsible for its lifecycle.
func (p *Pool) DetachThread(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attached, name)
}

// Close clears attached registrations without touching the threads behind
// them, then tears down every on-demand thread (in no particular order) and
// finally every managed thread, in the reverse of their creation order.
func (p *Pool) Close() {
	p.mu.Lock()
	managed := append([]*Thread(nil), p.managed...)
	onDemand := make([]*Thread, 0, len(p.onDemand))
	for _, th := range p.onDemand {
		onDemand = append(onDemand, th)
	}
	p.managed = nil
	p.onDemand = make(map[string]*Thread)
	p.attached = make(map[string]*Thread)
	p.mu.Unlock()

	for _, th := range onDemand {
		th.RequestDestroy()
	}
	for i := len(managed) - 1; i >= 0; i-- {
		managed[i].RequestDestroy()
	}
}
