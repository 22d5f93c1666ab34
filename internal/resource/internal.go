package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forgelight/forgekit"
)

// internalResource is the tracker's private bookkeeping for one resource:
// reference count, load status, cached bytes, and the single-flight
// rendezvous that makes concurrent loaders of the same resource collapse
// into one provider.Load call. A *Handle only ever sees this through its
// accessor methods in handle.go.
//
// refcount and status are atomics so Status()/RefCount() never take the
// load mutex; the mutex only guards the load-in-flight transition itself
// and the cached data/error, which is exactly the section that must run
// exclusively for single-flight to hold.
type internalResource struct {
	res      Resource
	provider Provider

	refcount atomic.Uint32
	status   atomic.Int32

	mu       sync.Mutex
	loadCh   chan struct{} // non-nil while a load is in flight
	data     []byte
	loadErr  error

	metrics *forgekit.Metrics
}

func newInternalResource(res Resource, provider Provider, metrics *forgekit.Metrics) *internalResource {
	ir := &internalResource{res: res, provider: provider, metrics: metrics}
	ir.status.Store(int32(StatusAvailable))
	return ir
}

// acquire increments the reference count and returns the new count.
func (ir *internalResource) acquire() uint32 {
	return ir.refcount.Add(1)
}

// release decrements the reference count. When it reaches zero the
// resource's cached data is dropped and the provider is asked to unload it,
// resetting status to Available so a later acquire triggers a fresh load.
func (ir *internalResource) release(ctx context.Context) {
	if ir.refcount.Add(^uint32(0)) != 0 { // unsigned decrement by 1
		return
	}

	ir.mu.Lock()
	ir.data = nil
	ir.loadErr = nil
	ir.mu.Unlock()
	ir.status.Store(int32(StatusAvailable))

	_ = ir.provider.Unload(ctx, ir.res.URI)
	if ir.metrics != nil {
		ir.metrics.RecordResourceUnload()
	}
}

func (ir *internalResource) statusValue() Status {
	return Status(ir.status.Load())
}

// load performs a single-flight load: the first caller to arrive while no
// load is in flight becomes the loader and actually calls provider.Load;
// every other concurrent caller blocks on the same rendezvous channel and
// observes the loader's result once it closes.
func (ir *internalResource) load(ctx context.Context) ([]byte, error) {
	start := time.Now()

	ir.mu.Lock()
	if ir.statusValue() == StatusLoaded {
		data, err := ir.data, ir.loadErr
		ir.mu.Unlock()
		ir.recordLoad(start, true, err)
		return data, err
	}
	if ch := ir.loadCh; ch != nil {
		ir.mu.Unlock()
		<-ch
		ir.mu.Lock()
		data, err := ir.data, ir.loadErr
		ir.mu.Unlock()
		ir.recordLoad(start, true, err)
		return data, err
	}

	ch := make(chan struct{})
	ir.loadCh = ch
	ir.status.Store(int32(StatusLoading))
	ir.mu.Unlock()

	data, err := ir.provider.Load(ctx, ir.res.URI)

	ir.mu.Lock()
	ir.data, ir.loadErr = data, err
	if err != nil {
		ir.status.Store(int32(StatusInvalid))
	} else {
		ir.status.Store(int32(StatusLoaded))
	}
	ir.loadCh = nil
	ir.mu.Unlock()
	close(ch)

	ir.recordLoad(start, false, err)
	return data, err
}

// recordLoad reports a completed load to ir.metrics, if one is attached.
// joinedInFlight is true for every caller that did not itself call
// provider.Load — both a cache hit on an already-loaded resource and a
// rendezvous wait on someone else's in-flight load.
func (ir *internalResource) recordLoad(start time.Time, joinedInFlight bool, err error) {
	if ir.metrics == nil {
		return
	}
	ir.metrics.RecordResourceLoad(uint64(time.Since(start).Nanoseconds()), joinedInFlight, err)
}
