package resource

import "context"

// Handle is a reference-counted, ref-counted handle to a tracked resource.
// Acquiring a Handle triggers (or joins) the single-flight load of the
// resource's bytes; Release drops the reference, unloading the resource
// once the last handle is released.
type Handle struct {
	ir *internalResource
}

// Resource returns the static description of the resource this handle
// refers to.
func (h *Handle) Resource() Resource { return h.ir.res }

// Status returns the resource's current lifecycle status.
func (h *Handle) Status() Status { return h.ir.statusValue() }

// RefCount returns the number of outstanding handles to this resource.
func (h *Handle) RefCount() uint32 { return h.ir.refcount.Load() }

// Data blocks until the resource is loaded (joining an in-flight load if
// one is already underway) and returns its bytes.
func (h *Handle) Data(ctx context.Context) ([]byte, error) {
	return h.ir.load(ctx)
}

// Release drops this handle's reference. The resource is unloaded once the
// last outstanding handle is released.
func (h *Handle) Release(ctx context.Context) {
	h.ir.release(ctx)
}
