// Package alloc implements the explicit, non-global allocator model used
// throughout the task runtime and resource tracker: callers always go through
// an Allocator value rather than reaching for make()/new() directly, so
// allocation can be attributed, pooled, or denied per subsystem.
package alloc

import "github.com/forgelight/forgekit"

// MemInfo describes a requested allocation.
type MemInfo struct {
	Size  uint32
	Align uint32 // 0 means natural alignment
}

// Memory is a block handed out by an Allocator and handed back, by value, to
// the same Allocator's Deallocate; Deallocate does not clear Location.
type Memory struct {
	Location []byte
	Size     uint32
}

// Allocator is the explicit allocation interface. There is no global/default
// allocator: every component that needs memory takes one as a constructor
// argument.
type Allocator interface {
	Allocate(info MemInfo) (Memory, error)
	Deallocate(mem Memory)

	// Name identifies the allocator in diagnostics (proxy allocators use
	// this to report attribution).
	Name() string
}

// HostAllocator is the root allocator: the only one able to create memory
// "from nothing" by asking the Go runtime. All other allocators either wrap
// a HostAllocator or operate over memory a HostAllocator already produced.
type HostAllocator struct {
	name string
}

// NewHostAllocator creates a HostAllocator identified by name in diagnostics.
func NewHostAllocator(name string) *HostAllocator {
	if name == "" {
		name = "host"
	}
	return &HostAllocator{name: name}
}

func (h *HostAllocator) Name() string { return h.name }

func (h *HostAllocator) Allocate(info MemInfo) (Memory, error) {
	if info.Size == 0 {
		return Memory{}, forgekit.NewError("HostAllocator.Allocate", forgekit.CodeInvalidArgument, "zero size requested")
	}
	return Memory{Location: make([]byte, info.Size), Size: info.Size}, nil
}

func (h *HostAllocator) Deallocate(mem Memory) {
	// Backed by the Go GC; nothing to release explicitly.
}

var _ Allocator = (*HostAllocator)(nil)
