package alloc

import "github.com/forgelight/forgekit"

// NullAllocator always fails to allocate. It is used in tests to prove a
// code path never allocates, and as the backing allocator for components
// that must run entirely out of caller-supplied memory.
type NullAllocator struct{}

func (NullAllocator) Name() string { return "null" }

func (NullAllocator) Allocate(info MemInfo) (Memory, error) {
	return Memory{}, forgekit.NewError("NullAllocator.Allocate", forgekit.CodeFail, "null allocator never allocates")
}

func (NullAllocator) Deallocate(Memory) {}

var _ Allocator = NullAllocator{}
