package alloc

import "sync/atomic"

// ProxyAllocator wraps a backing Allocator and attributes every allocation
// and deallocation to a name, tracking live byte and allocation counts. It
// never allocates memory itself.
type ProxyAllocator struct {
	name    string
	backing Allocator

	liveBytes atomic.Int64
	liveCount atomic.Int64
	totalCount atomic.Uint64
}

// NewProxyAllocator creates a named attribution wrapper around backing.
func NewProxyAllocator(name string, backing Allocator) *ProxyAllocator {
	return &ProxyAllocator{name: name, backing: backing}
}

func (p *ProxyAllocator) Name() string { return p.name }

func (p *ProxyAllocator) Allocate(info MemInfo) (Memory, error) {
	mem, err := p.backing.Allocate(info)
	if err != nil {
		return Memory{}, err
	}
	p.liveBytes.Add(int64(mem.Size))
	p.liveCount.Add(1)
	p.totalCount.Add(1)
	return mem, nil
}

func (p *ProxyAllocator) Deallocate(mem Memory) {
	p.backing.Deallocate(mem)
	p.liveBytes.Add(-int64(mem.Size))
	p.liveCount.Add(-1)
}

// LiveBytes returns the number of bytes currently attributed to this proxy.
func (p *ProxyAllocator) LiveBytes() int64 { return p.liveBytes.Load() }

// LiveCount returns the number of outstanding allocations.
func (p *ProxyAllocator) LiveCount() int64 { return p.liveCount.Load() }

// TotalAllocations returns the lifetime allocation count, for diagnostics.
func (p *ProxyAllocator) TotalAllocations() uint64 { return p.totalCount.Load() }

var _ Allocator = (*ProxyAllocator)(nil)
