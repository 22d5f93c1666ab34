package alloc

import (
	"sort"
	"sync"

	"github.com/forgelight/forgekit"
)

// ForwardAllocator is a pooled allocator over a fixed set of size buckets: an
// allocation request is rounded up to the smallest bucket that fits and
// served from a sync.Pool for that bucket, so repeated same-size allocations
// (task result slots, chunk staging buffers) reuse backing arrays instead of
// growing garbage. Each request takes one whole bucket-sized buffer; there is
// no bump-pointer allocation within a bucket. Requests larger than the
// biggest bucket fall through to the backing allocator directly.
type ForwardAllocator struct {
	backing Allocator
	buckets []uint32 // ascending
	pools   map[uint32]*sync.Pool
}

// NewForwardAllocator builds a ForwardAllocator with the given bucket sizes,
// backed by backing for anything outside the bucket range.
func NewForwardAllocator(backing Allocator, bucketSizes []uint32) *ForwardAllocator {
	buckets := append([]uint32(nil), bucketSizes...)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	pools := make(map[uint32]*sync.Pool, len(buckets))
	for _, size := range buckets {
		size := size
		pools[size] = &sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		}
	}

	return &ForwardAllocator{backing: backing, buckets: buckets, pools: pools}
}

func (f *ForwardAllocator) Name() string { return "forward" }

func (f *ForwardAllocator) bucketFor(size uint32) (uint32, bool) {
	for _, b := range f.buckets {
		if size <= b {
			return b, true
		}
	}
	return 0, false
}

func (f *ForwardAllocator) Allocate(info MemInfo) (Memory, error) {
	if info.Size == 0 {
		return Memory{}, forgekit.NewError("ForwardAllocator.Allocate", forgekit.CodeInvalidArgument, "zero size requested")
	}

	bucket, ok := f.bucketFor(info.Size)
	if !ok {
		return f.backing.Allocate(info)
	}

	buf := f.pools[bucket].Get().(*[]byte)
	return Memory{Location: (*buf)[:info.Size], Size: info.Size}, nil
}

func (f *ForwardAllocator) Deallocate(mem Memory) {
	cp := uint32(cap(mem.Location))
	if pool, ok := f.pools[cp]; ok {
		full := mem.Location[:cp]
		pool.Put(&full)
		return
	}
	f.backing.Deallocate(mem)
}

var _ Allocator = (*ForwardAllocator)(nil)
