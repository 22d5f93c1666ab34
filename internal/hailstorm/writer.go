package hailstorm

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/aio"
	"github.com/forgelight/forgekit/internal/logging"
)

// Writer performs the Hailstorm archive write: a synchronous layout pass
// (BuildLayout) followed by an asynchronous write pass that submits one AIO
// request for the header, one for the resource table and path blob, one per
// metadata blob, and one per resource's data, then waits for every
// completion before returning.
type Writer struct {
	port    aio.Port
	logger  *logging.Logger
	metrics *forgekit.Metrics
	opts    LayoutOptions
}

// NewWriter creates a Writer that submits its writes through port.
func NewWriter(port aio.Port, logger *logging.Logger, metrics *forgekit.Metrics) *Writer {
	return &Writer{port: port, logger: logger, metrics: metrics}
}

// SetLayoutOptions overrides the seed chunks and chunk create/select
// callbacks BuildLayout uses for every subsequent Pack call. The zero value
// (the Writer's default) reproduces the historical fixed single-data-chunk
// policy.
func (w *Writer) SetLayoutOptions(opts LayoutOptions) {
	w.opts = opts
}

// Stats reports what a Pack call wrote.
type Stats struct {
	ResourceCount int
	TotalBytes    int64
}

// Pack lays out entries and writes the resulting archive to f, starting at
// offset 0.
func (w *Writer) Pack(f *os.File, entries []Entry) (Stats, error) {
	start := time.Now()

	layout, err := BuildLayout(entries, w.opts)
	if err != nil {
		return Stats{}, forgekit.WrapError("Writer.Pack", err)
	}

	metaOffset := alignUp(headerSize, layout.Align)
	dataOffset := alignUp(metaOffset+layout.MetaChunk.Size, layout.Align)

	header := make([]byte, headerSize)
	copy(header[0:4], Magic[:])
	putU32(header, 4, FormatVersion)
	putU32(header, 8, 2) // chunk count: one meta, one data
	putU32(header, 12, uint32(len(entries)))
	putU32(header, 16, metaOffset)
	putU32(header, 20, layout.MetaChunk.Size)
	putU32(header, 24, dataOffset)
	putU32(header, 28, layout.DataChunk.Size)

	type job struct {
		offset int64
		data   []byte
	}
	jobs := []job{
		{offset: 0, data: header},
		{offset: int64(metaOffset), data: layout.tablePayload},
	}
	for i, p := range layout.placed {
		if len(layout.metaBlobs[i]) > 0 {
			jobs = append(jobs, job{offset: int64(metaOffset) + int64(p.metaOffset), data: layout.metaBlobs[i]})
		}
		jobs = append(jobs, job{offset: int64(dataOffset) + int64(p.dataOffset), data: p.entry.Data})
	}

	var wg sync.WaitGroup
	var firstErr atomic.Pointer[error]
	wg.Add(len(jobs))

	for _, j := range jobs {
		j := j
		status := w.port.Submit(aio.Request{
			Op:     aio.OpWrite,
			FD:     f.Fd(),
			Offset: j.offset,
			Buffer: j.data,
			Callback: func(n int, err error) {
				if err != nil {
					wrapped := forgekit.WrapError("Writer.Pack", err)
					var asErr error = wrapped
					firstErr.CompareAndSwap(nil, &asErr)
				}
				wg.Done()
			},
		})
		if status == aio.Failed {
			// The synchronous-completion path already invoked Callback
			// (and therefore wg.Done) before Submit returned.
			continue
		}
	}

	wg.Wait()
	if p := firstErr.Load(); p != nil {
		return Stats{}, *p
	}

	var total int64
	for _, e := range entries {
		total += int64(len(e.Data))
	}
	if w.metrics != nil {
		w.metrics.RecordArchivePacked(len(entries), total, uint64(time.Since(start).Nanoseconds()))
	}
	return Stats{ResourceCount: len(entries), TotalBytes: total}, nil
}
