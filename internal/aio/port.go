// Package aio implements the async I/O completion port used by the
// resource tracker's file providers and the Hailstorm writer's async write
// pass: callers submit a read or write request against an already-open
// file descriptor and get back whether it completed inline or is pending a
// later completion callback.
package aio

// Op selects the operation a Request performs.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

// Status is the immediate outcome of submitting a Request.
type Status uint8

const (
	Completed Status = iota
	Pending
	Failed
)

// Request describes one async read or write. Callback is invoked exactly
// once, either inline (if Submit returns Completed or Failed) or later from
// the port's completion loop (if Submit returns Pending).
type Request struct {
	Op       Op
	FD       uintptr
	Offset   int64
	Buffer   []byte
	Userdata uint64
	Callback func(n int, err error)
}

// Port is the completion-port abstraction. Implementations exist for Linux
// (backed by io_uring) and everywhere else (a synchronous fallback that
// finishes every request inside Submit and never reports Pending).
type Port interface {
	// Submit enqueues req. The returned Status reflects whether req has
	// already completed (Callback has already run) by the time Submit
	// returns, or is still Pending (Callback will run from a later call to
	// Poll/the port's internal completion goroutine).
	Submit(req Request) Status

	// Poll drives completion processing; implementations that complete
	// synchronously in Submit treat this as a no-op. Returns the number of
	// completions processed.
	Poll() int

	// Close releases the port's resources. Pending requests submitted
	// before Close may never complete.
	Close() error
}

// Config configures a Port.
type Config struct {
	// WorkerLimit bounds the number of requests a Linux port keeps
	// in-flight in the kernel at once.
	WorkerLimit uint32
}

// DefaultConfig returns the packager's default port sizing.
func DefaultConfig() Config {
	return Config{WorkerLimit: 4}
}
