//go:build !linux

package aio

import (
	"os"
	"runtime"

	"github.com/forgelight/forgekit/internal/logging"
)

// syncPort is the portable fallback completion port: every request is
// serviced synchronously with a direct pread/pwrite against the file
// descriptor wrapped as an *os.File, so Submit always returns Completed
// (or Failed) and never Pending.
type syncPort struct {
	logger *logging.Logger
}

// NewPort creates the portable synchronous Port. cfg is accepted for API
// parity with the Linux implementation but otherwise unused.
func NewPort(cfg Config, logger *logging.Logger) (Port, error) {
	return &syncPort{logger: logger}, nil
}

func (p *syncPort) Submit(req Request) Status {
	f := os.NewFile(req.FD, "aio")
	if f == nil {
		if req.Callback != nil {
			req.Callback(0, os.ErrInvalid)
		}
		return Failed
	}
	// The caller, not this wrapper, owns the underlying fd's lifetime;
	// detach the finalizer so garbage-collecting f never closes it.
	runtime.SetFinalizer(f, nil)

	var n int
	var err error
	switch req.Op {
	case OpRead:
		n, err = f.ReadAt(req.Buffer, req.Offset)
	case OpWrite:
		n, err = f.WriteAt(req.Buffer, req.Offset)
	}

	if req.Callback != nil {
		req.Callback(n, err)
	}
	if err != nil {
		return Failed
	}
	return Completed
}

func (p *syncPort) Poll() int { return 0 }

func (p *syncPort) Close() error { return nil }

var _ Port = (*syncPort)(nil)
