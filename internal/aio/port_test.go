package aio

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPortWriteThenReadRoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "aio-*.bin")
	require.NoError(t, err)
	defer f.Close()

	port, err := NewPort(DefaultConfig(), nil)
	require.NoError(t, err)
	defer port.Close()

	payload := []byte("hailstorm chunk payload")
	writeDone := make(chan error, 1)
	status := port.Submit(Request{
		Op:     OpWrite,
		FD:     f.Fd(),
		Offset: 0,
		Buffer: payload,
		Callback: func(n int, err error) {
			writeDone <- err
		},
	})
	require.NotEqual(t, Failed, status)

	select {
	case err := <-writeDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete")
	}

	readBuf := make([]byte, len(payload))
	readDone := make(chan error, 1)
	status = port.Submit(Request{
		Op:     OpRead,
		FD:     f.Fd(),
		Offset: 0,
		Buffer: readBuf,
		Callback: func(n int, err error) {
			readDone <- err
		},
	})
	require.NotEqual(t, Failed, status)

	select {
	case err := <-readDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not complete")
	}

	require.Equal(t, payload, readBuf)
}
