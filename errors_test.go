package forgekit

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("Tracker.LoadResource", CodeInvalidArgument, "invalid uri scheme")

	require.Equal(t, "Tracker.LoadResource", err.Op)
	require.Equal(t, CodeInvalidArgument, err.Code)
	require.Equal(t, "forgekit: Tracker.LoadResource: invalid uri scheme", err.Error())
}

func TestErrorWithErrno(t *testing.T) {
	err := NewErrorWithErrno("AIOPort.Read", CodeIOError, syscall.EIO)

	require.Equal(t, syscall.EIO, err.Errno)
	require.Equal(t, CodeIOError, err.Code)
}

func TestWrapErrorPreservesCode(t *testing.T) {
	inner := NewError("Provider.Load", CodeResourceNotFound, "no such resource")
	wrapped := WrapError("Tracker.LoadResource", inner)

	require.Equal(t, CodeResourceNotFound, wrapped.Code)
	require.True(t, errors.Is(wrapped, &Error{Code: CodeResourceNotFound}))
}

func TestWrapErrorMapsErrno(t *testing.T) {
	wrapped := WrapError("FSProvider.readFile", syscall.ENOENT)
	require.Equal(t, CodeResourceNotFound, wrapped.Code)
}

func TestWrapErrorNil(t *testing.T) {
	require.Nil(t, WrapError("noop", nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("Config.GetInt32", CodeConfigKeyNotFound, "missing key")
	require.True(t, IsCode(err, CodeConfigKeyNotFound))
	require.False(t, IsCode(err, CodeConfigIsInvalid))
	require.False(t, IsCode(errors.New("plain"), CodeConfigKeyNotFound))
}
