package metadata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTripInMemory(t *testing.T) {
	m := New()
	m.SetBool("dynamic", true)
	m.SetInt32("version", 7)
	m.SetStringArray("tags", []string{"npc", "boss"})

	b, err := m.GetBool("dynamic")
	require.NoError(t, err)
	require.True(t, b)

	i, err := m.GetInt32("version")
	require.NoError(t, err)
	require.EqualValues(t, 7, i)

	tags, err := m.GetStringArray("tags")
	require.NoError(t, err)
	require.Equal(t, []string{"npc", "boss"}, tags)
}

func TestGetWrongTypeReturnsTypeMissmatch(t *testing.T) {
	m := New()
	m.SetInt32("version", 1)
	_, err := m.GetString("version")
	require.Error(t, err)
}

func TestGetMissingKeyReturnsKeyNotFound(t *testing.T) {
	m := New()
	_, err := m.GetBool("missing")
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := New()
	m.SetBool("dynamic", true)
	m.SetInt32("count", 42)
	m.SetStringArray("tags", []string{"alpha", "beta", "gamma"})

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, m.Len(), decoded.Len())

	b, _ := decoded.GetBool("dynamic")
	require.True(t, b)
	c, _ := decoded.GetInt32("count")
	require.EqualValues(t, 42, c)
	tags, _ := decoded.GetStringArray("tags")
	require.Equal(t, []string{"alpha", "beta", "gamma"}, tags)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
	require.Error(t, err)
}

func TestHashKeyIsStable(t *testing.T) {
	require.Equal(t, HashKey("dynamic"), HashKey("dynamic"))
}
