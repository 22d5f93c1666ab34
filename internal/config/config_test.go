package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfig(t *testing.T) {
	cfg, err := Load(strings.NewReader(`{"verbose": true, "thread_count": 12, "inputs": ["a", "b"]}`))
	require.NoError(t, err)

	v, err := cfg.GetBool("verbose")
	require.NoError(t, err)
	require.True(t, v)

	n, err := cfg.GetInt32("thread_count")
	require.NoError(t, err)
	require.EqualValues(t, 12, n)

	inputs, err := cfg.GetStringArray("inputs")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, inputs)
}

func TestLoadInvalidDocument(t *testing.T) {
	_, err := Load(strings.NewReader("not json and not binary metadata"))
	require.Error(t, err)
}

func TestGetInt32OrDefault(t *testing.T) {
	cfg, err := Load(strings.NewReader(`{"known": 3}`))
	require.NoError(t, err)

	v, err := cfg.GetInt32OrDefault("known", 99)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	v, err = cfg.GetInt32OrDefault("unknown", 99)
	require.NoError(t, err)
	require.EqualValues(t, 99, v)
}
