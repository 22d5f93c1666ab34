package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURNIsNameOnly(t *testing.T) {
	u, err := ParseURI("urn:player/idle-animation")
	require.NoError(t, err)
	require.True(t, u.IsURN())
	require.Equal(t, "player/idle-animation", u.Name)
	require.Equal(t, "urn:player/idle-animation", u.String())
}

func TestParseSchemeHostPath(t *testing.T) {
	u, err := ParseURI("file://assets/textures/grass.png")
	require.NoError(t, err)
	require.Equal(t, "file", u.Scheme)
	require.Equal(t, "assets", u.Host)
	require.Equal(t, "/textures/grass.png", u.Path)
	require.Equal(t, "file://assets/textures/grass.png", u.String())
}

func TestParseURIRejectsMalformed(t *testing.T) {
	_, err := ParseURI("")
	require.Error(t, err)

	_, err = ParseURI("no-scheme-separator")
	require.Error(t, err)
}
