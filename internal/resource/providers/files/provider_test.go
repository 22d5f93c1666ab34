package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderRefreshAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.glb")
	require.NoError(t, os.WriteFile(path, []byte("binary-model-data"), 0o644))

	p := New([]string{path})
	resources, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	require.Equal(t, "model.glb", resources[0].Name)

	data, err := p.Load(context.Background(), resources[0].URI)
	require.NoError(t, err)
	require.Equal(t, []byte("binary-model-data"), data)
}

func TestProviderRefreshMissingFile(t *testing.T) {
	p := New([]string{"/does/not/exist"})
	_, err := p.Refresh(context.Background())
	require.Error(t, err)
}
