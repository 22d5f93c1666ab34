package fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgelight/forgekit/internal/metadata"
	"github.com/forgelight/forgekit/internal/resource"
)

func TestProviderRefreshSkipsSidecarsAndAttachesMetadata(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sprite.png"), []byte("pixels"), 0o644))

	md := metadata.New()
	md.SetBool("dynamic", false)
	var buf bytes.Buffer
	require.NoError(t, md.Encode(&buf))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sprite.png.isrm"), buf.Bytes(), 0o644))

	p := New(root)
	resources, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	require.Equal(t, "sprite.png", resources[0].Name)
	require.NotNil(t, resources[0].Metadata)

	v, err := resources[0].Metadata.GetBool("dynamic")
	require.NoError(t, err)
	require.False(t, v)
}

func TestProviderLoad(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.bin"), []byte("hello"), 0o644))

	p := New(root)
	resources, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)

	data, err := p.Load(context.Background(), resources[0].URI)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestWriterCreateAndWrite(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	uri := resource.URI{Scheme: "file", Host: filepath.ToSlash(root), Path: "/nested/out.bin"}
	require.NoError(t, w.CreateResource(context.Background(), uri))
	require.NoError(t, w.WriteResource(context.Background(), uri, []byte("payload")))

	got, err := os.ReadFile(filepath.Join(root, "nested", "out.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}
