package hailstorm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgelight/forgekit/internal/aio"
	"github.com/forgelight/forgekit/internal/metadata"
)

func TestPackThreeFilesRoundTrip(t *testing.T) {
	// One large resource forces the data chunk to grow past its 2MiB seed,
	// toward roughly 16MiB — exercising both a small initial candidate and
	// the grown replacement in a single pack.
	small := make([]byte, 1024)
	for i := range small {
		small[i] = byte(i)
	}
	medium := make([]byte, 512*1024)
	for i := range medium {
		medium[i] = byte(i * 3)
	}
	large := make([]byte, 15*1024*1024)
	for i := range large {
		large[i] = byte(i * 7)
	}

	entries := []Entry{
		{Name: "small.bin", Data: small},
		{Name: "large.bin", Data: large},
		{Name: "medium.bin", Data: medium},
	}

	port, err := aio.NewPort(aio.DefaultConfig(), nil)
	require.NoError(t, err)
	defer port.Close()

	w := NewWriter(port, nil, nil)

	path := filepath.Join(t.TempDir(), "pack.hlsm")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	stats, err := w.Pack(f, entries)
	require.NoError(t, err)
	require.Equal(t, 3, stats.ResourceCount)

	read, err := Read(f)
	require.NoError(t, err)
	require.Len(t, read, 3)

	byName := map[string][]byte{}
	for _, e := range read {
		byName[e.Name] = e.Data
	}
	require.Equal(t, small, byName["small.bin"])
	require.Equal(t, large, byName["large.bin"])
	require.Equal(t, medium, byName["medium.bin"])
}

func TestBuildLayoutGrowsDataChunkWhenSeedTooSmall(t *testing.T) {
	entries := []Entry{
		{Name: "a", Data: make([]byte, 1024)},
		{Name: "b", Data: make([]byte, 4*1024*1024)},
	}

	layout, err := BuildLayout(entries, LayoutOptions{})
	require.NoError(t, err)

	// More than one Data candidate should appear in the growth history once
	// the seed (2MiB) can no longer hold everything placed so far.
	dataCandidates := 0
	for _, c := range layout.Chunks {
		if c.Kind == ChunkData {
			dataCandidates++
		}
	}
	require.Greater(t, dataCandidates, 1)
	require.GreaterOrEqual(t, layout.DataChunk.Size, uint32(len(entries[0].Data)+len(entries[1].Data)))
}

func TestBuildLayoutSingleSmallFileNeedsNoGrowth(t *testing.T) {
	entries := []Entry{{Name: "only.bin", Data: make([]byte, 128)}}
	layout, err := BuildLayout(entries, LayoutOptions{})
	require.NoError(t, err)

	dataCandidates := 0
	for _, c := range layout.Chunks {
		if c.Kind == ChunkData {
			dataCandidates++
		}
	}
	require.Equal(t, 1, dataCandidates)
}

func TestPackRoundTripSeedChunksNeedNoGrowth(t *testing.T) {
	// Scenario 4: pack three small files into caller-seeded chunks
	// {type=2, 16MiB}, {type=1, 2MiB}; all three should fit with no growth.
	entries := []Entry{
		{Name: "a.bin", Data: make([]byte, 3)},
		{Name: "b.bin", Data: make([]byte, 17)},
		{Name: "c.bin", Data: make([]byte, 4096)},
	}

	port, err := aio.NewPort(aio.DefaultConfig(), nil)
	require.NoError(t, err)
	defer port.Close()

	w := NewWriter(port, nil, nil)
	opts := LayoutOptions{
		Seeds: []ChunkSeed{
			{Kind: ChunkData, Size: 16 * 1024 * 1024},
			{Kind: ChunkMetadata, Size: 2 * 1024 * 1024},
		},
	}
	w.SetLayoutOptions(opts)

	layout, err := BuildLayout(entries, opts)
	require.NoError(t, err)
	require.Len(t, layout.Chunks, 2, "the two seeds should hold everything without a grown candidate")

	path := filepath.Join(t.TempDir(), "seeded.hlsm")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	stats, err := w.Pack(f, entries)
	require.NoError(t, err)
	require.Equal(t, 3, stats.ResourceCount)

	read, err := Read(f)
	require.NoError(t, err)
	require.Len(t, read, 3)

	byName := map[string][]byte{}
	for _, e := range read {
		byName[e.Name] = e.Data
	}
	require.Len(t, byName["c.bin"], 4096)
	require.Equal(t, entries[2].Data, byName["c.bin"])
}

func TestPackRoundTripPreservesPerResourceMetadata(t *testing.T) {
	md := metadata.New()
	md.SetString("mime", "text/plain")
	md.SetInt32("version", 3)
	md.SetStringArray("tags", []string{"x", "yy", "zzz"})

	entries := []Entry{
		{Name: "with-meta.bin", Data: []byte("hello"), Metadata: md},
		{Name: "no-meta.bin", Data: []byte("world")},
	}

	port, err := aio.NewPort(aio.DefaultConfig(), nil)
	require.NoError(t, err)
	defer port.Close()

	w := NewWriter(port, nil, nil)

	path := filepath.Join(t.TempDir(), "meta.hlsm")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = w.Pack(f, entries)
	require.NoError(t, err)

	read, err := Read(f)
	require.NoError(t, err)
	require.Len(t, read, 2)

	byName := map[string]ReadEntry{}
	for _, e := range read {
		byName[e.Name] = e
	}

	withMeta := byName["with-meta.bin"]
	require.NotNil(t, withMeta.Metadata)
	mime, err := withMeta.Metadata.GetString("mime")
	require.NoError(t, err)
	require.Equal(t, "text/plain", mime)
	version, err := withMeta.Metadata.GetInt32("version")
	require.NoError(t, err)
	require.Equal(t, int32(3), version)
	tags, err := withMeta.Metadata.GetStringArray("tags")
	require.NoError(t, err)
	require.Equal(t, []string{"x", "yy", "zzz"}, tags)

	require.Nil(t, byName["no-meta.bin"].Metadata)
}
