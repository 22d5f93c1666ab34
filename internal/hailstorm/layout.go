package hailstorm

import (
	"bytes"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/metadata"
)

// Entry is one resource to place in the archive during the layout pass.
// Metadata is optional; a nil Metadata places a zero-length metadata blob
// for the resource.
type Entry struct {
	Name     string
	Data     []byte
	Metadata *metadata.Metadata
}

// DataChunkSeed is the default initial candidate size for the archive's data
// chunk, used when BuildLayout is given no explicit seed for ChunkData. It
// grows (see growDataCandidate) whenever the resources placed so far would
// overflow it, mirroring the underlying packer's create_chunk_loose_resource
// growth rule: a chunk candidate that is too small for what it must hold is
// replaced by a bigger candidate rather than resized in place, and only the
// last candidate of a given kind is ever actually selected for writing.
const DataChunkSeed uint32 = 2 * 1024 * 1024

type placedResource struct {
	entry      Entry
	dataOffset uint32 // offset within the data chunk's payload
	metaOffset uint32 // offset within the metadata chunk's payload
	metaSize   uint32
}

// ChunkSeed is one caller-supplied starting candidate for the layout pass's
// chunk list (fn_chunk_create's base_chunk / layout step 1's seed list).
type ChunkSeed struct {
	Kind ChunkKind
	Size uint32
}

// ChunkCreateFunc proposes a replacement chunk candidate of kind sized to
// hold at least neededSize bytes (fn_chunk_create). Called whenever the
// current candidate for kind is too small for what has been placed so far.
type ChunkCreateFunc func(kind ChunkKind, neededSize, align uint32) Chunk

// ChunkSelectFunc picks the chunk of kind that layout ultimately selects for
// writing out of every candidate produced during the layout pass
// (fn_chunk_selector). Returns ok=false if no candidate of kind exists.
type ChunkSelectFunc func(chunks []Chunk, kind ChunkKind) (chunk Chunk, index int, ok bool)

// LayoutOptions configures BuildLayout's chunk placement policy. The zero
// value reproduces the writer's historical fixed policy: a single 2MiB data
// chunk seed, growth-on-overflow, last-of-kind selection.
type LayoutOptions struct {
	Align uint32
	// Seeds is the layout pass's starting chunk list (step 1). A nil Seeds
	// seeds a single ChunkData candidate of DataChunkSeed bytes.
	Seeds       []ChunkSeed
	CreateChunk ChunkCreateFunc
	SelectChunk ChunkSelectFunc
}

// Layout is the result of the synchronous layout pass: every resource has
// been assigned a place inside the (possibly several times grown) data and
// metadata chunks, and the metadata chunk's bytes — the chunk table, resource
// table, path blob, and per-resource metadata blobs — are fully computed and
// ready to write.
type Layout struct {
	Align        uint32
	Chunks       []Chunk // growth history; only the last-selected of each Kind is written
	DataChunk    Chunk
	MetaChunk    Chunk
	placed       []placedResource
	tablePayload []byte   // resource table rows + path blob, not including metadata blobs
	metaBlobs    [][]byte // metaBlobs[i] is placed[i]'s encoded metadata, in the same order
}

// BuildLayout runs the layout pass over entries: step 1 seeds a chunk
// candidate list (opts.Seeds, or the fixed default), step 2 grows or creates
// candidates as each entry is placed (opts.CreateChunk) and then picks the
// chunk ultimately written for each kind (opts.SelectChunk), and step 3/4
// compute the final placements and resource table.
func BuildLayout(entries []Entry, opts LayoutOptions) (*Layout, error) {
	align := opts.Align
	if align == 0 {
		align = DefaultAlignment
	}
	createChunk := opts.CreateChunk
	if createChunk == nil {
		createChunk = defaultCreateChunk
	}
	selector := opts.SelectChunk
	if selector == nil {
		selector = selectChunk
	}
	seeds := opts.Seeds
	if seeds == nil {
		seeds = []ChunkSeed{{Kind: ChunkData, Size: DataChunkSeed}}
	}

	var chunks []Chunk
	candidateSize := make(map[ChunkKind]uint32, len(seeds))
	for _, s := range seeds {
		chunks = append(chunks, Chunk{Kind: s.Kind, Size: s.Size, Align: align})
		candidateSize[s.Kind] = s.Size
	}
	if _, ok := candidateSize[ChunkData]; !ok {
		chunks = append(chunks, Chunk{Kind: ChunkData, Size: DataChunkSeed, Align: align})
		candidateSize[ChunkData] = DataChunkSeed
	}

	var placed []placedResource
	used := uint32(0)
	for _, e := range entries {
		size := uint32(len(e.Data))
		needed := used + alignUp(size, align)
		if needed > candidateSize[ChunkData] {
			nc := createChunk(ChunkData, needed, align)
			candidateSize[ChunkData] = nc.Size
			chunks = append(chunks, nc)
		}
		placed = append(placed, placedResource{entry: e, dataOffset: used})
		used += alignUp(size, align)
	}

	dataChunk, _, ok := selector(chunks, ChunkData)
	if !ok {
		return nil, forgekit.NewError("BuildLayout", forgekit.CodeFail, "no data chunk candidate produced")
	}
	dataChunk.Size = used // trim the final candidate down to what was actually used

	tablePayload, metaOffsets, metaBlobs, err := buildMetaPayload(placed)
	if err != nil {
		return nil, forgekit.WrapError("BuildLayout", err)
	}
	var metaBlobsSize uint32
	for i := range placed {
		placed[i].metaOffset = metaOffsets[i]
		placed[i].metaSize = uint32(len(metaBlobs[i]))
		metaBlobsSize += placed[i].metaSize
	}

	metaNeeded := uint32(len(tablePayload)) + metaBlobsSize
	if metaSeed, ok := candidateSize[ChunkMetadata]; ok && metaNeeded > metaSeed {
		nc := createChunk(ChunkMetadata, metaNeeded, align)
		chunks = append(chunks, nc)
	} else if !ok {
		chunks = append(chunks, Chunk{Kind: ChunkMetadata, Size: metaNeeded, Align: align})
	}
	metaChunk, _, ok := selector(chunks, ChunkMetadata)
	if !ok {
		return nil, forgekit.NewError("BuildLayout", forgekit.CodeFail, "no metadata chunk candidate produced")
	}
	metaChunk.Size = metaNeeded

	return &Layout{
		Align:        align,
		Chunks:       chunks,
		DataChunk:    dataChunk,
		MetaChunk:    metaChunk,
		placed:       placed,
		tablePayload: tablePayload,
		metaBlobs:    metaBlobs,
	}, nil
}

// growDataCandidate mirrors create_chunk_loose_resource's grow rule: the new
// candidate must hold needed bytes plus one further alignment step of
// headroom, so the next resource placed rarely forces an immediate second
// growth. Used as the default ChunkCreateFunc for every chunk kind.
func growDataCandidate(needed, align uint32) uint32 {
	return alignUp(needed, align) + align
}

func defaultCreateChunk(kind ChunkKind, neededSize, align uint32) Chunk {
	return Chunk{Kind: kind, Size: growDataCandidate(neededSize, align), Align: align}
}

// selectChunk returns the last chunk of the given kind in chunks — the only
// one of that kind actually written to the archive; every earlier candidate
// of the same kind was an abandoned growth step. The default ChunkSelectFunc.
func selectChunk(chunks []Chunk, kind ChunkKind) (Chunk, int, bool) {
	for i := len(chunks) - 1; i >= 0; i-- {
		if chunks[i].Kind == kind {
			return chunks[i], i, true
		}
	}
	return Chunk{}, -1, false
}

// buildMetaPayload encodes the resource table and path blob (in that order)
// and reports, for each placed resource, its encoded metadata blob and the
// absolute offset within the metadata chunk that blob will be written to.
// The blobs themselves are returned separately rather than appended here:
// the write pass issues one AIO write per metadata blob (spec §4.11), not a
// single write covering the whole metadata chunk.
func buildMetaPayload(placed []placedResource) ([]byte, []uint32, [][]byte, error) {
	var pathBlob []byte
	nameOffsets := make([]uint32, len(placed))
	encoded := make([][]byte, len(placed))
	metaOffsets := make([]uint32, len(placed))

	var metaBlobsSize uint32
	for i, p := range placed {
		nameOffsets[i] = uint32(len(pathBlob))
		pathBlob = append(pathBlob, p.entry.Name...)

		blob, err := encodeMetadata(p.entry.Metadata)
		if err != nil {
			return nil, nil, nil, err
		}
		encoded[i] = blob
		metaOffsets[i] = metaBlobsSize
		metaBlobsSize += uint32(len(blob))
	}

	tableSize := uint32(len(placed)) * resourceRowSize
	pathBlobSize := uint32(len(pathBlob))
	// Metadata blobs sit after the table and path blob within the metadata
	// chunk; metaOffsets so far were relative to the start of the blob
	// region, so shift them into absolute chunk offsets.
	for i := range metaOffsets {
		metaOffsets[i] += tableSize + pathBlobSize
	}

	rows := make([]resourceTableEntry, len(placed))
	for i, p := range placed {
		rows[i] = resourceTableEntry{
			NameOffset:     nameOffsets[i],
			NameLength:     uint32(len(p.entry.Name)),
			DataChunkIndex: dataChunkIndex,
			DataOffset:     p.dataOffset,
			DataSize:       uint32(len(p.entry.Data)),
			MetaChunkIndex: metaChunkIndex,
			MetaOffset:     metaOffsets[i],
			MetaSize:       uint32(len(encoded[i])),
		}
	}

	buf := make([]byte, 0, tableSize+pathBlobSize)
	for _, row := range rows {
		var rowBuf [resourceRowSize]byte
		putU32(rowBuf[:], 0, row.NameOffset)
		putU32(rowBuf[:], 4, row.NameLength)
		putU32(rowBuf[:], 8, row.DataChunkIndex)
		putU32(rowBuf[:], 12, row.DataOffset)
		putU32(rowBuf[:], 16, row.DataSize)
		putU32(rowBuf[:], 20, row.MetaChunkIndex)
		putU32(rowBuf[:], 24, row.MetaOffset)
		putU32(rowBuf[:], 28, row.MetaSize)
		buf = append(buf, rowBuf[:]...)
	}
	buf = append(buf, pathBlob...)
	return buf, metaOffsets, encoded, nil
}

func encodeMetadata(m *metadata.Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
