// Package hailstorm implements the Hailstorm binary package writer: a
// synchronous layout pass that assigns each resource to an
// alignment-padded chunk, followed by an asynchronous write pass that
// streams the header, tables, and chunk payloads out through an AIO port.
package hailstorm

import "encoding/binary"

// Magic identifies a Hailstorm archive.
var Magic = [4]byte{'H', 'L', 'S', 'M'}

const FormatVersion uint32 = 1

// ChunkKind distinguishes metadata chunks (path blob, tables, per-resource
// metadata blobs — small, frequently-read) from data chunks (the bulk
// resource bytes).
type ChunkKind uint8

const (
	ChunkMetadata ChunkKind = 1
	ChunkData     ChunkKind = 2
)

// DefaultAlignment is the byte alignment chunk payloads are padded to.
const DefaultAlignment uint32 = 4096

// Chunk is one contiguous, aligned region of the archive.
type Chunk struct {
	Kind   ChunkKind
	Offset uint32
	Size   uint32
	Align  uint32
}

// The archive always settles on exactly two written chunks regardless of how
// many growth candidates the layout pass produced: the selected metadata
// chunk at index 0, the selected data chunk at index 1.
const (
	metaChunkIndex = 0
	dataChunkIndex = 1
)

// resourceTableEntry mirrors the on-disk resource table row, in write order:
// path_offset, path_size, data_chunk, data_offset, data_size, meta_chunk,
// meta_offset, meta_size.
type resourceTableEntry struct {
	NameOffset     uint32
	NameLength     uint32
	DataChunkIndex uint32
	DataOffset     uint32 // offset within the data chunk
	DataSize       uint32
	MetaChunkIndex uint32
	MetaOffset     uint32 // offset within the metadata chunk's payload
	MetaSize       uint32
}

const (
	headerSize        = 4 + 4*7 // magic + 7 uint32 fields
	chunkTableRowSize = 4 + 4 + 4 + 4
	resourceRowSize   = 4 * 8
)

func putU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

func getU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}
