package hailstorm

import (
	"bytes"
	"os"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/metadata"
)

// ReadEntry is one resource recovered from an archive by Read. Metadata is
// nil when the resource was packed with a zero-length metadata blob.
type ReadEntry struct {
	Name     string
	Data     []byte
	Metadata *metadata.Metadata
}

// Read parses an archive previously written by Writer.Pack back into its
// entries, verifying the magic header.
func Read(f *os.File) ([]ReadEntry, error) {
	header := make([]byte, headerSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return nil, forgekit.WrapError("hailstorm.Read", err)
	}
	if string(header[0:4]) != string(Magic[:]) {
		return nil, forgekit.NewError("hailstorm.Read", forgekit.CodeConfigIsInvalid, "bad archive magic")
	}

	resourceCount := getU32(header, 12)
	metaOffset := getU32(header, 16)
	metaSize := getU32(header, 20)
	dataOffset := getU32(header, 24)

	metaPayload := make([]byte, metaSize)
	if _, err := f.ReadAt(metaPayload, int64(metaOffset)); err != nil {
		return nil, forgekit.WrapError("hailstorm.Read", err)
	}

	pathBlobStart := int(resourceCount) * resourceRowSize
	entries := make([]ReadEntry, resourceCount)
	for i := 0; i < int(resourceCount); i++ {
		row := metaPayload[i*resourceRowSize : (i+1)*resourceRowSize]
		nameOffset := getU32(row, 0)
		nameLength := getU32(row, 4)
		dataOff := getU32(row, 12)
		dataSize := getU32(row, 16)
		metaOff := getU32(row, 24)
		entryMetaSize := getU32(row, 28)

		name := string(metaPayload[pathBlobStart+int(nameOffset) : pathBlobStart+int(nameOffset)+int(nameLength)])

		data := make([]byte, dataSize)
		if dataSize > 0 {
			if _, err := f.ReadAt(data, int64(dataOffset)+int64(dataOff)); err != nil {
				return nil, forgekit.WrapError("hailstorm.Read", err)
			}
		}

		var md *metadata.Metadata
		if entryMetaSize > 0 {
			blob := make([]byte, entryMetaSize)
			if _, err := f.ReadAt(blob, int64(metaOffset)+int64(metaOff)); err != nil {
				return nil, forgekit.WrapError("hailstorm.Read", err)
			}
			decoded, err := metadata.Decode(bytes.NewReader(blob))
			if err != nil {
				return nil, forgekit.WrapError("hailstorm.Read", err)
			}
			md = decoded
		}

		entries[i] = ReadEntry{Name: name, Data: data, Metadata: md}
	}

	return entries, nil
}
