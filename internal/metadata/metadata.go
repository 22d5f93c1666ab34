// Package metadata implements the typed key-value metadata format shared by
// resource sidecar (.isrm) files, the Hailstorm archive's metadata blobs,
// and internal/config's configuration documents: stable string-hash keys,
// tagged-union values, and a lossless binary round-trip.
package metadata

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"

	"github.com/forgelight/forgekit"
)

// Magic identifies a binary metadata blob.
var Magic = [4]byte{'F', 'K', 'M', 'D'}

// ValueType tags the kind of value stored for a key.
type ValueType uint8

const (
	TypeBool ValueType = iota
	TypeInt32
	TypeFloat
	TypeString
	TypeBoolArray
	TypeInt32Array
	TypeFloatArray
	TypeStringArray
)

type entry struct {
	typ   ValueType
	bval  bool
	ival  int32
	fval  float32
	sval  string
	bvals []bool
	ivals []int32
	fvals []float32
	svals []string
}

// Metadata is an ordered typed key-value map, keyed by a stable hash of the
// key string (so lookups never need the original string at runtime) while
// still retaining the strings themselves for encode/decode and diagnostics.
type Metadata struct {
	order   []uint64 // insertion order of key hashes, for deterministic encode
	keys    map[uint64]string
	entries map[uint64]entry
}

// New creates an empty Metadata document.
func New() *Metadata {
	return &Metadata{keys: map[uint64]string{}, entries: map[uint64]entry{}}
}

// HashKey returns the stable hash used to index key.
func HashKey(key string) uint64 {
	return xxhash.ChecksumString64(key)
}

func (m *Metadata) set(key string, e entry) {
	h := HashKey(key)
	if _, exists := m.entries[h]; !exists {
		m.order = append(m.order, h)
	}
	m.keys[h] = key
	m.entries[h] = e
}

func (m *Metadata) SetBool(key string, v bool) { m.set(key, entry{typ: TypeBool, bval: v}) }
func (m *Metadata) SetInt32(key string, v int32) { m.set(key, entry{typ: TypeInt32, ival: v}) }
func (m *Metadata) SetFloat(key string, v float32) { m.set(key, entry{typ: TypeFloat, fval: v}) }
func (m *Metadata) SetString(key string, v string) { m.set(key, entry{typ: TypeString, sval: v}) }
func (m *Metadata) SetBoolArray(key string, v []bool) { m.set(key, entry{typ: TypeBoolArray, bvals: v}) }
func (m *Metadata) SetInt32Array(key string, v []int32) { m.set(key, entry{typ: TypeInt32Array, ivals: v}) }
func (m *Metadata) SetFloatArray(key string, v []float32) { m.set(key, entry{typ: TypeFloatArray, fvals: v}) }
func (m *Metadata) SetStringArray(key string, v []string) { m.set(key, entry{typ: TypeStringArray, svals: v}) }

func (m *Metadata) lookup(op, key string, want ValueType) (entry, error) {
	h := HashKey(key)
	e, ok := m.entries[h]
	if !ok {
		return entry{}, forgekit.NewError(op, forgekit.CodeConfigKeyNotFound, "key not found: "+key)
	}
	if e.typ != want {
		return entry{}, forgekit.NewError(op, forgekit.CodeConfigValueTypeMissmatch, "key has a different type: "+key)
	}
	return e, nil
}

func (m *Metadata) GetBool(key string) (bool, error) {
	e, err := m.lookup("Metadata.GetBool", key, TypeBool)
	return e.bval, err
}

func (m *Metadata) GetInt32(key string) (int32, error) {
	e, err := m.lookup("Metadata.GetInt32", key, TypeInt32)
	return e.ival, err
}

func (m *Metadata) GetFloat(key string) (float32, error) {
	e, err := m.lookup("Metadata.GetFloat", key, TypeFloat)
	return e.fval, err
}

func (m *Metadata) GetString(key string) (string, error) {
	e, err := m.lookup("Metadata.GetString", key, TypeString)
	return e.sval, err
}

func (m *Metadata) GetBoolArray(key string) ([]bool, error) {
	e, err := m.lookup("Metadata.GetBoolArray", key, TypeBoolArray)
	return e.bvals, err
}

func (m *Metadata) GetInt32Array(key string) ([]int32, error) {
	e, err := m.lookup("Metadata.GetInt32Array", key, TypeInt32Array)
	return e.ivals, err
}

func (m *Metadata) GetFloatArray(key string) ([]float32, error) {
	e, err := m.lookup("Metadata.GetFloatArray", key, TypeFloatArray)
	return e.fvals, err
}

func (m *Metadata) GetStringArray(key string) ([]string, error) {
	e, err := m.lookup("Metadata.GetStringArray", key, TypeStringArray)
	return e.svals, err
}

// Has reports whether key is present, regardless of type.
func (m *Metadata) Has(key string) bool {
	_, ok := m.entries[HashKey(key)]
	return ok
}

// Len returns the number of keys stored.
func (m *Metadata) Len() int { return len(m.order) }

// Keys returns the stored keys in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.keys[h])
	}
	return out
}

// CopyInto copies every key in m into dst, overwriting any existing value
// dst already has for that key.
func (m *Metadata) CopyInto(dst *Metadata) {
	for _, h := range m.order {
		dst.set(m.keys[h], m.entries[h])
	}
}

// Encode serializes the document to the binary metadata format: a 4-byte
// magic, a uint32 entry count, then for each entry (in insertion order) the
// key string, a type tag byte, and the tagged value.
func (m *Metadata) Encode(w io.Writer) error {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	writeU32(&buf, uint32(len(m.order)))

	for _, h := range m.order {
		e := m.entries[h]
		writeString(&buf, m.keys[h])
		buf.WriteByte(byte(e.typ))
		switch e.typ {
		case TypeBool:
			writeBool(&buf, e.bval)
		case TypeInt32:
			writeI32(&buf, e.ival)
		case TypeFloat:
			writeF32(&buf, e.fval)
		case TypeString:
			writeString(&buf, e.sval)
		case TypeBoolArray:
			writeU32(&buf, uint32(len(e.bvals)))
			for _, v := range e.bvals {
				writeBool(&buf, v)
			}
		case TypeInt32Array:
			writeU32(&buf, uint32(len(e.ivals)))
			for _, v := range e.ivals {
				writeI32(&buf, v)
			}
		case TypeFloatArray:
			writeU32(&buf, uint32(len(e.fvals)))
			for _, v := range e.fvals {
				writeF32(&buf, v)
			}
		case TypeStringArray:
			writeU32(&buf, uint32(len(e.svals)))
			for _, v := range e.svals {
				writeString(&buf, v)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "metadata: write")
}

// Decode parses a binary metadata blob written by Encode.
func Decode(r io.Reader) (*Metadata, error) {
	br := bufReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errors.Wrap(err, "metadata: read magic")
	}
	if magic != Magic {
		return nil, forgekit.NewError("metadata.Decode", forgekit.CodeConfigIsInvalid, "bad magic header")
	}

	count, err := readU32(br)
	if err != nil {
		return nil, errors.Wrap(err, "metadata: read count")
	}

	m := New()
	for i := uint32(0); i < count; i++ {
		key, err := readString(br)
		if err != nil {
			return nil, errors.Wrap(err, "metadata: read key")
		}
		typByte, err := readByte(br)
		if err != nil {
			return nil, errors.Wrap(err, "metadata: read type")
		}
		typ := ValueType(typByte)

		switch typ {
		case TypeBool:
			v, err := readBool(br)
			if err != nil {
				return nil, err
			}
			m.SetBool(key, v)
		case TypeInt32:
			v, err := readI32(br)
			if err != nil {
				return nil, err
			}
			m.SetInt32(key, v)
		case TypeFloat:
			v, err := readF32(br)
			if err != nil {
				return nil, err
			}
			m.SetFloat(key, v)
		case TypeString:
			v, err := readString(br)
			if err != nil {
				return nil, err
			}
			m.SetString(key, v)
		case TypeBoolArray:
			n, err := readU32(br)
			if err != nil {
				return nil, err
			}
			vals := make([]bool, n)
			for j := range vals {
				if vals[j], err = readBool(br); err != nil {
					return nil, err
				}
			}
			m.SetBoolArray(key, vals)
		case TypeInt32Array:
			n, err := readU32(br)
			if err != nil {
				return nil, err
			}
			vals := make([]int32, n)
			for j := range vals {
				if vals[j], err = readI32(br); err != nil {
					return nil, err
				}
			}
			m.SetInt32Array(key, vals)
		case TypeFloatArray:
			n, err := readU32(br)
			if err != nil {
				return nil, err
			}
			vals := make([]float32, n)
			for j := range vals {
				if vals[j], err = readF32(br); err != nil {
					return nil, err
				}
			}
			m.SetFloatArray(key, vals)
		case TypeStringArray:
			n, err := readU32(br)
			if err != nil {
				return nil, err
			}
			vals := make([]string, n)
			for j := range vals {
				if vals[j], err = readString(br); err != nil {
					return nil, err
				}
			}
			m.SetStringArray(key, vals)
		default:
			return nil, forgekit.NewError("metadata.Decode", forgekit.CodeConfigIsInvalid, "unknown value type tag")
		}
	}

	return m, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, uint32frombits(v))
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}
