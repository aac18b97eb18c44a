package mbim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// padding returns the number of bytes needed to align n to a 4-byte boundary.
func padding(n int) int {
	return (4 - n%4) % 4
}

type dataRef struct {
	fieldPos int // position of the offset field in the fixed section
	dataPos  int // position of the data in the variable section
	size     int
}

// InfoBufferBuilder builds an information buffer: a fixed section of 32-bit
// fields and offset/size pairs, followed by the variable data the pairs point to.
//
// Fields are written in call order. The first error is sticky and reported by Build.
type InfoBufferBuilder struct {
	fixed []byte
	data  []byte
	refs  []dataRef
	err   error
}

// NewInfoBufferBuilder creates an empty information buffer builder.
func NewInfoBufferBuilder() *InfoBufferBuilder {
	return &InfoBufferBuilder{}
}

// Uint32 appends a 32-bit little-endian field.
func (b *InfoBufferBuilder) Uint32(v uint32) *InfoBufferBuilder {
	b.fixed = binary.LittleEndian.AppendUint32(b.fixed, v)
	return b
}

// Uint64 appends a little-endian 64-bit field.
func (b *InfoBufferBuilder) Uint64(v uint64) *InfoBufferBuilder {
	b.fixed = binary.LittleEndian.AppendUint64(b.fixed, v)
	return b
}

// Int appends a non-negative integer as a 32-bit field.
func (b *InfoBufferBuilder) Int(v int) *InfoBufferBuilder {
	if v < 0 || uint64(v) > math.MaxUint32 {
		b.setErr(fmt.Errorf("%w: value %d does not fit in 32 bits", ErrEncoding, v))
		return b
	}

	return b.Uint32(uint32(v))
}

// UUID appends a 16-byte identifier in network byte order.
func (b *InfoBufferBuilder) UUID(id uuid.UUID) *InfoBufferBuilder {
	b.fixed = append(b.fixed, id[:]...)
	return b
}

// String appends an offset/size pair referencing s encoded as UTF-16LE.
// An empty string is written as a zero offset and size.
func (b *InfoBufferBuilder) String(s string) *InfoBufferBuilder {
	if s == "" {
		return b.Uint32(0).Uint32(0)
	}

	encoded, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		b.setErr(fmt.Errorf("%w: encode string: %w", ErrEncoding, err))
		return b.Uint32(0).Uint32(0)
	}

	return b.Bytes(encoded)
}

// Bytes appends an offset/size pair referencing data.
// Empty data is written as a zero offset and size.
func (b *InfoBufferBuilder) Bytes(data []byte) *InfoBufferBuilder {
	if len(data) == 0 {
		return b.Uint32(0).Uint32(0)
	}

	if uint64(len(data)) > math.MaxUint32 {
		b.setErr(fmt.Errorf("%w: data size %d does not fit in 32 bits", ErrEncoding, len(data)))
		return b.Uint32(0).Uint32(0)
	}

	b.refs = append(b.refs, dataRef{fieldPos: len(b.fixed), dataPos: len(b.data), size: len(data)})
	b.data = append(b.data, data...)
	b.data = append(b.data, make([]byte, padding(len(data)))...)

	// placeholders, patched by Build
	return b.Uint32(0).Uint32(0)
}

// Build returns the encoded information buffer.
func (b *InfoBufferBuilder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	total := len(b.fixed) + len(b.data)
	if uint64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: information buffer size %d does not fit in 32 bits", ErrEncoding, total)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, b.fixed...)
	buf = append(buf, b.data...)

	for _, ref := range b.refs {
		binary.LittleEndian.PutUint32(buf[ref.fieldPos:], uint32(len(b.fixed)+ref.dataPos)) //nolint:gosec // checked above
		binary.LittleEndian.PutUint32(buf[ref.fieldPos+4:], uint32(ref.size))               //nolint:gosec // checked above
	}

	return buf, nil
}

func (b *InfoBufferBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

type region struct {
	start, end int
}

// InfoBufferReader reads an information buffer in the order its fields were written.
//
// Offset/size pairs are validated against the buffer bounds and against each
// other: a region that exceeds the buffer or overlaps a previously read region
// fails with ErrInvalidInformationBuffer. The first error is sticky and
// reported by Err; subsequent reads return zero values.
type InfoBufferReader struct {
	buf     []byte
	pos     int
	regions []region
	err     error
}

// NewInfoBufferReader creates a reader over buf.
func NewInfoBufferReader(buf []byte) *InfoBufferReader {
	return &InfoBufferReader{buf: buf}
}

// Err returns the first error encountered while reading.
func (r *InfoBufferReader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes in the fixed section.
func (r *InfoBufferReader) Remaining() int {
	return len(r.buf) - r.pos
}

// Uint32 reads a 32-bit little-endian field.
func (r *InfoBufferReader) Uint32() uint32 {
	if !r.need(4) {
		return 0
	}

	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4

	return v
}

// Uint64 reads a little-endian 64-bit field.
func (r *InfoBufferReader) Uint64() uint64 {
	if !r.need(8) {
		return 0
	}

	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8

	return v
}

// UUID reads a 16-byte identifier.
func (r *InfoBufferReader) UUID() uuid.UUID {
	if !r.need(UUIDSize) {
		return uuid.Nil
	}

	var id uuid.UUID
	copy(id[:], r.buf[r.pos:r.pos+UUIDSize])
	r.pos += UUIDSize

	return id
}

// Bytes reads an offset/size pair and returns a copy of the data it references.
func (r *InfoBufferReader) Bytes() []byte {
	offset := r.Uint32()
	size := r.Uint32()
	if r.err != nil || size == 0 {
		return nil
	}

	start, end := uint64(offset), uint64(offset)+uint64(size)
	if end > uint64(len(r.buf)) {
		r.err = fmt.Errorf("%w: region [%d, %d) exceeds buffer size %d",
			ErrInvalidInformationBuffer, start, end, len(r.buf))
		return nil
	}

	reg := region{start: int(start), end: int(end)} //nolint:gosec // bounded by len(r.buf)
	if reg.start < r.pos {
		r.err = fmt.Errorf("%w: region [%d, %d) overlaps the fixed section ending at %d",
			ErrInvalidInformationBuffer, reg.start, reg.end, r.pos)
		return nil
	}

	for _, prev := range r.regions {
		if reg.start < prev.end && prev.start < reg.end {
			r.err = fmt.Errorf("%w: region [%d, %d) overlaps [%d, %d)",
				ErrInvalidInformationBuffer, reg.start, reg.end, prev.start, prev.end)
			return nil
		}
	}
	r.regions = append(r.regions, reg)

	data := make([]byte, size)
	copy(data, r.buf[reg.start:reg.end])

	return data
}

// String reads an offset/size pair referencing a UTF-16LE string.
func (r *InfoBufferReader) String() string {
	data := r.Bytes()
	if r.err != nil || len(data) == 0 {
		return ""
	}

	if len(data)%2 != 0 {
		r.err = fmt.Errorf("%w: odd UTF-16 string size %d", ErrInvalidInformationBuffer, len(data))
		return ""
	}

	decoded, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		r.err = fmt.Errorf("%w: decode string: %w", ErrInvalidInformationBuffer, err)
		return ""
	}

	return string(decoded)
}

func (r *InfoBufferReader) need(n int) bool {
	if r.err != nil {
		return false
	}

	if len(r.buf)-r.pos < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, buffer size %d",
			ErrInvalidInformationBuffer, n, r.pos, len(r.buf))
		return false
	}

	// the fixed section grows with every read; earlier data regions must stay outside it
	for _, prev := range r.regions {
		if prev.start < r.pos+n {
			r.err = fmt.Errorf("%w: fixed field [%d, %d) overlaps region [%d, %d)",
				ErrInvalidInformationBuffer, r.pos, r.pos+n, prev.start, prev.end)
			return false
		}
	}

	return true
}
