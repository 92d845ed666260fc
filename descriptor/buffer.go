package descriptor

import "fmt"

// DataBuffer describes a GPU buffer holding a typed array of elements.
//
// The offset and stride describe a fixed memory layout that is decided when
// the buffer is created and never renegotiated afterwards.
type DataBuffer struct {
	id     BufferID
	typ    ElementType
	size   int
	offset int
	stride int
}

// NewDataBuffer creates a data buffer descriptor.
// Size is the number of elements; offset and stride are in bytes.
func NewDataBuffer(id BufferID, typ ElementType, size, offset, stride int) (DataBuffer, error) {
	if !typ.Valid() {
		return DataBuffer{}, fmt.Errorf("%w: data buffer element type %v", ErrInvalidDescriptor, typ)
	}
	if size < 0 || offset < 0 || stride < 0 {
		return DataBuffer{}, fmt.Errorf("%w: data buffer size=%d offset=%d stride=%d",
			ErrInvalidDescriptor, size, offset, stride)
	}
	return DataBuffer{id: id, typ: typ, size: size, offset: offset, stride: stride}, nil
}

// MustDataBuffer is like NewDataBuffer but panics on error.
// Use only when the arguments are known to be valid.
func MustDataBuffer(id BufferID, typ ElementType, size, offset, stride int) DataBuffer {
	b, err := NewDataBuffer(id, typ, size, offset, stride)
	if err != nil {
		panic(err)
	}
	return b
}

// ID returns the GPU buffer that owns the data.
func (b DataBuffer) ID() BufferID { return b.id }

// Type returns the element type.
func (b DataBuffer) Type() ElementType { return b.typ }

// Size returns the number of elements.
func (b DataBuffer) Size() int { return b.size }

// Offset returns the byte offset of the first element.
func (b DataBuffer) Offset() int { return b.offset }

// Stride returns the distance in bytes between consecutive elements.
func (b DataBuffer) Stride() int { return b.stride }

// ByteSize returns the number of bytes covered by the elements.
func (b DataBuffer) ByteSize() int { return b.size * b.typ.Size() }

// Equal reports whether b and o describe the same buffer layout.
func (b DataBuffer) Equal(o DataBuffer) bool { return b == o }

// String implements fmt.Stringer.
func (b DataBuffer) String() string {
	return fmt.Sprintf("DataBuffer(vbo=%d, type=%v, size=%d, offset=%d, stride=%d)",
		b.id, b.typ, b.size, b.offset, b.stride)
}
