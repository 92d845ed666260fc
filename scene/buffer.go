package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/g3d/descriptor"
)

// DataBuffer is a typed array of vertex or index data kept on the CPU.
//
// Components is the number of values per element seen by a shader (3 for
// a position, 2 for a texture coordinate, 1 for indices). Data is stored
// little-endian, ready for upload.
type DataBuffer struct {
	Type       descriptor.ElementType
	Components int

	data []byte
}

// NewFloatBuffer creates a buffer of float32 values.
func NewFloatBuffer(components int, values []float32) *DataBuffer {
	b := &DataBuffer{Type: descriptor.Float32, Components: components, data: make([]byte, 4*len(values))}
	b.SetFloats(0, values)
	return b
}

// NewUint16Buffer creates a buffer of uint16 values, typically indices.
func NewUint16Buffer(components int, values []uint16) *DataBuffer {
	b := &DataBuffer{Type: descriptor.Uint16, Components: components, data: make([]byte, 2*len(values))}
	for i, v := range values {
		binary.LittleEndian.PutUint16(b.data[2*i:], v)
	}
	return b
}

// NewUint32Buffer creates a buffer of uint32 values, typically indices.
func NewUint32Buffer(components int, values []uint32) *DataBuffer {
	b := &DataBuffer{Type: descriptor.Uint32, Components: components, data: make([]byte, 4*len(values))}
	for i, v := range values {
		binary.LittleEndian.PutUint32(b.data[4*i:], v)
	}
	return b
}

// NewInt32Buffer creates a buffer of int32 values.
func NewInt32Buffer(components int, values []int32) *DataBuffer {
	b := &DataBuffer{Type: descriptor.Int32, Components: components, data: make([]byte, 4*len(values))}
	for i, v := range values {
		binary.LittleEndian.PutUint32(b.data[4*i:], uint32(v)) //nolint:gosec // two's complement bit copy
	}
	return b
}

// NewUint8Buffer creates a buffer of bytes, for example packed colours.
func NewUint8Buffer(components int, values []uint8) *DataBuffer {
	return &DataBuffer{Type: descriptor.Uint8, Components: components, data: append([]byte(nil), values...)}
}

// Len returns the number of scalar values in the buffer.
func (b *DataBuffer) Len() int {
	if sz := b.Type.Size(); sz > 0 {
		return len(b.data) / sz
	}
	return 0
}

// Stride returns the byte distance between consecutive elements.
func (b *DataBuffer) Stride() int {
	return b.Components * b.Type.Size()
}

// Bytes returns the raw buffer content. The slice aliases the buffer.
func (b *DataBuffer) Bytes() []byte {
	return b.data
}

// Range returns the bytes of values [start, start+n).
func (b *DataBuffer) Range(start, n int) ([]byte, error) {
	if start < 0 || n < 0 || start+n > b.Len() {
		return nil, fmt.Errorf("%w: [%d, %d) of %d values", ErrRange, start, start+n, b.Len())
	}
	sz := b.Type.Size()
	return b.data[start*sz : (start+n)*sz], nil
}

// SetFloats overwrites float values starting at value index start.
// The buffer must hold float32 data and be large enough.
func (b *DataBuffer) SetFloats(start int, values []float32) {
	if b.Type != descriptor.Float32 {
		panic(fmt.Sprintf("scene: SetFloats on %v buffer", b.Type))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(b.data[4*(start+i):], math.Float32bits(v))
	}
}

// Floats returns a copy of the buffer as float32 values.
func (b *DataBuffer) Floats() []float32 {
	if b.Type != descriptor.Float32 {
		return nil
	}
	out := make([]float32, b.Len())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.data[4*i:]))
	}
	return out
}

// String implements fmt.Stringer.
func (b *DataBuffer) String() string {
	return fmt.Sprintf("DataBuffer(%v x%d, %d values)", b.Type, b.Components, b.Len())
}
