package descriptor

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is returned by the factories when a descriptor
// would violate its invariants.
var ErrInvalidDescriptor = errors.New("descriptor: invalid descriptor")

// ElementType is the numeric type of the elements stored in a buffer or
// of the components of a texel.
type ElementType uint8

// Element types.
const (
	// ElementInvalid is the zero value and is never a valid element type.
	ElementInvalid ElementType = iota

	// Float32 is a 32-bit IEEE 754 floating point number.
	Float32

	// Int8 is a signed 8-bit integer.
	Int8

	// Uint8 is an unsigned 8-bit integer.
	Uint8

	// Int16 is a signed 16-bit integer.
	Int16

	// Uint16 is an unsigned 16-bit integer.
	Uint16

	// Int32 is a signed 32-bit integer.
	Int32

	// Uint32 is an unsigned 32-bit integer.
	Uint32
)

// String returns a human-readable name for the element type.
func (t ElementType) String() string {
	switch t {
	case Float32:
		return "Float32"
	case Int8:
		return "Int8"
	case Uint8:
		return "Uint8"
	case Int16:
		return "Int16"
	case Uint16:
		return "Uint16"
	case Int32:
		return "Int32"
	case Uint32:
		return "Uint32"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Size returns the size of one element in bytes, or 0 for unknown types.
func (t ElementType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether t is a floating point type.
func (t ElementType) IsFloat() bool {
	return t == Float32
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	return t.Size() > 0
}

// PixelFormat is the channel layout of texel data.
type PixelFormat uint8

// Pixel formats.
const (
	// PixelInvalid is the zero value and is never a valid format.
	PixelInvalid PixelFormat = iota

	// PixelR has a single red channel.
	PixelR

	// PixelRG has red and green channels.
	PixelRG

	// PixelRGB has red, green and blue channels.
	PixelRGB

	// PixelRGBA has red, green, blue and alpha channels.
	PixelRGBA

	// PixelDepth is a depth-only format.
	PixelDepth
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelR:
		return "R"
	case PixelRG:
		return "RG"
	case PixelRGB:
		return "RGB"
	case PixelRGBA:
		return "RGBA"
	case PixelDepth:
		return "Depth"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// Components returns the number of channels in the format.
func (f PixelFormat) Components() int {
	switch f {
	case PixelR, PixelDepth:
		return 1
	case PixelRG:
		return 2
	case PixelRGB:
		return 3
	case PixelRGBA:
		return 4
	default:
		return 0
	}
}
