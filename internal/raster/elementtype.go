// Package raster holds the grid data description and dataset entities of
// the tiled raster store (§3.2, §3.3).
package raster

import "github.com/mappingcore/geodb/internal/apperr"

// ElementType enumerates the pixel element types a raster channel may hold.
type ElementType int

const (
	U8 ElementType = iota
	U16
	U32
	I8
	I16
	I32
	F32
	F64
)

var elementTypeNames = [...]string{"U8", "U16", "U32", "I8", "I16", "I32", "F32", "F64"}

func (e ElementType) String() string {
	if int(e) < 0 || int(e) >= len(elementTypeNames) {
		return "unknown"
	}
	return elementTypeNames[e]
}

// ByteSize returns the size in bytes of a single element.
func (e ElementType) ByteSize() int {
	switch e {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case F64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the type is floating point.
func (e ElementType) IsFloat() bool {
	return e == F32 || e == F64
}

// IsSigned reports whether the type is a signed integer type.
func (e ElementType) IsSigned() bool {
	return e == I8 || e == I16 || e == I32
}

// ParseElementType converts an internal datatype name into an ElementType.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "uint8":
		return U8, nil
	case "uint16":
		return U16, nil
	case "uint32":
		return U32, nil
	case "int8":
		return I8, nil
	case "int16":
		return I16, nil
	case "int32":
		return I32, nil
	case "float32":
		return F32, nil
	case "float64":
		return F64, nil
	default:
		return 0, apperr.New(apperr.ArgumentError, "unknown element type %q", s)
	}
}

// ParseDescriptorDatatype converts a §6.1 JSON descriptor datatype name
// ("Byte", "UInt16", ...) into an ElementType. There is no signed 8-bit
// descriptor type; "Byte" maps to U8.
func ParseDescriptorDatatype(s string) (ElementType, error) {
	switch s {
	case "Byte":
		return U8, nil
	case "UInt16":
		return U16, nil
	case "Int16":
		return I16, nil
	case "UInt32":
		return U32, nil
	case "Int32":
		return I32, nil
	case "Float32":
		return F32, nil
	case "Float64":
		return F64, nil
	default:
		return 0, apperr.New(apperr.ArgumentError, "unknown descriptor datatype %q", s)
	}
}
