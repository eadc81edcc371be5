package codec

import "github.com/mappingcore/geodb/internal/raster"

// rawCodec is the identity codec (tag 0): payload is the pixel buffer
// verbatim, used for tiles where compression would not pay for itself
// (small tiles, already-compressed element types) or for debugging.
type rawCodec struct{}

func (rawCodec) Encode(raw []byte, et raster.ElementType, w, h, d int) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

func (rawCodec) Decode(data []byte, et raster.ElementType, w, h, d int) ([]byte, error) {
	want := w * h * d * et.ByteSize()
	out := make([]byte, want)
	n := copy(out, data)
	_ = n
	return out, nil
}
