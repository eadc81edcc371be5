package codec

import (
	"github.com/klauspost/compress/zstd"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
)

// zstdCodec is a lossless codec (tag 1) over the raw pixel buffer.
type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCodec() *zstdCodec {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return &zstdCodec{encoder: enc, decoder: dec}
}

func (c *zstdCodec) Encode(raw []byte, et raster.ElementType, w, h, d int) []byte {
	return c.encoder.EncodeAll(raw, nil)
}

func (c *zstdCodec) Decode(data []byte, et raster.ElementType, w, h, d int) ([]byte, error) {
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodecError, err, "zstd decode")
	}
	want := w * h * d * et.ByteSize()
	if len(out) != want {
		return nil, apperr.New(apperr.CodecError, "zstd decode: got %d bytes, want %d", len(out), want)
	}
	return out, nil
}
