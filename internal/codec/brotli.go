package codec

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
)

// brotliCodec is a lossless codec (tag 2) over the raw pixel buffer.
type brotliCodec struct{}

func (brotliCodec) Encode(raw []byte, et raster.ElementType, w, h, d int) []byte {
	var buf bytes.Buffer
	wr := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	_, _ = wr.Write(raw)
	_ = wr.Close()
	return buf.Bytes()
}

func (brotliCodec) Decode(data []byte, et raster.ElementType, w, h, d int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodecError, err, "brotli decode")
	}
	want := w * h * d * et.ByteSize()
	if len(out) != want {
		return nil, apperr.New(apperr.CodecError, "brotli decode: got %d bytes, want %d", len(out), want)
	}
	return out, nil
}
