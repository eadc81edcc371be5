package codec

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
)

// webpLossyCodec is the documented lossy codec (tag 3): single-band u8
// tiles only, encoded through libwebp's lossy path. Any precision beyond
// what WebP's lossy quantization preserves is lost; callers that need
// exact round-trips must pick a lossless tag instead.
type webpLossyCodec struct{}

func (webpLossyCodec) Encode(raw []byte, et raster.ElementType, w, h, d int) []byte {
	if et != raster.U8 || d != 1 {
		panic(apperr.New(apperr.CodecError, "webp-lossy: only single-band u8 tiles are supported"))
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, raw)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: 85}); err != nil {
		panic(apperr.Wrap(apperr.CodecError, err, "webp-lossy encode"))
	}
	return buf.Bytes()
}

func (webpLossyCodec) Decode(data []byte, et raster.ElementType, w, h, d int) ([]byte, error) {
	if et != raster.U8 || d != 1 {
		return nil, apperr.New(apperr.CodecError, "webp-lossy: only single-band u8 tiles are supported")
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodecError, err, "webp-lossy decode")
	}
	bounds := img.Bounds()
	if bounds.Dx() != w || bounds.Dy() != h {
		return nil, apperr.New(apperr.CodecError, "webp-lossy decode: size mismatch got %dx%d want %dx%d", bounds.Dx(), bounds.Dy(), w, h)
	}
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out[y*w+x] = byte(r >> 8)
		}
	}
	return out, nil
}
