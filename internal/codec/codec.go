// Package codec implements the tile compression codecs of §4.2, keyed by
// a one-byte compression tag stored alongside each tile (§6.3).
package codec

import (
	"sync"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
)

// Tag identifies a tile compression codec.
type Tag = uint8

const (
	TagRaw       Tag = 0
	TagZstd      Tag = 1
	TagBrotli    Tag = 2
	TagWebPLossy Tag = 3
)

// TileCodec encodes/decodes a raw pixel buffer of w*h*d elements of type et.
type TileCodec interface {
	Encode(raw []byte, et raster.ElementType, w, h, d int) []byte
	Decode(data []byte, et raster.ElementType, w, h, d int) ([]byte, error)
}

var (
	mu       sync.RWMutex
	registry = map[Tag]TileCodec{}
)

// Register installs a codec under tag, overwriting any codec already
// registered for it. RegisterDefaults calls it for the built-in codecs.
func Register(tag Tag, c TileCodec) {
	mu.Lock()
	defer mu.Unlock()
	registry[tag] = c
}

// Lookup returns the codec registered for tag.
func Lookup(tag Tag) (TileCodec, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[tag]
	if !ok {
		return nil, apperr.New(apperr.CodecError, "no codec registered for tag %d", tag)
	}
	return c, nil
}

// RegisterDefaults installs the built-in codecs. Called once by the program
// entry points rather than via init()-time side effects, consistent with
// the explicit-registration approach used for raster backends (§4.1).
func RegisterDefaults() {
	Register(TagRaw, rawCodec{})
	Register(TagZstd, newZstdCodec())
	Register(TagBrotli, brotliCodec{})
	Register(TagWebPLossy, webpLossyCodec{})
}
