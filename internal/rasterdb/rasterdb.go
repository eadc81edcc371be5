// Package rasterdb implements the tiled raster store of §4.3/§4.4: the
// import pipeline that builds a zoom pyramid over a source image, and the
// query path that assembles a requested window back out of tiles.
package rasterdb

import (
	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/codec"
	"github.com/mappingcore/geodb/internal/raster"
)

// TileSize is the pixel edge length of a stored tile at every zoom level.
const TileSize = 256

// Options configures a RasterDB instance beyond what the descriptor itself
// carries.
type Options struct {
	ReadOnly       bool
	PyramidWorkers int
	TileCacheSize  int
}

// DefaultOptions mirrors the teacher's sane-default philosophy: a small
// fixed worker count and a modestly sized decode cache.
func DefaultOptions() Options {
	return Options{PyramidWorkers: 4, TileCacheSize: 512}
}

// RasterDB owns one dataset descriptor (grid + channels) over a
// backend.RasterBackend, and implements the import/query algorithms on top
// of it (§4).
type RasterDB struct {
	name     string
	backend  backend.RasterBackend
	grid     raster.GridCrs
	channels []raster.RasterChannel
	opts     Options
	tiles    *decodedTileCache
}

// Open constructs a RasterDB bound to an already-open backend instance. The
// process-wide handle cache in internal/queryprocessor is the usual caller;
// tests may call this directly.
func Open(name string, be backend.RasterBackend, grid raster.GridCrs, channels []raster.RasterChannel, opts Options) *RasterDB {
	if opts.PyramidWorkers <= 0 {
		opts.PyramidWorkers = 1
	}
	if opts.TileCacheSize <= 0 {
		opts.TileCacheSize = 1
	}
	return &RasterDB{
		name:     name,
		backend:  be,
		grid:     grid,
		channels: channels,
		opts:     opts,
		tiles:    newDecodedTileCache(opts.TileCacheSize),
	}
}

// Name returns the dataset name this RasterDB was opened under.
func (db *RasterDB) Name() string { return db.name }

// GridCrs returns the dataset's native grid definition.
func (db *RasterDB) GridCrs() raster.GridCrs { return db.grid }

// Channel returns the channel description at index i.
func (db *RasterDB) Channel(i int) (raster.RasterChannel, error) {
	if i < 0 || i >= len(db.channels) {
		return raster.RasterChannel{}, apperr.New(apperr.ArgumentError, "channel index %d out of range", i)
	}
	return db.channels[i], nil
}

func (db *RasterDB) codecFor(tag uint8) (codec.TileCodec, error) {
	return codec.Lookup(tag)
}
