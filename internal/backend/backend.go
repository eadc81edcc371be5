// Package backend defines the pluggable raster storage interface of §4.1
// and a name-keyed constructor registry for its implementations.
package backend

import (
	"sync"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/spatial"
)

// RasterBackend is the storage abstraction a RasterDB is built on (§4.1).
// Implementations own the dataset descriptor, the per-raster metadata and
// the tile payloads; RasterDB owns the import/query algorithms.
type RasterBackend interface {
	// ReadJSON returns the raw §6.1 dataset descriptor bytes.
	ReadJSON() ([]byte, error)

	// CreateRaster allocates a new rasterid for the given channel/time
	// range and attribute set, returning the assigned id.
	CreateRaster(channel int, timeStart, timeEnd float64, attrString map[string]string, attrNumeric map[string]float64) (int64, error)

	// LinkRaster registers rasterID as also valid for [timeStart,timeEnd)
	// on the given channel without duplicating tile data.
	LinkRaster(rasterID int64, channel int, timeStart, timeEnd float64) error

	// HasTile reports whether the given tile has already been written,
	// used by the import pipeline to make writes idempotent.
	HasTile(rasterID int64, zoom int, x, y, z int64) (bool, error)

	// WriteTile stores a tile payload, overwriting any previous payload
	// for the same coordinate.
	WriteTile(t raster.Tile) error

	// ClosestRaster resolves the raster, on the given channel, whose time
	// interval is closest to wantedTime, tie-broken by shortest interval
	// then lowest rasterid (Design Note).
	ClosestRaster(channel int, wantedTime float64) (raster.Raster, error)

	// BestZoom clamps a desired zoom level (computed by the caller from the
	// query's pixel window and requested resolution, §4.4 step "zoom
	// selection") against the zoom levels actually stored for rasterID,
	// returning desiredZoom (negative values count as 0) capped at the
	// highest zoom level stored for rasterID.
	BestZoom(rasterID int64, desiredZoom int) (int, error)

	// EnumerateTiles returns the tiles of rasterID at zoom intersecting
	// the given zoom-0 pixel window [x0,x1) x [y0,y1).
	EnumerateTiles(rasterID int64, zoom int, x0, y0, x1, y1 int64) ([]raster.Tile, error)

	// ReadTile fetches a single tile, or apperr.NoTiles if absent.
	ReadTile(rasterID int64, zoom int, x, y, z int64) (raster.Tile, error)

	// ReadAttributes returns the string/numeric attribute maps for a
	// raster, used by Transform.Resolve.
	ReadAttributes(rasterID int64) (map[string]string, map[string]float64, error)
}

// Config carries the parameters a backend constructor needs: the grid
// definition of the dataset being opened/created and a backend-specific
// location string (e.g. a DuckDB file path).
type Config struct {
	Name     string
	Location string
	Grid     raster.GridCrs
	Channels []raster.RasterChannel
	Crs      spatial.CrsId
}

// Constructor opens or creates a backend instance for cfg.
type Constructor func(cfg Config) (RasterBackend, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register installs a backend constructor under name, called explicitly
// from program entry points rather than via init()-time side effects
// (Design Note "Backend registration").
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Open resolves name via the registry and constructs a backend instance.
func Open(name string, cfg Config) (RasterBackend, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.ArgumentError, "unknown raster backend %q", name)
	}
	return ctor(cfg)
}
