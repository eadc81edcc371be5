package raster

// Raster is one imported time-referenced raster within a RasterDB (§3.3).
// AttrNumeric backs Transform.Resolve's OffsetFromAttr/ScaleFromAttr lookup.
type Raster struct {
	RasterID     int64
	ChannelIndex int
	TimeStart    float64
	TimeEnd      float64
	AttrString   map[string]string
	AttrNumeric  map[string]float64
}

// Tile is one compressed pyramid tile (§6.3). X,Y,Z are zoom-0 pixel
// coordinates of the tile's origin, matching RasterDB::import's
// "xoff*zoomfactor" base-zoom-coordinate invariant so tiles at any zoom
// level can be located without consulting sibling levels.
type Tile struct {
	RasterID    int64
	Zoom        int
	X, Y, Z     int64
	Width       int
	Height      int
	Depth       int
	Compression uint8
	Payload     []byte
}

// TileIndex is an in-memory grid lookup over one (RasterID, Zoom) level,
// keyed by tile coordinate. The rasterdb query path does not use it; it
// enumerates tiles through the backend.
type TileIndex struct {
	RasterID int64
	Zoom     int
	TileSize int
	tiles    map[[2]int64]Tile
}

// NewTileIndex returns an empty index for the given raster/zoom/tile size.
func NewTileIndex(rasterID int64, zoom, tileSize int) *TileIndex {
	return &TileIndex{RasterID: rasterID, Zoom: zoom, TileSize: tileSize, tiles: make(map[[2]int64]Tile)}
}

// Put registers a tile keyed by its zoom-0-scaled origin coordinate.
func (idx *TileIndex) Put(t Tile) {
	idx.tiles[[2]int64{t.X, t.Y}] = t
}

// Get looks up the tile whose origin is (x,y) in zoom-0 pixel coordinates.
func (idx *TileIndex) Get(x, y int64) (Tile, bool) {
	t, ok := idx.tiles[[2]int64{x, y}]
	return t, ok
}

// Len reports the number of tiles currently indexed.
func (idx *TileIndex) Len() int {
	return len(idx.tiles)
}
