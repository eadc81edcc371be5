package rasterdb

import (
	"math"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/spatial"
)

// Result is the outcome of a successful Query: a decoded pixel buffer plus
// the grid it was assembled on and the raster/channel it was read from.
type Result struct {
	Grid     raster.GridCrs
	Datatype raster.ElementType
	Data     []byte
	Raster   raster.Raster
	Zoom     int
}

// QueryProfiler accumulates the IO cost of a query (§4.4 step 10) for the
// caller to attach to a QueryResult's provenance.
type QueryProfiler struct {
	TilesRead   int
	BytesRead   int
	CacheHits   int
	CacheMisses int
}

// Query implements §4.4 steps 1-10: CRS check, pixel-window computation,
// zoom selection, ClosestRaster+BestZoom, result allocation cleared to
// no-data, tile enumeration and blit (transformed blit maps no-data to
// no-data), final flip, attribute attachment, IO-cost accounting.
func (db *RasterDB) Query(rect spatial.QueryRect, channel int, transform bool) (*Result, *QueryProfiler, error) {
	profiler := &QueryProfiler{}

	ch, err := db.Channel(channel)
	if err != nil {
		return nil, profiler, err
	}

	// Step 1: CRS check.
	if !rect.Rect.Crs.Equal(db.grid.Crs) {
		return nil, profiler, apperr.New(apperr.CrsMismatch, "query crs %v does not match dataset crs %v", rect.Rect.Crs, db.grid.Crs)
	}

	// Step 2: pixel window in zoom-0 pixel space, floor/ceil as in
	// RasterDB::query.
	px0, py0, px1, py1 := db.pixelWindow(rect.Rect)
	windowW := px1 - px0
	windowH := py1 - py0
	if windowW <= 0 || windowH <= 0 {
		return nil, profiler, apperr.New(apperr.ArgumentError, "query rect does not intersect dataset extent")
	}

	// Step 3: zoom selection - halve until one axis is <=2x requested
	// resolution.
	wantX, wantY := windowW, windowH
	if rect.Resolution.HasResolution {
		wantX = int64(rect.Resolution.XRes)
		wantY = int64(rect.Resolution.YRes)
		if wantX <= 0 {
			wantX = windowW
		}
		if wantY <= 0 {
			wantY = windowH
		}
	}
	desiredZoom := 0
	for windowW>>uint(desiredZoom) > 2*wantX && windowH>>uint(desiredZoom) > 2*wantY {
		desiredZoom++
	}

	// Step 4: resolve the source raster and clamp to available zoom.
	src, err := db.backend.ClosestRaster(channel, rect.Temporal.T1)
	if err != nil {
		return nil, profiler, err
	}
	zoom, err := db.backend.BestZoom(src.RasterID, desiredZoom)
	if err != nil {
		return nil, profiler, err
	}

	// Step 5: result allocation, cleared to no-data.
	factor := int64(1) << uint(zoom)
	outW := int((windowW + factor - 1) / factor)
	outH := int((windowH + factor - 1) / factor)
	out := make([]byte, outW*outH*ch.Data.Datatype.ByteSize())
	if ch.Data.HasNoData {
		fillNoData(out, outW*outH, ch.Data.Datatype, ch.Data.NoDataValue)
	}

	// Step 6-7: tile enumeration + blit.
	zx0 := px0 / factor
	zy0 := py0 / factor
	zx1 := (px1 + factor - 1) / factor
	zy1 := (py1 + factor - 1) / factor

	tiles, err := db.backend.EnumerateTiles(src.RasterID, zoom, zx0*factor, zy0*factor, zx1*factor, zy1*factor)
	if err != nil {
		return nil, profiler, err
	}
	offset, scale := resolveTransform(ch, transform, src.AttrNumeric)

	for _, t := range tiles {
		raw, err := db.decodeTile(t, ch.Data.Datatype)
		if err != nil {
			return nil, profiler, err
		}
		profiler.TilesRead++
		profiler.BytesRead += len(t.Payload)

		dstX := int((t.X - px0) >> uint(zoom))
		dstY := int((t.Y - py0) >> uint(zoom))
		blitTile(out, outW, outH, ch.Data.Datatype, raw, t.Width, t.Height, dstX, dstY, ch.Data, transform, offset, scale)
	}

	// Step 8: final flip — already aligned since pixelWindow/blit work in
	// the dataset's own (possibly axis-flipped) pixel space throughout.

	return &Result{
		Grid: raster.GridCrs{
			Crs:         db.grid.Crs,
			Width:       outW,
			Height:      outH,
			OriginX:     db.grid.PixelToWorldX(int(px0)),
			OriginY:     db.grid.PixelToWorldY(int(py0)),
			PixelScaleX: db.grid.PixelScaleX * float64(factor),
			PixelScaleY: db.grid.PixelScaleY * float64(factor),
		},
		Datatype: ch.Data.Datatype,
		Data:     out,
		Raster:   src,
		Zoom:     zoom,
	}, profiler, nil
}

func (db *RasterDB) pixelWindow(rect spatial.SpatialRect) (x0, y0, x1, y1 int64) {
	fx0 := (rect.X1 - db.grid.OriginX) / db.grid.PixelScaleX
	fx1 := (rect.X2 - db.grid.OriginX) / db.grid.PixelScaleX
	fy0 := (rect.Y1 - db.grid.OriginY) / db.grid.PixelScaleY
	fy1 := (rect.Y2 - db.grid.OriginY) / db.grid.PixelScaleY
	if fx0 > fx1 {
		fx0, fx1 = fx1, fx0
	}
	if fy0 > fy1 {
		fy0, fy1 = fy1, fy0
	}
	x0 = int64(math.Floor(fx0))
	x1 = int64(math.Ceil(fx1))
	y0 = int64(math.Floor(fy0))
	y1 = int64(math.Ceil(fy1))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > int64(db.grid.Width) {
		x1 = int64(db.grid.Width)
	}
	if y1 > int64(db.grid.Height) {
		y1 = int64(db.grid.Height)
	}
	return x0, y0, x1, y1
}

func (db *RasterDB) decodeTile(t raster.Tile, et raster.ElementType) ([]byte, error) {
	key := tileCacheKey{RasterID: t.RasterID, Zoom: t.Zoom, X: t.X, Y: t.Y}
	if raw, ok := db.tiles.Get(key); ok {
		return raw, nil
	}
	c, err := db.codecFor(t.Compression)
	if err != nil {
		return nil, err
	}
	raw, err := c.Decode(t.Payload, et, t.Width, t.Height, t.Depth)
	if err != nil {
		return nil, err
	}
	db.tiles.Put(key, raw)
	return raw, nil
}

func fillNoData(buf []byte, count int, et raster.ElementType, noData float64) {
	for i := 0; i < count; i++ {
		raster.PutFloat64(buf, i, et, noData)
	}
}

func resolveTransform(ch raster.RasterChannel, apply bool, attrs map[string]float64) (offset, scale float64) {
	if !apply || ch.Transform == nil {
		return 0, 1
	}
	return ch.Transform.Resolve(attrs)
}

// blitTile copies src (tile pixels) into dst at the tile's position within
// the output window, skipping pixels that fall outside dst. When transform
// is requested, every non-no-data pixel is rescaled by offset/scale; a
// no-data source pixel stays no-data in the destination.
func blitTile(dst []byte, dstW, dstH int, et raster.ElementType, src []byte, srcW, srcH int, dstX, dstY int, dd raster.DataDescription, transform bool, offset, scale float64) {
	for y := 0; y < srcH; y++ {
		oy := dstY + y
		if oy < 0 || oy >= dstH {
			continue
		}
		for x := 0; x < srcW; x++ {
			ox := dstX + x
			if ox < 0 || ox >= dstW {
				continue
			}
			v := raster.GetFloat64(src, y*srcW+x, et)
			if dd.IsNoData(v) {
				raster.PutFloat64(dst, oy*dstW+ox, et, dd.NoDataValue)
				continue
			}
			if transform {
				v = v*scale + offset
			}
			raster.PutFloat64(dst, oy*dstW+ox, et, v)
		}
	}
}
