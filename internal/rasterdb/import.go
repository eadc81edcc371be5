package rasterdb

import (
	"context"
	"math"

	"github.com/alitto/pond"
	"golang.org/x/sync/errgroup"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/codec"
	"github.com/mappingcore/geodb/internal/raster"
)

// Raster2D is a single-band source image handed to Import: a row-major
// pixel buffer plus the grid it was produced on. The source grid's axis
// signs may differ from the dataset's (north-up vs south-up); Import
// reconciles this by flipping before writing any tile (§4.3 step 2).
type Raster2D struct {
	Width, Height int
	Datatype      raster.ElementType
	Data          []byte
	Grid          raster.GridCrs
	HasNoData     bool
	NoDataValue   float64
}

// Attrs carries the string/numeric attribute maps attached to an imported
// raster (§3.3).
type Attrs struct {
	String  map[string]string
	Numeric map[string]float64
}

// Import runs the §4.3 pipeline: writable check, flip reconciliation,
// no-data adoption, raster allocation, pyramid build, attribute write.
func (db *RasterDB) Import(ctx context.Context, img Raster2D, channel int, tStart, tEnd float64, attrs Attrs, compression codec.Tag) (int64, error) {
	if db.opts.ReadOnly {
		return 0, apperr.New(apperr.ReadOnly, "rasterdb %q is read-only", db.name)
	}
	ch, err := db.Channel(channel)
	if err != nil {
		return 0, err
	}
	if img.Datatype != ch.Data.Datatype {
		return 0, apperr.New(apperr.ArgumentError, "import: source element type %v does not match channel type %v", img.Datatype, ch.Data.Datatype)
	}
	if _, err := codec.Lookup(compression); err != nil {
		return 0, err
	}

	data, w, h := reconcileFlip(img, db.grid)

	if !ch.Data.HasNoData && img.HasNoData {
		ch.Data.HasNoData = true
		ch.Data.NoDataValue = img.NoDataValue
		db.channels[channel] = ch
	}

	rasterID, err := db.backend.CreateRaster(channel, tStart, tEnd, attrs.String, attrs.Numeric)
	if err != nil {
		return 0, err
	}

	if err := db.buildPyramid(ctx, rasterID, data, w, h, ch.Data.Datatype, compression); err != nil {
		return 0, err
	}

	return rasterID, nil
}

// LinkRaster registers rasterID as also valid over [timeStart,timeEnd) on
// channel, without copying tile data (§4.3 "LinkRaster aliasing").
func (db *RasterDB) LinkRaster(rasterID int64, channel int, timeStart, timeEnd float64) error {
	if db.opts.ReadOnly {
		return apperr.New(apperr.ReadOnly, "rasterdb %q is read-only", db.name)
	}
	if _, err := db.Channel(channel); err != nil {
		return err
	}
	return db.backend.LinkRaster(rasterID, channel, timeStart, timeEnd)
}

// reconcileFlip flips img's rows/columns so that increasing row/column
// index moves in the same direction as the dataset grid's axes.
func reconcileFlip(img Raster2D, dbGrid raster.GridCrs) ([]byte, int, int) {
	flipX := signsDiffer(img.Grid.PixelScaleX, dbGrid.PixelScaleX)
	flipY := signsDiffer(img.Grid.PixelScaleY, dbGrid.PixelScaleY)
	if !flipX && !flipY {
		return img.Data, img.Width, img.Height
	}
	return flipBuffer(img.Data, img.Width, img.Height, img.Datatype, flipX, flipY), img.Width, img.Height
}

func signsDiffer(a, b float64) bool {
	return (a < 0) != (b < 0)
}

func flipBuffer(data []byte, w, h int, et raster.ElementType, flipX, flipY bool) []byte {
	es := et.ByteSize()
	rowBytes := w * es
	out := make([]byte, len(data))
	for y := 0; y < h; y++ {
		srcY := y
		if flipY {
			srcY = h - 1 - y
		}
		srcRow := data[srcY*rowBytes : srcY*rowBytes+rowBytes]
		dstRow := out[y*rowBytes : y*rowBytes+rowBytes]
		if !flipX {
			copy(dstRow, srcRow)
			continue
		}
		for x := 0; x < w; x++ {
			srcX := w - 1 - x
			copy(dstRow[x*es:(x+1)*es], srcRow[srcX*es:(srcX+1)*es])
		}
	}
	return out
}

type tileWindow struct {
	xOff, yOff int // in current-level pixels
	w, h       int
}

// buildPyramid writes zoom 0 at native resolution, then repeatedly
// downsamples by 2x until the level fits in a single tile, writing every
// level as it goes (§4.3 step 5). Each zoom level's tile windows are
// processed by a bounded pond pool; an errgroup supervises it so the first
// write error cancels the remaining windows at that level.
func (db *RasterDB) buildPyramid(ctx context.Context, rasterID int64, data []byte, w, h int, et raster.ElementType, compression codec.Tag) error {
	zoom := 0
	curData, curW, curH := data, w, h
	for {
		windows := tileWindows(curW, curH, TileSize)
		if err := db.writeLevel(ctx, rasterID, zoom, curData, curW, curH, et, compression, windows); err != nil {
			return err
		}
		if curW <= TileSize && curH <= TileSize {
			return nil
		}
		curData, curW, curH = downsample2x(curData, curW, curH, et)
		zoom++
	}
}

func tileWindows(w, h, tile int) []tileWindow {
	var out []tileWindow
	for y := 0; y < h; y += tile {
		wh := tile
		if y+wh > h {
			wh = h - y
		}
		for x := 0; x < w; x += tile {
			ww := tile
			if x+ww > w {
				ww = w - x
			}
			out = append(out, tileWindow{xOff: x, yOff: y, w: ww, h: wh})
		}
	}
	return out
}

func (db *RasterDB) writeLevel(ctx context.Context, rasterID int64, zoom int, data []byte, w, h int, et raster.ElementType, compression codec.Tag, windows []tileWindow) error {
	pool := pond.New(db.opts.PyramidWorkers, len(windows)+1)
	defer pool.StopAndWait()

	g, gctx := errgroup.WithContext(ctx)
	factor := int64(1) << uint(zoom)

	for _, win := range windows {
		win := win
		g.Go(func() error {
			result := make(chan error, 1)
			pool.Submit(func() {
				select {
				case <-gctx.Done():
					result <- gctx.Err()
					return
				default:
				}
				result <- db.writeTileWindow(rasterID, zoom, factor, data, w, h, et, compression, win)
			})
			return <-result
		})
	}
	return g.Wait()
}

func (db *RasterDB) writeTileWindow(rasterID int64, zoom int, factor int64, data []byte, w, h int, et raster.ElementType, compression codec.Tag, win tileWindow) error {
	x0 := int64(win.xOff) * factor
	y0 := int64(win.yOff) * factor

	has, err := db.backend.HasTile(rasterID, zoom, x0, y0, 0)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	raw := extractWindow(data, w, h, et, win)
	enc, err := codec.Lookup(compression)
	if err != nil {
		return err
	}
	payload := enc.Encode(raw, et, win.w, win.h, 1)

	return db.backend.WriteTile(raster.Tile{
		RasterID: rasterID, Zoom: zoom, X: x0, Y: y0, Z: 0,
		Width: win.w, Height: win.h, Depth: 1,
		Compression: compression, Payload: payload,
	})
}

func extractWindow(data []byte, w, h int, et raster.ElementType, win tileWindow) []byte {
	es := et.ByteSize()
	out := make([]byte, win.w*win.h*es)
	for row := 0; row < win.h; row++ {
		srcOff := ((win.yOff+row)*w + win.xOff) * es
		dstOff := row * win.w * es
		copy(out[dstOff:dstOff+win.w*es], data[srcOff:srcOff+win.w*es])
	}
	return out
}

// downsample2x halves both dimensions via 2x2 box averaging, skipping
// no-data handling (callers that need it propagate no-data explicitly
// through the channel's DataDescription at query time).
func downsample2x(data []byte, w, h int, et raster.ElementType) ([]byte, int, int) {
	nw, nh := (w+1)/2, (h+1)/2
	out := make([]byte, nw*nh*et.ByteSize())
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			sum := 0.0
			n := 0
			for dy := 0; dy < 2; dy++ {
				sy := y*2 + dy
				if sy >= h {
					continue
				}
				for dx := 0; dx < 2; dx++ {
					sx := x*2 + dx
					if sx >= w {
						continue
					}
					sum += raster.GetFloat64(data, sy*w+sx, et)
					n++
				}
			}
			v := 0.0
			if n > 0 {
				v = sum / float64(n)
			}
			if et.IsSigned() || !et.IsFloat() {
				v = math.Round(v)
			}
			raster.PutFloat64(out, y*nw+x, et, v)
		}
	}
	return out, nw, nh
}
