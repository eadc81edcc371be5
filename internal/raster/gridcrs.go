package raster

import (
	"math"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/spatial"
)

// maxGridDimension mirrors GDALCRS::verify()'s size<=2^24 bound.
const maxGridDimension = 1 << 24

// originTolerance and scaleRelTolerance mirror GDALCRS::operator==: origins
// within 0.5 units, scales within 0.1% ratio are considered equal.
const (
	originTolerance  = 0.5
	scaleRelTolerance = 0.001
)

// GridCrs is the raster's native grid definition: pixel origin, per-axis
// scale and pixel counts, plus the CRS the grid is defined in (§3.2).
type GridCrs struct {
	Crs            spatial.CrsId
	PixelScaleX    float64
	PixelScaleY    float64
	OriginX        float64
	OriginY        float64
	Width, Height  int
}

// Verify enforces size<=2^24 and scale!=0, matching GDALCRS::verify().
func (g GridCrs) Verify() error {
	if g.Width <= 0 || g.Height <= 0 || g.Width > maxGridDimension || g.Height > maxGridDimension {
		return apperr.New(apperr.ArgumentError, "grid crs: width/height out of range (%d x %d)", g.Width, g.Height)
	}
	if g.PixelScaleX == 0 || g.PixelScaleY == 0 {
		return apperr.New(apperr.ArgumentError, "grid crs: zero pixel scale")
	}
	return nil
}

// Equal implements GDALCRS::operator==: same CRS, origins within
// originTolerance units, scales within scaleRelTolerance ratio, identical
// pixel counts.
func (g GridCrs) Equal(o GridCrs) bool {
	if !g.Crs.Equal(o.Crs) {
		return false
	}
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	if math.Abs(g.OriginX-o.OriginX) > originTolerance || math.Abs(g.OriginY-o.OriginY) > originTolerance {
		return false
	}
	return scaleEqual(g.PixelScaleX, o.PixelScaleX) && scaleEqual(g.PixelScaleY, o.PixelScaleY)
}

func scaleEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if b == 0 {
		return false
	}
	return math.Abs(a/b-1.0) <= scaleRelTolerance
}

// PixelToWorldX converts a zoom-0 pixel column to a world coordinate.
func (g GridCrs) PixelToWorldX(px int) float64 {
	return g.OriginX + float64(px)*g.PixelScaleX
}

// PixelToWorldY converts a zoom-0 pixel row to a world coordinate.
func (g GridCrs) PixelToWorldY(py int) float64 {
	return g.OriginY + float64(py)*g.PixelScaleY
}

// Zoomed returns the grid's definition at the given zoom level, where each
// step halves the pixel count and doubles the scale (coarsens by 2x),
// matching RasterDB::load's zoomed-CRS computation.
func (g GridCrs) Zoomed(zoom int) GridCrs {
	factor := 1 << uint(zoom)
	return GridCrs{
		Crs:         g.Crs,
		PixelScaleX: g.PixelScaleX * float64(factor),
		PixelScaleY: g.PixelScaleY * float64(factor),
		OriginX:     g.OriginX,
		OriginY:     g.OriginY,
		Width:       (g.Width + factor - 1) / factor,
		Height:      (g.Height + factor - 1) / factor,
	}
}
