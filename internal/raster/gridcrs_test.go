package raster

import (
	"testing"

	"github.com/mappingcore/geodb/internal/spatial"
)

func baseGrid() GridCrs {
	return GridCrs{
		Crs:         spatial.EPSG4326,
		PixelScaleX: 0.01,
		PixelScaleY: -0.01,
		OriginX:     10,
		OriginY:     50,
		Width:       1000,
		Height:      1000,
	}
}

func TestGridCrsEqualWithinTolerance(t *testing.T) {
	a := baseGrid()
	b := a
	b.OriginX += 0.3 // within the 0.5 unit tolerance
	b.PixelScaleX *= 1.0005 // within the 0.1% tolerance
	if !a.Equal(b) {
		t.Fatal("expected grids within tolerance to compare equal")
	}
}

func TestGridCrsNotEqualBeyondTolerance(t *testing.T) {
	a := baseGrid()
	b := a
	b.OriginX += 1.0
	if a.Equal(b) {
		t.Fatal("expected grids beyond origin tolerance to differ")
	}

	c := baseGrid()
	c.PixelScaleX *= 1.01
	if a.Equal(c) {
		t.Fatal("expected grids beyond scale tolerance to differ")
	}
}

func TestGridCrsVerifyRejectsOversizedAndZeroScale(t *testing.T) {
	g := baseGrid()
	g.Width = 1 << 25
	if err := g.Verify(); err == nil {
		t.Fatal("expected error for oversized grid")
	}

	g2 := baseGrid()
	g2.PixelScaleX = 0
	if err := g2.Verify(); err == nil {
		t.Fatal("expected error for zero pixel scale")
	}
}

func TestGridCrsZoomedHalvesDimensions(t *testing.T) {
	g := baseGrid()
	z1 := g.Zoomed(1)
	if z1.Width != 500 || z1.Height != 500 {
		t.Fatalf("expected halved dims at zoom 1, got %dx%d", z1.Width, z1.Height)
	}
	if z1.PixelScaleX != g.PixelScaleX*2 {
		t.Fatalf("expected doubled scale at zoom 1, got %v", z1.PixelScaleX)
	}
}
