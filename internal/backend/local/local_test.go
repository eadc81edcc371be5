package local

import (
	"path/filepath"
	"testing"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/spatial"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.duckdb")
	dd, err := raster.NewDataDescription(raster.U8, 0, 255, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	cfg := backend.Config{
		Name:     Name,
		Location: path,
		Crs:      spatial.EPSG4326,
		Grid: raster.GridCrs{
			Crs: spatial.EPSG4326, Width: 256, Height: 256,
			PixelScaleX: 1, PixelScaleY: -1,
		},
		Channels: []raster.RasterChannel{{Data: dd}},
	}
	b, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return b.(*Backend)
}

func TestCreateRasterAndReadAttributes(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	id, err := b.CreateRaster(0, 100, 200, map[string]string{"sensor": "a"}, map[string]float64{"scale": 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected nonzero rasterid")
	}

	as, an, err := b.ReadAttributes(id)
	if err != nil {
		t.Fatal(err)
	}
	if as["sensor"] != "a" {
		t.Fatalf("expected attr_string sensor=a, got %+v", as)
	}
	if an["scale"] != 2.5 {
		t.Fatalf("expected attr_numeric scale=2.5, got %+v", an)
	}
}

func TestHasTileAndWriteTileIdempotent(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	id, err := b.CreateRaster(0, 0, 10, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	has, err := b.HasTile(id, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("expected no tile before write")
	}

	tile := raster.Tile{RasterID: id, Zoom: 0, X: 0, Y: 0, Z: 0, Width: 256, Height: 256, Depth: 1, Compression: 0, Payload: []byte{1, 2, 3}}
	if err := b.WriteTile(tile); err != nil {
		t.Fatal(err)
	}

	has, err = b.HasTile(id, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected tile present after write")
	}

	got, err := b.ReadTile(id, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Payload) != string(tile.Payload) {
		t.Fatalf("payload mismatch: got %v", got.Payload)
	}
}

func TestClosestRasterTieBreak(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	// Two rasters equidistant from wantedTime=150: [100,150] length 50,
	// [150,250] length 100. Equal distance (0, both cover 150) so shortest
	// interval wins: raster A.
	idA, err := b.CreateRaster(0, 100, 150, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	idB, err := b.CreateRaster(0, 150, 250, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = idB

	got, err := b.ClosestRaster(0, 150)
	if err != nil {
		t.Fatal(err)
	}
	if got.RasterID != idA {
		t.Fatalf("expected shortest-interval tie-break to pick raster %d, got %d", idA, got.RasterID)
	}
}

func TestClosestRasterNoneFound(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	_, err := b.ClosestRaster(0, 42)
	if err == nil {
		t.Fatal("expected error when no raster exists")
	}
	if !apperr.Is(err, apperr.NoRasterForGivenTime) {
		t.Fatalf("expected NoRasterForGivenTime, got %v", err)
	}
}
