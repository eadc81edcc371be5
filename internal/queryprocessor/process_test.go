package queryprocessor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/backend/local"
	"github.com/mappingcore/geodb/internal/codec"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/rasterdb"
	"github.com/mappingcore/geodb/internal/spatial"
)

func init() {
	codec.RegisterDefaults()
	RegisterDefaults()
}

func newTestProcessor(t *testing.T) (*QueryProcessor, raster.GridCrs) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raster.duckdb")
	dd, err := raster.NewDataDescription(raster.U8, 0, 255, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	grid := raster.GridCrs{Crs: spatial.EPSG4326, Width: 64, Height: 64, PixelScaleX: 1, PixelScaleY: -1, OriginX: 0, OriginY: 0}
	be, err := local.Open(backend.Config{
		Name: local.Name, Location: path, Crs: spatial.EPSG4326,
		Grid: grid, Channels: []raster.RasterChannel{{Data: dd}},
	})
	if err != nil {
		t.Fatal(err)
	}
	db := rasterdb.Open("test-dataset", be, grid, []raster.RasterChannel{{Data: dd}}, rasterdb.DefaultOptions())

	img := rasterdb.Raster2D{Width: 64, Height: 64, Datatype: raster.U8, Data: make([]byte, 64*64), Grid: grid, HasNoData: true, NoDataValue: 0}
	for i := range img.Data {
		img.Data[i] = byte(i % 200)
	}
	if _, err := db.Import(context.Background(), img, 0, 0, 100, rasterdb.Attrs{}, codec.TagRaw); err != nil {
		t.Fatal(err)
	}

	hc := NewHandleCache(func(name string) (*rasterdb.RasterDB, func() error, error) {
		return db, func() error { return be.(interface{ Close() error }).Close() }, nil
	})
	return &QueryProcessor{Rasters: hc}, grid
}

func TestProcessEvaluatesRasterQueryOperator(t *testing.T) {
	qp, grid := newTestProcessor(t)

	graph, _ := json.Marshal(OperatorNode{
		Type:   "raster_query",
		Params: mustMarshal(t, RasterQueryParams{Dataset: "test-dataset", Channel: 0}),
	})

	q := Query{
		OperatorGraph: graph,
		ResultType:    ResultRaster,
		Rect: spatial.QueryRect{
			Rect:     spatial.NewSpatialRect(0, -float64(grid.Height), float64(grid.Width), 0, spatial.EPSG4326),
			Temporal: spatial.NewTimeInterval(50, 50, spatial.Unix),
		},
		IncludeProvenance: true,
	}

	result, err := qp.Process(q)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Type != ResultRaster || result.Raster == nil {
		t.Fatalf("expected raster result, got %+v", result)
	}
	if len(result.Raster.Data) != grid.Width*grid.Height {
		t.Fatalf("unexpected data length %d", len(result.Raster.Data))
	}
	if result.Provenance == nil || len(result.Provenance.Entries()) != 1 {
		t.Fatalf("expected one provenance entry, got %+v", result.Provenance)
	}
}

func TestProcessRejectsUnknownOperator(t *testing.T) {
	qp, _ := newTestProcessor(t)
	graph, _ := json.Marshal(OperatorNode{Type: "not_an_operator"})
	_, err := qp.Process(Query{OperatorGraph: graph})
	if err == nil {
		t.Fatal("expected error for unknown operator type")
	}
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
