package dbbackend

import (
	"path/filepath"
	"testing"

	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/spatial"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.duckdb")
	be, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { be.Close() })
	return be.(*Backend)
}

func TestCreatePointsAndLoadMetadata(t *testing.T) {
	be := newTestBackend(t)

	numeric := []feature.AttrDescriptor{{Key: "temperature", Unit: "C"}}
	textual := []feature.AttrDescriptor{{Key: "label", Unit: ""}}
	points := []feature.Point{
		{X: 1, Y: 2, Numeric: []float64{21.5}, Textual: []string{"a"}},
		{X: 3, Y: 4, Numeric: []float64{19.0}, Textual: []string{"b"}},
	}

	id, err := be.CreatePoints("alice", "stations", spatial.EPSG4326, numeric, textual, false, points)
	if err != nil {
		t.Fatalf("CreatePoints: %v", err)
	}

	meta, err := be.LoadMetadata("alice", "stations")
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if meta.DatasetID != id || meta.Kind != feature.Points {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if len(meta.NumericAttrs) != 1 || meta.NumericAttrs[0].Key != "temperature" {
		t.Fatalf("unexpected numeric attrs: %+v", meta.NumericAttrs)
	}
}

func TestLoadPointsEnvelopeFilter(t *testing.T) {
	be := newTestBackend(t)

	points := []feature.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 10},
		{X: 100, Y: 100},
	}
	id, err := be.CreatePoints("bob", "dots", spatial.EPSG4326, nil, nil, false, points)
	if err != nil {
		t.Fatalf("CreatePoints: %v", err)
	}

	rect := spatial.NewSpatialRect(-1, -1, 20, 20, spatial.EPSG4326)
	got, err := be.LoadPoints(id, feature.LoadQuery{Envelope: rect})
	if err != nil {
		t.Fatalf("LoadPoints: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 points within envelope, got %d", len(got))
	}
}

func TestCreateLinesRoundTripsGeometry(t *testing.T) {
	be := newTestBackend(t)

	lines := []feature.Line{
		{Vertices: []feature.Coord{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}},
	}
	id, err := be.CreateLines("carol", "routes", spatial.EPSG4326, nil, nil, false, lines)
	if err != nil {
		t.Fatalf("CreateLines: %v", err)
	}

	rect := spatial.NewSpatialRect(-1, -1, 3, 3, spatial.EPSG4326)
	got, err := be.LoadLines(id, feature.LoadQuery{Envelope: rect})
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}
	if len(got) != 1 || len(got[0].Vertices) != 3 {
		t.Fatalf("unexpected lines: %+v", got)
	}
	if got[0].Vertices[1].X != 1 || got[0].Vertices[1].Y != 1 {
		t.Fatalf("vertex round-trip mismatch: %+v", got[0].Vertices)
	}
}

func TestCreatePolygonsWithHoleRoundTrips(t *testing.T) {
	be := newTestBackend(t)

	outer := []feature.Coord{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	hole := []feature.Coord{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	polys := []feature.Polygon{{Rings: [][]feature.Coord{outer, hole}}}

	id, err := be.CreatePolygons("dave", "parcels", spatial.EPSG4326, nil, nil, false, polys)
	if err != nil {
		t.Fatalf("CreatePolygons: %v", err)
	}

	rect := spatial.NewSpatialRect(-1, -1, 20, 20, spatial.EPSG4326)
	got, err := be.LoadPolygons(id, feature.LoadQuery{Envelope: rect})
	if err != nil {
		t.Fatalf("LoadPolygons: %v", err)
	}
	if len(got) != 1 || len(got[0].Rings) != 2 {
		t.Fatalf("unexpected polygons: %+v", got)
	}
}

func TestLoadPointsTemporalOverlap(t *testing.T) {
	be := newTestBackend(t)

	t1 := spatial.NewTimeInterval(100, 200, spatial.Unix)
	t2 := spatial.NewTimeInterval(300, 400, spatial.Unix)
	points := []feature.Point{
		{X: 0, Y: 0, TimeInterval: &t1},
		{X: 0, Y: 0, TimeInterval: &t2},
	}
	id, err := be.CreatePoints("erin", "events", spatial.EPSG4326, nil, nil, true, points)
	if err != nil {
		t.Fatalf("CreatePoints: %v", err)
	}

	rect := spatial.NewSpatialRect(-1, -1, 1, 1, spatial.EPSG4326)
	window := spatial.NewTimeInterval(150, 160, spatial.Unix)
	got, err := be.LoadPoints(id, feature.LoadQuery{Envelope: rect, Temporal: &window})
	if err != nil {
		t.Fatalf("LoadPoints: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 point overlapping window, got %d", len(got))
	}
}
