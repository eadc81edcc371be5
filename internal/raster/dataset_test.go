package raster

import (
	"strings"
	"testing"

	"github.com/mappingcore/geodb/internal/apperr"
)

const validDescriptor = `{
  "coords": { "epsg": 4326, "size": [100, 100], "origin": [0, 0], "scale": [1, -1] },
  "channels": [
    { "datatype": "Byte", "min": 0, "max": 255, "nodata": 0 }
  ]
}`

func TestParseDatasetValid(t *testing.T) {
	ds, err := ParseDataset([]byte(validDescriptor))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Grid.Width != 100 || ds.Grid.Height != 100 {
		t.Fatalf("unexpected grid size %+v", ds.Grid)
	}
	if len(ds.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(ds.Channels))
	}
	if ds.Channels[0].Data.Datatype != U8 {
		t.Fatalf("expected U8 datatype, got %v", ds.Channels[0].Data.Datatype)
	}
	if !ds.Channels[0].Data.HasNoData || ds.Channels[0].Data.NoDataValue != 0 {
		t.Fatal("expected nodata=0 parsed")
	}
}

func TestParseDatasetRejectsUnknownField(t *testing.T) {
	withExtra := strings.Replace(validDescriptor, `"channels"`, `"bogus": true, "channels"`, 1)
	_, err := ParseDataset([]byte(withExtra))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !apperr.Is(err, apperr.ArgumentError) {
		t.Fatalf("expected ArgumentError, got %v", err)
	}
}

func TestParseDatasetRejectsEmptyChannels(t *testing.T) {
	noChannels := `{"coords": {"epsg":4326,"size":[10,10],"origin":[0,0],"scale":[1,-1]}, "channels": []}`
	_, err := ParseDataset([]byte(noChannels))
	if err == nil {
		t.Fatal("expected error for empty channels")
	}
}

func TestParseDatasetTransformWithAttrName(t *testing.T) {
	withTransform := `{
  "coords": { "epsg": 4326, "size": [10, 10], "origin": [0, 0], "scale": [1, -1] },
  "channels": [
    { "datatype": "Float32", "min": 0, "max": 1,
      "transform": { "datatype": "Float32", "offset": "offset_attr", "scale": 2.5 } }
  ]
}`
	ds, err := ParseDataset([]byte(withTransform))
	if err != nil {
		t.Fatal(err)
	}
	tr := ds.Channels[0].Transform
	if tr == nil {
		t.Fatal("expected transform to be parsed")
	}
	if tr.OffsetFromAttr != "offset_attr" {
		t.Fatalf("expected offset attribute name, got %+v", tr)
	}
	if tr.Scale != 2.5 {
		t.Fatalf("expected literal scale 2.5, got %v", tr.Scale)
	}

	// Falls back to literal 0 when the named attribute is absent (§8.3).
	offset, scale := tr.Resolve(map[string]float64{})
	if offset != 0 || scale != 2.5 {
		t.Fatalf("expected fallback offset=0 scale=2.5, got %v %v", offset, scale)
	}
	offset, scale = tr.Resolve(map[string]float64{"offset_attr": 7})
	if offset != 7 {
		t.Fatalf("expected resolved offset=7, got %v", offset)
	}
}
