package externalsource

import (
	"path/filepath"
	"testing"

	"github.com/mappingcore/geodb/internal/apperr"
)

func descriptorWithInterval(t *testing.T) *Descriptor {
	t.Helper()
	raw := `{
		"path": "/data/temperature",
		"file_name": "temp_%%%TIME_STRING%%%.tif",
		"time_format": "%Y%m%d",
		"time_start": "2020-01-01T00:00:00Z",
		"time_end": "2020-12-31T00:00:00Z",
		"time_interval": {"unit": "Day", "value": 1},
		"coords": {"crs": "EPSG:4326"},
		"channels": [{}]
	}`
	desc, err := ParseDescriptor([]byte(raw))
	if err != nil {
		t.Fatalf("parse descriptor: %v", err)
	}
	return desc
}

func TestResolveSnapsFileNameToInterval(t *testing.T) {
	desc := descriptorWithInterval(t)
	wanted := mustUTC("2020-01-06T13:00:00Z")

	info, err := Resolve(desc, 0, float64(wanted.Unix()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := filepath.Join("/data/temperature", "temp_20200106.tif")
	if info.FilePath != wantPath {
		t.Fatalf("FilePath = %q, want %q", info.FilePath, wantPath)
	}

	wantStart := mustUTC("2020-01-06T00:00:00Z").Unix()
	wantEnd := mustUTC("2020-01-07T00:00:00Z").Unix()
	if int64(info.TimeStart) != wantStart || int64(info.TimeEnd) != wantEnd {
		t.Fatalf("interval = [%v,%v), want [%v,%v)", info.TimeStart, info.TimeEnd, wantStart, wantEnd)
	}
}

func TestResolveRejectsTimeBeforeRange(t *testing.T) {
	desc := descriptorWithInterval(t)
	wanted := mustUTC("2019-12-01T00:00:00Z")

	_, err := Resolve(desc, 0, float64(wanted.Unix()))
	if !apperr.Is(err, apperr.NoRasterForGivenTime) {
		t.Fatalf("expected NoRasterForGivenTime, got %v", err)
	}
}

func TestResolveRejectsTimeAfterRange(t *testing.T) {
	desc := descriptorWithInterval(t)
	wanted := mustUTC("2021-06-01T00:00:00Z")

	_, err := Resolve(desc, 0, float64(wanted.Unix()))
	if !apperr.Is(err, apperr.NoRasterForGivenTime) {
		t.Fatalf("expected NoRasterForGivenTime, got %v", err)
	}
}

func TestResolveRejectsOutOfRangeChannel(t *testing.T) {
	desc := descriptorWithInterval(t)
	if _, err := Resolve(desc, 5, 0); !apperr.Is(err, apperr.ArgumentError) {
		t.Fatalf("expected ArgumentError, got %v", err)
	}
}

func TestResolveStaticFileNameWithoutInterval(t *testing.T) {
	raw := `{
		"path": "/data/static",
		"file_name": "elevation.tif",
		"coords": {"crs": "EPSG:3857"},
		"channels": [{}]
	}`
	desc, err := ParseDescriptor([]byte(raw))
	if err != nil {
		t.Fatalf("parse descriptor: %v", err)
	}

	info, err := Resolve(desc, 0, float64(mustUTC("2020-06-15T00:00:00Z").Unix()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPath := filepath.Join("/data/static", "elevation.tif")
	if info.FilePath != wantPath {
		t.Fatalf("FilePath = %q, want %q", info.FilePath, wantPath)
	}
}
