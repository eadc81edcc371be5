package externalsource

import "testing"

const validDescriptorJSON = `{
	"path": "/data/temperature",
	"file_name": "temp_%%%TIME_STRING%%%.tif",
	"time_format": "%Y%m%d%H%M%S",
	"time_start": "2020-01-01T00:00:00Z",
	"time_end": "2020-12-31T00:00:00Z",
	"time_interval": {"unit": "Day", "value": 1},
	"coords": {"crs": "EPSG:4326"},
	"channels": [
		{"nodata": -9999}
	]
}`

func TestParseDescriptorValid(t *testing.T) {
	desc, err := ParseDescriptor([]byte(validDescriptorJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(desc.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(desc.Channels))
	}
	ch := desc.Channels[0]
	if ch.Path != "/data/temperature" {
		t.Fatalf("expected inherited path, got %q", ch.Path)
	}
	if ch.NoData == nil || *ch.NoData != -9999 {
		t.Fatalf("expected nodata override -9999, got %v", ch.NoData)
	}
	if ch.Crs.Authority != "EPSG" || ch.Crs.Code != 4326 {
		t.Fatalf("unexpected crs %+v", ch.Crs)
	}
}

func TestParseDescriptorRejectsUnknownField(t *testing.T) {
	bad := `{"path":"x","file_name":"f.tif","coords":{"crs":"EPSG:4326"},"channels":[{}],"bogus":1}`
	if _, err := ParseDescriptor([]byte(bad)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseDescriptorRejectsEmptyChannels(t *testing.T) {
	bad := `{"path":"x","file_name":"f.tif","coords":{"crs":"EPSG:4326"},"channels":[]}`
	if _, err := ParseDescriptor([]byte(bad)); err == nil {
		t.Fatal("expected error for empty channels")
	}
}

func TestParseDescriptorChannelOverridesFileName(t *testing.T) {
	raw := `{
		"path": "/data",
		"file_name": "default_%%%TIME_STRING%%%.tif",
		"coords": {"crs": "EPSG:3857"},
		"channels": [
			{},
			{"file_name": "override_%%%TIME_STRING%%%.tif", "channel": 2}
		]
	}`
	desc, err := ParseDescriptor([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Channels[0].FileName != "default_%%%TIME_STRING%%%.tif" {
		t.Fatalf("channel 0 should inherit default filename, got %q", desc.Channels[0].FileName)
	}
	if desc.Channels[1].FileName != "override_%%%TIME_STRING%%%.tif" {
		t.Fatalf("channel 1 should use override filename, got %q", desc.Channels[1].FileName)
	}
	if desc.Channels[1].Channel != 2 {
		t.Fatalf("channel 1 should override channel index to 2, got %d", desc.Channels[1].Channel)
	}
}

func TestParseDescriptorRejectsRepeatedPlaceholderInChannel(t *testing.T) {
	raw := `{
		"path": "/data",
		"file_name": "f_%%%TIME_STRING%%%_%%%TIME_STRING%%%.tif",
		"coords": {"crs": "EPSG:4326"},
		"channels": [{}]
	}`
	if _, err := ParseDescriptor([]byte(raw)); err == nil {
		t.Fatal("expected error for repeated placeholder")
	}
}
