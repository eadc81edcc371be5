package externalsource

import (
	"bytes"
	"encoding/json"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/spatial"
)

type timeIntervalJSON struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

type coordsRefJSON struct {
	Crs string `json:"crs"`
}

type channelOverrideJSON struct {
	Unit       json.RawMessage `json:"unit"`
	NoData     *float64        `json:"nodata"`
	Path       *string         `json:"path"`
	FileName   *string         `json:"file_name"`
	Channel    *int            `json:"channel"`
	TimeFormat *string         `json:"time_format"`
	TimeStart  *string         `json:"time_start"`
	TimeEnd    *string         `json:"time_end"`
}

type descriptorJSON struct {
	Path         string                `json:"path"`
	FileName     string                `json:"file_name"`
	TimeFormat   string                `json:"time_format"`
	TimeStart    string                `json:"time_start"`
	TimeEnd      string                `json:"time_end"`
	TimeInterval *timeIntervalJSON     `json:"time_interval"`
	Coords       coordsRefJSON         `json:"coords"`
	Channels     []channelOverrideJSON `json:"channels"`
}

// ChannelSource is one channel's fully resolved (dataset defaults merged
// with channel overrides) external-source configuration (§6.2, "per-channel
// fields override the dataset defaults").
type ChannelSource struct {
	Path       string
	FileName   string
	TimeFormat string
	TimeStart  string
	TimeEnd    string
	Channel    int
	NoData     *float64
	Unit       json.RawMessage
	Crs        spatial.CrsId
}

// Descriptor is the parsed §6.2 external raster collection descriptor.
type Descriptor struct {
	TimeInterval *timeIntervalJSON
	Channels     []ChannelSource
}

// ParseDescriptor parses and validates a §6.2 descriptor, rejecting
// multi-placeholder file_name templates at validation time.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw descriptorJSON
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "external source descriptor")
	}
	if len(raw.Channels) == 0 {
		return nil, apperr.New(apperr.ArgumentError, "external source descriptor: channels must be non-empty")
	}

	crs, err := spatial.ParseCrsString(raw.Coords.Crs)
	if err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "external source descriptor: coords.crs")
	}

	channels := make([]ChannelSource, 0, len(raw.Channels))
	for i, c := range raw.Channels {
		cs := ChannelSource{
			Path: raw.Path, FileName: raw.FileName, TimeFormat: raw.TimeFormat,
			TimeStart: raw.TimeStart, TimeEnd: raw.TimeEnd, Channel: i, Crs: crs, Unit: c.Unit,
		}
		if c.Path != nil {
			cs.Path = *c.Path
		}
		if c.FileName != nil {
			cs.FileName = *c.FileName
		}
		if c.TimeFormat != nil {
			cs.TimeFormat = *c.TimeFormat
		}
		if c.TimeStart != nil {
			cs.TimeStart = *c.TimeStart
		}
		if c.TimeEnd != nil {
			cs.TimeEnd = *c.TimeEnd
		}
		if c.Channel != nil {
			cs.Channel = *c.Channel
		}
		cs.NoData = c.NoData

		if err := ValidateFileNameTemplate(cs.FileName); err != nil {
			return nil, apperr.Wrap(apperr.ArgumentError, err, "channel %d", i)
		}
		channels = append(channels, cs)
	}

	return &Descriptor{TimeInterval: raw.TimeInterval, Channels: channels}, nil
}
