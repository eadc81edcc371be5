package raster

import (
	"bytes"
	"encoding/json"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/spatial"
)

// numberOrAttr unmarshals either a JSON number (literal offset/scale) or a
// string (the name of a numeric attribute to resolve it from at query
// time), per §6.1's "transform.offset: <number|attr-name-string>".
type numberOrAttr struct {
	literal   float64
	attrName  string
	isLiteral bool
}

func (n *numberOrAttr) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.literal = f
		n.isLiteral = true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		n.attrName = s
		return nil
	}
	return apperr.New(apperr.ArgumentError, "transform field must be a number or attribute name string")
}

type datasetCoordsJSON struct {
	EPSG   int        `json:"epsg"`
	Size   [2]int     `json:"size"`
	Origin [2]float64 `json:"origin"`
	Scale  [2]float64 `json:"scale"`
}

type transformJSON struct {
	Datatype string       `json:"datatype"`
	Offset   numberOrAttr `json:"offset"`
	Scale    numberOrAttr `json:"scale"`
}

type channelJSON struct {
	Datatype  string         `json:"datatype"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	NoData    *float64       `json:"nodata"`
	Transform *transformJSON `json:"transform"`
}

type datasetJSON struct {
	Coords   datasetCoordsJSON `json:"coords"`
	Channels []channelJSON     `json:"channels"`
}

// Dataset is the parsed form of the §6.1 JSON descriptor: grid definition
// plus per-channel data descriptions.
type Dataset struct {
	Grid     GridCrs
	Channels []RasterChannel
}

// ParseDataset parses and validates a §6.1 descriptor. Unknown top-level or
// nested fields are rejected (Design Note "JSON-of-anything descriptors").
func ParseDataset(data []byte) (*Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw datasetJSON
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "raster dataset descriptor")
	}

	if len(raw.Channels) < 1 {
		return nil, apperr.New(apperr.ArgumentError, "raster dataset descriptor: channels must be non-empty")
	}

	grid := GridCrs{
		Crs:         spatial.CrsId{Authority: "EPSG", Code: raw.Coords.EPSG},
		Width:       raw.Coords.Size[0],
		Height:      raw.Coords.Size[1],
		OriginX:     raw.Coords.Origin[0],
		OriginY:     raw.Coords.Origin[1],
		PixelScaleX: raw.Coords.Scale[0],
		PixelScaleY: raw.Coords.Scale[1],
	}
	if err := grid.Verify(); err != nil {
		return nil, err
	}

	channels := make([]RasterChannel, 0, len(raw.Channels))
	for i, c := range raw.Channels {
		dt, err := ParseDescriptorDatatype(c.Datatype)
		if err != nil {
			return nil, apperr.Wrap(apperr.ArgumentError, err, "channel %d", i)
		}
		hasNoData := c.NoData != nil
		var noData float64
		if hasNoData {
			noData = *c.NoData
		}
		dd, err := NewDataDescription(dt, c.Min, c.Max, hasNoData, noData)
		if err != nil {
			return nil, apperr.Wrap(apperr.ArgumentError, err, "channel %d", i)
		}

		rc := RasterChannel{Data: dd}
		if c.Transform != nil {
			tdt, err := ParseDescriptorDatatype(c.Transform.Datatype)
			if err != nil {
				return nil, apperr.Wrap(apperr.ArgumentError, err, "channel %d transform", i)
			}
			t := Transform{Datatype: tdt, Offset: 0, Scale: 1}
			if c.Transform.Offset.isLiteral {
				t.Offset = c.Transform.Offset.literal
			} else {
				t.OffsetFromAttr = c.Transform.Offset.attrName
			}
			if c.Transform.Scale.isLiteral {
				t.Scale = c.Transform.Scale.literal
			} else {
				t.ScaleFromAttr = c.Transform.Scale.attrName
			}
			rc.Transform = &t
		}
		channels = append(channels, rc)
	}

	return &Dataset{Grid: grid, Channels: channels}, nil
}
