package raster

import "github.com/mappingcore/geodb/internal/apperr"

// DataDescription describes the value range and no-data marker of a raster
// channel (§3.2).
type DataDescription struct {
	Datatype   ElementType
	Min, Max   float64
	HasNoData  bool
	NoDataValue float64
}

// NewDataDescription validates Min<=Max before returning.
func NewDataDescription(dt ElementType, min, max float64, hasNoData bool, noData float64) (DataDescription, error) {
	if min > max {
		return DataDescription{}, apperr.New(apperr.ArgumentError, "data description: min %v > max %v", min, max)
	}
	return DataDescription{Datatype: dt, Min: min, Max: max, HasNoData: hasNoData, NoDataValue: noData}, nil
}

// IsNoData reports whether v equals the configured no-data marker.
func (d DataDescription) IsNoData(v float64) bool {
	return d.HasNoData && v == d.NoDataValue
}
