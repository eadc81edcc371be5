// Package externalsource resolves queries against an externally
// time-indexed collection of raster files (§4.5, §6.2): a directory of
// files named by a timestamp template, snapped to the collection's declared
// time interval exactly as original_source's gdal_timesnap.cpp.
package externalsource

import "github.com/mappingcore/geodb/internal/apperr"

// TimeUnit is the granularity a collection's time_interval is expressed in.
type TimeUnit int

const (
	Second TimeUnit = iota
	Minute
	Hour
	Day
	Month
	Year
)

var timeUnitNames = map[string]TimeUnit{
	"Second": Second,
	"Minute": Minute,
	"Hour":   Hour,
	"Day":    Day,
	"Month":  Month,
	"Year":   Year,
}

// ParseTimeUnit converts a §6.2 time_interval.unit string.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u, ok := timeUnitNames[s]
	if !ok {
		return 0, apperr.New(apperr.ArgumentError, "unknown time unit %q", s)
	}
	return u, nil
}
