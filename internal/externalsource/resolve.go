package externalsource

import (
	"math"
	"path/filepath"
	"time"

	"github.com/mappingcore/geodb/internal/apperr"
)

// LoadingInfo is the resolved answer to "which file, and for which validity
// interval, serves time t" (§4.5, getDataLoadingInfo).
type LoadingInfo struct {
	FilePath  string
	Channel   int
	TimeStart float64
	TimeEnd   float64
}

// Resolve implements getDataLoadingInfo: range-checks wantedUnix against
// the channel's declared [time_start,time_end] (both ends inclusive), and
// when a time_interval is
// present, snaps wantedUnix to the enclosing interval boundary and expands
// the file_name template with the formatted snapped timestamp.
func Resolve(desc *Descriptor, channel int, wantedUnix float64) (LoadingInfo, error) {
	if channel < 0 || channel >= len(desc.Channels) {
		return LoadingInfo{}, apperr.New(apperr.ArgumentError, "external source: channel %d out of range", channel)
	}
	cs := desc.Channels[channel]

	timeStartMapping, err := parseBoundOrDefault(cs.TimeStart, math.Inf(-1))
	if err != nil {
		return LoadingInfo{}, err
	}
	timeEndMapping, err := parseBoundOrDefault(cs.TimeEnd, math.Inf(1))
	if err != nil {
		return LoadingInfo{}, err
	}

	if wantedUnix < timeStartMapping || wantedUnix > timeEndMapping {
		return LoadingInfo{}, apperr.New(apperr.NoRasterForGivenTime, "requested time is not in range of dataset")
	}

	fileName := cs.FileName

	if desc.TimeInterval != nil {
		unit, err := ParseTimeUnit(desc.TimeInterval.Unit)
		if err != nil {
			return LoadingInfo{}, err
		}
		intervalValue := desc.TimeInterval.Value
		if intervalValue < 1 {
			return LoadingInfo{}, apperr.New(apperr.ArgumentError, "time_interval.value must be >= 1")
		}

		start := time.Unix(int64(timeStartMapping), 0).UTC()
		wanted := time.Unix(int64(wantedUnix), 0).UTC()

		snappedStart := snapToInterval(unit, intervalValue, start, wanted)
		snappedEnd := snapIntervalEnd(unit, intervalValue, snappedStart)

		timeStartMapping = float64(snappedStart.Unix())
		timeEndMapping = float64(snappedEnd.Unix())

		goLayout, err := strftimeToGoLayout(cs.TimeFormat)
		if err != nil {
			return LoadingInfo{}, err
		}
		snappedTimeString := snappedStart.Format(goLayout)
		fileName = ExpandFileNameTemplate(fileName, snappedTimeString)
	}

	return LoadingInfo{
		FilePath:  filepath.Join(cs.Path, fileName),
		Channel:   cs.Channel,
		TimeStart: timeStartMapping,
		TimeEnd:   timeEndMapping,
	}, nil
}

func parseBoundOrDefault(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, apperr.Wrap(apperr.ArgumentError, err, "external source: parse time %q", s)
	}
	return float64(t.Unix()), nil
}

// strftimeToGoLayout converts the subset of strftime directives used by
// §6.2's time_format field into a Go reference-time layout string.
func strftimeToGoLayout(format string) (string, error) {
	var out []byte
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			out = append(out, c)
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			out = append(out, "2006"...)
		case 'm':
			out = append(out, "01"...)
		case 'd':
			out = append(out, "02"...)
		case 'H':
			out = append(out, "15"...)
		case 'M':
			out = append(out, "04"...)
		case 'S':
			out = append(out, "05"...)
		case '%':
			out = append(out, '%')
		default:
			return "", apperr.New(apperr.ArgumentError, "unsupported time_format directive %%%c", format[i])
		}
	}
	return string(out), nil
}
