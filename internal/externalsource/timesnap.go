package externalsource

import "time"

// daysBetweenDates mirrors boost::gregorian (wanted.date()-start.date()).days():
// a pure calendar-date difference that ignores time-of-day entirely.
func daysBetweenDates(wanted, start time.Time) int64 {
	w := time.Date(wanted.Year(), wanted.Month(), wanted.Day(), 0, 0, 0, 0, time.UTC)
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return int64(w.Sub(s).Hours() / 24)
}

// snapToInterval reproduces GDALTimesnap::snapToInterval field-for-field,
// including its coarser-than-you'd-expect per-unit diffs: Hour only
// compares the hour field of each time-of-day (ignoring minutes/seconds),
// Minute only compares hour+minute fields (ignoring seconds). Integer
// division here truncates toward zero exactly as it does in the original
// C++, so the snap direction for times before start matches it too.
func snapToInterval(unit TimeUnit, intervalValue int, start, wanted time.Time) time.Time {
	iv := int64(intervalValue)
	switch unit {
	case Year:
		diff := int64(wanted.Year() - start.Year())
		diff = (diff / iv) * iv
		return start.AddDate(int(diff), 0, 0)

	case Month:
		months := int64((wanted.Year()-start.Year())*12 + int(wanted.Month()) - int(start.Month()))
		months = (months / iv) * iv
		return start.AddDate(0, int(months), 0)

	case Day:
		days := daysBetweenDates(wanted, start)
		days = (days / iv) * iv
		return start.AddDate(0, 0, int(days))

	case Hour:
		days := daysBetweenDates(wanted, start)
		hours := days*24 + int64(wanted.Hour()-start.Hour())
		hours = (hours / iv) * iv
		return start.Add(time.Duration(hours) * time.Hour)

	case Minute:
		days := daysBetweenDates(wanted, start)
		minutes := days*24*60 + int64(wanted.Hour()*60-start.Hour()*60) + int64(wanted.Minute()-start.Minute())
		minutes = (minutes / iv) * iv
		return start.Add(time.Duration(minutes) * time.Minute)

	case Second:
		days := daysBetweenDates(wanted, start)
		seconds := days*24*3600 +
			int64(wanted.Hour()*3600-start.Hour()*3600) +
			int64(wanted.Minute()*60-start.Minute()*60) +
			int64(wanted.Second()-start.Second())
		seconds = (seconds / iv) * iv
		return start.Add(time.Duration(seconds) * time.Second)

	default:
		return start
	}
}

// snapIntervalEnd advances snappedStart by one interval, matching the
// per-unit switch in getDataLoadingInfo that computes snappedTimeEnd.
func snapIntervalEnd(unit TimeUnit, intervalValue int, snappedStart time.Time) time.Time {
	switch unit {
	case Year:
		return snappedStart.AddDate(intervalValue, 0, 0)
	case Month:
		return snappedStart.AddDate(0, intervalValue, 0)
	case Day:
		return snappedStart.AddDate(0, 0, intervalValue)
	case Hour:
		return snappedStart.Add(time.Duration(intervalValue) * time.Hour)
	case Minute:
		return snappedStart.Add(time.Duration(intervalValue) * time.Minute)
	case Second:
		return snappedStart.Add(time.Duration(intervalValue) * time.Second)
	default:
		return snappedStart
	}
}
