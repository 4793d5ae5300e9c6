package chart

import "time"

// NormalizeHour zeroes the minutes, seconds and sub-second fraction of t in
// its own location. Two instants in the same clock hour are equal after
// normalization regardless of input precision.
func NormalizeHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HoursOfDay returns the 24 hour-aligned instants of the day containing t,
// starting at local midnight.
func HoursOfDay(t time.Time) []time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	hours := make([]time.Time, 24)
	for i := range hours {
		hours[i] = midnight.Add(time.Duration(i) * time.Hour)
	}
	return hours
}

// HoursBetween returns the hour-aligned instants from start (hour-floored)
// through end (hour-floored), inclusive, stepping by one hour. The result is
// empty when end precedes start.
func HoursBetween(start, end time.Time) []time.Time {
	from := NormalizeHour(start)
	to := NormalizeHour(end)
	if to.Before(from) {
		return nil
	}

	var hours []time.Time
	for h := from; !h.After(to); h = h.Add(time.Hour) {
		hours = append(hours, h)
	}
	return hours
}
