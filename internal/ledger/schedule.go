package ledger

import "time"

// Advance returns the occurrence following t for the given frequency.
//
// Daily, weekly and biweekly steps add fixed day counts. Monthly, quarterly
// and yearly steps are calendar-aware and clamp to the last valid day of the
// target month, so Jan 31 + one month = Feb 28 (29 in leap years) rather
// than the normalized Mar 2/3 that time.AddDate would produce.
func Advance(t time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return addMonthsClamped(t, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(t, 3)
	case FrequencyYearly:
		return addMonthsClamped(t, 12)
	}
	return t
}

// addMonthsClamped adds n months to t, clamping the day-of-month to the last
// valid day of the resulting month.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	m := int(month) + n
	year += (m - 1) / 12
	month = time.Month((m-1)%12 + 1)
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	h, min, sec := t.Clock()
	return time.Date(year, month, day, h, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
