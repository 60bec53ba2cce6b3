package domain

import "time"

// Day truncates t to UTC midnight. All ledger math runs at day granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn enumerates the half-open range [checkIn, checkOut): the checkout
// day itself stays free for the next guest. Returns nil when the range is
// empty or inverted.
func DaysIn(checkIn, checkOut time.Time) []time.Time {
	start, end := Day(checkIn), Day(checkOut)
	if !start.Before(end) {
		return nil
	}
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
