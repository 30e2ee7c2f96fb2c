package orders

import "time"

// OrderDateFor assigns the calendar date an order placed at the given instant
// is scheduled for. Orders placed at or after the cutoff hour (store closing,
// 17:00 by default) roll over to the next day. Pure function; the location is
// the store's single configured timezone.
func OrderDateFor(at time.Time, cutoffHour int, loc *time.Location) time.Time {
	local := at.In(loc)
	y, m, d := local.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if local.Hour() >= cutoffHour {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
