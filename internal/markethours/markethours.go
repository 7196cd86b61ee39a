// Package markethours answers whether the US equity market is in its
// regular session. Exchange holidays are not modeled: a holiday weekday
// counts as open, which only shortens cache lifetimes.
package markethours

import "time"

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Without tzdata fall back to fixed EST; DST drift is acceptable
		// for TTL selection.
		loc = time.FixedZone("EST", -5*60*60)
	}
	eastern = loc
}

func Location() *time.Location {
	return eastern
}

// IsOpen reports whether t falls inside the regular session,
// Monday to Friday 09:30 through 16:00 Eastern, boundaries inclusive.
func IsOpen(t time.Time) bool {
	et := t.In(eastern)
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes <= 16*60
}
