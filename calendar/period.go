// Package calendar adds month and year periods to dates the way people
// read them: 31 January plus one month is the last day of February.
package calendar

import (
	"fmt"
	"time"
)

type Scale string

const (
	Months Scale = "months"
	Years  Scale = "years"
)

// AddMonths moves t by n calendar months. When the target month is shorter
// than t's day of month the result is clamped to the target month's last day.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Add moves t by amount units of scale.
func Add(t time.Time, amount int, scale Scale) (time.Time, error) {
	switch scale {
	case Months:
		return AddMonths(t, amount), nil
	case Years:
		return AddMonths(t, 12*amount), nil
	default:
		return time.Time{}, fmt.Errorf("invalid scale %q", scale)
	}
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
