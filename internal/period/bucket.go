package period

import (
	"strconv"
	"time"
)

var shortMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

var shortWeekdays = [...]string{"lun.", "mar.", "mer.", "jeu.", "ven.", "sam.", "dim."}

// Bucket places t on the chart axis of a window: months of the year,
// days of the month, weekdays of the week or hours of the day.
func Bucket(g Granularity, t time.Time, loc *time.Location) (int, string) {
	t = t.In(loc)
	switch g {
	case Year:
		m := int(t.Month()) - 1
		return m, shortMonths[m]
	case Week:
		d := (int(t.Weekday()) + 6) % 7
		return d, shortWeekdays[d]
	case Day:
		return t.Hour(), strconv.Itoa(t.Hour()) + "h"
	default:
		return t.Day(), strconv.Itoa(t.Day())
	}
}
