// Package period scopes ledger and KPI queries to a calendar window.
// Windows are half-open intervals [Start, End) computed in the clinic
// timezone, so an entry stamped at midnight belongs to the day it opens.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

var (
	ErrInvalidGranularity = errors.New("invalid period")
	ErrInvalidAnchor      = errors.New("invalid anchor date")
)

func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return Month, nil
	case Day, Week, Month, Year:
		return g, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// ParseAnchor accepts "2006-01-02", "2006-01" or "2006". An empty value
// anchors on now.
func ParseAnchor(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidAnchor
}

type Window struct {
	Granularity Granularity `json:"granularity"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
}

// NewWindow returns the period of granularity g containing anchor. Weeks
// start on Monday.
func NewWindow(g Granularity, anchor time.Time, loc *time.Location) Window {
	a := anchor.In(loc)
	var start, end time.Time
	switch g {
	case Day:
		start = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case Week:
		offset := (int(a.Weekday()) + 6) % 7
		start = time.Date(a.Year(), a.Month(), a.Day()-offset, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	case Year:
		start = time.Date(a.Year(), time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default:
		g = Month
		start = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	}
	return Window{Granularity: g, Start: start, End: end}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s[%s,%s)", w.Granularity, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Key identifies the window in cache keys.
func (w Window) Key() string {
	return string(w.Granularity) + ":" + w.Start.Format("2006-01-02")
}
