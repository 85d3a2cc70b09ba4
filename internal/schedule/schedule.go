package schedule

import (
	"errors"
	"time"

	"physio-backend/internal/models"
)

const (
	// DefaultDurationMinutes is the length of a new appointment when the
	// form leaves it empty.
	DefaultDurationMinutes = 30
	WorkDays               = 6
	FirstHour              = 8
	LastHour               = 18
	DefaultPrice           = 30
)

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidDuration = errors.New("invalid duration")
)

var treatmentPrices = map[models.TreatmentType]float64{
	models.TreatmentConsultation: 30,
	models.TreatmentOsteopathy:   60,
	models.TreatmentShockwave:    45,
	models.TreatmentNutrition:    50,
}

// PriceFor returns the default price of a treatment type.
func PriceFor(t models.TreatmentType) float64 {
	if p, ok := treatmentPrices[t]; ok {
		return p
	}
	return DefaultPrice
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse("15:04", timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
}

// Span returns the end of an appointment starting at start. A non positive
// duration is rejected so that end is always after start.
func Span(start time.Time, durationMinutes int) (time.Time, error) {
	if durationMinutes <= 0 {
		return time.Time{}, ErrInvalidDuration
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute), nil
}

// WeekStart returns Monday 00:00 of the week containing d. Sundays belong
// to the week that started six days earlier.
func WeekStart(d time.Time, loc *time.Location) time.Time {
	d = d.In(loc)
	offset := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, loc)
}

// WeekDays returns Monday to Saturday of the week containing anchor.
func WeekDays(anchor time.Time, loc *time.Location) []time.Time {
	start := WeekStart(anchor, loc)
	days := make([]time.Time, 0, WorkDays)
	for i := 0; i < WorkDays; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// HourSlots returns the grid rows, 08:00 to 18:00 inclusive.
func HourSlots() []int {
	hours := make([]int, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// InCell reports whether start falls in the (day, hour) cell. Only the
// start hour is matched, so a long appointment shows once.
func InCell(start, day time.Time, hour int, loc *time.Location) bool {
	s := start.In(loc)
	d := day.In(loc)
	return s.Year() == d.Year() && s.Month() == d.Month() && s.Day() == d.Day() && s.Hour() == hour
}

type Cell struct {
	Date         string               `json:"date"`
	Hour         int                  `json:"hour"`
	Appointments []models.Appointment `json:"appointments"`
}

// Bucket lays appointments out on the week grid of anchor. Appointments
// starting outside the grid (Sunday, before 8h, after 18h59) are dropped.
func Bucket(appointments []models.Appointment, anchor time.Time, loc *time.Location) []Cell {
	days := WeekDays(anchor, loc)
	hours := HourSlots()
	cells := make([]Cell, 0, len(days)*len(hours))
	for _, hour := range hours {
		for _, day := range days {
			cell := Cell{
				Date:         day.Format("2006-01-02"),
				Hour:         hour,
				Appointments: make([]models.Appointment, 0),
			}
			for _, a := range appointments {
				if InCell(a.StartTime, day, hour, loc) {
					cell.Appointments = append(cell.Appointments, a)
				}
			}
			cells = append(cells, cell)
		}
	}
	return cells
}
