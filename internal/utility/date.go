package utility

import (
	"time"

	"servicehub/internal/common"
)

// DateLayout is the storage form of calendar dates (startDate, endDate).
const DateLayout = "2006-01-02"

// CivilDate returns the calendar day of t, in t's own location, as midnight UTC.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, common.ValidationError("Invalid date, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats the calendar day of t.
func FormatDate(t time.Time) string {
	return CivilDate(t).Format(DateLayout)
}
