package core

import (
	"fmt"
	"time"
)

const dateLayout = "02/01/2006"

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns 28-31 for month 1-12 and 0 otherwise.
func DaysInMonth(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

// FormatDate renders DD/MM/YYYY.
func FormatDate(day, month, year int) string {
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year)
}

// ParseDate reads a DD/MM/YYYY date and rejects days that do not exist.
func ParseDate(s string) (day, month, year int, err error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, 0, 0, NewValidationError("date", fmt.Sprintf("invalid date %q (want DD/MM/YYYY)", s))
	}
	return t.Day(), int(t.Month()), t.Year(), nil
}

// CheckDateInMonth verifies that date falls inside month/year.
func CheckDateInMonth(date string, month, year int) error {
	_, m, y, err := ParseDate(date)
	if err != nil {
		return err
	}
	if m != month || y != year {
		return NewValidationError("date", fmt.Sprintf("date %s is outside %02d/%04d", date, month, year))
	}
	return nil
}

// DayEntries builds one blank entry per calendar day of month/year, in day order.
func DayEntries(month, year int) []NewEntry {
	n := DaysInMonth(month, year)
	out := make([]NewEntry, 0, n)
	for d := 1; d <= n; d++ {
		out = append(out, NewEntry{Date: FormatDate(d, month, year)})
	}
	return out
}

// MonthLabel is the display name of a month.
func MonthLabel(month int) string {
	return fmt.Sprintf("Tháng %d", month)
}
