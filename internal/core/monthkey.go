package core

import (
	"fmt"
	"strconv"
	"time"
)

// MonthKey identifies a calendar month as a zero-padded "YYYY-MM" string.
// Plain string comparison between two valid keys is chronological.
type MonthKey string

// AlwaysActive is the lower bound used for versions that predate versioning.
const AlwaysActive MonthKey = "0000-01"

// NewMonthKey builds a key from a year and a 1-based month.
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), t.Month())
}

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	if len(s) != 7 || s[4] != '-' {
		return "", &ValidationError{Field: "month", Err: ErrInvalidMonthKey}
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 0 {
		return "", &ValidationError{Field: "month", Err: ErrInvalidMonthKey}
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return "", &ValidationError{Field: "month", Err: ErrInvalidMonthKey}
	}
	for _, r := range s[:4] + s[5:] {
		if r < '0' || r > '9' {
			return "", &ValidationError{Field: "month", Err: ErrInvalidMonthKey}
		}
	}
	return MonthKey(s), nil
}

// Validate reports whether k is a well-formed key.
func (k MonthKey) Validate() error {
	_, err := ParseMonthKey(string(k))
	return err
}

// Year returns the year component.
func (k MonthKey) Year() int {
	y, _ := strconv.Atoi(string(k[:4]))
	return y
}

// Month returns the month component.
func (k MonthKey) Month() time.Month {
	m, _ := strconv.Atoi(string(k[5:]))
	return time.Month(m)
}

// Prev returns the key of the month immediately before k.
func (k MonthKey) Prev() MonthKey {
	y, m := k.Year(), k.Month()-1
	if m < time.January {
		m = time.December
		y--
	}
	return NewMonthKey(y, m)
}

// Next returns the key of the month immediately after k.
func (k MonthKey) Next() MonthKey {
	y, m := k.Year(), k.Month()+1
	if m > time.December {
		m = time.January
		y++
	}
	return NewMonthKey(y, m)
}

// Compare returns -1, 0 or +1 as k is before, equal to or after other.
func (k MonthKey) Compare(other MonthKey) int {
	switch {
	case k < other:
		return -1
	case k > other:
		return 1
	default:
		return 0
	}
}

// Before reports whether k is strictly earlier than other.
func (k MonthKey) Before(other MonthKey) bool { return k < other }

// After reports whether k is strictly later than other.
func (k MonthKey) After(other MonthKey) bool { return k > other }

// FirstDay returns the first day of the month.
func (k MonthKey) FirstDay() Date {
	return NewDate(k.Year(), int(k.Month()), 1)
}

// DaysIn returns the number of days in the month.
func (k MonthKey) DaysIn() int {
	return time.Date(k.Year(), k.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (k MonthKey) String() string { return string(k) }
