package core

import (
	"fmt"
	"time"
)

// MonthKey identifies one calendar month as "YYYY-MM".
// String ordering matches chronological ordering.
type MonthKey string

// ParseMonthKey validates and normalizes a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("parse month key %q: %w", s, err)
	}
	return MonthKeyOf(t), nil
}

// MonthKeyOf returns the key of the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// CurrentMonthKey returns the key of the current calendar month.
func CurrentMonthKey() MonthKey {
	return MonthKeyOf(time.Now())
}

func (k MonthKey) Validate() error {
	if _, err := ParseMonthKey(string(k)); err != nil {
		return err
	}
	return nil
}

// Time returns midnight UTC on the first day of the month.
// Invalid keys yield the zero time.
func (k MonthKey) Time() time.Time {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Add moves the key forward (or backward, for negative delta) by whole months.
func (k MonthKey) Add(delta int) MonthKey {
	return MonthKeyOf(k.Time().AddDate(0, delta, 0))
}

// Prev is the immediately preceding month.
func (k MonthKey) Prev() MonthKey {
	return k.Add(-1)
}

// Before reports whether k is chronologically before other.
func (k MonthKey) Before(other MonthKey) bool {
	return string(k) < string(other)
}

func (k MonthKey) String() string {
	return string(k)
}

// MonthsBetween returns the signed number of whole months from a to b.
// MonthsBetween("2024-01", "2024-03") == 2.
func MonthsBetween(a, b MonthKey) int {
	at, bt := a.Time(), b.Time()
	return (bt.Year()-at.Year())*12 + int(bt.Month()) - int(at.Month())
}
