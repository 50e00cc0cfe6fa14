package values

import (
	"encoding/json"
	"time"
)

// ExpenseDate represents a calendar date parsed from receipt text.
// Receipts arrive in several regional formats; parsing tries each layout in a
// fixed fallback order so the same raw string always normalizes the same way.
// An unparseable date keeps its raw form with Valid() == false, and every rule
// that depends on the date fails closed.
type ExpenseDate struct {
	raw   string
	t     time.Time
	valid bool
}

// dateLayouts is the fallback parse order. Order matters: earlier layouts win
// for ambiguous inputs, so it must stay stable across releases.
var dateLayouts = []string{
	"02 Jan 2006",
	"02-Jan-2006",
	"02/01/2006",
	"2006-01-02",
	"02 January 2006",
}

// ParseExpenseDate normalizes a raw textual date
func ParseExpenseDate(raw string) ExpenseDate {
	if raw == "" {
		return ExpenseDate{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return ExpenseDate{raw: raw, t: t, valid: true}
		}
	}
	return ExpenseDate{raw: raw}
}

// NewExpenseDate creates an ExpenseDate from a time value
func NewExpenseDate(t time.Time) ExpenseDate {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return ExpenseDate{raw: day.Format("2006-01-02"), t: day, valid: true}
}

// Valid reports whether the date was successfully parsed
func (d ExpenseDate) Valid() bool {
	return d.valid
}

// Raw returns the original textual form
func (d ExpenseDate) Raw() string {
	return d.raw
}

// Time returns the parsed time (zero value when invalid)
func (d ExpenseDate) Time() time.Time {
	return d.t
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
// Invalid dates are never weekends.
func (d ExpenseDate) IsWeekend() bool {
	if !d.valid {
		return false
	}
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SameDay reports whether two dates normalize to the identical calendar day.
// Comparison is on the parsed form, so "15 Jan 2025" and "2025-01-15" match.
// Either side being invalid fails the comparison.
func (d ExpenseDate) SameDay(other ExpenseDate) bool {
	if !d.valid || !other.valid {
		return false
	}
	return d.t.Year() == other.t.Year() && d.t.YearDay() == other.t.YearDay()
}

// WithinDays reports whether two dates are at most the given number of days
// apart. Either side being invalid fails the comparison.
func (d ExpenseDate) WithinDays(other ExpenseDate, days int) bool {
	if !d.valid || !other.valid {
		return false
	}
	diff := d.t.Sub(other.t)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}

// String returns the canonical form for valid dates, the raw form otherwise
func (d ExpenseDate) String() string {
	if d.valid {
		return d.t.Format("2006-01-02")
	}
	return d.raw
}

// MarshalJSON serializes the raw textual form
func (d ExpenseDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.raw)
}

// UnmarshalJSON parses the raw textual form
func (d *ExpenseDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseExpenseDate(s)
	return nil
}
