package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date in ISO "YYYY-MM-DD" form
// =============================================================================

// Date is a calendar date stored in ISO "YYYY-MM-DD" form.
//
// Every date in the system - production dates, rate effective/end dates,
// bonus rule windows, payroll period bounds - is one of these. Because the
// encoding is fixed-width ISO, lexicographic string comparison IS
// chronological comparison, and that is exactly how the rest of the engine
// compares dates. No time zones, no clock components.
type Date string

const dateLayout = "2006-01-02"

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout))
}

// ParseDate validates s as an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// Round-trip guards against inputs like "2024-1-5" that time.Parse
	// rejects anyway, and non-canonical forms it might not.
	if t.Format(dateLayout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(s), nil
}

// DateOf converts a time.Time to its calendar date (UTC).
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Today returns the current calendar date (UTC).
func Today() Date {
	return DateOf(time.Now())
}

// Comparison. All lexicographic, which for ISO dates is chronological.
func (d Date) Before(other Date) bool        { return d < other }
func (d Date) After(other Date) bool         { return d > other }
func (d Date) BeforeOrEqual(other Date) bool { return d <= other }
func (d Date) AfterOrEqual(other Date) bool  { return d >= other }
func (d Date) IsZero() bool                  { return d == "" }

func (d Date) String() string { return string(d) }

// Time converts the date back to a time.Time at midnight UTC.
// Zero or malformed dates yield the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date(d.Time().AddDate(0, 0, n).Format(dateLayout))
}

// =============================================================================
// PERIOD - Closed date range for payroll computation
// =============================================================================

// Period is a closed date range [Start, End]. Payroll is always computed
// over a period: entries on either bound are included.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod parses and validates a period from ISO date strings.
func NewPeriod(start, end string) (Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	p := Period{Start: s, End: e}
	return p, p.Validate()
}

// Validate reports ErrInvalidPeriod when the end precedes the start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// Contains reports whether d falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
