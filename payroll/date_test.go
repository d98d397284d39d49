package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

func TestParseDate(t *testing.T) {
	valid := []string{"2024-01-05", "1999-12-31", "2024-02-29"}
	for _, s := range valid {
		got, err := payroll.ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q): unexpected error %v", s, err)
		}
		if got.String() != s {
			t.Errorf("ParseDate(%q) = %q", s, got)
		}
	}

	invalid := []string{"", "2024-1-5", "05-01-2024", "2024-13-01", "2023-02-29", "garbage"}
	for _, s := range invalid {
		if _, err := payroll.ParseDate(s); !errors.Is(err, payroll.ErrInvalidDate) {
			t.Errorf("ParseDate(%q): expected ErrInvalidDate, got %v", s, err)
		}
	}
}

func TestDateComparisonIsChronological(t *testing.T) {
	// Lexicographic comparison of ISO dates is chronological comparison.
	if !d("2024-01-05").Before(d("2024-01-15")) {
		t.Error("2024-01-05 should be before 2024-01-15")
	}
	if !d("2023-12-31").Before(d("2024-01-01")) {
		t.Error("year boundary should compare chronologically")
	}
	if !d("2024-01-15").AfterOrEqual(d("2024-01-15")) {
		t.Error("a date is after-or-equal itself")
	}
}

func TestNewDate(t *testing.T) {
	if got := payroll.NewDate(2024, time.January, 5); got != d("2024-01-05") {
		t.Errorf("NewDate = %s", got)
	}
}

func TestDateAddDays(t *testing.T) {
	if got := d("2024-01-31").AddDays(1); got != d("2024-02-01") {
		t.Errorf("AddDays across month boundary = %s", got)
	}
	if got := d("2024-03-01").AddDays(-1); got != d("2024-02-29") { // leap year
		t.Errorf("AddDays(-1) = %s", got)
	}
}

func TestPeriod(t *testing.T) {
	p, err := payroll.NewPeriod("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Contains(d("2024-01-01")) || !p.Contains(d("2024-01-31")) {
		t.Error("period bounds are inclusive")
	}
	if p.Contains(d("2024-02-01")) {
		t.Error("date past the end must not be contained")
	}

	if _, err := payroll.NewPeriod("2024-02-01", "2024-01-01"); !errors.Is(err, payroll.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := payroll.NewPeriod("bad", "2024-01-01"); !errors.Is(err, payroll.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}
