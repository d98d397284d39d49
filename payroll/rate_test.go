package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Shared across the package's test files.

func d(s string) payroll.Date { return payroll.Date(s) }

func dp(s string) *payroll.Date {
	v := payroll.Date(s)
	return &v
}

func money(s string) decimal.Decimal { return payroll.MustMoney(s) }

func rate(id string, style string, rate string, effective string, end *payroll.Date) payroll.StyleRate {
	return payroll.StyleRate{
		ID:            payroll.RateID(id),
		StyleID:       payroll.StyleID(style),
		Rate:          money(rate),
		EffectiveDate: d(effective),
		EndDate:       end,
	}
}

// =============================================================================
// RATE RESOLUTION
// =============================================================================

func TestResolveRate_SingleCoveringInterval(t *testing.T) {
	// GIVEN: One open-ended rate effective before the date
	// WHEN: Resolving on a later date
	// THEN: That rate is returned

	rates := []payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", nil),
	}

	got, ok := payroll.ResolveRate(rates, d("2024-01-05"))
	if !ok {
		t.Fatal("expected a rate to resolve")
	}
	if !got.Rate.Equal(money("2.00")) {
		t.Errorf("expected rate 2.00, got %s", got.Rate)
	}
}

func TestResolveRate_OverlapTieBreak_LatestEffectiveWins(t *testing.T) {
	// GIVEN: Two open-ended intervals both covering the date
	// WHEN: Resolving on a date covered by both
	// THEN: The interval with the larger effective date wins,
	//       regardless of record order

	older := rate("r1", "style-a", "2.00", "2024-01-01", nil)
	newer := rate("r2", "style-a", "2.50", "2024-01-15", nil)

	for name, rates := range map[string][]payroll.StyleRate{
		"older first": {older, newer},
		"newer first": {newer, older},
	} {
		got, ok := payroll.ResolveRate(rates, d("2024-01-20"))
		if !ok {
			t.Fatalf("%s: expected a rate to resolve", name)
		}
		if got.ID != "r2" {
			t.Errorf("%s: expected r2 (latest effective) to win, got %s", name, got.ID)
		}
	}
}

func TestResolveRate_TieBreakIgnoresEndDate(t *testing.T) {
	// GIVEN: A bounded interval that started later and an open-ended one
	//        that started earlier, both covering the date
	// WHEN: Resolving
	// THEN: The later-starting interval wins even though it ends sooner

	rates := []payroll.StyleRate{
		rate("open", "style-a", "2.00", "2024-01-01", nil),
		rate("bounded", "style-a", "3.00", "2024-02-01", dp("2024-02-28")),
	}

	got, ok := payroll.ResolveRate(rates, d("2024-02-10"))
	if !ok {
		t.Fatal("expected a rate to resolve")
	}
	if got.ID != "bounded" {
		t.Errorf("expected bounded interval to win, got %s", got.ID)
	}
}

func TestResolveRate_Boundaries(t *testing.T) {
	// GIVEN: An interval [2024-01-10, 2024-01-20]
	// THEN: Both bounds are inclusive; days outside do not resolve

	rates := []payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-10", dp("2024-01-20")),
	}

	cases := []struct {
		on   string
		want bool
	}{
		{"2024-01-09", false}, // before effective
		{"2024-01-10", true},  // effective date itself
		{"2024-01-20", true},  // end date itself
		{"2024-01-21", false}, // past end
	}
	for _, tc := range cases {
		if _, ok := payroll.ResolveRate(rates, d(tc.on)); ok != tc.want {
			t.Errorf("on %s: resolved=%v, want %v", tc.on, ok, tc.want)
		}
	}
}

func TestResolveRate_NoCoveringInterval(t *testing.T) {
	// GIVEN: A gap between two bounded intervals
	// WHEN: Resolving inside the gap
	// THEN: No rate - callers must treat this as unpriceable, not zero

	rates := []payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", dp("2024-01-10")),
		rate("r2", "style-a", "2.50", "2024-02-01", nil),
	}

	if _, ok := payroll.ResolveRate(rates, d("2024-01-15")); ok {
		t.Error("expected no rate inside the gap")
	}
}

func TestResolveRate_EmptyRateSet(t *testing.T) {
	if _, ok := payroll.ResolveRate(nil, d("2024-01-15")); ok {
		t.Error("expected no rate from an empty set")
	}
}
