package payroll_test

import (
	"context"
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func entry(id, worker, style string, qty int64, date string) payroll.ProductionEntry {
	return payroll.ProductionEntry{
		ID:       payroll.EntryID(id),
		WorkerID: payroll.WorkerID(worker),
		StyleID:  payroll.StyleID(style),
		Quantity: qty,
		Date:     d(date),
	}
}

func stylePtr(s string) *payroll.StyleID {
	v := payroll.StyleID(s)
	return &v
}

func sectionPtr(s string) *payroll.SectionID {
	v := payroll.SectionID(s)
	return &v
}

// =============================================================================
// WAGE AGGREGATION
// =============================================================================

func TestAggregate_PerEntryPayAndTotal(t *testing.T) {
	// GIVEN: Two entries for style A priced 2.00 and, after a mid-month
	//        rate change, 2.50
	// WHEN: Aggregating
	// THEN: 100x2.00 + 50x2.50 = 325.00, one line per entry, input order

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", nil),
		rate("r2", "style-a", "2.50", "2024-01-15", nil),
	})

	res, err := payroll.Aggregate(context.Background(), payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 100, "2024-01-05"),
			entry("e2", "w1", "style-a", 50, "2024-01-20"),
		},
		Resolve: resolve,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.TotalPay.Equal(money("325")) {
		t.Errorf("expected total 325, got %s", res.TotalPay)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Entry.ID != "e1" || res.Lines[1].Entry.ID != "e2" {
		t.Error("lines must preserve input order")
	}
	if !res.Lines[0].Pay.Equal(money("200")) || !res.Lines[1].Pay.Equal(money("125")) {
		t.Errorf("expected line pays 200 and 125, got %s and %s",
			res.Lines[0].Pay, res.Lines[1].Pay)
	}
}

func TestAggregate_NoRateEntrySkippedSilently(t *testing.T) {
	// GIVEN: An entry whose date falls in a gap with no covering rate
	// WHEN: Aggregating
	// THEN: It contributes nothing, appears in no line, and is counted
	//       in Skipped for diagnostics

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-02-01", nil), // starts after the entry
	})

	res, err := payroll.Aggregate(context.Background(), payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 100, "2024-01-05"),
		},
		Resolve: resolve,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.TotalPay.IsZero() {
		t.Errorf("expected zero total, got %s", res.TotalPay)
	}
	if len(res.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(res.Lines))
	}
	if res.Skipped != 1 {
		t.Errorf("expected Skipped=1, got %d", res.Skipped)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	// GIVEN: A fixed entry set and rate set
	// WHEN: Aggregating twice
	// THEN: Identical totals and lines

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "1.75", "2024-01-01", nil),
	})
	in := payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 40, "2024-01-05"),
			entry("e2", "w1", "style-a", 60, "2024-01-06"),
		},
		Resolve: resolve,
	}

	first, err := payroll.Aggregate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := payroll.Aggregate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.TotalPay.Equal(second.TotalPay) {
		t.Errorf("totals differ: %s vs %s", first.TotalPay, second.TotalPay)
	}
	if len(first.Lines) != len(second.Lines) {
		t.Fatalf("line counts differ: %d vs %d", len(first.Lines), len(second.Lines))
	}
	for i := range first.Lines {
		if first.Lines[i].Entry.ID != second.Lines[i].Entry.ID ||
			!first.Lines[i].Pay.Equal(second.Lines[i].Pay) {
			t.Errorf("line %d differs between runs", i)
		}
	}
}

func TestAggregate_ScopedSums_StyleFilter(t *testing.T) {
	// GIVEN: Entries across two styles and a scope restricted to style A
	// WHEN: Aggregating
	// THEN: TotalPay covers everything; scoped sums cover style A only

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", nil),
		rate("r2", "style-b", "3.00", "2024-01-01", nil),
	})

	res, err := payroll.Aggregate(context.Background(), payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 100, "2024-01-05"),
			entry("e2", "w1", "style-b", 10, "2024-01-06"),
		},
		Resolve: resolve,
		Scope:   &payroll.ScopeFilter{StyleID: stylePtr("style-a")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.TotalPay.Equal(money("230")) { // 200 + 30
		t.Errorf("expected total 230, got %s", res.TotalPay)
	}
	if !res.ScopedQuantity.Equal(money("100")) {
		t.Errorf("expected scoped quantity 100, got %s", res.ScopedQuantity)
	}
	if !res.ScopedWage.Equal(money("200")) {
		t.Errorf("expected scoped wage 200, got %s", res.ScopedWage)
	}
}

func TestAggregate_ScopedSums_SectionFilter(t *testing.T) {
	// GIVEN: A scope restricted to a section the worker does not belong to
	// WHEN: Aggregating with the worker's actual section
	// THEN: Scoped sums are zero while the total is unaffected

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", nil),
	})

	res, err := payroll.Aggregate(context.Background(), payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 100, "2024-01-05"),
		},
		WorkerSection: "sewing",
		Resolve:       resolve,
		Scope:         &payroll.ScopeFilter{SectionID: sectionPtr("finishing")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.TotalPay.Equal(money("200")) {
		t.Errorf("expected total 200, got %s", res.TotalPay)
	}
	if !res.ScopedQuantity.IsZero() || !res.ScopedWage.IsZero() {
		t.Errorf("expected zero scoped sums, got qty=%s wage=%s",
			res.ScopedQuantity, res.ScopedWage)
	}
}

func TestAggregate_NoScope_ScopedEqualsUnscoped(t *testing.T) {
	// GIVEN: No scope filter
	// THEN: Scoped sums equal the unscoped totals

	resolve := payroll.StaticRates([]payroll.StyleRate{
		rate("r1", "style-a", "2.00", "2024-01-01", nil),
	})

	res, err := payroll.Aggregate(context.Background(), payroll.AggregateInput{
		Entries: []payroll.ProductionEntry{
			entry("e1", "w1", "style-a", 100, "2024-01-05"),
		},
		Resolve: resolve,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.ScopedWage.Equal(res.TotalPay) {
		t.Errorf("scoped wage %s should equal total %s", res.ScopedWage, res.TotalPay)
	}
	if !res.ScopedQuantity.Equal(money("100")) {
		t.Errorf("expected scoped quantity 100, got %s", res.ScopedQuantity)
	}
}
