/*
aggregate.go - Wage accumulation over a worker's production entries

PURPOSE:
  Turns a set of production entries into money. For each entry the
  aggregator resolves the piece rate as of the entry's date, computes
  quantity x rate, and accumulates the total alongside scoped sub-totals
  used by bonus evaluation.

SKIPPED ENTRIES:
  An entry whose date falls in a gap with no covering rate interval
  contributes nothing: it is excluded from TotalPay AND from Lines. The
  exclusion is silent - the aggregator does not error - but the count is
  surfaced in Skipped so callers can flag suspicious payrolls (a style
  with production but no rate usually means a data-entry mistake).

SCOPED SUMS:
  ScopedQuantity and ScopedWage accumulate only over entries matching the
  optional scope filter (style and/or section, derived from a bonus
  rule). With no filter, scoped sums equal the unscoped sums. Bonus
  eligibility is evaluated over these, never over the full totals.

PRECISION:
  All accumulation is exact decimal. No rounding happens here - rounding,
  if any, is a presentation concern at the API/export boundary.

SEE ALSO:
  - rate.go: rate resolution per entry
  - bonus.go: how ScopedQuantity/ScopedWage feed eligibility
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCOPE FILTER - Which entries count toward a bonus threshold
// =============================================================================

// ScopeFilter restricts which entries feed the scoped sums. A nil filter,
// or a filter with both fields nil, matches everything. When both fields
// are set, both must match (logical AND).
type ScopeFilter struct {
	StyleID   *StyleID
	SectionID *SectionID
}

// Matches reports whether an entry for the given style, logged by a worker
// in the given section, falls inside the scope.
func (f *ScopeFilter) Matches(styleID StyleID, workerSection SectionID) bool {
	if f == nil {
		return true
	}
	if f.StyleID != nil && *f.StyleID != styleID {
		return false
	}
	if f.SectionID != nil && *f.SectionID != workerSection {
		return false
	}
	return true
}

// =============================================================================
// AGGREGATION
// =============================================================================

// PayLine is one priced production entry in a payroll breakdown.
type PayLine struct {
	Entry ProductionEntry
	Rate  decimal.Decimal
	Pay   decimal.Decimal
}

// AggregateInput carries everything the aggregator needs. Entries are
// expected to be pre-filtered to one worker and the payroll period;
// WorkerSection is that worker's section (used only for section-scoped
// filters and may be zero otherwise).
type AggregateInput struct {
	Entries       []ProductionEntry
	WorkerSection SectionID
	Resolve       ResolveRateFunc
	Scope         *ScopeFilter
}

// AggregateResult is the wage total plus the scoped sub-totals and the
// per-entry breakdown. Lines preserve the order entries were supplied in.
type AggregateResult struct {
	TotalPay       decimal.Decimal
	ScopedQuantity decimal.Decimal
	ScopedWage     decimal.Decimal
	Lines          []PayLine
	Skipped        int // entries excluded because no rate covered their date
}

// Aggregate prices each entry and accumulates totals. Pure with respect to
// its inputs: running it twice over the same entries and rate set yields
// identical results. The only error source is the resolver itself (store
// failures); an unresolvable rate is a skip, not an error.
func Aggregate(ctx context.Context, in AggregateInput) (AggregateResult, error) {
	res := AggregateResult{
		TotalPay:       decimal.Zero,
		ScopedQuantity: decimal.Zero,
		ScopedWage:     decimal.Zero,
	}

	for _, entry := range in.Entries {
		rate, ok, err := in.Resolve(ctx, entry.StyleID, entry.Date)
		if err != nil {
			return AggregateResult{}, err
		}
		if !ok {
			res.Skipped++
			continue
		}

		pay := entry.Pay(rate.Rate)
		res.TotalPay = res.TotalPay.Add(pay)

		if in.Scope.Matches(entry.StyleID, in.WorkerSection) {
			res.ScopedQuantity = res.ScopedQuantity.Add(decimal.NewFromInt(entry.Quantity))
			res.ScopedWage = res.ScopedWage.Add(pay)
		}

		res.Lines = append(res.Lines, PayLine{Entry: entry, Rate: rate.Rate, Pay: pay})
	}

	return res, nil
}
