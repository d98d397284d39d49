/*
rate.go - Piece rate resolution

PURPOSE:
  Selects the single piece rate that applies to a style on a given date
  from that style's set of time-versioned rate intervals. This is the leaf
  of the payroll computation: every entry's pay depends on it.

THE OVERLAP TIE-BREAK (read this before touching anything):
  The system does NOT prevent administrators from creating overlapping
  rate intervals. When more than one interval covers a date, the interval
  with the LARGEST effective date wins - the most recently started
  interval takes precedence, regardless of its end date and regardless of
  the order records were created or returned by the store.

  Example: rate 2.00 effective 2024-01-01 (open-ended) and rate 2.50
  effective 2024-01-15 (open-ended) both cover 2024-01-20. The 2.50 rate
  wins because it started later.

  This is a deliberate policy, easy to misread as "latest created wins"
  or "narrowest interval wins". It is neither. It is tested explicitly in
  rate_test.go.

NO RATE IS NOT ZERO:
  When no interval covers the date, the result is "no rate", and callers
  must treat the entry as unpriceable - not as costing zero.

SEE ALSO:
  - types.go: StyleRate.InEffectOn
  - aggregate.go: how unpriceable entries are handled
*/
package payroll

import "context"

// ResolveRateFunc resolves the piece rate for a style as of a date.
// The bool result is false when no rate interval covers the date; callers
// must not treat that as a zero rate. Implementations typically close over
// a store and cache per-style rate sets (see Engine.resolver).
type ResolveRateFunc func(ctx context.Context, styleID StyleID, on Date) (StyleRate, bool, error)

// ResolveRate selects the applicable rate for a date from a style's rate
// intervals. Pure function of the rate set and the date.
//
// An interval qualifies when EffectiveDate <= on and EndDate is absent or
// >= on. Among qualifying intervals the one with the largest EffectiveDate
// wins (see the tie-break note above). With equal effective dates the
// first qualifying record in slice order is kept, which keeps the result
// deterministic for a given store ordering.
func ResolveRate(rates []StyleRate, on Date) (StyleRate, bool) {
	var best StyleRate
	found := false
	for _, r := range rates {
		if !r.InEffectOn(on) {
			continue
		}
		if !found || r.EffectiveDate.After(best.EffectiveDate) {
			best = r
			found = true
		}
	}
	return best, found
}

// StaticRates adapts an in-memory rate set to a ResolveRateFunc. Useful in
// tests and anywhere the full rate universe is already loaded.
func StaticRates(rates []StyleRate) ResolveRateFunc {
	byStyle := make(map[StyleID][]StyleRate)
	for _, r := range rates {
		byStyle[r.StyleID] = append(byStyle[r.StyleID], r)
	}
	return func(_ context.Context, styleID StyleID, on Date) (StyleRate, bool, error) {
		r, ok := ResolveRate(byStyle[styleID], on)
		return r, ok, nil
	}
}
