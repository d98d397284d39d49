/*
engine.go - The payroll orchestrator

PURPOSE:
  Composes rate resolution, wage aggregation, and bonus evaluation into
  one computation: "what does this worker get paid for this period, under
  this optional bonus rule?"

FLOW:
  1. Validate the period.
  2. Fetch the worker's production entries for the closed date range.
  3. If a rule id was supplied, fetch the rule - a missing rule fails the
     whole computation (ErrRuleNotFound); the engine never guesses.
  4. Derive the rule's scope filter; fetch the worker record when the rule
     is section-scoped.
  5. Aggregate wages (rates resolved per entry, cached per style).
  6. Evaluate the bonus.

GUARANTEES:
  Read-only and idempotent: re-running with the same inputs against an
  unchanged record set produces identical output. No hidden state, no
  randomness, no internal concurrency - one synchronous pass over a
  bounded record set. Concurrent computations never interfere because
  each call's only state is local.

SEE ALSO:
  - store.go: the fetch contracts and their tenancy precondition
  - rate.go / aggregate.go / bonus.go: the composed parts
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes payroll results against a record store.
type Engine struct {
	Store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{Store: store}
}

// PayrollResult is the full outcome of one payroll computation. Bonus is
// nil when no rule id was supplied. SkippedEntries counts entries excluded
// because no rate interval covered their date (see aggregate.go).
type PayrollResult struct {
	WorkerID WorkerID
	Period   Period

	TotalPay decimal.Decimal
	Details  []PayLine

	Bonus          *BonusOutcome
	TotalWithBonus decimal.Decimal

	SkippedEntries int
}

// ComputePayroll computes a worker's pay for the closed period
// [period.Start, period.End], optionally applying the named bonus rule.
//
// Organization scoping is a precondition: the worker id and rule id are
// expected to belong to the same tenant, resolved by the caller.
func (e *Engine) ComputePayroll(ctx context.Context, workerID WorkerID, period Period, ruleID *RuleID) (*PayrollResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	entries, err := e.Store.ProductionEntries(ctx, workerID, period)
	if err != nil {
		return nil, fmt.Errorf("fetch production entries: %w", err)
	}

	var rule *BonusRule
	if ruleID != nil {
		rule, err = e.Store.BonusRule(ctx, *ruleID)
		if err != nil {
			return nil, fmt.Errorf("fetch bonus rule: %w", err)
		}
		if rule == nil {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, *ruleID)
		}
	}

	// The worker's section only matters when the rule is section-scoped.
	var workerSection SectionID
	if rule != nil && rule.SectionID != nil {
		worker, err := e.Store.Worker(ctx, workerID)
		if err != nil {
			return nil, fmt.Errorf("fetch worker: %w", err)
		}
		if worker == nil {
			return nil, fmt.Errorf("%w: %s", ErrWorkerNotFound, workerID)
		}
		workerSection = worker.SectionID
	}

	agg, err := Aggregate(ctx, AggregateInput{
		Entries:       entries,
		WorkerSection: workerSection,
		Resolve:       e.resolver(),
		Scope:         ScopeFromRule(rule),
	})
	if err != nil {
		return nil, err
	}

	result := &PayrollResult{
		WorkerID:       workerID,
		Period:         period,
		TotalPay:       agg.TotalPay,
		Details:        agg.Lines,
		Bonus:          EvaluateBonus(rule, agg, period),
		TotalWithBonus: agg.TotalPay,
		SkippedEntries: agg.Skipped,
	}
	if result.Bonus != nil {
		result.TotalWithBonus = result.Bonus.TotalWithBonus
	}
	return result, nil
}

// resolver returns a ResolveRateFunc that fetches each style's rate set
// once and resolves from the cached set thereafter. The cache lives for
// one computation, so a payroll run sees a consistent rate snapshot even
// if rates change mid-request.
func (e *Engine) resolver() ResolveRateFunc {
	cache := make(map[StyleID][]StyleRate)
	return func(ctx context.Context, styleID StyleID, on Date) (StyleRate, bool, error) {
		rates, ok := cache[styleID]
		if !ok {
			var err error
			rates, err = e.Store.StyleRates(ctx, styleID)
			if err != nil {
				return StyleRate{}, false, fmt.Errorf("fetch style rates: %w", err)
			}
			cache[styleID] = rates
		}
		r, found := ResolveRate(rates, on)
		return r, found, nil
	}
}

// Summarize prices an arbitrary entry set with the engine's rate
// resolution and no scope filter. Used by cross-worker reports (e.g. the
// style-within-section summary), which need totals but no bonus logic.
func (e *Engine) Summarize(ctx context.Context, entries []ProductionEntry) (AggregateResult, error) {
	return Aggregate(ctx, AggregateInput{Entries: entries, Resolve: e.resolver()})
}

// CurrentRate resolves the rate in effect for a style on a date, straight
// through the store. Used by the admin surface ("what does style X pay
// today?") - same resolution policy as payroll itself.
func (e *Engine) CurrentRate(ctx context.Context, styleID StyleID, on Date) (StyleRate, bool, error) {
	rates, err := e.Store.StyleRates(ctx, styleID)
	if err != nil {
		return StyleRate{}, false, fmt.Errorf("fetch style rates: %w", err)
	}
	r, found := ResolveRate(rates, on)
	return r, found, nil
}
