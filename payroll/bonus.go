/*
bonus.go - Bonus rule evaluation

PURPOSE:
  Decides whether a bonus rule's threshold is met for a payroll period and
  computes the payout. Pure arithmetic over aggregator output - given
  well-typed inputs this never fails.

ELIGIBILITY (all three, in order):
  1. The rule is active (a manual toggle, independent of dates).
  2. The rule's date window OVERLAPS the payroll period. Overlap, not
     containment: a rule becoming effective on the period's last day still
     qualifies; a rule that ended the day before the period starts does
     not. Absent bounds are open.
  3. The criteria value STRICTLY exceeds the threshold. Equality does not
     qualify.

CRITERIA AND BASIS:
  The criteria value is the scoped quantity or scoped wage depending on
  the rule's criteria type. The payout basis is total pay (applyOn=wage)
  or scoped quantity (applyOn=quantity); percent rules pay
  basis * value / 100, fixed rules pay the flat value.

TRANSPARENCY:
  An ineligible rule still produces a full outcome - criteria value,
  scoped sums, zero bonus - so the UI can show the worker how close they
  came, not just that they missed.

SEE ALSO:
  - aggregate.go: where the scoped sums come from
  - engine.go: wiring of rule -> scope -> aggregation -> evaluation
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// BONUS OUTCOME
// =============================================================================

// BonusOutcome reports everything about one rule evaluation, applied or
// not. TotalWithBonus repeats the grand total so the outcome is
// self-contained for display.
type BonusOutcome struct {
	Applied bool

	RuleID RuleID
	Name   string

	Criteria      CriteriaType
	Threshold     decimal.Decimal
	CriteriaValue decimal.Decimal

	Bonus      BonusType
	BonusValue decimal.Decimal
	ApplyOn    ApplyOn

	ScopedQuantity decimal.Decimal
	ScopedWage     decimal.Decimal

	BonusAmount    decimal.Decimal
	TotalWithBonus decimal.Decimal
}

// ScopeFromRule derives the aggregation scope filter from a rule's
// optional style/section restrictions. A nil rule yields a nil filter
// (scoped sums equal unscoped sums).
func ScopeFromRule(rule *BonusRule) *ScopeFilter {
	if rule == nil {
		return nil
	}
	if rule.StyleID == nil && rule.SectionID == nil {
		return nil
	}
	return &ScopeFilter{StyleID: rule.StyleID, SectionID: rule.SectionID}
}

// EvaluateBonus evaluates a rule against aggregator output for the given
// payroll period. Returns nil when rule is nil - no rule, no outcome.
func EvaluateBonus(rule *BonusRule, agg AggregateResult, period Period) *BonusOutcome {
	if rule == nil {
		return nil
	}

	out := &BonusOutcome{
		RuleID:         rule.ID,
		Name:           rule.Name,
		Criteria:       rule.Criteria,
		Threshold:      rule.Threshold,
		Bonus:          rule.Bonus,
		BonusValue:     rule.BonusValue,
		ApplyOn:        rule.ApplyOn,
		ScopedQuantity: agg.ScopedQuantity,
		ScopedWage:     agg.ScopedWage,
		BonusAmount:    decimal.Zero,
	}

	if rule.Criteria == CriteriaQuantity {
		out.CriteriaValue = agg.ScopedQuantity
	} else {
		out.CriteriaValue = agg.ScopedWage
	}

	eligible := rule.Active &&
		rule.InWindow(period) &&
		out.CriteriaValue.GreaterThan(rule.Threshold) // strict: equality misses

	if eligible {
		out.Applied = true
		basis := agg.TotalPay
		if rule.ApplyOn == ApplyOnQuantity {
			basis = agg.ScopedQuantity
		}
		switch rule.Bonus {
		case BonusPercent:
			out.BonusAmount = basis.Mul(rule.BonusValue).Div(decimal.NewFromInt(100))
		case BonusFixed:
			out.BonusAmount = rule.BonusValue
		}
	}

	out.TotalWithBonus = agg.TotalPay.Add(out.BonusAmount)
	return out
}
