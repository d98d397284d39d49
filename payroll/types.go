/*
Package payroll provides the piecework payroll computation engine.

PURPOSE:
  This package contains the core types and algorithms for turning daily
  production records into pay. Given a worker's production entries, the
  time-versioned piece rates for the styles they worked on, and an optional
  bonus rule, the engine resolves the applicable rate for every entry,
  accumulates wages in exact decimal, and evaluates the bonus.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProductionEntry: One (worker, style, date, quantity) record of output
  - StyleRate: One pricing interval for a style (rate + validity window)
  - BonusRule: Threshold rule granting a percent or fixed bonus
  - Worker: The person being paid, with their section membership
  - Typed identifiers: Strong typing prevents mixing worker/style/rule IDs

DESIGN PRINCIPLES:
  1. Precision: shopspring/decimal for every money value - never float64
  2. Determinism: the engine is a pure function of its inputs
  3. Closed enums: criteria/bonus/apply-on dimensions are validated string
     types, so an invalid combination cannot reach the evaluator
  4. Pre-scoped inputs: tenancy (organization) filtering is the caller's
     job; the engine never re-derives it

SEE ALSO:
  - rate.go: Rate interval selection and the overlap tie-break
  - aggregate.go: Wage accumulation and scoped sums
  - bonus.go: Bonus eligibility and payout
  - engine.go: The orchestrator composing the above
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrganizationID string
type WorkerID string
type SectionID string
type StyleID string
type EntryID string
type RateID string
type RuleID string

// =============================================================================
// PRODUCTION ENTRY - One record of completed output
// =============================================================================

// ProductionEntry records that a worker completed Quantity units of a style
// on a calendar date. Entries are immutable once logged except for
// full-record update/delete through the admin surface.
type ProductionEntry struct {
	ID             EntryID
	WorkerID       WorkerID
	StyleID        StyleID
	OrganizationID OrganizationID
	Quantity       int64 // non-negative; validated at creation, assumed here
	Date           Date
}

// Pay returns quantity x rate in exact decimal.
func (e ProductionEntry) Pay(rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(e.Quantity).Mul(rate)
}

// =============================================================================
// STYLE RATE - One pricing interval for a style
// =============================================================================

// StyleRate is one pricing interval: Rate per unit, valid from
// EffectiveDate until EndDate (nil = open-ended).
//
// Intervals for a style are NOT kept non-overlapping - administrators can
// and do create overlapping intervals. Overlap resolution is a runtime
// policy owned by ResolveRate (rate.go), not a storage constraint.
type StyleRate struct {
	ID             RateID
	StyleID        StyleID
	OrganizationID OrganizationID
	Rate           decimal.Decimal // non-negative; validated at creation
	EffectiveDate  Date
	EndDate        *Date
}

// InEffectOn reports whether the interval covers the given date:
// EffectiveDate <= on, and EndDate absent or >= on.
func (r StyleRate) InEffectOn(on Date) bool {
	if r.EffectiveDate.After(on) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Before(on) {
		return false
	}
	return true
}

// =============================================================================
// BONUS RULE - Threshold rule for extra pay
// =============================================================================

// CriteriaType is the dimension a bonus threshold is measured against.
type CriteriaType string

const (
	CriteriaQuantity CriteriaType = "quantity" // total scoped quantity in period
	CriteriaWage     CriteriaType = "wage"     // total scoped wage in period
)

func (c CriteriaType) Valid() bool {
	return c == CriteriaQuantity || c == CriteriaWage
}

// BonusType is how the bonus amount is computed once eligible.
type BonusType string

const (
	BonusPercent BonusType = "percent" // percentage of the apply-on basis
	BonusFixed   BonusType = "fixed"   // flat amount, basis ignored
)

func (b BonusType) Valid() bool {
	return b == BonusPercent || b == BonusFixed
}

// ApplyOn is the basis a percent bonus is computed from.
type ApplyOn string

const (
	ApplyOnWage     ApplyOn = "wage"     // basis = total pay for the period
	ApplyOnQuantity ApplyOn = "quantity" // basis = scoped quantity
)

func (a ApplyOn) Valid() bool {
	return a == ApplyOnWage || a == ApplyOnQuantity
}

// BonusRule is an organization-level rule granting extra pay when a
// worker's scoped production in the payroll period exceeds a threshold.
//
// Active is a manual toggle independent of the date window. StyleID and
// SectionID optionally restrict which entries count toward the threshold
// (logical AND when both set).
type BonusRule struct {
	ID             RuleID
	OrganizationID OrganizationID
	Name           string
	Description    string

	Criteria  CriteriaType
	Threshold decimal.Decimal

	Bonus      BonusType
	BonusValue decimal.Decimal
	ApplyOn    ApplyOn

	StyleID   *StyleID
	SectionID *SectionID

	Active        bool
	EffectiveDate *Date
	EndDate       *Date

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InWindow reports whether the rule's optional date window overlaps the
// payroll period. This is interval overlap, NOT containment: a rule in
// effect for any part of the period qualifies. Absent bounds are open.
func (r BonusRule) InWindow(p Period) bool {
	if r.EffectiveDate != nil && r.EffectiveDate.After(p.End) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Before(p.Start) {
		return false
	}
	return true
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is the person being paid. SectionID drives section-scoped bonus
// rules; ManualID is an optional human-assigned identifier, unique per
// organization (enforced by the store).
type Worker struct {
	ID             WorkerID
	OrganizationID OrganizationID
	SectionID      SectionID
	Name           string
	ManualID       string
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustMoney parses a decimal literal, returning zero on malformed input.
// Intended for constants in code and tests, not user input.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
