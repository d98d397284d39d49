/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All sentinel errors in one place. The engine's error surface is narrow
  by design: it computes over pre-validated, already-persisted records, so
  most bad-input classes are rejected upstream at creation time.

WHAT IS AND IS NOT AN ERROR:
  - A bonus rule id that resolves to nothing IS an error: the caller named
    a rule, so the engine fails the whole computation rather than guess.
  - An entry date with no covering rate interval is NOT an error: the
    entry is silently excluded from totals (and counted in the result's
    SkippedEntries diagnostic).
  - An empty period (no production) is NOT an error: empty details, zero
    totals.

USAGE:
  Callers should match with errors.Is:

    if errors.Is(err, payroll.ErrRuleNotFound) { ... }
*/
package payroll

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRuleNotFound is returned when a payroll computation names a bonus
	// rule id that does not exist. The computation fails as a whole; the
	// engine never substitutes a default rule.
	ErrRuleNotFound = errors.New("bonus rule not found")

	// ErrWorkerNotFound is returned when the worker record needed for
	// section-scoped bonus evaluation cannot be fetched.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrInvalidPeriod is returned when a period's end precedes its start.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDate is returned when a date string is not ISO YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound) || errors.Is(err, ErrWorkerNotFound)
}
