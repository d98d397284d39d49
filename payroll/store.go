/*
store.go - Record-fetch contracts the engine consumes

PURPOSE:
  The engine's entire view of persistence is three narrow read contracts
  plus a worker lookup. Everything else - indexes, query mechanics, CRUD,
  tenancy enforcement - lives behind these interfaces.

TENANCY:
  Implementations MUST guarantee per-organization isolation: a query
  scoped to one organization never returns another organization's
  records. The engine performs no cross-tenant filtering of its own; it
  trusts that the ids it is handed were resolved inside one tenant.

CONSISTENCY:
  Each fetch is treated as a single blocking read returning a complete
  snapshot. The engine does no partial-result handling, retries, or
  cancellation beyond honoring ctx.

IMPLEMENTATIONS:
  - store/sqlite: production persistence
  - payroll/store: in-memory, for tests and demo scenarios
*/
package payroll

import "context"

// Store is the record source for payroll computation.
type Store interface {
	// ProductionEntries returns a worker's entries with dates in
	// [period.Start, period.End], both ends inclusive. Order is preserved
	// into the payroll breakdown, so implementations should return a
	// stable order (the sqlite store orders by date, then creation).
	ProductionEntries(ctx context.Context, workerID WorkerID, period Period) ([]ProductionEntry, error)

	// StyleRates returns ALL rate intervals for a style - historical and
	// future. The engine does the effective/end filtering and tie-break.
	StyleRates(ctx context.Context, styleID StyleID) ([]StyleRate, error)

	// BonusRule returns the rule, or (nil, nil) when no such rule exists.
	BonusRule(ctx context.Context, ruleID RuleID) (*BonusRule, error)

	// Worker returns the worker record, or (nil, nil) when missing.
	// Needed only when a bonus rule carries a section scope.
	Worker(ctx context.Context, workerID WorkerID) (*Worker, error)
}
