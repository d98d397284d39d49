package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// The sqlite store is the production implementation of the engine's
// read contract.
var _ payroll.Store = (*Store)(nil)

// =============================================================================
// PRODUCTION LOGS
// =============================================================================

// CreateProductionEntry inserts a production record, assigning an id.
// Quantity is validated at the API boundary; the store trusts it.
func (s *Store) CreateProductionEntry(ctx context.Context, e payroll.ProductionEntry) (payroll.ProductionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = payroll.EntryID(uuid.NewString())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO production_logs (id, worker_id, style_id, organization_id, quantity, production_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.WorkerID), string(e.StyleID), string(e.OrganizationID),
		e.Quantity, e.Date.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return payroll.ProductionEntry{}, fmt.Errorf("failed to create production entry: %w", err)
	}
	return e, nil
}

// UpdateProductionEntry replaces an entry's style, quantity, and date.
func (s *Store) UpdateProductionEntry(ctx context.Context, e payroll.ProductionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE production_logs SET style_id = ?, quantity = ?, production_date = ? WHERE id = ?",
		string(e.StyleID), e.Quantity, e.Date.String(), string(e.ID),
	)
	return err
}

// DeleteProductionEntry removes a production record.
func (s *Store) DeleteProductionEntry(ctx context.Context, id payroll.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM production_logs WHERE id = ?", string(id))
	return err
}

// ProductionEntries returns a worker's entries with dates in the closed
// period, ordered by date then creation. Implements payroll.Store.
func (s *Store) ProductionEntries(ctx context.Context, workerID payroll.WorkerID, period payroll.Period) ([]payroll.ProductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, worker_id, style_id, organization_id, quantity, production_date
		FROM production_logs
		WHERE worker_id = ? AND production_date >= ? AND production_date <= ?
		ORDER BY production_date ASC, created_at ASC
	`

	return s.queryEntries(ctx, query, string(workerID), period.Start.String(), period.End.String())
}

// ProductionForStyleInSection returns entries for one style produced by
// workers of one section in the closed period. Feeds the style-within-
// section summary.
func (s *Store) ProductionForStyleInSection(ctx context.Context, styleID payroll.StyleID, sectionID payroll.SectionID, period payroll.Period) ([]payroll.ProductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.id, p.worker_id, p.style_id, p.organization_id, p.quantity, p.production_date
		FROM production_logs p
		JOIN workers w ON w.id = p.worker_id
		WHERE p.style_id = ? AND w.section_id = ?
		  AND p.production_date >= ? AND p.production_date <= ?
		ORDER BY p.production_date ASC, p.created_at ASC
	`

	return s.queryEntries(ctx, query, string(styleID), string(sectionID), period.Start.String(), period.End.String())
}

// ProductionDetail is a production record joined with the names the day
// view displays.
type ProductionDetail struct {
	Entry      payroll.ProductionEntry
	WorkerName string
	StyleName  string
	SectionID  payroll.SectionID
}

// ProductionByDate returns an organization's production for one calendar
// day, with worker and style names resolved.
func (s *Store) ProductionByDate(ctx context.Context, orgID payroll.OrganizationID, day payroll.Date) ([]ProductionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.id, p.worker_id, p.style_id, p.organization_id, p.quantity, p.production_date,
		       w.name, w.section_id, st.name
		FROM production_logs p
		JOIN workers w ON w.id = p.worker_id
		JOIN styles st ON st.id = p.style_id
		WHERE p.organization_id = ? AND p.production_date = ?
		ORDER BY w.name, p.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(orgID), day.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query production by date: %w", err)
	}
	defer rows.Close()

	var details []ProductionDetail
	for rows.Next() {
		var (
			d    ProductionDetail
			date string
		)
		if err := rows.Scan(&d.Entry.ID, &d.Entry.WorkerID, &d.Entry.StyleID,
			&d.Entry.OrganizationID, &d.Entry.Quantity, &date,
			&d.WorkerName, &d.SectionID, &d.StyleName); err != nil {
			return nil, err
		}
		d.Entry.Date = payroll.Date(date)
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]payroll.ProductionEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query production entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.ProductionEntry
	for rows.Next() {
		var (
			e    payroll.ProductionEntry
			date string
		)
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.StyleID, &e.OrganizationID, &e.Quantity, &date); err != nil {
			return nil, err
		}
		e.Date = payroll.Date(date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// STYLE RATES
// =============================================================================

// CreateStyleRate inserts a pricing interval, assigning an id. Overlaps
// with existing intervals are allowed; resolution is the engine's job.
func (s *Store) CreateStyleRate(ctx context.Context, r payroll.StyleRate) (payroll.StyleRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = payroll.RateID(uuid.NewString())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO style_rates (id, style_id, organization_id, rate, effective_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.StyleID), string(r.OrganizationID),
		r.Rate.String(), r.EffectiveDate.String(), nullDate(r.EndDate),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return payroll.StyleRate{}, fmt.Errorf("failed to create style rate: %w", err)
	}
	return r, nil
}

// UpdateStyleRate replaces an interval's rate and validity bounds.
func (s *Store) UpdateStyleRate(ctx context.Context, r payroll.StyleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE style_rates SET rate = ?, effective_date = ?, end_date = ? WHERE id = ?",
		r.Rate.String(), r.EffectiveDate.String(), nullDate(r.EndDate), string(r.ID),
	)
	return err
}

// DeleteStyleRate removes a pricing interval.
func (s *Store) DeleteStyleRate(ctx context.Context, id payroll.RateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM style_rates WHERE id = ?", string(id))
	return err
}

// StyleRates returns all pricing intervals for a style, oldest effective
// date first. Implements payroll.Store.
func (s *Store) StyleRates(ctx context.Context, styleID payroll.StyleID) ([]payroll.StyleRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, style_id, organization_id, rate, effective_date, end_date
		FROM style_rates
		WHERE style_id = ?
		ORDER BY effective_date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(styleID))
	if err != nil {
		return nil, fmt.Errorf("failed to query style rates: %w", err)
	}
	defer rows.Close()

	var rates []payroll.StyleRate
	for rows.Next() {
		r, err := scanStyleRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func scanStyleRate(rows *sql.Rows) (payroll.StyleRate, error) {
	var (
		r         payroll.StyleRate
		rate      string
		effective string
		end       sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.StyleID, &r.OrganizationID, &rate, &effective, &end); err != nil {
		return r, fmt.Errorf("failed to scan style rate: %w", err)
	}

	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		return r, fmt.Errorf("corrupt rate value %q: %w", rate, err)
	}
	r.Rate = parsed
	r.EffectiveDate = payroll.Date(effective)
	r.EndDate = datePtr(end)
	return r, nil
}

// =============================================================================
// BONUS RULES
// =============================================================================

// CreateBonusRule inserts a rule, assigning an id and timestamps. The
// rule is expected to come out of the factory already validated.
func (s *Store) CreateBonusRule(ctx context.Context, r payroll.BonusRule) (payroll.BonusRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = payroll.RuleID(uuid.NewString())
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	query := `
		INSERT INTO bonus_rules
		(id, organization_id, name, description, criteria_type, threshold,
		 bonus_type, bonus_value, apply_on, style_id, section_id, active,
		 effective_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(r.ID), string(r.OrganizationID), r.Name, r.Description,
		string(r.Criteria), r.Threshold.String(),
		string(r.Bonus), r.BonusValue.String(), string(r.ApplyOn),
		nullStyleID(r.StyleID), nullSectionID(r.SectionID), r.Active,
		nullDate(r.EffectiveDate), nullDate(r.EndDate),
		r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return payroll.BonusRule{}, fmt.Errorf("failed to create bonus rule: %w", err)
	}
	return r, nil
}

// UpdateBonusRule replaces a rule's definition, bumping updated_at.
func (s *Store) UpdateBonusRule(ctx context.Context, r payroll.BonusRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE bonus_rules SET
			name = ?, description = ?, criteria_type = ?, threshold = ?,
			bonus_type = ?, bonus_value = ?, apply_on = ?,
			style_id = ?, section_id = ?, active = ?,
			effective_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query,
		r.Name, r.Description, string(r.Criteria), r.Threshold.String(),
		string(r.Bonus), r.BonusValue.String(), string(r.ApplyOn),
		nullStyleID(r.StyleID), nullSectionID(r.SectionID), r.Active,
		nullDate(r.EffectiveDate), nullDate(r.EndDate),
		time.Now().UTC().Format(time.RFC3339),
		string(r.ID),
	)
	return err
}

// SetBonusRuleActive toggles a rule without touching its definition.
func (s *Store) SetBonusRuleActive(ctx context.Context, id payroll.RuleID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE bonus_rules SET active = ?, updated_at = ? WHERE id = ?",
		active, time.Now().UTC().Format(time.RFC3339), string(id),
	)
	return err
}

// DeleteBonusRule removes a rule.
func (s *Store) DeleteBonusRule(ctx context.Context, id payroll.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM bonus_rules WHERE id = ?", string(id))
	return err
}

// BonusRule returns the rule, or (nil, nil) when no such rule exists.
// Implements payroll.Store.
func (s *Store) BonusRule(ctx context.Context, id payroll.RuleID) (*payroll.BonusRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, name, description, criteria_type, threshold,
		       bonus_type, bonus_value, apply_on, style_id, section_id, active,
		       effective_date, end_date, created_at, updated_at
		FROM bonus_rules WHERE id = ?
	`

	rules, err := s.queryRules(ctx, query, string(id))
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}

// ListBonusRules returns an organization's rules, newest first. With
// activeOnly, inactive rules are filtered out; the date-window check
// against a particular period stays with the evaluator.
func (s *Store) ListBonusRules(ctx context.Context, orgID payroll.OrganizationID, activeOnly bool) ([]payroll.BonusRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, name, description, criteria_type, threshold,
		       bonus_type, bonus_value, apply_on, style_id, section_id, active,
		       effective_date, end_date, created_at, updated_at
		FROM bonus_rules WHERE organization_id = ?
	`
	args := []any{string(orgID)}
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	return s.queryRules(ctx, query, args...)
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]payroll.BonusRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus rules: %w", err)
	}
	defer rows.Close()

	var rules []payroll.BonusRule
	for rows.Next() {
		var (
			r          payroll.BonusRule
			desc       sql.NullString
			threshold  string
			bonusValue string
			styleID    sql.NullString
			sectionID  sql.NullString
			effective  sql.NullString
			end        sql.NullString
			createdAt  string
			updatedAt  string
		)
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.Name, &desc,
			&r.Criteria, &threshold, &r.Bonus, &bonusValue, &r.ApplyOn,
			&styleID, &sectionID, &r.Active, &effective, &end,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bonus rule: %w", err)
		}

		r.Description = desc.String
		if r.Threshold, err = decimal.NewFromString(threshold); err != nil {
			return nil, fmt.Errorf("corrupt threshold %q: %w", threshold, err)
		}
		if r.BonusValue, err = decimal.NewFromString(bonusValue); err != nil {
			return nil, fmt.Errorf("corrupt bonus value %q: %w", bonusValue, err)
		}
		if styleID.Valid {
			v := payroll.StyleID(styleID.String)
			r.StyleID = &v
		}
		if sectionID.Valid {
			v := payroll.SectionID(sectionID.String)
			r.SectionID = &v
		}
		r.EffectiveDate = datePtr(effective)
		r.EndDate = datePtr(end)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func nullStyleID(id *payroll.StyleID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullSectionID(id *payroll.SectionID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}
