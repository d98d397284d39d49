package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tenant"
)

// =============================================================================
// SECTIONS
// =============================================================================

// Section is a production line within an organization. ManagerID is the
// optional user responsible for it.
type Section struct {
	ID             payroll.SectionID
	OrganizationID payroll.OrganizationID
	Name           string
	ManagerID      tenant.UserID
	CreatedAt      time.Time
}

// CreateSection inserts a new section, assigning an id.
func (s *Store) CreateSection(ctx context.Context, sec Section) (Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sec.ID == "" {
		sec.ID = payroll.SectionID(uuid.NewString())
	}
	if sec.CreatedAt.IsZero() {
		sec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sections (id, organization_id, name, manager_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(sec.ID), string(sec.OrganizationID), sec.Name,
		nullString(string(sec.ManagerID)),
		sec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Section{}, fmt.Errorf("failed to create section: %w", err)
	}
	return sec, nil
}

// GetSection retrieves a section by id.
func (s *Store) GetSection(ctx context.Context, id payroll.SectionID) (*Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sec       Section
		managerID sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, organization_id, name, manager_id, created_at FROM sections WHERE id = ?",
		string(id),
	).Scan(&sec.ID, &sec.OrganizationID, &sec.Name, &managerID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sec.ManagerID = tenant.UserID(managerID.String)
	sec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sec, nil
}

// ListSections returns an organization's sections by name.
func (s *Store) ListSections(ctx context.Context, orgID payroll.OrganizationID) ([]Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, organization_id, name, manager_id, created_at FROM sections WHERE organization_id = ? ORDER BY name",
		string(orgID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var (
			sec       Section
			managerID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&sec.ID, &sec.OrganizationID, &sec.Name, &managerID, &createdAt); err != nil {
			return nil, err
		}
		sec.ManagerID = tenant.UserID(managerID.String)
		sec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// UpdateSection updates a section's name and manager.
func (s *Store) UpdateSection(ctx context.Context, sec Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE sections SET name = ?, manager_id = ? WHERE id = ?",
		sec.Name, nullString(string(sec.ManagerID)), string(sec.ID),
	)
	return err
}

// DeleteSection removes a section. Workers keep their section_id; the
// admin surface reassigns them before deletion.
func (s *Store) DeleteSection(ctx context.Context, id payroll.SectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sections WHERE id = ?", string(id))
	return err
}

// =============================================================================
// STYLES
// =============================================================================

// Style is a garment design whose output is paid per piece. The price
// itself lives in style_rates, not here.
type Style struct {
	ID             payroll.StyleID
	OrganizationID payroll.OrganizationID
	Name           string
	Description    string
	CreatedAt      time.Time
}

// CreateStyle inserts a new style, assigning an id.
func (s *Store) CreateStyle(ctx context.Context, st Style) (Style, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = payroll.StyleID(uuid.NewString())
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO styles (id, organization_id, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(st.ID), string(st.OrganizationID), st.Name, st.Description,
		st.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Style{}, fmt.Errorf("failed to create style: %w", err)
	}
	return st, nil
}

// GetStyle retrieves a style by id.
func (s *Store) GetStyle(ctx context.Context, id payroll.StyleID) (*Style, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st        Style
		desc      sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, organization_id, name, description, created_at FROM styles WHERE id = ?",
		string(id),
	).Scan(&st.ID, &st.OrganizationID, &st.Name, &desc, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	st.Description = desc.String
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &st, nil
}

// ListStyles returns an organization's styles by name.
func (s *Store) ListStyles(ctx context.Context, orgID payroll.OrganizationID) ([]Style, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, organization_id, name, description, created_at FROM styles WHERE organization_id = ? ORDER BY name",
		string(orgID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var styles []Style
	for rows.Next() {
		var (
			st        Style
			desc      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&st.ID, &st.OrganizationID, &st.Name, &desc, &createdAt); err != nil {
			return nil, err
		}
		st.Description = desc.String
		st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		styles = append(styles, st)
	}
	return styles, rows.Err()
}

// UpdateStyle updates a style's name and description.
func (s *Store) UpdateStyle(ctx context.Context, st Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE styles SET name = ?, description = ? WHERE id = ?",
		st.Name, st.Description, string(st.ID),
	)
	return err
}

// DeleteStyle removes a style and its rate history.
func (s *Store) DeleteStyle(ctx context.Context, id payroll.StyleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM style_rates WHERE style_id = ?", string(id)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM styles WHERE id = ?", string(id))
	return err
}

// =============================================================================
// WORKERS
// =============================================================================

// CreateWorker inserts a new worker, assigning an id. A non-empty manual
// id must be unique within the organization.
func (s *Store) CreateWorker(ctx context.Context, w payroll.Worker) (payroll.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = payroll.WorkerID(uuid.NewString())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workers (id, organization_id, section_id, name, manual_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(w.ID), string(w.OrganizationID), string(w.SectionID),
		w.Name, nullString(w.ManualID),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.Worker{}, tenant.ErrDuplicateManualID
		}
		return payroll.Worker{}, fmt.Errorf("failed to create worker: %w", err)
	}
	return w, nil
}

// Worker retrieves a worker by id. Returns (nil, nil) when absent,
// per the payroll.Store contract.
func (s *Store) Worker(ctx context.Context, id payroll.WorkerID) (*payroll.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w        payroll.Worker
		manualID sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, organization_id, section_id, name, manual_id FROM workers WHERE id = ?",
		string(id),
	).Scan(&w.ID, &w.OrganizationID, &w.SectionID, &w.Name, &manualID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	w.ManualID = manualID.String
	return &w, nil
}

// ListWorkers returns an organization's workers by name, optionally
// filtered to one section.
func (s *Store) ListWorkers(ctx context.Context, orgID payroll.OrganizationID, sectionID *payroll.SectionID) ([]payroll.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, organization_id, section_id, name, manual_id FROM workers WHERE organization_id = ?"
	args := []any{string(orgID)}
	if sectionID != nil {
		query += " AND section_id = ?"
		args = append(args, string(*sectionID))
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []payroll.Worker
	for rows.Next() {
		var (
			w        payroll.Worker
			manualID sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.OrganizationID, &w.SectionID, &w.Name, &manualID); err != nil {
			return nil, err
		}
		w.ManualID = manualID.String
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// UpdateWorker updates a worker's name, section, and manual id. The
// manual id uniqueness rule applies here too.
func (s *Store) UpdateWorker(ctx context.Context, w payroll.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE workers SET name = ?, section_id = ?, manual_id = ? WHERE id = ?",
		w.Name, string(w.SectionID), nullString(w.ManualID), string(w.ID),
	)
	if err != nil && isUniqueConstraintError(err) {
		return tenant.ErrDuplicateManualID
	}
	return err
}

// DeleteWorker removes a worker and their production history.
func (s *Store) DeleteWorker(ctx context.Context, id payroll.WorkerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM production_logs WHERE worker_id = ?", string(id)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM workers WHERE id = ?", string(id))
	return err
}
