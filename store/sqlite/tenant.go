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
// ORGANIZATIONS
// =============================================================================

// CreateOrganization inserts a new organization, assigning an id and an
// invite code. Retries on the (astronomically unlikely) code collision.
func (s *Store) CreateOrganization(ctx context.Context, org tenant.Organization) (tenant.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if org.ID == "" {
		org.ID = payroll.OrganizationID(uuid.NewString())
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO organizations
		(id, name, description, invite_code, created_by,
		 address_line1, address_line2, city, state, postal_code, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for attempt := 0; attempt < 5; attempt++ {
		org.InviteCode = tenant.NewInviteCode()
		_, err := s.db.ExecContext(ctx, query,
			org.ID, org.Name, org.Description, org.InviteCode, org.CreatedBy,
			org.AddressLine1, org.AddressLine2, org.City, org.State,
			org.PostalCode, org.Country,
			org.CreatedAt.Format(time.RFC3339),
		)
		if err == nil {
			return org, nil
		}
		if !isUniqueConstraintError(err) {
			return tenant.Organization{}, fmt.Errorf("failed to create organization: %w", err)
		}
	}
	return tenant.Organization{}, fmt.Errorf("failed to create organization: invite code collisions")
}

// GetOrganization retrieves an organization by id.
func (s *Store) GetOrganization(ctx context.Context, id payroll.OrganizationID) (*tenant.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrganization(ctx, "WHERE id = ?", string(id))
}

// GetOrganizationByInviteCode retrieves an organization by its join code.
func (s *Store) GetOrganizationByInviteCode(ctx context.Context, code string) (*tenant.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrganization(ctx, "WHERE invite_code = ?", code)
}

func (s *Store) queryOrganization(ctx context.Context, where string, arg any) (*tenant.Organization, error) {
	query := `
		SELECT id, name, description, invite_code, created_by,
		       address_line1, address_line2, city, state, postal_code, country, created_at
		FROM organizations ` + where

	var (
		org       tenant.Organization
		desc      sql.NullString
		addr1     sql.NullString
		addr2     sql.NullString
		city      sql.NullString
		state     sql.NullString
		postal    sql.NullString
		country   sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&org.ID, &org.Name, &desc, &org.InviteCode, &org.CreatedBy,
		&addr1, &addr2, &city, &state, &postal, &country, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}

	org.Description = desc.String
	org.AddressLine1 = addr1.String
	org.AddressLine2 = addr2.String
	org.City = city.String
	org.State = state.String
	org.PostalCode = postal.String
	org.Country = country.String
	org.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &org, nil
}

// UpdateOrganization updates an organization's name, description, and
// address fields. Invite code and creator are not touched here.
func (s *Store) UpdateOrganization(ctx context.Context, org tenant.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE organizations SET
			name = ?, description = ?,
			address_line1 = ?, address_line2 = ?, city = ?, state = ?,
			postal_code = ?, country = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		org.Name, org.Description,
		org.AddressLine1, org.AddressLine2, org.City, org.State,
		org.PostalCode, org.Country,
		string(org.ID),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tenant.ErrOrganizationNotFound
	}
	return nil
}

// RegenerateInviteCode replaces an organization's join code, invalidating
// the old one immediately.
func (s *Store) RegenerateInviteCode(ctx context.Context, id payroll.OrganizationID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < 5; attempt++ {
		code := tenant.NewInviteCode()
		res, err := s.db.ExecContext(ctx,
			"UPDATE organizations SET invite_code = ? WHERE id = ?",
			code, string(id),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				continue
			}
			return "", err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", tenant.ErrOrganizationNotFound
		}
		return code, nil
	}
	return "", fmt.Errorf("failed to regenerate invite code: collisions")
}

// =============================================================================
// USERS
// =============================================================================

// SyncUser upserts a user record from the identity provider's view. The
// external id is the identity key; organization membership and role are
// preserved on conflict (the provider doesn't own those).
func (s *Store) SyncUser(ctx context.Context, u tenant.User) (tenant.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = tenant.UserID(uuid.NewString())
	}
	if u.Role == "" {
		u.Role = tenant.RolePending
	}

	query := `
		INSERT INTO users (id, external_id, name, email, organization_id, role, onboarded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`

	_, err := s.db.ExecContext(ctx, query,
		string(u.ID), u.ExternalID, u.Name, u.Email,
		nullString(string(u.OrganizationID)), string(u.Role), u.Onboarded,
	)
	if err != nil {
		return tenant.User{}, fmt.Errorf("failed to sync user: %w", err)
	}

	stored, err := s.getUserByExternalID(ctx, u.ExternalID)
	if err != nil {
		return tenant.User{}, err
	}
	return *stored, nil
}

// GetUserByExternalID retrieves a user by the identity provider's subject.
func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*tenant.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserByExternalID(ctx, externalID)
}

func (s *Store) getUserByExternalID(ctx context.Context, externalID string) (*tenant.User, error) {
	var (
		u     tenant.User
		orgID sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, external_id, name, email, organization_id, role, onboarded FROM users WHERE external_id = ?",
		externalID,
	).Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &orgID, &u.Role, &u.Onboarded)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.OrganizationID = payroll.OrganizationID(orgID.String)
	return &u, nil
}

// ListUsers returns all members of an organization, admins first.
func (s *Store) ListUsers(ctx context.Context, orgID payroll.OrganizationID) ([]tenant.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, name, email, organization_id, role, onboarded
		 FROM users WHERE organization_id = ?
		 ORDER BY CASE role WHEN 'admin' THEN 0 WHEN 'manager' THEN 1 ELSE 2 END, name`,
		string(orgID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []tenant.User
	for rows.Next() {
		var (
			u   tenant.User
			oid sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &oid, &u.Role, &u.Onboarded); err != nil {
			return nil, err
		}
		u.OrganizationID = payroll.OrganizationID(oid.String)
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserRole assigns a member's role (the admin approval step for
// code-joined members, or a later role change).
func (s *Store) SetUserRole(ctx context.Context, userID tenant.UserID, role tenant.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = ? WHERE id = ?",
		string(role), string(userID),
	)
	return err
}

// JoinOrganization places a user in an organization with the given role.
// Code joins pass RolePending; invitation accepts pass the invited role.
func (s *Store) JoinOrganization(ctx context.Context, userID tenant.UserID, orgID payroll.OrganizationID, role tenant.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET organization_id = ?, role = ?, onboarded = TRUE WHERE id = ?",
		string(orgID), string(role), string(userID),
	)
	return err
}

// =============================================================================
// INVITATIONS
// =============================================================================

// SaveInvitation inserts or updates an invitation (updates carry status
// transitions - accepted, expired).
func (s *Store) SaveInvitation(ctx context.Context, inv tenant.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO invitations
		(id, organization_id, email, role, invited_by, status, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		string(inv.ID), string(inv.OrganizationID), inv.Email, string(inv.Role),
		string(inv.InvitedBy), string(inv.Status), inv.Token,
		inv.ExpiresAt.Format(time.RFC3339), inv.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save invitation: %w", err)
	}
	return nil
}

// GetInvitationByToken retrieves an invitation by its single-use token.
func (s *Store) GetInvitationByToken(ctx context.Context, token string) (*tenant.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		inv       tenant.Invitation
		expiresAt string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, email, role, invited_by, status, token, expires_at, created_at
		 FROM invitations WHERE token = ?`,
		token,
	).Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.Status, &inv.Token, &expiresAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	inv.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &inv, nil
}

// ListInvitations returns an organization's invitations, newest first.
func (s *Store) ListInvitations(ctx context.Context, orgID payroll.OrganizationID) ([]tenant.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, email, role, invited_by, status, token, expires_at, created_at
		 FROM invitations WHERE organization_id = ?
		 ORDER BY created_at DESC`,
		string(orgID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []tenant.Invitation
	for rows.Next() {
		var (
			inv       tenant.Invitation
			expiresAt string
			createdAt string
		)
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role,
			&inv.InvitedBy, &inv.Status, &inv.Token, &expiresAt, &createdAt); err != nil {
			return nil, err
		}
		inv.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
		inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}
