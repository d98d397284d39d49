/*
Package tenant provides the organization, membership, and invitation
domain.

PURPOSE:
  Every payroll record belongs to exactly one organization - the tenancy
  boundary the whole system hangs off. This package owns the types and
  the small amount of logic around that boundary: invite codes for
  joining an organization, user roles synced from the external identity
  provider, and the invitation token lifecycle.

TENANCY:
  The organization id on each record is THE isolation mechanism. Stores
  scope every query by it; the payroll engine receives pre-scoped ids and
  never re-derives tenancy (see payroll/store.go).

ROLES:
  admin:   full control - rates, rules, workers, payroll
  manager: day-to-day production logging and payroll viewing
  pending: joined via invite code, awaiting an admin's role assignment

IDENTITY:
  Authentication lives outside this system. Users carry an ExternalID
  issued by the identity provider; Sync upserts the local record from
  the provider's view on each login.
*/
package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ORGANIZATION
// =============================================================================

// Organization is the tenancy root. InviteCode lets new members join;
// it can be regenerated at any time, invalidating the old code.
type Organization struct {
	ID          payroll.OrganizationID
	Name        string
	Description string
	InviteCode  string
	CreatedBy   string // external identity of the creator
	CreatedAt   time.Time

	// Optional address, for payroll statements
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// NewInviteCode returns a short, human-relayable join code. Uniqueness is
// enforced by the store (unique index + retry on collision).
func NewInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// =============================================================================
// USERS & ROLES
// =============================================================================

type UserID string

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RolePending Role = "pending"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RolePending
}

// User is a member of an organization, mirrored from the external
// identity provider. OrganizationID is empty until the user creates or
// joins an organization.
type User struct {
	ID             UserID
	ExternalID     string // identity provider's subject
	Name           string
	Email          string
	OrganizationID payroll.OrganizationID
	Role           Role
	Onboarded      bool
}

// =============================================================================
// INVITATIONS
// =============================================================================

type InvitationID string

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// DefaultInvitationTTL is how long an invitation token stays valid.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Invitation is an email invite into an organization with a specific
// role. The token is single-use and expires.
type Invitation struct {
	ID             InvitationID
	OrganizationID payroll.OrganizationID
	Email          string
	Role           Role
	InvitedBy      UserID
	Status         InvitationStatus
	Token          string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// NewInvitation issues a pending invitation with a fresh token.
// Invitations carry admin or manager roles only - "pending" is what a
// code-join produces, not something you invite someone into.
func NewInvitation(orgID payroll.OrganizationID, email string, role Role, invitedBy UserID, now time.Time) (Invitation, error) {
	if role != RoleAdmin && role != RoleManager {
		return Invitation{}, ErrInvalidInviteRole
	}
	return Invitation{
		ID:             InvitationID(uuid.NewString()),
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Role:           role,
		InvitedBy:      invitedBy,
		Status:         InvitationPending,
		Token:          uuid.NewString(),
		ExpiresAt:      now.Add(DefaultInvitationTTL),
		CreatedAt:      now,
	}, nil
}

// ExpiredAt reports whether the invitation is past its expiry at the
// given instant (status is updated lazily, on read or accept).
func (i Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Accept transitions a pending, unexpired invitation to accepted.
func (i *Invitation) Accept(now time.Time) error {
	switch {
	case i.Status == InvitationAccepted:
		return ErrInvitationConsumed
	case i.Status == InvitationExpired || i.ExpiredAt(now):
		i.Status = InvitationExpired
		return ErrInvitationExpired
	}
	i.Status = InvitationAccepted
	return nil
}
