package tenant

import "errors"

var (
	// ErrInvalidInviteRole is returned when an invitation names a role
	// that cannot be invited into (only admin and manager can).
	ErrInvalidInviteRole = errors.New("invitations must carry the admin or manager role")

	// ErrInvitationExpired is returned when accepting a token past its expiry.
	ErrInvitationExpired = errors.New("invitation expired")

	// ErrInvitationConsumed is returned when accepting an already-accepted token.
	ErrInvitationConsumed = errors.New("invitation already accepted")

	// ErrDuplicateManualID is returned by stores when a worker's manual
	// identifier is already taken within the organization.
	ErrDuplicateManualID = errors.New("manual id already exists in organization")

	// ErrOrganizationNotFound is returned for lookups by id or invite code.
	ErrOrganizationNotFound = errors.New("organization not found")
)
