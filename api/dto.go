/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Every money value crosses the wire as a decimal STRING ("2.50", never
  2.5 the float). Clients that parse them as floats get what they
  deserve; clients that display or re-post them stay exact.

VALIDATION:
  Validation is done in handlers (and the rule factory), not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go, payroll_handlers.go: Uses these types
  - factory/rule.go: RuleJSON, the bonus-rule wire form
*/
package api

import "github.com/warp/payroll-engine/factory"

// =============================================================================
// TENANCY
// =============================================================================

// OrganizationDTO represents an organization in API responses. The
// invite code is only included for members (list/get by id), never in
// join-flow responses.
type OrganizationDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	InviteCode   string `json:"invite_code,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateOrganizationRequest creates an organization; the caller becomes
// its first admin.
type CreateOrganizationRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// JoinOrganizationRequest joins via invite code; the caller lands in
// the pending role until an admin assigns one.
type JoinOrganizationRequest struct {
	InviteCode string `json:"invite_code"`
}

// UserDTO represents an organization member.
type UserDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id,omitempty"`
	Role           string `json:"role"`
	Onboarded      bool   `json:"onboarded"`
}

// SyncUserRequest mirrors the identity provider's profile into the
// users table. External id comes from the bearer token subject.
type SyncUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SetRoleRequest assigns a member's role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// InvitationDTO represents an email invitation.
type InvitationDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// CreateInvitationRequest invites an email into the organization with
// an admin or manager role.
type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AcceptInvitationRequest consumes an invitation token.
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// =============================================================================
// CATALOG: SECTIONS, WORKERS, STYLES, RATES
// =============================================================================

// SectionDTO represents a production line.
type SectionDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ManagerID string `json:"manager_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SectionRequest creates or updates a section.
type SectionRequest struct {
	Name      string `json:"name"`
	ManagerID string `json:"manager_id"`
}

// WorkerDTO represents a worker.
type WorkerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SectionID string `json:"section_id"`
	ManualID  string `json:"manual_id,omitempty"`
}

// WorkerRequest creates or updates a worker.
type WorkerRequest struct {
	Name      string `json:"name"`
	SectionID string `json:"section_id"`
	ManualID  string `json:"manual_id"`
}

// StyleDTO represents a garment style.
type StyleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// StyleRequest creates or updates a style.
type StyleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RateDTO represents one pricing interval for a style.
type RateDTO struct {
	ID            string  `json:"id"`
	StyleID       string  `json:"style_id"`
	Rate          string  `json:"rate"`
	EffectiveDate string  `json:"effective_date"`
	EndDate       *string `json:"end_date,omitempty"`
}

// RateRequest creates or updates a pricing interval.
type RateRequest struct {
	Rate          string  `json:"rate"`
	EffectiveDate string  `json:"effective_date"`
	EndDate       *string `json:"end_date"`
}

// CurrentRateDTO answers "what does this style pay on this date?".
// Found is false when no interval covers the date - distinct from a
// zero rate.
type CurrentRateDTO struct {
	StyleID string `json:"style_id"`
	On      string `json:"on"`
	Found   bool   `json:"found"`
	Rate    string `json:"rate,omitempty"`
	RateID  string `json:"rate_id,omitempty"`
}

// =============================================================================
// PRODUCTION
// =============================================================================

// ProductionEntryDTO represents one output record, with display names
// resolved for the day view.
type ProductionEntryDTO struct {
	ID         string `json:"id"`
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name,omitempty"`
	StyleID    string `json:"style_id"`
	StyleName  string `json:"style_name,omitempty"`
	SectionID  string `json:"section_id,omitempty"`
	Quantity   int64  `json:"quantity"`
	Date       string `json:"date"`
}

// ProductionRequest logs or updates an output record.
type ProductionRequest struct {
	WorkerID string `json:"worker_id"`
	StyleID  string `json:"style_id"`
	Quantity int64  `json:"quantity"`
	Date     string `json:"date"`
}

// =============================================================================
// BONUS RULES
// =============================================================================

// RuleDTO wraps the factory's wire form with storage metadata.
type RuleDTO struct {
	ID        string           `json:"id"`
	Rule      factory.RuleJSON `json:"rule"`
	CreatedAt string           `json:"created_at,omitempty"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// ComputePayrollRequest runs the payroll engine for one worker.
type ComputePayrollRequest struct {
	WorkerID string  `json:"worker_id"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	RuleID   *string `json:"rule_id,omitempty"`
}

// PayLineDTO is one priced production entry in a payroll breakdown.
type PayLineDTO struct {
	EntryID   string `json:"entry_id"`
	Date      string `json:"date"`
	StyleID   string `json:"style_id"`
	StyleName string `json:"style_name,omitempty"`
	Quantity  int64  `json:"quantity"`
	Rate      string `json:"rate"`
	Pay       string `json:"pay"`
}

// BonusOutcomeDTO reports bonus evaluation, applied or not. The scoped
// sums and criteria value are included either way so a supervisor can
// see how close the worker came.
type BonusOutcomeDTO struct {
	Applied        bool   `json:"applied"`
	RuleID         string `json:"rule_id"`
	Name           string `json:"name"`
	Criteria       string `json:"criteria"`
	Threshold      string `json:"threshold"`
	CriteriaValue  string `json:"criteria_value"`
	BonusType      string `json:"bonus_type"`
	BonusValue     string `json:"bonus_value"`
	ApplyOn        string `json:"apply_on"`
	ScopedQuantity string `json:"scoped_quantity"`
	ScopedWage     string `json:"scoped_wage"`
	BonusAmount    string `json:"bonus_amount"`
	TotalWithBonus string `json:"total_with_bonus"`
}

// PayrollResultDTO is the full outcome of one payroll computation.
type PayrollResultDTO struct {
	WorkerID       string           `json:"worker_id"`
	Start          string           `json:"start"`
	End            string           `json:"end"`
	TotalPay       string           `json:"total_pay"`
	Details        []PayLineDTO     `json:"details"`
	Bonus          *BonusOutcomeDTO `json:"bonus,omitempty"`
	TotalWithBonus string           `json:"total_with_bonus"`
	SkippedEntries int              `json:"skipped_entries,omitempty"`
}

// SectionStyleSummaryDTO reports one style's output within one section
// over a period, priced with the same rate resolution payroll uses.
type SectionStyleSummaryDTO struct {
	SectionID      string `json:"section_id"`
	StyleID        string `json:"style_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	TotalQuantity  string `json:"total_quantity"`
	TotalPay       string `json:"total_pay"`
	EntryCount     int    `json:"entry_count"`
	SkippedEntries int    `json:"skipped_entries,omitempty"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
