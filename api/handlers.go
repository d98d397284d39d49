/*
handlers.go - HTTP API handlers: tenancy and membership

PURPOSE:
  Exposes the payroll service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.
  This file owns the tenancy surface: organizations, members, and
  invitations. The factory catalog (sections, workers, styles, rates)
  lives in catalog_handlers.go; production and payroll in
  payroll_handlers.go.

ENDPOINTS (this file):
  Identity:
    POST   /api/auth/sync                       Mirror the caller's profile
    GET    /api/me                              Caller's user record

  Organizations:
    POST   /api/organizations                   Create (caller becomes admin)
    GET    /api/organizations/{orgID}           Get
    PUT    /api/organizations/{orgID}           Update name/address
    POST   /api/organizations/join              Join via invite code
    POST   /api/organizations/{orgID}/invite-code  Regenerate code
    GET    /api/organizations/{orgID}/users     List members
    POST   /api/users/{userID}/role             Assign role

  Invitations:
    POST   /api/organizations/{orgID}/invitations  Invite by email
    GET    /api/organizations/{orgID}/invitations  List
    POST   /api/invitations/accept                 Consume token

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid credentials
  - 404: Resource not found
  - 409: Conflict (duplicate manual id, consumed invitation)
  - 410: Expired invitation
  - 500: Internal errors

TENANCY:
  Handlers resolve records through URL-scoped organization ids; the ids
  a handler passes to the engine are resolved inside one organization
  first. That is the precondition payroll/store.go documents.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tenant"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine
	Rules  *factory.RuleFactory
	Log    *zap.Logger

	// Track currently loaded demo scenario
	currentScenario string
}

// NewHandler creates a handler over the given store.
func NewHandler(store *sqlite.Store, log *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Engine: payroll.NewEngine(store),
		Rules:  factory.NewRuleFactory(),
		Log:    log,
	}
}

// =============================================================================
// IDENTITY
// =============================================================================

// SyncUser upserts the caller's user record from their token profile.
// POST /api/auth/sync
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req SyncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Body fields win over token claims: the provider's profile API is
	// fresher than the token snapshot.
	name := req.Name
	if name == "" {
		name = principal.Name
	}
	email := req.Email
	if email == "" {
		email = principal.Email
	}

	user, err := h.Store.SyncUser(r.Context(), tenant.User{
		ExternalID: principal.ExternalID,
		Name:       name,
		Email:      email,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sync user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// Me returns the caller's user record.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// currentUser resolves the caller's user record, writing the error
// response itself when that fails.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*tenant.User, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return nil, false
	}
	user, err := h.Store.GetUserByExternalID(r.Context(), principal.ExternalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not synced yet", nil)
		return nil, false
	}
	return user, true
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// CreateOrganization creates an organization and makes the caller its
// first admin.
// POST /api/organizations
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Organization name is required", nil)
		return
	}

	org, err := h.Store.CreateOrganization(r.Context(), tenant.Organization{
		Name:         req.Name,
		Description:  req.Description,
		CreatedBy:    user.ExternalID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create organization", err)
		return
	}

	if err := h.Store.JoinOrganization(r.Context(), user.ID, org.ID, tenant.RoleAdmin); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to join organization", err)
		return
	}

	h.Log.Info("organization created",
		zap.String("org_id", string(org.ID)),
		zap.String("created_by", user.ExternalID))

	writeJSON(w, http.StatusCreated, toOrganizationDTO(org, true))
}

// GetOrganization returns one organization, invite code included.
// GET /api/organizations/{orgID}
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, ok := h.loadOrganization(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(*org, true))
}

// UpdateOrganization updates name, description, and address.
// PUT /api/organizations/{orgID}
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	org, ok := h.loadOrganization(w, r)
	if !ok {
		return
	}

	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != "" {
		org.Name = req.Name
	}
	org.Description = req.Description
	org.AddressLine1 = req.AddressLine1
	org.AddressLine2 = req.AddressLine2
	org.City = req.City
	org.State = req.State
	org.PostalCode = req.PostalCode
	org.Country = req.Country

	if err := h.Store.UpdateOrganization(r.Context(), *org); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(*org, true))
}

// JoinOrganization joins the caller via invite code, in the pending
// role until an admin assigns one.
// POST /api/organizations/join
func (h *Handler) JoinOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req JoinOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	org, err := h.Store.GetOrganizationByInviteCode(r.Context(), req.InviteCode)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			writeError(w, http.StatusNotFound, "Invalid invite code", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up invite code", err)
		return
	}

	if err := h.Store.JoinOrganization(r.Context(), user.ID, org.ID, tenant.RolePending); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to join organization", err)
		return
	}

	// No invite code in the join response: pending members relay codes,
	// they don't own them.
	writeJSON(w, http.StatusOK, toOrganizationDTO(*org, false))
}

// RegenerateInviteCode replaces the join code.
// POST /api/organizations/{orgID}/invite-code
func (h *Handler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	code, err := h.Store.RegenerateInviteCode(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			writeError(w, http.StatusNotFound, "Organization not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to regenerate invite code", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

// ListUsers returns the organization's members.
// GET /api/organizations/{orgID}/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	users, err := h.Store.ListUsers(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetUserRole assigns a member's role (the admin approval step for
// pending members).
// POST /api/users/{userID}/role
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	userID := tenant.UserID(chi.URLParam(r, "userID"))

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role := tenant.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role (allowed: admin, manager, pending)", nil)
		return
	}

	if err := h.Store.SetUserRole(r.Context(), userID, role); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadOrganization(w http.ResponseWriter, r *http.Request) (*tenant.Organization, bool) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))
	org, err := h.Store.GetOrganization(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			writeError(w, http.StatusNotFound, "Organization not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load organization", err)
		return nil, false
	}
	return org, true
}

// =============================================================================
// INVITATIONS
// =============================================================================

// CreateInvitation invites an email into the organization.
// POST /api/organizations/{orgID}/invitations
func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required", nil)
		return
	}

	inv, err := tenant.NewInvitation(orgID, req.Email, tenant.Role(req.Role), user.ID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invitation", err)
		return
	}
	if err := h.Store.SaveInvitation(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invitation", err)
		return
	}

	// Token included: the caller delivers it (mail delivery is outside
	// this service).
	writeJSON(w, http.StatusCreated, toInvitationDTO(inv, true))
}

// ListInvitations returns the organization's invitations.
// GET /api/organizations/{orgID}/invitations
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	invitations, err := h.Store.ListInvitations(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invitations", err)
		return
	}

	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = toInvitationDTO(inv, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AcceptInvitation consumes a token and places the caller in the
// inviting organization with the invited role.
// POST /api/invitations/accept
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inv, err := h.Store.GetInvitationByToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up invitation", err)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Invitation not found", nil)
		return
	}

	if err := inv.Accept(time.Now().UTC()); err != nil {
		// Persist the lazy pending->expired transition before reporting.
		_ = h.Store.SaveInvitation(r.Context(), *inv)
		switch {
		case errors.Is(err, tenant.ErrInvitationExpired):
			writeError(w, http.StatusGone, "Invitation expired", nil)
		case errors.Is(err, tenant.ErrInvitationConsumed):
			writeError(w, http.StatusConflict, "Invitation already accepted", nil)
		default:
			writeError(w, http.StatusBadRequest, "Cannot accept invitation", err)
		}
		return
	}

	if err := h.Store.SaveInvitation(r.Context(), *inv); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update invitation", err)
		return
	}
	if err := h.Store.JoinOrganization(r.Context(), user.ID, inv.OrganizationID, inv.Role); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to join organization", err)
		return
	}

	h.Log.Info("invitation accepted",
		zap.String("org_id", string(inv.OrganizationID)),
		zap.String("user_id", string(user.ID)),
		zap.String("role", string(inv.Role)))

	writeJSON(w, http.StatusOK, map[string]string{
		"organization_id": string(inv.OrganizationID),
		"role":            string(inv.Role),
	})
}

// =============================================================================
// DTO CONVERSION & RESPONSE HELPERS
// =============================================================================

func toOrganizationDTO(org tenant.Organization, withCode bool) OrganizationDTO {
	dto := OrganizationDTO{
		ID:           string(org.ID),
		Name:         org.Name,
		Description:  org.Description,
		AddressLine1: org.AddressLine1,
		AddressLine2: org.AddressLine2,
		City:         org.City,
		State:        org.State,
		PostalCode:   org.PostalCode,
		Country:      org.Country,
		CreatedAt:    org.CreatedAt.Format(time.RFC3339),
	}
	if withCode {
		dto.InviteCode = org.InviteCode
	}
	return dto
}

func toUserDTO(u tenant.User) UserDTO {
	return UserDTO{
		ID:             string(u.ID),
		Name:           u.Name,
		Email:          u.Email,
		OrganizationID: string(u.OrganizationID),
		Role:           string(u.Role),
		Onboarded:      u.Onboarded,
	}
}

func toInvitationDTO(inv tenant.Invitation, withToken bool) InvitationDTO {
	dto := InvitationDTO{
		ID:        string(inv.ID),
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
	if withToken {
		dto.Token = inv.Token
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
