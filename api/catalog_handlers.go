/*
catalog_handlers.go - Factory catalog: sections, workers, styles, rates

ENDPOINTS:
  Sections:
    GET    /api/organizations/{orgID}/sections
    POST   /api/organizations/{orgID}/sections
    PUT    /api/sections/{id}
    DELETE /api/sections/{id}

  Workers:
    GET    /api/organizations/{orgID}/workers[?section_id=]
    POST   /api/organizations/{orgID}/workers
    PUT    /api/workers/{id}
    DELETE /api/workers/{id}

  Styles:
    GET    /api/organizations/{orgID}/styles
    POST   /api/organizations/{orgID}/styles
    PUT    /api/styles/{id}
    DELETE /api/styles/{id}

  Rates:
    GET    /api/styles/{id}/rates              Full interval history
    POST   /api/styles/{id}/rates              New pricing interval
    GET    /api/styles/{id}/current-rate?on=   Rate in effect on a date
    PUT    /api/rates/{id}
    DELETE /api/rates/{id}

RATE SEMANTICS:
  Intervals may overlap; creation does not reject overlap. The engine's
  resolution policy (latest effective date wins) decides at computation
  time, and current-rate answers with exactly that policy so the admin
  screen and payroll never disagree.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tenant"
)

// =============================================================================
// SECTIONS
// =============================================================================

// ListSections returns the organization's sections.
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	sections, err := h.Store.ListSections(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sections", err)
		return
	}

	dtos := make([]SectionDTO, len(sections))
	for i, s := range sections {
		dtos[i] = toSectionDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSection creates a section.
func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Section name is required", nil)
		return
	}

	sec, err := h.Store.CreateSection(r.Context(), sqlite.Section{
		OrganizationID: orgID,
		Name:           req.Name,
		ManagerID:      tenant.UserID(req.ManagerID),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create section", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSectionDTO(sec))
}

// UpdateSection updates a section's name and manager.
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id := payroll.SectionID(chi.URLParam(r, "id"))

	sec, err := h.Store.GetSection(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load section", err)
		return
	}
	if sec == nil {
		writeError(w, http.StatusNotFound, "Section not found", nil)
		return
	}

	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != "" {
		sec.Name = req.Name
	}
	sec.ManagerID = tenant.UserID(req.ManagerID)

	if err := h.Store.UpdateSection(r.Context(), *sec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update section", err)
		return
	}
	writeJSON(w, http.StatusOK, toSectionDTO(*sec))
}

// DeleteSection removes a section.
func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id := payroll.SectionID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteSection(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete section", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WORKERS
// =============================================================================

// ListWorkers returns the organization's workers, optionally filtered
// to a section via ?section_id=.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	var sectionID *payroll.SectionID
	if s := r.URL.Query().Get("section_id"); s != "" {
		id := payroll.SectionID(s)
		sectionID = &id
	}

	workers, err := h.Store.ListWorkers(r.Context(), orgID, sectionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorker creates a worker. A duplicate manual id within the
// organization is a 409.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	var req WorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.SectionID == "" {
		writeError(w, http.StatusBadRequest, "Worker name and section_id are required", nil)
		return
	}

	worker, err := h.Store.CreateWorker(r.Context(), payroll.Worker{
		OrganizationID: orgID,
		SectionID:      payroll.SectionID(req.SectionID),
		Name:           req.Name,
		ManualID:       req.ManualID,
	})
	if err != nil {
		if errors.Is(err, tenant.ErrDuplicateManualID) {
			writeError(w, http.StatusConflict, "Manual ID already exists in this organization", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// UpdateWorker updates a worker's name, section, and manual id.
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id := payroll.WorkerID(chi.URLParam(r, "id"))

	worker, err := h.Store.Worker(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load worker", err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}

	var req WorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != "" {
		worker.Name = req.Name
	}
	if req.SectionID != "" {
		worker.SectionID = payroll.SectionID(req.SectionID)
	}
	worker.ManualID = req.ManualID

	if err := h.Store.UpdateWorker(r.Context(), *worker); err != nil {
		if errors.Is(err, tenant.ErrDuplicateManualID) {
			writeError(w, http.StatusConflict, "Manual ID already exists in this organization", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

// DeleteWorker removes a worker and their production history.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id := payroll.WorkerID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteWorker(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STYLES
// =============================================================================

// ListStyles returns the organization's styles.
func (h *Handler) ListStyles(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	styles, err := h.Store.ListStyles(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list styles", err)
		return
	}

	dtos := make([]StyleDTO, len(styles))
	for i, st := range styles {
		dtos[i] = toStyleDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStyle creates a style.
func (h *Handler) CreateStyle(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	var req StyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Style name is required", nil)
		return
	}

	style, err := h.Store.CreateStyle(r.Context(), sqlite.Style{
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create style", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStyleDTO(style))
}

// UpdateStyle updates a style's name and description.
func (h *Handler) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	id := payroll.StyleID(chi.URLParam(r, "id"))

	style, err := h.Store.GetStyle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load style", err)
		return
	}
	if style == nil {
		writeError(w, http.StatusNotFound, "Style not found", nil)
		return
	}

	var req StyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != "" {
		style.Name = req.Name
	}
	style.Description = req.Description

	if err := h.Store.UpdateStyle(r.Context(), *style); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update style", err)
		return
	}
	writeJSON(w, http.StatusOK, toStyleDTO(*style))
}

// DeleteStyle removes a style and its rate history.
func (h *Handler) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	id := payroll.StyleID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteStyle(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete style", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STYLE RATES
// =============================================================================

// ListStyleRates returns a style's full interval history.
func (h *Handler) ListStyleRates(w http.ResponseWriter, r *http.Request) {
	styleID := payroll.StyleID(chi.URLParam(r, "id"))

	rates, err := h.Store.StyleRates(r.Context(), styleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	dtos := make([]RateDTO, len(rates))
	for i, rt := range rates {
		dtos[i] = toRateDTO(rt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStyleRate adds a pricing interval to a style.
func (h *Handler) CreateStyleRate(w http.ResponseWriter, r *http.Request) {
	styleID := payroll.StyleID(chi.URLParam(r, "id"))

	style, err := h.Store.GetStyle(r.Context(), styleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load style", err)
		return
	}
	if style == nil {
		writeError(w, http.StatusNotFound, "Style not found", nil)
		return
	}

	rate, ok := h.decodeRate(w, r)
	if !ok {
		return
	}
	rate.StyleID = styleID
	rate.OrganizationID = style.OrganizationID

	created, err := h.Store.CreateStyleRate(r.Context(), rate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateDTO(created))
}

// UpdateStyleRate replaces an interval's rate and validity bounds.
func (h *Handler) UpdateStyleRate(w http.ResponseWriter, r *http.Request) {
	id := payroll.RateID(chi.URLParam(r, "id"))

	rate, ok := h.decodeRate(w, r)
	if !ok {
		return
	}
	rate.ID = id

	if err := h.Store.UpdateStyleRate(r.Context(), rate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update rate", err)
		return
	}
	writeJSON(w, http.StatusOK, toRateDTO(rate))
}

// DeleteStyleRate removes a pricing interval.
func (h *Handler) DeleteStyleRate(w http.ResponseWriter, r *http.Request) {
	id := payroll.RateID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteStyleRate(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete rate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentRate answers "what does this style pay on this date?" with
// the engine's own resolution policy. ?on= defaults to today.
func (h *Handler) GetCurrentRate(w http.ResponseWriter, r *http.Request) {
	styleID := payroll.StyleID(chi.URLParam(r, "id"))

	on := payroll.Today()
	if s := r.URL.Query().Get("on"); s != "" {
		parsed, err := payroll.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		on = parsed
	}

	rate, found, err := h.Engine.CurrentRate(r.Context(), styleID, on)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve rate", err)
		return
	}

	dto := CurrentRateDTO{StyleID: string(styleID), On: on.String(), Found: found}
	if found {
		dto.Rate = rate.Rate.String()
		dto.RateID = string(rate.ID)
	}
	writeJSON(w, http.StatusOK, dto)
}

// decodeRate parses and validates a rate request body.
func (h *Handler) decodeRate(w http.ResponseWriter, r *http.Request) (payroll.StyleRate, bool) {
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return payroll.StyleRate{}, false
	}

	value, err := decimal.NewFromString(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate (use a decimal string)", err)
		return payroll.StyleRate{}, false
	}
	if value.IsNegative() {
		writeError(w, http.StatusBadRequest, "Rate must be non-negative", nil)
		return payroll.StyleRate{}, false
	}

	effective, err := payroll.ParseDate(req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date (use YYYY-MM-DD)", err)
		return payroll.StyleRate{}, false
	}

	rate := payroll.StyleRate{Rate: value, EffectiveDate: effective}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := payroll.ParseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
			return payroll.StyleRate{}, false
		}
		if end.Before(effective) {
			writeError(w, http.StatusBadRequest, "end_date precedes effective_date", nil)
			return payroll.StyleRate{}, false
		}
		rate.EndDate = &end
	}
	return rate, true
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func toSectionDTO(s sqlite.Section) SectionDTO {
	return SectionDTO{
		ID:        string(s.ID),
		Name:      s.Name,
		ManagerID: string(s.ManagerID),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func toWorkerDTO(w payroll.Worker) WorkerDTO {
	return WorkerDTO{
		ID:        string(w.ID),
		Name:      w.Name,
		SectionID: string(w.SectionID),
		ManualID:  w.ManualID,
	}
}

func toStyleDTO(s sqlite.Style) StyleDTO {
	return StyleDTO{
		ID:          string(s.ID),
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func toRateDTO(r payroll.StyleRate) RateDTO {
	dto := RateDTO{
		ID:            string(r.ID),
		StyleID:       string(r.StyleID),
		Rate:          r.Rate.String(),
		EffectiveDate: r.EffectiveDate.String(),
	}
	if r.EndDate != nil {
		s := r.EndDate.String()
		dto.EndDate = &s
	}
	return dto
}
