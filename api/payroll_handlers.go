/*
payroll_handlers.go - Production logging, bonus rules, and payroll

ENDPOINTS:
  Production:
    GET    /api/organizations/{orgID}/production?date=   Day view
    POST   /api/organizations/{orgID}/production         Log output
    PUT    /api/production/{id}
    DELETE /api/production/{id}

  Bonus rules:
    GET    /api/organizations/{orgID}/bonus-rules[?active=true]
    POST   /api/organizations/{orgID}/bonus-rules        Via rule factory
    PUT    /api/bonus-rules/{id}
    POST   /api/bonus-rules/{id}/active                  Toggle
    DELETE /api/bonus-rules/{id}

  Payroll:
    POST   /api/organizations/{orgID}/payroll            Compute
    POST   /api/organizations/{orgID}/payroll/export     .xlsx statement
    GET    /api/organizations/{orgID}/sections/{id}/summary
           ?style_id=&start=&end=                        Section report

PAYROLL FLOW:
  The handler validates the period and hands pre-scoped ids to the
  engine. Entries whose dates no rate interval covers are excluded from
  pay and reported in skipped_entries - a payroll run never invents a
  zero rate.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// PRODUCTION
// =============================================================================

// ListProduction returns production for the organization with worker
// and style names resolved. Two modes:
//   - ?worker_id=&start=&end=  one worker over a date range
//   - ?date=                   whole organization, one day (default today)
func (h *Handler) ListProduction(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	if workerID := r.URL.Query().Get("worker_id"); workerID != "" {
		h.listWorkerProduction(w, r, orgID, payroll.WorkerID(workerID))
		return
	}

	day := payroll.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := payroll.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		day = parsed
	}

	details, err := h.Store.ProductionByDate(r.Context(), orgID, day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list production", err)
		return
	}

	dtos := make([]ProductionEntryDTO, len(details))
	for i, d := range details {
		dtos[i] = ProductionEntryDTO{
			ID:         string(d.Entry.ID),
			WorkerID:   string(d.Entry.WorkerID),
			WorkerName: d.WorkerName,
			StyleID:    string(d.Entry.StyleID),
			StyleName:  d.StyleName,
			SectionID:  string(d.SectionID),
			Quantity:   d.Entry.Quantity,
			Date:       d.Entry.Date.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// listWorkerProduction returns one worker's entries over a date range.
func (h *Handler) listWorkerProduction(w http.ResponseWriter, r *http.Request, orgID payroll.OrganizationID, workerID payroll.WorkerID) {
	period, err := payroll.NewPeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	worker, err := h.Store.Worker(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load worker", err)
		return
	}
	if worker == nil || worker.OrganizationID != orgID {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}

	entries, err := h.Store.ProductionEntries(r.Context(), workerID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list production", err)
		return
	}

	styleNames := make(map[payroll.StyleID]string)
	if styles, err := h.Store.ListStyles(r.Context(), orgID); err == nil {
		for _, st := range styles {
			styleNames[st.ID] = st.Name
		}
	}

	dtos := make([]ProductionEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ProductionEntryDTO{
			ID:         string(e.ID),
			WorkerID:   string(e.WorkerID),
			WorkerName: worker.Name,
			StyleID:    string(e.StyleID),
			StyleName:  styleNames[e.StyleID],
			SectionID:  string(worker.SectionID),
			Quantity:   e.Quantity,
			Date:       e.Date.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduction logs an output record.
func (h *Handler) CreateProduction(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	entry, ok := h.decodeProduction(w, r)
	if !ok {
		return
	}
	entry.OrganizationID = orgID

	created, err := h.Store.CreateProductionEntry(r.Context(), entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log production", err)
		return
	}

	writeJSON(w, http.StatusCreated, ProductionEntryDTO{
		ID:       string(created.ID),
		WorkerID: string(created.WorkerID),
		StyleID:  string(created.StyleID),
		Quantity: created.Quantity,
		Date:     created.Date.String(),
	})
}

// UpdateProduction replaces an entry's style, quantity, and date.
func (h *Handler) UpdateProduction(w http.ResponseWriter, r *http.Request) {
	id := payroll.EntryID(chi.URLParam(r, "id"))

	entry, ok := h.decodeProduction(w, r)
	if !ok {
		return
	}
	entry.ID = id

	if err := h.Store.UpdateProductionEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update production entry", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteProduction removes an output record.
func (h *Handler) DeleteProduction(w http.ResponseWriter, r *http.Request) {
	id := payroll.EntryID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteProductionEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete production entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeProduction(w http.ResponseWriter, r *http.Request) (payroll.ProductionEntry, bool) {
	var req ProductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return payroll.ProductionEntry{}, false
	}
	if req.WorkerID == "" || req.StyleID == "" {
		writeError(w, http.StatusBadRequest, "worker_id and style_id are required", nil)
		return payroll.ProductionEntry{}, false
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be non-negative", nil)
		return payroll.ProductionEntry{}, false
	}
	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return payroll.ProductionEntry{}, false
	}
	return payroll.ProductionEntry{
		WorkerID: payroll.WorkerID(req.WorkerID),
		StyleID:  payroll.StyleID(req.StyleID),
		Quantity: req.Quantity,
		Date:     date,
	}, true
}

// =============================================================================
// BONUS RULES
// =============================================================================

// ListBonusRules returns the organization's rules. ?active=true filters
// to the manual toggle; ?as_of=YYYY-MM-DD additionally keeps only rules
// whose date window covers that date.
func (h *Handler) ListBonusRules(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))
	activeOnly := r.URL.Query().Get("active") == "true"

	rules, err := h.Store.ListBonusRules(r.Context(), orgID, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bonus rules", err)
		return
	}

	if s := r.URL.Query().Get("as_of"); s != "" {
		asOf, err := payroll.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
		day := payroll.Period{Start: asOf, End: asOf}
		filtered := rules[:0]
		for _, rule := range rules {
			if rule.InWindow(day) {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}

	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = h.toRuleDTO(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBonusRule validates a rule definition through the factory and
// stores it.
func (h *Handler) CreateBonusRule(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	rule, ok := h.decodeRule(w, r)
	if !ok {
		return
	}
	rule.OrganizationID = orgID

	created, err := h.Store.CreateBonusRule(r.Context(), *rule)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create bonus rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toRuleDTO(created))
}

// UpdateBonusRule replaces a rule's definition.
func (h *Handler) UpdateBonusRule(w http.ResponseWriter, r *http.Request) {
	id := payroll.RuleID(chi.URLParam(r, "id"))

	existing, err := h.Store.BonusRule(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load bonus rule", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Bonus rule not found", nil)
		return
	}

	rule, ok := h.decodeRule(w, r)
	if !ok {
		return
	}
	rule.ID = existing.ID
	rule.OrganizationID = existing.OrganizationID
	rule.CreatedAt = existing.CreatedAt

	if err := h.Store.UpdateBonusRule(r.Context(), *rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update bonus rule", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toRuleDTO(*rule))
}

// SetBonusRuleActive toggles a rule without editing its definition.
func (h *Handler) SetBonusRuleActive(w http.ResponseWriter, r *http.Request) {
	id := payroll.RuleID(chi.URLParam(r, "id"))

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetBonusRuleActive(r.Context(), id, req.Active); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle bonus rule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteBonusRule removes a rule.
func (h *Handler) DeleteBonusRule(w http.ResponseWriter, r *http.Request) {
	id := payroll.RuleID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteBonusRule(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete bonus rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeRule(w http.ResponseWriter, r *http.Request) (*payroll.BonusRule, bool) {
	var raw struct {
		Rule json.RawMessage `json:"rule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw.Rule) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body (expected {\"rule\": {...}})", err)
		return nil, false
	}
	rule, err := h.Rules.ParseRule(raw.Rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule definition", err)
		return nil, false
	}
	return rule, true
}

func (h *Handler) toRuleDTO(rule payroll.BonusRule) RuleDTO {
	return RuleDTO{
		ID:        string(rule.ID),
		Rule:      h.Rules.ToJSON(rule),
		CreatedAt: rule.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rule.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// ComputePayroll runs the engine for one worker over a closed period,
// optionally applying a bonus rule.
func (h *Handler) ComputePayroll(w http.ResponseWriter, r *http.Request) {
	result, _, ok := h.computePayroll(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.toPayrollDTO(r.Context(), result))
}

// ExportPayroll computes payroll and returns it as an .xlsx statement.
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	orgID := payroll.OrganizationID(chi.URLParam(r, "orgID"))

	result, workerID, ok := h.computePayroll(w, r)
	if !ok {
		return
	}

	org, err := h.Store.GetOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load organization", err)
		return
	}
	worker, err := h.Store.Worker(r.Context(), workerID)
	if err != nil || worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", err)
		return
	}

	sectionName := ""
	if sec, err := h.Store.GetSection(r.Context(), worker.SectionID); err == nil && sec != nil {
		sectionName = sec.Name
	}

	styleNames := make(map[payroll.StyleID]string)
	if styles, err := h.Store.ListStyles(r.Context(), orgID); err == nil {
		for _, st := range styles {
			styleNames[st.ID] = st.Name
		}
	}

	data, err := export.BuildWorkbook(export.Statement{
		Organization: *org,
		Worker:       *worker,
		SectionName:  sectionName,
		Result:       result,
		StyleNames:   styleNames,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build statement", err)
		return
	}

	filename := fmt.Sprintf("payroll_%s_%s_%s.xlsx", worker.Name, result.Period.Start, result.Period.End)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// computePayroll shares request decoding and engine invocation between
// the JSON and export endpoints.
func (h *Handler) computePayroll(w http.ResponseWriter, r *http.Request) (*payroll.PayrollResult, payroll.WorkerID, bool) {
	var req ComputePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, "", false
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "worker_id is required", nil)
		return nil, "", false
	}

	period, err := payroll.NewPeriod(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return nil, "", false
	}

	workerID := payroll.WorkerID(req.WorkerID)
	var ruleID *payroll.RuleID
	if req.RuleID != nil && *req.RuleID != "" {
		id := payroll.RuleID(*req.RuleID)
		ruleID = &id
	}

	result, err := h.Engine.ComputePayroll(r.Context(), workerID, period, ruleID)
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrRuleNotFound):
			writeError(w, http.StatusNotFound, "Bonus rule not found", err)
		case errors.Is(err, payroll.ErrWorkerNotFound):
			writeError(w, http.StatusNotFound, "Worker not found", err)
		case errors.Is(err, payroll.ErrInvalidPeriod):
			writeError(w, http.StatusBadRequest, "Invalid period", err)
		default:
			writeError(w, http.StatusInternalServerError, "Payroll computation failed", err)
		}
		return nil, "", false
	}

	h.Log.Info("payroll computed",
		zap.String("worker_id", string(workerID)),
		zap.String("period", period.String()),
		zap.String("total", result.TotalWithBonus.String()),
		zap.Int("skipped", result.SkippedEntries))

	return result, workerID, true
}

// SectionStyleSummary reports one style's output within one section,
// priced with payroll's rate resolution.
// GET /api/organizations/{orgID}/sections/{id}/summary?style_id=&start=&end=
func (h *Handler) SectionStyleSummary(w http.ResponseWriter, r *http.Request) {
	sectionID := payroll.SectionID(chi.URLParam(r, "id"))

	styleID := payroll.StyleID(r.URL.Query().Get("style_id"))
	if styleID == "" {
		writeError(w, http.StatusBadRequest, "style_id is required", nil)
		return
	}
	period, err := payroll.NewPeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	entries, err := h.Store.ProductionForStyleInSection(r.Context(), styleID, sectionID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load production", err)
		return
	}

	agg, err := h.Engine.Summarize(r.Context(), entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize production", err)
		return
	}

	quantity := decimal.Zero
	for _, e := range entries {
		quantity = quantity.Add(decimal.NewFromInt(e.Quantity))
	}

	writeJSON(w, http.StatusOK, SectionStyleSummaryDTO{
		SectionID:      string(sectionID),
		StyleID:        string(styleID),
		Start:          period.Start.String(),
		End:            period.End.String(),
		TotalQuantity:  quantity.String(),
		TotalPay:       agg.TotalPay.String(),
		EntryCount:     len(entries),
		SkippedEntries: agg.Skipped,
	})
}

func (h *Handler) toPayrollDTO(ctx context.Context, result *payroll.PayrollResult) PayrollResultDTO {
	styleNames := make(map[payroll.StyleID]string)
	// Best effort; breakdown lines fall back to raw ids when a style
	// was deleted after its production was logged.
	if len(result.Details) > 0 {
		if styles, err := h.Store.ListStyles(ctx, result.Details[0].Entry.OrganizationID); err == nil {
			for _, st := range styles {
				styleNames[st.ID] = st.Name
			}
		}
	}

	dto := PayrollResultDTO{
		WorkerID:       string(result.WorkerID),
		Start:          result.Period.Start.String(),
		End:            result.Period.End.String(),
		TotalPay:       result.TotalPay.String(),
		TotalWithBonus: result.TotalWithBonus.String(),
		SkippedEntries: result.SkippedEntries,
		Details:        make([]PayLineDTO, len(result.Details)),
	}
	for i, line := range result.Details {
		dto.Details[i] = PayLineDTO{
			EntryID:   string(line.Entry.ID),
			Date:      line.Entry.Date.String(),
			StyleID:   string(line.Entry.StyleID),
			StyleName: styleNames[line.Entry.StyleID],
			Quantity:  line.Entry.Quantity,
			Rate:      line.Rate.String(),
			Pay:       line.Pay.String(),
		}
	}
	if b := result.Bonus; b != nil {
		dto.Bonus = &BonusOutcomeDTO{
			Applied:        b.Applied,
			RuleID:         string(b.RuleID),
			Name:           b.Name,
			Criteria:       string(b.Criteria),
			Threshold:      b.Threshold.String(),
			CriteriaValue:  b.CriteriaValue.String(),
			BonusType:      string(b.Bonus),
			BonusValue:     b.BonusValue.String(),
			ApplyOn:        string(b.ApplyOn),
			ScopedQuantity: b.ScopedQuantity.String(),
			ScopedWage:     b.ScopedWage.String(),
			BonusAmount:    b.BonusAmount.String(),
			TotalWithBonus: b.TotalWithBonus.String(),
		}
	}
	return dto
}
