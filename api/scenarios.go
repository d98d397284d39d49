/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Pre-built scenarios that populate the database with realistic factory
  data. Each scenario creates an organization, sections, workers,
  styles, rates, production, and bonus rules demonstrating a specific
  payroll behavior.

AVAILABLE SCENARIOS:
  rate-change:    Production spanning a mid-month piece-rate change
  overlap:        Overlapping rate intervals (latest effective wins)
  quantity-bonus: Percent bonus over a quantity threshold
  section-bonus:  Fixed bonus scoped to one section

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create organization + catalog through the store
 3. Log production entries
 4. Create bonus rules where the scenario uses them

NOTE:
  Scenarios reset the database. The router only exposes them when demo
  mode is enabled.

SEE ALSO:
  - server.go: demo-mode routing
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tenant"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "rate-change",
		Name:        "Mid-Month Rate Change",
		Description: "Production on both sides of a piece-rate change; each entry priced by the rate on its date",
	},
	{
		ID:          "overlap",
		Name:        "Overlapping Rate Intervals",
		Description: "Two intervals cover the same dates; the one with the later effective date wins",
	},
	{
		ID:          "quantity-bonus",
		Name:        "Quantity Bonus",
		Description: "10% wage bonus when monthly output strictly exceeds 150 pieces",
	},
	{
		ID:          "section-bonus",
		Name:        "Section-Scoped Bonus",
		Description: "Fixed bonus counting only the sewing section's production",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "rate-change":
		err = h.loadRateChangeScenario(r.Context(), false)
	case "overlap":
		err = h.loadRateChangeScenario(r.Context(), true)
	case "quantity-bonus":
		err = h.loadBonusScenario(r.Context(), false)
	case "section-bonus":
		err = h.loadBonusScenario(r.Context(), true)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// demoSeed is the common factory every scenario starts from.
type demoSeed struct {
	org     tenant.Organization
	sewing  sqlite.Section
	cutting sqlite.Section
	rina    payroll.Worker
	karim   payroll.Worker
	polo    sqlite.Style
}

func (h *Handler) seedDemoFactory(ctx context.Context) (*demoSeed, error) {
	org, err := h.Store.CreateOrganization(ctx, tenant.Organization{
		Name:        "Demo Garments Ltd",
		Description: "Demo data - safe to delete",
		CreatedBy:   "demo",
		City:        "Dhaka",
		Country:     "Bangladesh",
	})
	if err != nil {
		return nil, err
	}

	seed := &demoSeed{org: org}

	if seed.sewing, err = h.Store.CreateSection(ctx, sqlite.Section{OrganizationID: org.ID, Name: "Sewing"}); err != nil {
		return nil, err
	}
	if seed.cutting, err = h.Store.CreateSection(ctx, sqlite.Section{OrganizationID: org.ID, Name: "Cutting"}); err != nil {
		return nil, err
	}
	if seed.rina, err = h.Store.CreateWorker(ctx, payroll.Worker{
		OrganizationID: org.ID, SectionID: seed.sewing.ID, Name: "Rina Akter", ManualID: "W-001",
	}); err != nil {
		return nil, err
	}
	if seed.karim, err = h.Store.CreateWorker(ctx, payroll.Worker{
		OrganizationID: org.ID, SectionID: seed.cutting.ID, Name: "Karim Uddin", ManualID: "W-002",
	}); err != nil {
		return nil, err
	}
	if seed.polo, err = h.Store.CreateStyle(ctx, sqlite.Style{
		OrganizationID: org.ID, Name: "Polo Shirt", Description: "Short sleeve pique polo",
	}); err != nil {
		return nil, err
	}
	return seed, nil
}

func (h *Handler) logProduction(ctx context.Context, seed *demoSeed, worker payroll.WorkerID, qty int64, date string) error {
	_, err := h.Store.CreateProductionEntry(ctx, payroll.ProductionEntry{
		WorkerID:       worker,
		StyleID:        seed.polo.ID,
		OrganizationID: seed.org.ID,
		Quantity:       qty,
		Date:           payroll.Date(date),
	})
	return err
}

// loadRateChangeScenario seeds production spanning a rate change. With
// overlapping set, the old interval is left open-ended so both cover
// the second half of the month.
func (h *Handler) loadRateChangeScenario(ctx context.Context, overlapping bool) error {
	seed, err := h.seedDemoFactory(ctx)
	if err != nil {
		return err
	}

	first := payroll.StyleRate{
		StyleID:        seed.polo.ID,
		OrganizationID: seed.org.ID,
		Rate:           payroll.MustMoney("2.00"),
		EffectiveDate:  payroll.Date("2024-01-01"),
	}
	if !overlapping {
		end := payroll.Date("2024-01-14")
		first.EndDate = &end
	}
	if _, err := h.Store.CreateStyleRate(ctx, first); err != nil {
		return err
	}
	if _, err := h.Store.CreateStyleRate(ctx, payroll.StyleRate{
		StyleID:        seed.polo.ID,
		OrganizationID: seed.org.ID,
		Rate:           payroll.MustMoney("2.50"),
		EffectiveDate:  payroll.Date("2024-01-15"),
	}); err != nil {
		return err
	}

	for _, p := range []struct {
		qty  int64
		date string
	}{
		{100, "2024-01-05"},
		{50, "2024-01-20"},
	} {
		if err := h.logProduction(ctx, seed, seed.rina.ID, p.qty, p.date); err != nil {
			return err
		}
	}
	return nil
}

// loadBonusScenario seeds a month of production plus a bonus rule:
// percent-over-quantity by default, fixed and section-scoped when
// sectionScoped is set.
func (h *Handler) loadBonusScenario(ctx context.Context, sectionScoped bool) error {
	seed, err := h.seedDemoFactory(ctx)
	if err != nil {
		return err
	}

	if _, err := h.Store.CreateStyleRate(ctx, payroll.StyleRate{
		StyleID:        seed.polo.ID,
		OrganizationID: seed.org.ID,
		Rate:           payroll.MustMoney("2.00"),
		EffectiveDate:  payroll.Date("2024-01-01"),
	}); err != nil {
		return err
	}

	for _, p := range []struct {
		worker payroll.WorkerID
		qty    int64
		date   string
	}{
		{seed.rina.ID, 100, "2024-01-05"},
		{seed.rina.ID, 80, "2024-01-12"},
		{seed.karim.ID, 120, "2024-01-12"},
	} {
		if err := h.logProduction(ctx, seed, p.worker, p.qty, p.date); err != nil {
			return err
		}
	}

	rule := payroll.BonusRule{
		OrganizationID: seed.org.ID,
		Name:           "January volume push",
		Criteria:       payroll.CriteriaQuantity,
		Threshold:      payroll.MustMoney("150"),
		Bonus:          payroll.BonusPercent,
		BonusValue:     payroll.MustMoney("10"),
		ApplyOn:        payroll.ApplyOnWage,
		Active:         true,
	}
	if sectionScoped {
		rule.Name = "Sewing section push"
		rule.Bonus = payroll.BonusFixed
		rule.BonusValue = payroll.MustMoney("25")
		rule.SectionID = &seed.sewing.ID
	}
	_, err = h.Store.CreateBonusRule(ctx, rule)
	return err
}
