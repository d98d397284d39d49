/*
handlers_test.go - HTTP API tests

Tests drive the full router over httptest with an in-memory sqlite
store and dev-mode auth (no JWT secret; identity from X-User-Id).

Covered:
- End-to-end payroll: org -> section -> worker -> style -> rates ->
  production -> compute, including a mid-period rate change and a
  skipped unpriced entry
- Bonus rule creation through the rule factory and application
- Duplicate manual id conflict (409)
- Current-rate lookup
- Invite-code join flow
- Section/style summary report
- Export content type
- Demo scenarios
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, zap.NewNop())
	return NewRouter(h, RouterConfig{
		AllowedOrigins: []string{"*"},
		EnableDemo:     true,
	})
}

// doJSON performs a request as the given dev user and returns the
// recorded response.
func doJSON(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

// testFactory holds the ids of a seeded org with one section, one
// worker, one style, and two rate intervals (2.00 from Jan 1, 2.50
// from Jan 15).
type testFactory struct {
	orgID     string
	sectionID string
	workerID  string
	styleID   string
}

func seedFactoryViaAPI(t *testing.T, router http.Handler, user string) testFactory {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/sync", user,
		SyncUserRequest{Name: "Admin", Email: user + "@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/organizations", user,
		CreateOrganizationRequest{Name: "Acme Garments", City: "Dhaka", Country: "Bangladesh"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	org := decodeAs[OrganizationDTO](t, rec)
	require.NotEmpty(t, org.InviteCode)

	rec = doJSON(t, router, http.MethodPost, "/api/organizations/"+org.ID+"/sections", user,
		SectionRequest{Name: "Sewing"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	section := decodeAs[SectionDTO](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/organizations/"+org.ID+"/workers", user,
		WorkerRequest{Name: "Rina Akter", SectionID: section.ID, ManualID: "W-001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	worker := decodeAs[WorkerDTO](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/organizations/"+org.ID+"/styles", user,
		StyleRequest{Name: "Polo Shirt"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	style := decodeAs[StyleDTO](t, rec)

	for _, rate := range []RateRequest{
		{Rate: "2.00", EffectiveDate: "2024-01-01"},
		{Rate: "2.50", EffectiveDate: "2024-01-15"},
	} {
		rec = doJSON(t, router, http.MethodPost, "/api/styles/"+style.ID+"/rates", user, rate)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	return testFactory{
		orgID:     org.ID,
		sectionID: section.ID,
		workerID:  worker.ID,
		styleID:   style.ID,
	}
}

func logProductionViaAPI(t *testing.T, router http.Handler, user string, f testFactory, qty int64, date string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/production", user,
		ProductionRequest{WorkerID: f.workerID, StyleID: f.styleID, Quantity: qty, Date: date})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// TESTS
// =============================================================================

func TestHealth_OpenWithoutAuth(t *testing.T) {
	router := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPayroll_EndToEnd(t *testing.T) {
	// GIVEN: A seeded factory with a rate change on Jan 15, production
	// on both sides of it, and one entry before any rate existed
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-1")

	logProductionViaAPI(t, router, "admin-1", f, 100, "2024-01-05")
	logProductionViaAPI(t, router, "admin-1", f, 50, "2024-01-20")
	logProductionViaAPI(t, router, "admin-1", f, 30, "2023-12-20")

	// WHEN: Computing payroll for December 2023 through January 2024
	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/payroll", "admin-1",
		ComputePayrollRequest{WorkerID: f.workerID, Start: "2023-12-01", End: "2024-01-31"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeAs[PayrollResultDTO](t, rec)

	// THEN: Each entry is priced by the rate on its date; the unpriced
	// December entry is excluded and counted
	require.Equal(t, "325", result.TotalPay)
	require.Equal(t, "325", result.TotalWithBonus)
	require.Equal(t, 1, result.SkippedEntries)
	require.Len(t, result.Details, 2)

	require.Equal(t, "2024-01-05", result.Details[0].Date)
	require.Equal(t, "2", result.Details[0].Rate)
	require.Equal(t, "200", result.Details[0].Pay)
	require.Equal(t, "2024-01-20", result.Details[1].Date)
	require.Equal(t, "2.5", result.Details[1].Rate)
	require.Equal(t, "125", result.Details[1].Pay)
	require.Equal(t, "Polo Shirt", result.Details[0].StyleName)
}

func TestPayroll_WithQuantityBonus(t *testing.T) {
	// GIVEN: 150 pieces in January and a 10% wage bonus over 120 pieces
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-2")
	logProductionViaAPI(t, router, "admin-2", f, 150, "2024-01-05")

	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/bonus-rules", "admin-2",
		map[string]any{"rule": map[string]any{
			"name":          "January volume push",
			"criteria_type": "quantity",
			"threshold":     "120",
			"bonus_type":    "percent",
			"bonus_value":   "10",
			"apply_on":      "wage",
			"active":        true,
		}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decodeAs[RuleDTO](t, rec)
	require.NotEmpty(t, rule.ID)
	require.Equal(t, "quantity", rule.Rule.CriteriaType)

	// WHEN: Computing payroll with the rule applied
	rec = doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/payroll", "admin-2",
		ComputePayrollRequest{WorkerID: f.workerID, Start: "2024-01-01", End: "2024-01-31", RuleID: &rule.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeAs[PayrollResultDTO](t, rec)

	// THEN: 150 x 2.00 = 300 wage, plus 10% = 330
	require.Equal(t, "300", result.TotalPay)
	require.NotNil(t, result.Bonus)
	require.True(t, result.Bonus.Applied)
	require.Equal(t, "150", result.Bonus.CriteriaValue)
	require.Equal(t, "30", result.Bonus.BonusAmount)
	require.Equal(t, "330", result.TotalWithBonus)
}

func TestPayroll_UnknownRuleFailsComputation(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-3")
	logProductionViaAPI(t, router, "admin-3", f, 10, "2024-01-05")

	missing := "no-such-rule"
	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/payroll", "admin-3",
		ComputePayrollRequest{WorkerID: f.workerID, Start: "2024-01-01", End: "2024-01-31", RuleID: &missing})

	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestCreateWorker_DuplicateManualIDConflict(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-4")

	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/workers", "admin-4",
		WorkerRequest{Name: "Someone Else", SectionID: f.sectionID, ManualID: "W-001"})

	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestCurrentRate(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-5")

	rec := doJSON(t, router, http.MethodGet,
		"/api/styles/"+f.styleID+"/current-rate?on=2024-01-10", "admin-5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	current := decodeAs[CurrentRateDTO](t, rec)
	require.True(t, current.Found)
	require.Equal(t, "2", current.Rate)

	// Before any interval: found=false, not a zero rate
	rec = doJSON(t, router, http.MethodGet,
		"/api/styles/"+f.styleID+"/current-rate?on=2023-06-01", "admin-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current = decodeAs[CurrentRateDTO](t, rec)
	require.False(t, current.Found)
	require.Empty(t, current.Rate)
}

func TestJoinOrganization_InviteCode(t *testing.T) {
	// GIVEN: An organization and a second synced user
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-6")

	rec := doJSON(t, router, http.MethodGet, "/api/organizations/"+f.orgID, "admin-6", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	org := decodeAs[OrganizationDTO](t, rec)
	require.NotEmpty(t, org.InviteCode)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/sync", "joiner-6",
		SyncUserRequest{Name: "New Supervisor", Email: "joiner-6@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: Joining with a bogus code, then the real one
	rec = doJSON(t, router, http.MethodPost, "/api/organizations/join", "joiner-6",
		JoinOrganizationRequest{InviteCode: "NOPE99"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/organizations/join", "joiner-6",
		JoinOrganizationRequest{InviteCode: org.InviteCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := decodeAs[OrganizationDTO](t, rec)
	require.Equal(t, f.orgID, joined.ID)
	require.Empty(t, joined.InviteCode, "join response must not leak the code")

	// THEN: The joiner is a pending member until an admin assigns a role
	rec = doJSON(t, router, http.MethodGet, "/api/me", "joiner-6", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeAs[UserDTO](t, rec)
	require.Equal(t, f.orgID, me.OrganizationID)
	require.Equal(t, "pending", me.Role)
}

func TestListProduction_WorkerRange(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-9")
	logProductionViaAPI(t, router, "admin-9", f, 100, "2024-01-05")
	logProductionViaAPI(t, router, "admin-9", f, 50, "2024-01-20")
	logProductionViaAPI(t, router, "admin-9", f, 70, "2024-02-03")

	path := fmt.Sprintf("/api/organizations/%s/production?worker_id=%s&start=2024-01-01&end=2024-01-31",
		f.orgID, f.workerID)
	rec := doJSON(t, router, http.MethodGet, path, "admin-9", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := decodeAs[[]ProductionEntryDTO](t, rec)

	require.Len(t, entries, 2, "February entry is outside the range")
	require.Equal(t, "Rina Akter", entries[0].WorkerName)
	require.Equal(t, "Polo Shirt", entries[0].StyleName)
	require.Equal(t, "2024-01-05", entries[0].Date)
}

func TestListBonusRules_AsOfWindow(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-10")

	for _, rule := range []map[string]any{
		{
			"name": "January only", "criteria_type": "quantity", "threshold": "100",
			"bonus_type": "fixed", "bonus_value": "25", "apply_on": "wage", "active": true,
			"effective_date": "2024-01-01", "end_date": "2024-01-31",
		},
		{
			"name": "Open ended", "criteria_type": "quantity", "threshold": "100",
			"bonus_type": "fixed", "bonus_value": "25", "apply_on": "wage", "active": true,
		},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/bonus-rules", "admin-10",
			map[string]any{"rule": rule})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet,
		"/api/organizations/"+f.orgID+"/bonus-rules?as_of=2024-02-10", "admin-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rules := decodeAs[[]RuleDTO](t, rec)
	require.Len(t, rules, 1)
	require.Equal(t, "Open ended", rules[0].Rule.Name)

	rec = doJSON(t, router, http.MethodGet,
		"/api/organizations/"+f.orgID+"/bonus-rules?as_of=2024-01-15", "admin-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rules = decodeAs[[]RuleDTO](t, rec)
	require.Len(t, rules, 2)
}

func TestSectionStyleSummary(t *testing.T) {
	// GIVEN: Production across the Jan 15 rate change
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-7")
	logProductionViaAPI(t, router, "admin-7", f, 100, "2024-01-05")
	logProductionViaAPI(t, router, "admin-7", f, 50, "2024-01-20")

	// WHEN: Asking for the section/style report over January
	path := fmt.Sprintf("/api/organizations/%s/sections/%s/summary?style_id=%s&start=2024-01-01&end=2024-01-31",
		f.orgID, f.sectionID, f.styleID)
	rec := doJSON(t, router, http.MethodGet, path, "admin-7", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeAs[SectionStyleSummaryDTO](t, rec)

	// THEN: Quantities sum and pay matches what payroll would compute
	require.Equal(t, "150", summary.TotalQuantity)
	require.Equal(t, "325", summary.TotalPay)
	require.Equal(t, 2, summary.EntryCount)
	require.Zero(t, summary.SkippedEntries)
}

func TestExportPayroll_ReturnsSpreadsheet(t *testing.T) {
	router := newTestAPI(t)
	f := seedFactoryViaAPI(t, router, "admin-8")
	logProductionViaAPI(t, router, "admin-8", f, 100, "2024-01-05")

	rec := doJSON(t, router, http.MethodPost, "/api/organizations/"+f.orgID+"/payroll/export", "admin-8",
		ComputePayrollRequest{WorkerID: f.workerID, Start: "2024-01-01", End: "2024-01-31"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	require.NotZero(t, rec.Body.Len())
}

func TestScenarios_LoadAndReset(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/scenarios", "dev-user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeAs[[]ScenarioDTO](t, rec)
	require.Len(t, list, 4)

	rec = doJSON(t, router, http.MethodPost, "/api/scenarios/load", "dev-user",
		map[string]string{"scenario_id": "rate-change"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", "dev-user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decodeAs[ScenarioDTO](t, rec)
	require.Equal(t, "rate-change", current.ID)

	rec = doJSON(t, router, http.MethodPost, "/api/scenarios/load", "dev-user",
		map[string]string{"scenario_id": "does-not-exist"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/scenarios/reset", "dev-user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
