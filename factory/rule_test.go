package factory_test

import (
	"strings"
	"testing"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

func validRule() factory.RuleJSON {
	return factory.RuleJSON{
		Name:         "January volume push",
		CriteriaType: "quantity",
		Threshold:    "1000",
		BonusType:    "percent",
		BonusValue:   "10",
		ApplyOn:      "wage",
		Active:       true,
	}
}

func TestBuild_ValidRule(t *testing.T) {
	f := factory.NewRuleFactory()

	raw := validRule()
	raw.StyleID = "style-a"
	raw.EffectiveDate = "2024-01-01"
	raw.EndDate = "2024-01-31"

	rule, err := f.Build(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rule.Criteria != payroll.CriteriaQuantity {
		t.Errorf("criteria = %s", rule.Criteria)
	}
	if !rule.Threshold.Equal(payroll.MustMoney("1000")) {
		t.Errorf("threshold = %s", rule.Threshold)
	}
	if rule.StyleID == nil || *rule.StyleID != "style-a" {
		t.Error("style scope not carried over")
	}
	if rule.SectionID != nil {
		t.Error("absent section scope must stay nil")
	}
	if rule.EffectiveDate == nil || rule.EffectiveDate.String() != "2024-01-01" {
		t.Error("effective date not carried over")
	}
}

func TestBuild_RejectsInvalidDimensions(t *testing.T) {
	f := factory.NewRuleFactory()

	cases := []struct {
		mutate  func(*factory.RuleJSON)
		wantMsg string
	}{
		{func(r *factory.RuleJSON) { r.CriteriaType = "volume" }, "criteria_type"},
		{func(r *factory.RuleJSON) { r.BonusType = "multiplier" }, "bonus_type"},
		{func(r *factory.RuleJSON) { r.ApplyOn = "hours" }, "apply_on"},
		{func(r *factory.RuleJSON) { r.Threshold = "lots" }, "threshold"},
		{func(r *factory.RuleJSON) { r.Threshold = "-5" }, "threshold"},
		{func(r *factory.RuleJSON) { r.BonusValue = "-1" }, "bonus_value"},
		{func(r *factory.RuleJSON) { r.Name = "" }, "name"},
		{func(r *factory.RuleJSON) { r.EffectiveDate = "01/01/2024" }, "effective_date"},
		{func(r *factory.RuleJSON) { r.EffectiveDate = "2024-02-01"; r.EndDate = "2024-01-01" }, "precedes"},
	}

	for _, tc := range cases {
		raw := validRule()
		tc.mutate(&raw)
		_, err := f.Build(raw)
		if err == nil {
			t.Errorf("expected error mentioning %q, got nil", tc.wantMsg)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("expected error mentioning %q, got %q", tc.wantMsg, err)
		}
	}
}

func TestParseRule_JSONRoundTrip(t *testing.T) {
	f := factory.NewRuleFactory()

	rule, err := f.ParseRule([]byte(`{
		"name": "Sewing section bonus",
		"criteria_type": "wage",
		"threshold": "500.50",
		"bonus_type": "fixed",
		"bonus_value": "75",
		"apply_on": "wage",
		"section_id": "sec-1",
		"active": true
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := f.ToJSON(*rule)
	if raw.CriteriaType != "wage" || raw.Threshold != "500.5" || raw.SectionID != "sec-1" {
		t.Errorf("round trip lost fields: %+v", raw)
	}

	if _, err := f.ParseRule([]byte(`not json`)); err == nil {
		t.Error("malformed JSON must be rejected")
	}
}
