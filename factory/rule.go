/*
Package factory converts external bonus-rule definitions into validated
domain rules.

PURPOSE:
  Bonus rules arrive from the admin UI as JSON with string-typed
  dimensions ("quantity", "percent", "wage", ...). The factory is the one
  place those strings are checked and narrowed into the engine's closed
  enum types, so an invalid combination can never reach the evaluator.

WHY A FACTORY?
  - Admins define rules without code changes
  - The API layer stays free of enum-validation logic
  - Invalid dimensions are rejected with a message naming the allowed
    values, at the boundary, not deep inside a payroll run

JSON SCHEMA:
  {
    "name": "January volume push",
    "criteria_type": "quantity",        // quantity | wage
    "threshold": "1000",
    "bonus_type": "percent",            // percent | fixed
    "bonus_value": "10",
    "apply_on": "wage",                 // wage | quantity
    "style_id": "…",                    // optional scope
    "section_id": "…",                  // optional scope
    "active": true,
    "effective_date": "2024-01-01",     // optional
    "end_date": "2024-01-31"            // optional
  }

  Threshold and bonus_value are decimal strings - never floats - to keep
  currency-scale values exact end to end.

SEE ALSO:
  - payroll/types.go: the closed enum types this narrows into
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the external representation of a bonus rule.
type RuleJSON struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CriteriaType  string `json:"criteria_type"`
	Threshold     string `json:"threshold"`
	BonusType     string `json:"bonus_type"`
	BonusValue    string `json:"bonus_value"`
	ApplyOn       string `json:"apply_on"`
	StyleID       string `json:"style_id,omitempty"`
	SectionID     string `json:"section_id,omitempty"`
	Active        bool   `json:"active"`
	EffectiveDate string `json:"effective_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRule converts a JSON definition into a validated BonusRule.
// Identity fields (ID, OrganizationID, timestamps) are left for the
// caller; the factory owns shape and dimension validation only.
func (f *RuleFactory) ParseRule(data []byte) (*payroll.BonusRule, error) {
	var raw RuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rule JSON: %w", err)
	}
	return f.Build(raw)
}

// Build validates an already-decoded definition.
func (f *RuleFactory) Build(raw RuleJSON) (*payroll.BonusRule, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}

	criteria := payroll.CriteriaType(raw.CriteriaType)
	if !criteria.Valid() {
		return nil, fmt.Errorf("invalid criteria_type %q (allowed: quantity, wage)", raw.CriteriaType)
	}
	bonusType := payroll.BonusType(raw.BonusType)
	if !bonusType.Valid() {
		return nil, fmt.Errorf("invalid bonus_type %q (allowed: percent, fixed)", raw.BonusType)
	}
	applyOn := payroll.ApplyOn(raw.ApplyOn)
	if !applyOn.Valid() {
		return nil, fmt.Errorf("invalid apply_on %q (allowed: wage, quantity)", raw.ApplyOn)
	}

	threshold, err := decimal.NewFromString(raw.Threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold %q: %w", raw.Threshold, err)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("threshold must be non-negative, got %s", threshold)
	}
	bonusValue, err := decimal.NewFromString(raw.BonusValue)
	if err != nil {
		return nil, fmt.Errorf("invalid bonus_value %q: %w", raw.BonusValue, err)
	}
	if bonusValue.IsNegative() {
		return nil, fmt.Errorf("bonus_value must be non-negative, got %s", bonusValue)
	}

	rule := &payroll.BonusRule{
		Name:        raw.Name,
		Description: raw.Description,
		Criteria:    criteria,
		Threshold:   threshold,
		Bonus:       bonusType,
		BonusValue:  bonusValue,
		ApplyOn:     applyOn,
		Active:      raw.Active,
	}

	if raw.StyleID != "" {
		id := payroll.StyleID(raw.StyleID)
		rule.StyleID = &id
	}
	if raw.SectionID != "" {
		id := payroll.SectionID(raw.SectionID)
		rule.SectionID = &id
	}
	if raw.EffectiveDate != "" {
		eff, err := payroll.ParseDate(raw.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("effective_date: %w", err)
		}
		rule.EffectiveDate = &eff
	}
	if raw.EndDate != "" {
		end, err := payroll.ParseDate(raw.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		rule.EndDate = &end
	}
	if rule.EffectiveDate != nil && rule.EndDate != nil && rule.EndDate.Before(*rule.EffectiveDate) {
		return nil, fmt.Errorf("end_date %s precedes effective_date %s", *rule.EndDate, *rule.EffectiveDate)
	}

	return rule, nil
}

// ToJSON converts a domain rule back to its external representation.
func (f *RuleFactory) ToJSON(rule payroll.BonusRule) RuleJSON {
	raw := RuleJSON{
		Name:         rule.Name,
		Description:  rule.Description,
		CriteriaType: string(rule.Criteria),
		Threshold:    rule.Threshold.String(),
		BonusType:    string(rule.Bonus),
		BonusValue:   rule.BonusValue.String(),
		ApplyOn:      string(rule.ApplyOn),
		Active:       rule.Active,
	}
	if rule.StyleID != nil {
		raw.StyleID = string(*rule.StyleID)
	}
	if rule.SectionID != nil {
		raw.SectionID = string(*rule.SectionID)
	}
	if rule.EffectiveDate != nil {
		raw.EffectiveDate = rule.EffectiveDate.String()
	}
	if rule.EndDate != nil {
		raw.EndDate = rule.EndDate.String()
	}
	return raw
}
