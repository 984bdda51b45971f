// Package controlrule is the design-time policy layer for control
// rules: boolean-only formulas attached to a field that govern its
// visibility, enabled, or required state. It classifies candidate
// formulas as ALLOWED, BLOCKED, or CLEARED before the command layer
// persists anything, and previews rule outcomes strictly in memory.
package controlrule

import (
	"fmt"

	"github.com/ganad831/fieldrules/formula"
	"github.com/ganad831/fieldrules/governance"
)

// RuleType identifies which control state a rule governs.
type RuleType string

const (
	RuleVisibility RuleType = "VISIBILITY"
	RuleEnabled    RuleType = "ENABLED"
	RuleRequired   RuleType = "REQUIRED"
)

// ParseRuleType rejects open strings at the boundary; anything outside
// the closed set is a caller bug, not formula data.
func ParseRuleType(s string) (RuleType, error) {
	switch RuleType(s) {
	case RuleVisibility, RuleEnabled, RuleRequired:
		return RuleType(s), nil
	}
	return "", fmt.Errorf("invalid rule type %q (must be VISIBILITY, ENABLED or REQUIRED)", s)
}

// Status classifies a validated control rule.
type Status string

const (
	StatusAllowed Status = "ALLOWED"
	StatusBlocked Status = "BLOCKED"
	StatusCleared Status = "CLEARED"
)

// Rule is the design-time control rule DTO. Identity is
// (TargetFieldID, RuleType); the command layer enforces uniqueness,
// not this package.
type Rule struct {
	RuleType      RuleType `json:"ruleType"`
	TargetFieldID string   `json:"targetFieldId"`
	FormulaText   string   `json:"formulaText"`
}

// Diagnostics carries the intermediate engine results that produced a
// classification. They are returned for display and never stored.
type Diagnostics struct {
	Validation formula.ValidationResult `json:"validation"`
	References []string                 `json:"references"`
	Cycle      *governance.CycleResult  `json:"cycle,omitempty"`
	Governance governance.Result        `json:"governance"`
}

// Result is the outcome of validating one control rule.
type Result struct {
	Status      Status       `json:"status"`
	Rule        *Rule        `json:"rule,omitempty"`
	BlockReason string       `json:"blockReason,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// PreviewResult is the outcome of previewing a control rule against
// concrete field values.
type PreviewResult struct {
	Status         Status `json:"status"`
	BlockReason    string `json:"blockReason,omitempty"`
	ExecutionError string `json:"executionError,omitempty"`
	Outcome        *bool  `json:"outcome,omitempty"`
}
