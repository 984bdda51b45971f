// Package effects is the run-time rule engine: it evaluates enabled
// rules' boolean conditions against concrete field values, orders the
// resulting control effects by priority, and resolves conflicts so at
// most one effect applies per target field. The document/runtime layer
// applies the returned effects; this package never writes to project
// state.
package effects

import (
	"github.com/google/uuid"
)

// ControlType identifies the kind of side-effect a rule produces.
type ControlType string

const (
	ControlValueSet   ControlType = "VALUE_SET"
	ControlVisibility ControlType = "VISIBILITY"
	ControlEnable     ControlType = "ENABLE"
	ControlRequire    ControlType = "REQUIRE"
	ControlClearValue ControlType = "CLEAR_VALUE"
)

// Effect is a concrete, typed instruction targeting one field.
type Effect struct {
	ControlType   ControlType `json:"controlType"`
	TargetFieldID string      `json:"targetFieldId"`
	Value         any         `json:"value,omitempty"`
}

// Rule is a run-time control rule. Its condition is a formula in the
// same expression language as design-time control rules; when the
// condition evaluates true, the rule contributes its effect.
type Rule struct {
	ID        string `json:"id"`
	NameKey   string `json:"nameKey"`
	Condition string `json:"condition"`
	Effect    Effect `json:"effect"`
	Enabled   bool   `json:"enabled"`
	Priority  int    `json:"priority"`
}

// NewRule builds an enabled rule with a generated id.
func NewRule(nameKey, condition string, effect Effect, priority int) Rule {
	return Rule{
		ID:        uuid.New().String(),
		NameKey:   nameKey,
		Condition: condition,
		Effect:    effect,
		Enabled:   true,
		Priority:  priority,
	}
}

// EvaluationResult collects the effects of all firing rules, in
// priority order, alongside per-rule error strings. It is fresh per
// call and never retained.
type EvaluationResult struct {
	Effects []Effect `json:"effects"`
	Errors  []string `json:"errors"`
}
