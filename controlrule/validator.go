package controlrule

import (
	"fmt"
	"strings"

	"github.com/ganad831/fieldrules/formula"
	"github.com/ganad831/fieldrules/governance"
)

// Validate classifies a candidate control rule. An empty formula is
// CLEARED (the rule is being removed). Otherwise the formula runs
// through validation, reference extraction, optional cycle detection,
// and governance; a governance INVALID verdict or a non-boolean
// inferred type blocks the rule, anything else allows it with the
// reconstructed rule and full diagnostics attached.
//
// deps is the schema-wide field -> dependencies map. When nil, cycle
// checking is skipped for this call. When supplied, the candidate's own
// references are entered under targetFieldID before searching, so the
// map describes the schema as it would look with this rule applied.
//
// The returned error reports caller bugs only (bad rule type, missing
// target field id); formula problems always land in the Result.
func Validate(ruleType RuleType, targetFieldID, formulaText string, fields []formula.Field, deps map[string][]string) (Result, error) {
	if _, err := ParseRuleType(string(ruleType)); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(targetFieldID) == "" {
		return Result{}, fmt.Errorf("target field id is required")
	}

	if strings.TrimSpace(formulaText) == "" {
		return Result{Status: StatusCleared}, nil
	}

	validation := formula.Validate(formulaText, fields)

	var cycle *governance.CycleResult
	if deps != nil {
		merged := make(map[string][]string, len(deps)+1)
		for id, d := range deps {
			merged[id] = d
		}
		merged[targetFieldID] = validation.FieldReferences
		detected := governance.DetectCycle(merged)
		cycle = &detected
	}

	verdict := governance.Evaluate(formulaText, validation, cycle)

	diagnostics := &Diagnostics{
		Validation: validation,
		References: validation.FieldReferences,
		Cycle:      cycle,
		Governance: verdict,
	}

	if verdict.Status == governance.StatusInvalid {
		return Result{
			Status:      StatusBlocked,
			BlockReason: "Formula has errors: " + strings.Join(verdict.BlockingReasons, "; "),
			Diagnostics: diagnostics,
		}, nil
	}

	if validation.InferredType != formula.TypeBoolean {
		return Result{
			Status:      StatusBlocked,
			BlockReason: fmt.Sprintf("Control rule formula must evaluate to a boolean, got %s", validation.InferredType),
			Diagnostics: diagnostics,
		}, nil
	}

	return Result{
		Status: StatusAllowed,
		Rule: &Rule{
			RuleType:      ruleType,
			TargetFieldID: targetFieldID,
			FormulaText:   formulaText,
		},
		Diagnostics: diagnostics,
	}, nil
}

// CanApply performs the same classification as Validate but skips cycle
// checking and does not build a rule object. It answers "would this
// formula be accepted?" cheaply.
func CanApply(ruleType RuleType, formulaText string, fields []formula.Field) (Status, string, error) {
	if _, err := ParseRuleType(string(ruleType)); err != nil {
		return "", "", err
	}

	if strings.TrimSpace(formulaText) == "" {
		return StatusCleared, "", nil
	}

	validation := formula.Validate(formulaText, fields)
	verdict := governance.Evaluate(formulaText, validation, nil)

	if verdict.Status == governance.StatusInvalid {
		return StatusBlocked, "Formula has errors: " + strings.Join(verdict.BlockingReasons, "; "), nil
	}
	if validation.InferredType != formula.TypeBoolean {
		return StatusBlocked, fmt.Sprintf("Control rule formula must evaluate to a boolean, got %s", validation.InferredType), nil
	}
	return StatusAllowed, "", nil
}
