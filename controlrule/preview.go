package controlrule

import (
	"github.com/ganad831/fieldrules/formula"
)

// Preview validates a candidate rule and, when allowed, executes its
// formula against the supplied field values and coerces the outcome to
// boolean. BLOCKED and CLEARED rules return immediately without
// executing anything. An execution failure keeps the ALLOWED status and
// reports the error alongside, with no outcome.
//
// Preview is strictly in-memory: it persists nothing and mutates
// neither the snapshot nor the values.
func Preview(ruleType RuleType, targetFieldID, formulaText string, fields []formula.Field, values map[string]any) (PreviewResult, error) {
	validated, err := Validate(ruleType, targetFieldID, formulaText, fields, nil)
	if err != nil {
		return PreviewResult{}, err
	}

	switch validated.Status {
	case StatusCleared:
		return PreviewResult{Status: StatusCleared}, nil
	case StatusBlocked:
		return PreviewResult{Status: StatusBlocked, BlockReason: validated.BlockReason}, nil
	}

	out, execErr := formula.Run(formulaText, values, nil)
	if execErr != nil {
		return PreviewResult{Status: StatusAllowed, ExecutionError: execErr.Error()}, nil
	}

	outcome := formula.Truthy(out)
	return PreviewResult{Status: StatusAllowed, Outcome: &outcome}, nil
}
