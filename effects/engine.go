package effects

import (
	"fmt"
	"sort"

	"github.com/ganad831/fieldrules/formula"
)

// EvaluateRules evaluates every enabled rule's condition against the
// field values (plus optional extra functions) and returns the effects
// of the rules that fired, ordered by descending priority with input
// order as the tiebreak. Disabled rules are skipped silently. A rule
// whose condition fails to parse, references a missing field, or
// produces a non-boolean result contributes one tagged error and no
// effect; evaluation continues past it.
func EvaluateRules(rules []Rule, values map[string]any, functions map[string]formula.EvalFunc) EvaluationResult {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	result := EvaluationResult{
		Effects: []Effect{},
		Errors:  []string{},
	}

	for _, rule := range ordered {
		if !rule.Enabled {
			continue
		}

		out, err := formula.Run(rule.Condition, values, functions)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("rule %q: %v", ruleLabel(rule), err))
			continue
		}

		fired, ok := out.(bool)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("rule %q: condition did not evaluate to a boolean", ruleLabel(rule)))
			continue
		}

		if fired {
			result.Effects = append(result.Effects, rule.Effect)
		}
	}

	return result
}

// EvaluateRule evaluates a single rule's condition and returns whether
// it fired. A disabled rule returns false without evaluating the
// condition.
func EvaluateRule(rule Rule, values map[string]any, functions map[string]formula.EvalFunc) (bool, error) {
	if !rule.Enabled {
		return false, nil
	}

	out, err := formula.Run(rule.Condition, values, functions)
	if err != nil {
		return false, err
	}

	fired, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to a boolean")
	}
	return fired, nil
}

// ResolveConflicts keeps only the first effect per target field. Given
// priority-ordered input this implements "highest-priority effect wins
// per field". Idempotent.
func ResolveConflicts(list []Effect) []Effect {
	seen := make(map[string]bool, len(list))
	resolved := make([]Effect, 0, len(list))
	for _, effect := range list {
		if seen[effect.TargetFieldID] {
			continue
		}
		seen[effect.TargetFieldID] = true
		resolved = append(resolved, effect)
	}
	return resolved
}

func ruleLabel(rule Rule) string {
	if rule.NameKey != "" {
		return rule.NameKey
	}
	return rule.ID
}
