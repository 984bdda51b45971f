package effects

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ganad831/fieldrules/formula"
)

func TestNewRule_Defaults(t *testing.T) {
	rule := NewRule("show-discount", "price > 100", Effect{
		ControlType:   ControlVisibility,
		TargetFieldID: "discount",
	}, 5)

	if rule.ID == "" {
		t.Error("Expected a generated id")
	}
	if !rule.Enabled {
		t.Error("Expected new rules to be enabled")
	}
	if rule.Priority != 5 {
		t.Errorf("Expected priority 5, got %d", rule.Priority)
	}

	other := NewRule("show-discount", "price > 100", rule.Effect, 5)
	if other.ID == rule.ID {
		t.Error("Expected distinct ids per rule")
	}
}

func TestEvaluateRules_FiringAndOrdering(t *testing.T) {
	values := map[string]any{"price": 150.0, "stock": 0.0}
	rules := []Rule{
		NewRule("low", "price > 100", Effect{ControlType: ControlVisibility, TargetFieldID: "discount"}, 1),
		NewRule("high", "stock == 0", Effect{ControlType: ControlRequire, TargetFieldID: "restock_date"}, 10),
		NewRule("never", "price < 0", Effect{ControlType: ControlEnable, TargetFieldID: "refund"}, 5),
	}

	result := EvaluateRules(rules, values, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("Unexpected errors: %v", result.Errors)
	}
	if len(result.Effects) != 2 {
		t.Fatalf("Expected 2 effects, got %d", len(result.Effects))
	}
	// Higher priority first.
	if result.Effects[0].TargetFieldID != "restock_date" {
		t.Errorf("Expected the priority-10 effect first, got %+v", result.Effects[0])
	}
	if result.Effects[1].TargetFieldID != "discount" {
		t.Errorf("Expected the priority-1 effect second, got %+v", result.Effects[1])
	}
}

// Rules with equal priority keep their input order.
func TestEvaluateRules_StableTiebreak(t *testing.T) {
	values := map[string]any{"x": 1.0}
	rules := []Rule{
		NewRule("first", "x == 1", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 3),
		NewRule("second", "x == 1", Effect{ControlType: ControlVisibility, TargetFieldID: "b"}, 3),
		NewRule("third", "x == 1", Effect{ControlType: ControlVisibility, TargetFieldID: "c"}, 3),
	}

	result := EvaluateRules(rules, values, nil)
	got := []string{result.Effects[0].TargetFieldID, result.Effects[1].TargetFieldID, result.Effects[2].TargetFieldID}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected input order preserved on ties, got %v", got)
	}
}

func TestEvaluateRules_DisabledRulesSkipped(t *testing.T) {
	rule := NewRule("off", "x == 1", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 1)
	rule.Enabled = false

	result := EvaluateRules([]Rule{rule}, map[string]any{"x": 1.0}, nil)
	if len(result.Effects) != 0 {
		t.Errorf("Expected no effects from a disabled rule, got %v", result.Effects)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors from a disabled rule, got %v", result.Errors)
	}
}

// A failing rule contributes one tagged error and the rest keep
// evaluating.
func TestEvaluateRules_ErrorsAreTaggedAndIsolated(t *testing.T) {
	values := map[string]any{"x": 1.0}
	rules := []Rule{
		NewRule("broken", "missing > 1", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 2),
		NewRule("fine", "x == 1", Effect{ControlType: ControlVisibility, TargetFieldID: "b"}, 1),
	}

	result := EvaluateRules(rules, values, nil)
	if len(result.Effects) != 1 || result.Effects[0].TargetFieldID != "b" {
		t.Fatalf("Expected the healthy rule to fire, got %v", result.Effects)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], `rule "broken"`) {
		t.Errorf("Expected the error tagged with the rule name, got %q", result.Errors[0])
	}
}

// A rule with no name key is tagged by id instead.
func TestEvaluateRules_UnnamedRuleTaggedByID(t *testing.T) {
	rule := NewRule("", "missing > 1", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 1)

	result := EvaluateRules([]Rule{rule}, map[string]any{}, nil)
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], rule.ID) {
		t.Errorf("Expected the error tagged with the rule id, got %q", result.Errors[0])
	}
}

func TestEvaluateRules_NonBooleanConditionIsError(t *testing.T) {
	rule := NewRule("numeric", "1 + 1", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 1)

	result := EvaluateRules([]Rule{rule}, map[string]any{}, nil)
	if len(result.Effects) != 0 {
		t.Errorf("Expected no effects, got %v", result.Effects)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "did not evaluate to a boolean") {
		t.Errorf("Expected non-boolean condition error, got %v", result.Errors)
	}
}

// The caller's rule slice is not reordered by evaluation.
func TestEvaluateRules_DoesNotReorderInput(t *testing.T) {
	rules := []Rule{
		NewRule("low", "x == 1", Effect{TargetFieldID: "a"}, 1),
		NewRule("high", "x == 1", Effect{TargetFieldID: "b"}, 9),
	}
	EvaluateRules(rules, map[string]any{"x": 1.0}, nil)
	if rules[0].NameKey != "low" || rules[1].NameKey != "high" {
		t.Errorf("Input slice was reordered: %v, %v", rules[0].NameKey, rules[1].NameKey)
	}
}

func TestEvaluateRules_ExtraFunctions(t *testing.T) {
	extra := map[string]formula.EvalFunc{
		"flag": func(args []any) (any, error) { return true, nil },
	}
	rule := NewRule("custom", "flag()", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 1)

	result := EvaluateRules([]Rule{rule}, map[string]any{}, extra)
	if len(result.Effects) != 1 {
		t.Fatalf("Expected the extra-function rule to fire, got errors %v", result.Errors)
	}
}

func TestEvaluateRule(t *testing.T) {
	rule := NewRule("check", "price > 100", Effect{ControlType: ControlVisibility, TargetFieldID: "a"}, 1)

	fired, err := EvaluateRule(rule, map[string]any{"price": 150.0}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !fired {
		t.Error("Expected rule to fire")
	}

	fired, err = EvaluateRule(rule, map[string]any{"price": 50.0}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fired {
		t.Error("Expected rule not to fire")
	}

	rule.Enabled = false
	fired, err = EvaluateRule(rule, map[string]any{}, nil)
	if err != nil {
		t.Fatalf("Disabled rule must not evaluate, got error: %v", err)
	}
	if fired {
		t.Error("Expected disabled rule to report false")
	}
}

func TestResolveConflicts_FirstEffectPerFieldWins(t *testing.T) {
	effects := []Effect{
		{ControlType: ControlVisibility, TargetFieldID: "a", Value: "keep"},
		{ControlType: ControlValueSet, TargetFieldID: "b"},
		{ControlType: ControlClearValue, TargetFieldID: "a", Value: "drop"},
	}

	resolved := ResolveConflicts(effects)
	if len(resolved) != 2 {
		t.Fatalf("Expected 2 resolved effects, got %d", len(resolved))
	}
	if resolved[0].TargetFieldID != "a" || resolved[0].Value != "keep" {
		t.Errorf("Expected the first effect for field 'a' to win, got %+v", resolved[0])
	}
	if resolved[1].TargetFieldID != "b" {
		t.Errorf("Expected field 'b' effect kept, got %+v", resolved[1])
	}
}

func TestResolveConflicts_Idempotent(t *testing.T) {
	effects := []Effect{
		{ControlType: ControlVisibility, TargetFieldID: "a"},
		{ControlType: ControlRequire, TargetFieldID: "b"},
		{ControlType: ControlEnable, TargetFieldID: "a"},
	}

	once := ResolveConflicts(effects)
	twice := ResolveConflicts(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("ResolveConflicts not idempotent: %v vs %v", once, twice)
	}
}

func TestResolveConflicts_EmptyInput(t *testing.T) {
	resolved := ResolveConflicts(nil)
	if len(resolved) != 0 {
		t.Errorf("Expected empty output, got %v", resolved)
	}
}
