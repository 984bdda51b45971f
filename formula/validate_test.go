package formula

import (
	"reflect"
	"strings"
	"testing"
)

func testFields() []Field {
	return []Field{
		{ID: "price", Type: "number"},
		{ID: "quantity", Type: "integer"},
		{ID: "name", Type: "text"},
		{ID: "email", Type: "email"},
		{ID: "active", Type: "boolean"},
		{ID: "due", Type: "date"},
	}
}

func TestValidate_EmptyFormulaIsValid(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		result := Validate(input, testFields())
		if !result.IsValid {
			t.Errorf("Expected empty formula %q to be valid, got errors: %v", input, result.Errors)
		}
		if result.InferredType != TypeUnknown {
			t.Errorf("Expected UNKNOWN type for empty formula, got %s", result.InferredType)
		}
		if len(result.FieldReferences) != 0 {
			t.Errorf("Expected no references for empty formula, got %v", result.FieldReferences)
		}
	}
}

func TestValidate_SyntaxErrorLandsInResult(t *testing.T) {
	result := Validate("price +", testFields())
	if result.IsValid {
		t.Error("Expected invalid result for malformed formula")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "syntax error") {
		t.Errorf("Expected one syntax error, got: %v", result.Errors)
	}
	if result.InferredType != TypeUnknown {
		t.Errorf("Expected UNKNOWN type for invalid formula, got %s", result.InferredType)
	}
}

func TestValidate_UnknownFieldIsError(t *testing.T) {
	result := Validate("price * discount", testFields())
	if result.IsValid {
		t.Error("Expected invalid result for unknown field")
	}
	found := false
	for _, e := range result.Errors {
		if e == "Unknown field: discount" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'Unknown field: discount' error, got: %v", result.Errors)
	}
}

func TestValidate_UnknownFunctionIsError(t *testing.T) {
	result := Validate("lookup(price)", testFields())
	if result.IsValid {
		t.Error("Expected invalid result for unknown function")
	}
	found := false
	for _, e := range result.Errors {
		if e == "Unknown function: lookup" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'Unknown function: lookup' error, got: %v", result.Errors)
	}
}

// Unknown fields nested inside an unknown function call are still
// reported, so one pass surfaces everything wrong with the formula.
func TestValidate_UnknownFunctionStillWalksArguments(t *testing.T) {
	result := Validate("lookup(missing)", testFields())
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got: %v", result.Errors)
	}
}

func TestValidate_InferredTypes(t *testing.T) {
	cases := map[string]ResultType{
		"price * quantity":          TypeNumber,
		"-price":                    TypeNumber,
		"abs(price)":                TypeNumber,
		`concat(name, "!")`:         TypeText,
		`"literal"`:                 TypeText,
		"price > 100":               TypeBoolean,
		"active and price > 0":      TypeBoolean,
		"not active":                TypeBoolean,
		"is_empty(name)":            TypeBoolean,
		`name == "x" or quantity > 1`: TypeBoolean,
		"if_else(active, 1, 2)":     TypeNumber,
		"coalesce(price, quantity)": TypeNumber,
		"due":                       TypeUnknown,
	}
	for input, want := range cases {
		result := Validate(input, testFields())
		if !result.IsValid {
			t.Errorf("Expected %q to be valid, got errors: %v", input, result.Errors)
			continue
		}
		if result.InferredType != want {
			t.Errorf("Expected %s for %q, got %s", want, input, result.InferredType)
		}
	}
}

// Operand-type mismatches warn and downgrade to UNKNOWN instead of
// failing validation.
func TestValidate_TypeMismatchWarns(t *testing.T) {
	cases := []string{
		"name + price",
		"price and active",
		"-name",
		"not price",
		"abs(name)",
		"upper(price)",
		"if_else(price, 1, 2)",
		`if_else(active, 1, "x")`,
		"coalesce(price, name)",
	}
	for _, input := range cases {
		result := Validate(input, testFields())
		if !result.IsValid {
			t.Errorf("Expected %q to stay valid, got errors: %v", input, result.Errors)
			continue
		}
		if len(result.Warnings) == 0 {
			t.Errorf("Expected a warning for %q, got none", input)
		}
	}
}

func TestValidate_ArityViolationWarns(t *testing.T) {
	result := Validate("abs(price, quantity)", testFields())
	if !result.IsValid {
		t.Fatalf("Expected arity mismatch to stay valid, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Expected one warning, got: %v", result.Warnings)
	}
	if result.Warnings[0] != "Function 'abs' expects 1 argument(s), got 2" {
		t.Errorf("Unexpected warning text: %q", result.Warnings[0])
	}
	if result.InferredType != TypeUnknown {
		t.Errorf("Expected UNKNOWN type on arity mismatch, got %s", result.InferredType)
	}
}

func TestValidate_FieldReferencesSortedAndDeduplicated(t *testing.T) {
	result := Validate("quantity * price + price", testFields())
	want := []string{"price", "quantity"}
	if !reflect.DeepEqual(result.FieldReferences, want) {
		t.Errorf("Expected references %v, got %v", want, result.FieldReferences)
	}
}

// The same formula against the same snapshot always produces the same
// result.
func TestValidate_Deterministic(t *testing.T) {
	first := Validate("min(price, quantity) > 0 and missing_one == missing_two", testFields())
	for i := 0; i < 5; i++ {
		again := Validate("min(price, quantity) > 0 and missing_one == missing_two", testFields())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Validation not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestValidate_FieldTypeNamesAreCaseInsensitive(t *testing.T) {
	fields := []Field{{ID: "amount", Type: "Number"}}
	result := Validate("amount + 1", fields)
	if !result.IsValid {
		t.Fatalf("Expected valid, got errors: %v", result.Errors)
	}
	if result.InferredType != TypeNumber {
		t.Errorf("Expected NUMBER, got %s", result.InferredType)
	}
}

func TestReferences(t *testing.T) {
	refs, err := References("a + b * a")
	if err != nil {
		t.Fatalf("Failed to extract references: %v", err)
	}
	if !reflect.DeepEqual(refs, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", refs)
	}

	refs, err = References("   ")
	if err != nil {
		t.Fatalf("Expected no error for blank text, got %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("Expected no references for blank text, got %v", refs)
	}

	if _, err := References("a +"); err == nil {
		t.Error("Expected error for malformed text, got nil")
	}
}

// Function names are not field references.
func TestReferences_ExcludesFunctionNames(t *testing.T) {
	refs, err := References("max(a, abs(b))")
	if err != nil {
		t.Fatalf("Failed to extract references: %v", err)
	}
	if !reflect.DeepEqual(refs, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", refs)
	}
}
