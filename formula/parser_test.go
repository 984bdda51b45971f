package formula

import (
	"strings"
	"testing"
)

func TestParse_NumberLiteral(t *testing.T) {
	node, err := Parse("42")
	if err != nil {
		t.Fatalf("Failed to parse number: %v", err)
	}
	num, ok := node.(*NumberLiteral)
	if !ok {
		t.Fatalf("Expected *NumberLiteral, got %T", node)
	}
	if num.Value != 42 {
		t.Errorf("Expected 42, got %v", num.Value)
	}
}

func TestParse_DecimalNumber(t *testing.T) {
	node, err := Parse("12.5")
	if err != nil {
		t.Fatalf("Failed to parse decimal: %v", err)
	}
	num, ok := node.(*NumberLiteral)
	if !ok {
		t.Fatalf("Expected *NumberLiteral, got %T", node)
	}
	if num.Value != 12.5 {
		t.Errorf("Expected 12.5, got %v", num.Value)
	}
}

func TestParse_StringLiterals(t *testing.T) {
	cases := map[string]string{
		`"hello"`:      "hello",
		`'world'`:      "world",
		`"it's"`:       "it's",
		`"a \"b\" c"`:  `a "b" c`,
		`''`:           "",
	}
	for input, want := range cases {
		node, err := Parse(input)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", input, err)
			continue
		}
		str, ok := node.(*StringLiteral)
		if !ok {
			t.Errorf("Expected *StringLiteral for %s, got %T", input, node)
			continue
		}
		if str.Value != want {
			t.Errorf("Expected %q for %s, got %q", want, input, str.Value)
		}
	}
}

func TestParse_FieldReference(t *testing.T) {
	node, err := Parse("unit_price")
	if err != nil {
		t.Fatalf("Failed to parse identifier: %v", err)
	}
	ref, ok := node.(*FieldReference)
	if !ok {
		t.Fatalf("Expected *FieldReference, got %T", node)
	}
	if ref.Name != "unit_price" {
		t.Errorf("Expected 'unit_price', got %q", ref.Name)
	}
}

// Multiplication binds tighter than addition, so 2 + 3 * 4 parses as
// 2 + (3 * 4).
func TestParse_ArithmeticPrecedence(t *testing.T) {
	node, err := Parse("2 + 3 * 4")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	add, ok := node.(*BinaryOp)
	if !ok || add.Op != "+" {
		t.Fatalf("Expected top-level '+', got %T", node)
	}
	mul, ok := add.Right.(*BinaryOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("Expected '*' on the right of '+', got %T", add.Right)
	}
}

// Comparison binds tighter than "and", which binds tighter than "or".
func TestParse_LogicalPrecedence(t *testing.T) {
	node, err := Parse("a > 1 and b < 2 or c == 3")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	or, ok := node.(*LogicalOp)
	if !ok || or.Op != "or" {
		t.Fatalf("Expected top-level 'or', got %T", node)
	}
	and, ok := or.Left.(*LogicalOp)
	if !ok || and.Op != "and" {
		t.Fatalf("Expected 'and' on the left of 'or', got %T", or.Left)
	}
	if _, ok := and.Left.(*Comparison); !ok {
		t.Errorf("Expected comparison under 'and', got %T", and.Left)
	}
}

func TestParse_NotIsUnary(t *testing.T) {
	node, err := Parse("not a and b")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	and, ok := node.(*LogicalOp)
	if !ok || and.Op != "and" {
		t.Fatalf("Expected top-level 'and', got %T", node)
	}
	neg, ok := and.Left.(*UnaryOp)
	if !ok || neg.Op != "not" {
		t.Fatalf("Expected 'not' on the left of 'and', got %T", and.Left)
	}
}

func TestParse_ParenthesesOverridePrecedence(t *testing.T) {
	node, err := Parse("(2 + 3) * 4")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	mul, ok := node.(*BinaryOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("Expected top-level '*', got %T", node)
	}
	if add, ok := mul.Left.(*BinaryOp); !ok || add.Op != "+" {
		t.Errorf("Expected '+' inside parentheses, got %T", mul.Left)
	}
}

func TestParse_FunctionCall(t *testing.T) {
	node, err := Parse("min(a, b, 3)")
	if err != nil {
		t.Fatalf("Failed to parse call: %v", err)
	}
	call, ok := node.(*FunctionCall)
	if !ok {
		t.Fatalf("Expected *FunctionCall, got %T", node)
	}
	if call.Name != "min" {
		t.Errorf("Expected name 'min', got %q", call.Name)
	}
	if len(call.Args) != 3 {
		t.Errorf("Expected 3 arguments, got %d", len(call.Args))
	}
}

func TestParse_NestedCall(t *testing.T) {
	node, err := Parse("round(sum(a, b) / 2, 1)")
	if err != nil {
		t.Fatalf("Failed to parse nested call: %v", err)
	}
	call, ok := node.(*FunctionCall)
	if !ok || call.Name != "round" {
		t.Fatalf("Expected call to 'round', got %T", node)
	}
	if len(call.Args) != 2 {
		t.Fatalf("Expected 2 arguments, got %d", len(call.Args))
	}
}

func TestParse_EmptyArgumentList(t *testing.T) {
	node, err := Parse("concat()")
	if err != nil {
		t.Fatalf("Failed to parse empty call: %v", err)
	}
	call, ok := node.(*FunctionCall)
	if !ok {
		t.Fatalf("Expected *FunctionCall, got %T", node)
	}
	if len(call.Args) != 0 {
		t.Errorf("Expected 0 arguments, got %d", len(call.Args))
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"a +",
		"* 2",
		"a = b",
		"a ! b",
		"(a + b",
		"a + b)",
		"1 2",
		`"unterminated`,
		"1.",
		"min(a,",
		"min(a b)",
		"and",
		"a @ b",
	}
	for _, input := range cases {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("Expected syntax error for %q, got nil", input)
			continue
		}
		if !strings.Contains(err.Error(), "syntax error") {
			t.Errorf("Expected a syntax error message for %q, got: %v", input, err)
		}
	}
}

func TestParse_ChainedComparisons(t *testing.T) {
	// a < b < c parses left-associatively; it is syntactically legal
	// even though the inferred type of the left side is boolean.
	node, err := Parse("a < b < c")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	cmp, ok := node.(*Comparison)
	if !ok || cmp.Op != "<" {
		t.Fatalf("Expected top-level '<', got %T", node)
	}
	if _, ok := cmp.Left.(*Comparison); !ok {
		t.Errorf("Expected nested comparison on the left, got %T", cmp.Left)
	}
}

func TestParse_UnaryMinus(t *testing.T) {
	node, err := Parse("-a * 2")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	mul, ok := node.(*BinaryOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("Expected top-level '*', got %T", node)
	}
	neg, ok := mul.Left.(*UnaryOp)
	if !ok || neg.Op != "-" {
		t.Fatalf("Expected unary '-' on the left, got %T", mul.Left)
	}
}
