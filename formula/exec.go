package formula

import (
	"fmt"
	"strconv"
)

// Execute evaluates a parsed AST against a field-value map. The optional
// extra map supplies caller-provided functions consulted before the
// built-in registry. Execution never mutates its inputs and retains no
// state; errors are data errors (missing values, wrong arity,
// incompatible operand types) with stable, user-facing messages.
func Execute(n Node, values map[string]any, extra map[string]EvalFunc) (any, error) {
	ex := &executor{values: values, extra: extra}
	return ex.eval(n)
}

// Run parses and executes formula text in one call. The runtime control
// effect evaluator uses it for rule conditions.
func Run(text string, values map[string]any, extra map[string]EvalFunc) (any, error) {
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Execute(node, values, extra)
}

type executor struct {
	values map[string]any
	extra  map[string]EvalFunc
}

func (ex *executor) eval(n Node) (any, error) {
	switch node := n.(type) {
	case *NumberLiteral:
		return node.Value, nil

	case *StringLiteral:
		return node.Value, nil

	case *FieldReference:
		v, ok := ex.values[node.Name]
		if !ok {
			return nil, fmt.Errorf("No value supplied for field '%s'", node.Name)
		}
		return v, nil

	case *UnaryOp:
		operand, err := ex.eval(node.Operand)
		if err != nil {
			return nil, err
		}
		if node.Op == "not" {
			b, ok := operand.(bool)
			if !ok {
				return nil, fmt.Errorf("Operator 'not' requires a boolean operand")
			}
			return !b, nil
		}
		num, ok := toNumber(operand)
		if !ok {
			return nil, fmt.Errorf("Operator '-' requires a numeric operand")
		}
		return -num, nil

	case *BinaryOp:
		return ex.evalArithmetic(node)

	case *LogicalOp:
		return ex.evalLogical(node)

	case *Comparison:
		return ex.evalComparison(node)

	case *FunctionCall:
		return ex.evalCall(node)
	}
	return nil, fmt.Errorf("unsupported expression")
}

func (ex *executor) evalArithmetic(node *BinaryOp) (any, error) {
	left, err := ex.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := ex.eval(node.Right)
	if err != nil {
		return nil, err
	}
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("Operator '%s' requires numeric operands", node.Op)
	}
	switch node.Op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		if rn == 0 {
			return nil, fmt.Errorf("Division by zero")
		}
		return ln / rn, nil
	}
	return nil, fmt.Errorf("unsupported operator '%s'", node.Op)
}

func (ex *executor) evalLogical(node *LogicalOp) (any, error) {
	left, err := ex.eval(node.Left)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("Operator '%s' requires boolean operands", node.Op)
	}
	// Short-circuit before touching the right operand.
	if node.Op == "and" && !lb {
		return false, nil
	}
	if node.Op == "or" && lb {
		return true, nil
	}
	right, err := ex.eval(node.Right)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("Operator '%s' requires boolean operands", node.Op)
	}
	return rb, nil
}

func (ex *executor) evalComparison(node *Comparison) (any, error) {
	left, err := ex.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := ex.eval(node.Right)
	if err != nil {
		return nil, err
	}

	if node.Op == "==" || node.Op == "!=" {
		eq := valuesEqual(left, right)
		if node.Op == "!=" {
			return !eq, nil
		}
		return eq, nil
	}

	// Ordering compares two numbers or two texts.
	if ln, ok := toNumber(left); ok {
		if rn, ok := toNumber(right); ok {
			return orderNumbers(node.Op, ln, rn), nil
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return orderStrings(node.Op, ls, rs), nil
		}
	}
	return nil, fmt.Errorf("Operator '%s' requires two numbers or two texts", node.Op)
}

func (ex *executor) evalCall(node *FunctionCall) (any, error) {
	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		v, err := ex.eval(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn, ok := ex.extra[node.Name]; ok {
		return fn(args)
	}

	spec, ok := builtins[node.Name]
	if !ok {
		return nil, fmt.Errorf("Unknown function: %s", node.Name)
	}
	if msg := spec.checkArity(node.Name, len(args)); msg != "" {
		return nil, fmt.Errorf("%s", msg)
	}
	return spec.eval(args)
}

func orderNumbers(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func orderStrings(op string, a, b string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func valuesEqual(a, b any) bool {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return an == bn
		}
		return false
	}
	return a == b
}

// toNumber widens the numeric types a JSON decoder or caller may hand
// us. Booleans and strings are not numbers.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		if n, ok := toNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}

func argNumber(name string, v any) (float64, error) {
	n, ok := toNumber(v)
	if !ok {
		return 0, fmt.Errorf("Function '%s' expects numeric arguments", name)
	}
	return n, nil
}

func argText(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("Function '%s' expects a text argument", name)
	}
	return s, nil
}

// Truthy coerces an execution result to boolean: booleans pass through,
// numbers are true when non-zero, texts when non-empty, nil is false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if n, ok := toNumber(v); ok {
			return n != 0
		}
		return true
	}
}
