package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// EvalFunc evaluates a function over already-evaluated argument values.
// Callers of the executor can supply extra functions under this signature.
type EvalFunc func(args []any) (any, error)

// funcSpec describes one entry in the built-in function registry:
// arity bounds, the inferred result type, and the evaluator. Adding a
// function is a single-place change here.
type funcSpec struct {
	minArgs int
	maxArgs int // -1 means variadic
	result  ResultType
	eval    EvalFunc
}

var builtins = map[string]funcSpec{
	"abs": {1, 1, TypeNumber, func(args []any) (any, error) {
		n, err := argNumber("abs", args[0])
		if err != nil {
			return nil, err
		}
		return math.Abs(n), nil
	}},
	"min": {1, -1, TypeNumber, func(args []any) (any, error) {
		return foldNumbers("min", args, math.Min)
	}},
	"max": {1, -1, TypeNumber, func(args []any) (any, error) {
		return foldNumbers("max", args, math.Max)
	}},
	"round": {1, 2, TypeNumber, func(args []any) (any, error) {
		n, err := argNumber("round", args[0])
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return math.Round(n), nil
		}
		digits, err := argNumber("round", args[1])
		if err != nil {
			return nil, err
		}
		scale := math.Pow(10, math.Trunc(digits))
		return math.Round(n*scale) / scale, nil
	}},
	"sum": {1, -1, TypeNumber, func(args []any) (any, error) {
		total := 0.0
		for _, a := range args {
			n, err := argNumber("sum", a)
			if err != nil {
				return nil, err
			}
			total += n
		}
		return total, nil
	}},
	"pow": {2, 2, TypeNumber, func(args []any) (any, error) {
		base, err := argNumber("pow", args[0])
		if err != nil {
			return nil, err
		}
		exp, err := argNumber("pow", args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(base, exp), nil
	}},
	"concat": {1, -1, TypeText, func(args []any) (any, error) {
		out := ""
		for _, a := range args {
			out += toText(a)
		}
		return out, nil
	}},
	"upper": {1, 1, TypeText, func(args []any) (any, error) {
		s, err := argText("upper", args[0])
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	}},
	"lower": {1, 1, TypeText, func(args []any) (any, error) {
		s, err := argText("lower", args[0])
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	}},
	"if_else": {3, 3, TypeUnknown, func(args []any) (any, error) {
		cond, ok := args[0].(bool)
		if !ok {
			return nil, fmt.Errorf("condition of 'if_else' must be a boolean")
		}
		if cond {
			return args[1], nil
		}
		return args[2], nil
	}},
	"coalesce": {1, -1, TypeUnknown, func(args []any) (any, error) {
		for _, a := range args {
			if a == nil {
				continue
			}
			if s, ok := a.(string); ok && s == "" {
				continue
			}
			return a, nil
		}
		return nil, nil
	}},
	"is_empty": {1, 1, TypeBoolean, func(args []any) (any, error) {
		if args[0] == nil {
			return true, nil
		}
		if s, ok := args[0].(string); ok {
			return s == "", nil
		}
		return false, nil
	}},
}

// FunctionNames returns the built-in allow-list in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFunction reports whether name is on the built-in allow-list.
func IsFunction(name string) bool {
	_, ok := builtins[name]
	return ok
}

// checkArity returns a stable description of an arity violation, or ""
// when the count is acceptable.
func (s funcSpec) checkArity(name string, n int) string {
	if s.maxArgs == -1 {
		if n < s.minArgs {
			return fmt.Sprintf("Function '%s' expects at least %d argument(s), got %d", name, s.minArgs, n)
		}
		return ""
	}
	if n < s.minArgs || n > s.maxArgs {
		if s.minArgs == s.maxArgs {
			return fmt.Sprintf("Function '%s' expects %d argument(s), got %d", name, s.minArgs, n)
		}
		return fmt.Sprintf("Function '%s' expects between %d and %d arguments, got %d", name, s.minArgs, s.maxArgs, n)
	}
	return ""
}

func foldNumbers(name string, args []any, pick func(a, b float64) float64) (any, error) {
	acc, err := argNumber(name, args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		n, err := argNumber(name, a)
		if err != nil {
			return nil, err
		}
		acc = pick(acc, n)
	}
	return acc, nil
}
