package formula

import (
	"fmt"
	"strings"
)

// inferencer walks the AST once, collecting hard errors (unknown fields
// and functions) and soft warnings (operand-type mismatches), and
// computing the result type. Mismatches never fail inference outright;
// they downgrade the affected subtree to UNKNOWN with a warning.
type inferencer struct {
	fields   map[string]ResultType
	errors   []string
	warnings []string
}

func (in *inferencer) warnf(format string, args ...any) {
	in.warnings = append(in.warnings, fmt.Sprintf(format, args...))
}

func (in *inferencer) infer(n Node) ResultType {
	switch node := n.(type) {
	case *NumberLiteral:
		return TypeNumber

	case *StringLiteral:
		return TypeText

	case *FieldReference:
		t, ok := in.fields[node.Name]
		if !ok {
			in.errors = append(in.errors, fmt.Sprintf("Unknown field: %s", node.Name))
			return TypeUnknown
		}
		return t

	case *UnaryOp:
		operand := in.infer(node.Operand)
		if node.Op == "not" {
			if operand == TypeNumber || operand == TypeText {
				in.warnf("Operator 'not' expects a boolean operand, got %s", operand)
			}
			return TypeBoolean
		}
		// unary minus
		if operand == TypeText || operand == TypeBoolean {
			in.warnf("Operator '-' expects a numeric operand, got %s", operand)
			return TypeUnknown
		}
		return TypeNumber

	case *BinaryOp:
		left := in.infer(node.Left)
		right := in.infer(node.Right)
		mismatch := ""
		if left == TypeText || left == TypeBoolean {
			mismatch = string(left)
		}
		if right == TypeText || right == TypeBoolean {
			mismatch = string(right)
		}
		if mismatch != "" {
			in.warnf("Operator '%s' expects numeric operands, got %s", node.Op, mismatch)
			return TypeUnknown
		}
		return TypeNumber

	case *LogicalOp:
		for _, operand := range []Node{node.Left, node.Right} {
			if t := in.infer(operand); t == TypeNumber || t == TypeText {
				in.warnf("Operator '%s' expects boolean operands, got %s", node.Op, t)
			}
		}
		return TypeBoolean

	case *Comparison:
		in.infer(node.Left)
		in.infer(node.Right)
		return TypeBoolean

	case *FunctionCall:
		return in.inferCall(node)
	}
	return TypeUnknown
}

func (in *inferencer) inferCall(call *FunctionCall) ResultType {
	spec, ok := builtins[call.Name]
	if !ok {
		// Still walk the arguments so nested unknown fields are reported.
		for _, arg := range call.Args {
			in.infer(arg)
		}
		in.errors = append(in.errors, fmt.Sprintf("Unknown function: %s", call.Name))
		return TypeUnknown
	}

	argTypes := make([]ResultType, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = in.infer(arg)
	}

	if msg := spec.checkArity(call.Name, len(call.Args)); msg != "" {
		in.warnings = append(in.warnings, msg)
		return TypeUnknown
	}

	switch call.Name {
	case "if_else":
		if argTypes[0] == TypeNumber || argTypes[0] == TypeText {
			in.warnf("Condition of 'if_else' must be a boolean, got %s", argTypes[0])
		}
		if argTypes[1] == argTypes[2] {
			return argTypes[1]
		}
		in.warnf("Branches of 'if_else' have different types (%s and %s)", argTypes[1], argTypes[2])
		return TypeUnknown

	case "coalesce":
		common := argTypes[0]
		for _, t := range argTypes[1:] {
			if t != common {
				in.warnf("Arguments of 'coalesce' have different types")
				return TypeUnknown
			}
		}
		return common

	case "abs", "min", "max", "round", "sum", "pow":
		for _, t := range argTypes {
			if t == TypeText || t == TypeBoolean {
				in.warnf("Function '%s' expects numeric arguments, got %s", call.Name, t)
			}
		}
		return spec.result

	case "upper", "lower":
		if argTypes[0] == TypeNumber || argTypes[0] == TypeBoolean {
			in.warnf("Function '%s' expects a text argument, got %s", call.Name, argTypes[0])
		}
		return spec.result

	default:
		return spec.result
	}
}

// mapFieldType maps a schema field-type name onto the inference lattice.
// Unrecognized types infer UNKNOWN rather than failing; references to
// such fields are still valid.
func mapFieldType(fieldType string) ResultType {
	switch strings.ToLower(fieldType) {
	case "number", "integer", "decimal", "currency", "percent":
		return TypeNumber
	case "text", "string", "email", "phone":
		return TypeText
	case "boolean", "bool", "checkbox":
		return TypeBoolean
	default:
		return TypeUnknown
	}
}
