package formula

import "strings"

// Field is one entry of the read-only field-type snapshot supplied per
// call. The engine never retains it.
type Field struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

// ValidationResult is the structured outcome of validating one formula
// against a field snapshot. Error and warning strings are user-facing
// and stable; the presentation layer surfaces them verbatim.
type ValidationResult struct {
	IsValid         bool       `json:"isValid"`
	Errors          []string   `json:"errors"`
	Warnings        []string   `json:"warnings"`
	FieldReferences []string   `json:"fieldReferences"`
	InferredType    ResultType `json:"inferredType"`
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Validate parses formula text, infers its result type against the
// snapshot, and extracts its field references. It never returns an
// abnormal error for malformed formula text: syntax errors, unknown
// fields, and unknown functions all land in the result's Errors.
//
// An empty or whitespace-only formula is valid with type UNKNOWN and no
// references.
func Validate(text string, fields []Field) ValidationResult {
	result := ValidationResult{
		Errors:          []string{},
		Warnings:        []string{},
		FieldReferences: []string{},
		InferredType:    TypeUnknown,
	}

	if isBlank(text) {
		result.IsValid = true
		return result
	}

	node, err := Parse(text)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	types := make(map[string]ResultType, len(fields))
	for _, f := range fields {
		types[f.ID] = mapFieldType(f.Type)
	}

	in := &inferencer{fields: types}
	result.InferredType = in.infer(node)
	result.Errors = append(result.Errors, in.errors...)
	result.Warnings = append(result.Warnings, in.warnings...)
	result.FieldReferences = ReferencesOf(node)
	result.IsValid = len(result.Errors) == 0
	if !result.IsValid {
		result.InferredType = TypeUnknown
	}
	return result
}
