package project

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxFields      = 500
	maxIdentLength = 100
)

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateSchema checks a schema definition before it is stored.
// Returns nil when the schema is valid.
func ValidateSchema(schema Schema) error {
	if len(schema.Fields) == 0 {
		return fmt.Errorf("schema cannot be empty, must contain at least one field definition")
	}

	if len(schema.Fields) > maxFields {
		return fmt.Errorf("schema contains %d fields, maximum allowed is %d", len(schema.Fields), maxFields)
	}

	seen := make(map[string]bool, len(schema.Fields))
	for _, field := range schema.Fields {
		if err := validateIdentifier(field.ID); err != nil {
			return fmt.Errorf("invalid field id %q: %w", field.ID, err)
		}

		if seen[field.ID] {
			return fmt.Errorf("duplicate field id %q", field.ID)
		}
		seen[field.ID] = true

		if field.Type == "" {
			return fmt.Errorf("field %q has empty type name", field.ID)
		}
		if strings.TrimSpace(field.Type) != field.Type {
			return fmt.Errorf("field %q has type with leading/trailing whitespace: %q", field.ID, field.Type)
		}
		if !isValidFieldType(field.Type) {
			return fmt.Errorf("field %q has invalid type %q (must be one of: number, integer, decimal, currency, percent, text, string, email, phone, boolean, checkbox, date, datetime)", field.ID, field.Type)
		}
	}

	return nil
}

// validateIdentifier validates a field id: identifier syntax, length
// limits, and no collision with a formula keyword.
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentLength)
	}

	if !identPattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$ (start with letter or underscore, followed by letters, digits, or underscores)")
	}

	if isReservedKeyword(name) {
		return fmt.Errorf("cannot use reserved keyword %q as identifier", name)
	}

	return nil
}

// isValidFieldType checks a field type name against the closed list the
// schema accepts. Date types are storable but infer no formula type.
func isValidFieldType(typeName string) bool {
	validTypes := map[string]bool{
		"number":   true,
		"integer":  true,
		"decimal":  true,
		"currency": true,
		"percent":  true,
		"text":     true,
		"string":   true,
		"email":    true,
		"phone":    true,
		"boolean":  true,
		"checkbox": true,
		"date":     true,
		"datetime": true,
	}

	return validTypes[typeName]
}

// isReservedKeyword rejects the formula language's keywords as field
// ids; a field named "and" could never be referenced.
func isReservedKeyword(name string) bool {
	reservedKeywords := map[string]bool{
		"and": true,
		"or":  true,
		"not": true,
	}

	return reservedKeywords[name]
}
