// Package project is the schema repository and workspace layer around
// the engine: it validates and stores per-project field schemas, hands
// the engine read-only field snapshots, and owns the control rule
// stores and caches. The engine packages never import it.
package project

import (
	"github.com/ganad831/fieldrules/controlrule"
	"github.com/ganad831/fieldrules/formula"
)

// FieldDef is one field definition in a project schema.
type FieldDef struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

// Schema is a project's ordered field definitions. It is stored as
// plain JSON with no formula-grammar awareness.
type Schema struct {
	Fields []FieldDef `json:"fields"`
}

// Snapshot converts the schema into the read-only field snapshot the
// engine consumes. The engine never retains it.
func (s Schema) Snapshot() []formula.Field {
	fields := make([]formula.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = formula.Field{ID: f.ID, Type: f.Type, Label: f.Label}
	}
	return fields
}

// Dependencies builds the schema-wide field -> dependencies map from a
// project's stored control rules, for cycle detection. A rule's target
// field depends on every field its formula references. Rules whose
// formulas no longer parse contribute no edges.
func Dependencies(rules []*controlrule.StoredRule) map[string][]string {
	deps := make(map[string][]string, len(rules))
	for _, rule := range rules {
		refs, err := formula.References(rule.FormulaText)
		if err != nil {
			continue
		}
		deps[rule.TargetFieldID] = append(deps[rule.TargetFieldID], refs...)
	}
	return deps
}
