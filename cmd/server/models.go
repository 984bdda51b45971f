package main

import (
	"github.com/ganad831/fieldrules/effects"
	"github.com/ganad831/fieldrules/formula"
	"github.com/ganad831/fieldrules/project"
)

// API request and response models.

// ValidateRequest validates one formula against a field snapshot.
type ValidateRequest struct {
	Formula string          `json:"formula"`
	Fields  []formula.Field `json:"fields"`
}

// CheckControlRuleRequest classifies a candidate control rule without
// touching any stored state. Dependencies is the optional schema-wide
// field -> dependencies map; omit it to skip cycle checking.
type CheckControlRuleRequest struct {
	RuleType      string              `json:"ruleType"`
	TargetFieldID string              `json:"targetFieldId"`
	Formula       string              `json:"formula"`
	Fields        []formula.Field     `json:"fields"`
	Dependencies  map[string][]string `json:"dependencies,omitempty"`
}

// PreviewControlRuleRequest previews a control rule against concrete
// field values.
type PreviewControlRuleRequest struct {
	RuleType      string          `json:"ruleType"`
	TargetFieldID string          `json:"targetFieldId"`
	Formula       string          `json:"formula"`
	Fields        []formula.Field `json:"fields"`
	Values        map[string]any  `json:"values"`
}

// EvaluateRequest runs the runtime effect evaluator over ad-hoc rules.
type EvaluateRequest struct {
	Rules  []effects.Rule `json:"rules"`
	Values map[string]any `json:"values"`
}

// EvaluateResponse returns firing effects in priority order plus the
// conflict-resolved list the runtime layer should apply.
type EvaluateResponse struct {
	Effects         []effects.Effect `json:"effects"`
	ResolvedEffects []effects.Effect `json:"resolvedEffects"`
	Errors          []string         `json:"errors"`
	EvaluationTime  string           `json:"evaluationTime"`
}

// CreateProjectRequest creates a project with its initial schema.
type CreateProjectRequest struct {
	Name   string         `json:"name"`
	Schema project.Schema `json:"schema"`
}

// UpdateSchemaRequest replaces a project's schema.
type UpdateSchemaRequest struct {
	Definition project.Schema `json:"definition"`
}

// ControlRuleRequest creates a control rule for a project. An empty
// formula clears any existing rule with the same identity.
type ControlRuleRequest struct {
	RuleType      string `json:"ruleType"`
	TargetFieldID string `json:"targetFieldId"`
	Formula       string `json:"formula"`
}

// UpdateControlRuleRequest replaces the formula of an existing rule.
type UpdateControlRuleRequest struct {
	Formula string `json:"formula"`
}
