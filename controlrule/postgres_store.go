package controlrule

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL, scoped to one
// project.
type PostgresStore struct {
	db        *sql.DB
	projectID string
}

// NewPostgresStore creates a PostgreSQL-backed control rule store for a
// specific project.
func NewPostgresStore(db *sql.DB, projectID string) *PostgresStore {
	return &PostgresStore{
		db:        db,
		projectID: projectID,
	}
}

func (s *PostgresStore) Add(rule *StoredRule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM control_rules
			WHERE project_id = $1 AND target_field_id = $2 AND rule_type = $3
		)
	`, s.projectID, rule.TargetFieldID, rule.RuleType).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("a %s rule for field %s already exists", rule.RuleType, rule.TargetFieldID)
	}

	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO control_rules (project_id, target_field_id, rule_type, formula_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.projectID, rule.TargetFieldID, rule.RuleType, rule.FormulaText, now, now)

	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(targetFieldID string, ruleType RuleType) (*StoredRule, error) {
	var rule StoredRule
	err := s.db.QueryRow(`
		SELECT target_field_id, rule_type, formula_text, created_at, updated_at
		FROM control_rules
		WHERE project_id = $1 AND target_field_id = $2 AND rule_type = $3
	`, s.projectID, targetFieldID, ruleType).Scan(
		&rule.TargetFieldID,
		&rule.RuleType,
		&rule.FormulaText,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no %s rule for field %s", ruleType, targetFieldID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &rule, nil
}

func (s *PostgresStore) List() ([]*StoredRule, error) {
	rows, err := s.db.Query(`
		SELECT target_field_id, rule_type, formula_text, created_at, updated_at
		FROM control_rules
		WHERE project_id = $1
		ORDER BY target_field_id ASC, rule_type ASC
	`, s.projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var list []*StoredRule
	for rows.Next() {
		var r StoredRule
		if err := rows.Scan(&r.TargetFieldID, &r.RuleType, &r.FormulaText,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		list = append(list, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return list, nil
}

func (s *PostgresStore) Update(rule *StoredRule) error {
	result, err := s.db.Exec(`
		UPDATE control_rules
		SET formula_text = $1, updated_at = $2
		WHERE project_id = $3 AND target_field_id = $4 AND rule_type = $5
	`, rule.FormulaText, time.Now(), s.projectID, rule.TargetFieldID, rule.RuleType)

	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no %s rule for field %s", rule.RuleType, rule.TargetFieldID)
	}

	return nil
}

func (s *PostgresStore) Delete(targetFieldID string, ruleType RuleType) error {
	result, err := s.db.Exec(`
		DELETE FROM control_rules
		WHERE project_id = $1 AND target_field_id = $2 AND rule_type = $3
	`, s.projectID, targetFieldID, ruleType)

	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no %s rule for field %s", ruleType, targetFieldID)
	}

	return nil
}
