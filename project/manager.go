package project

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ganad831/fieldrules/controlrule"
)

// Workspace bundles one project's schema with its control rule store
// and list cache. The schema inside a workspace is read-only; schema
// changes swap the whole workspace.
type Workspace struct {
	ProjectID string
	Schema    Schema
	Store     controlrule.Store
	cache     controlrule.RuleCache
}

// Rules returns the project's stored control rules, served from the
// list cache when fresh.
func (w *Workspace) Rules() ([]*controlrule.StoredRule, error) {
	if cached := w.cache.Get(); cached != nil {
		return cached, nil
	}

	rules, err := w.Store.List()
	if err != nil {
		return nil, err
	}
	w.cache.Set(rules)
	return rules, nil
}

// Invalidate clears the rule list cache after a mutation.
func (w *Workspace) Invalidate() {
	w.cache.Invalidate()
}

// Dependencies builds the field -> dependencies map over the project's
// stored rules for cycle detection.
func (w *Workspace) Dependencies() (map[string][]string, error) {
	rules, err := w.Rules()
	if err != nil {
		return nil, err
	}
	return Dependencies(rules), nil
}

// Manager loads and serves per-project workspaces. With a database it
// persists schemas and backs each workspace with a PostgreSQL rule
// store; without one (db == nil) everything lives in memory, which is
// how evaluation-only deployments and tests run.
type Manager struct {
	workspaces map[string]*Workspace
	db         *sql.DB
	mu         sync.RWMutex
}

// NewManager creates a manager. db may be nil for in-memory mode.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
		db:         db,
	}
}

// LoadAll loads every project with an active schema from the database
// and builds its workspace. A no-op in in-memory mode.
func (m *Manager) LoadAll() error {
	if m.db == nil {
		return nil
	}

	rows, err := m.db.Query(`
		SELECT p.id, s.definition
		FROM projects p
		JOIN schemas s ON s.project_id = p.id
		WHERE s.active = true
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID string
		var schemaJSON []byte
		if err := rows.Scan(&projectID, &schemaJSON); err != nil {
			return fmt.Errorf("failed to scan project row: %w", err)
		}

		var schema Schema
		if err := json.Unmarshal(schemaJSON, &schema); err != nil {
			return fmt.Errorf("invalid schema for project %s: %w", projectID, err)
		}

		m.mu.Lock()
		m.workspaces[projectID] = m.newWorkspace(projectID, schema)
		m.mu.Unlock()
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating project rows: %w", err)
	}

	return nil
}

// Create validates the schema and builds a workspace for a new project.
// The project row itself is created by the caller; this persists the
// schema as version 1 when a database is present.
func (m *Manager) Create(projectID string, schema Schema) error {
	if err := ValidateSchema(schema); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if m.db != nil {
		schemaJSON, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		_, err = m.db.Exec(`
			INSERT INTO schemas (project_id, version, definition, active)
			VALUES ($1, 1, $2, true)
		`, projectID, schemaJSON)
		if err != nil {
			return fmt.Errorf("failed to save schema: %w", err)
		}
	}

	m.mu.Lock()
	m.workspaces[projectID] = m.newWorkspace(projectID, schema)
	m.mu.Unlock()

	return nil
}

// Get retrieves the workspace for a project.
func (m *Manager) Get(projectID string) (*Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, exists := m.workspaces[projectID]
	if !exists {
		return nil, fmt.Errorf("project %s not found", projectID)
	}

	return ws, nil
}

// UpdateSchema persists a new schema version and atomically swaps the
// project's workspace. Stored control rules survive the swap; rules
// that no longer validate against the new schema surface as BLOCKED on
// their next validation.
func (m *Manager) UpdateSchema(projectID string, newSchema Schema) error {
	if err := ValidateSchema(newSchema); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.workspaces[projectID]
	if !exists {
		return fmt.Errorf("project %s not found", projectID)
	}

	if m.db != nil {
		_, err := m.db.Exec(`
			UPDATE schemas
			SET active = false
			WHERE project_id = $1
		`, projectID)
		if err != nil {
			return fmt.Errorf("failed to deactivate old schemas: %w", err)
		}

		schemaJSON, err := json.Marshal(newSchema)
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}

		_, err = m.db.Exec(`
			INSERT INTO schemas (project_id, version, definition, active)
			SELECT $1, COALESCE(MAX(version), 0) + 1, $2, true
			FROM schemas
			WHERE project_id = $1
		`, projectID, schemaJSON)
		if err != nil {
			return fmt.Errorf("failed to save new schema: %w", err)
		}
	}

	ws := m.newWorkspace(projectID, newSchema)
	// Keep the existing store so in-memory rules survive schema edits.
	if m.db == nil {
		ws.Store = existing.Store
	}
	m.workspaces[projectID] = ws

	return nil
}

// List returns all loaded project ids.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.workspaces))
	for projectID := range m.workspaces {
		ids = append(ids, projectID)
	}
	return ids
}

// Delete removes a project's workspace from the manager. It does not
// delete the project from the database.
func (m *Manager) Delete(projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workspaces[projectID]; !exists {
		return fmt.Errorf("project %s not found", projectID)
	}

	delete(m.workspaces, projectID)
	return nil
}

func (m *Manager) newWorkspace(projectID string, schema Schema) *Workspace {
	var store controlrule.Store
	if m.db != nil {
		store = controlrule.NewPostgresStore(m.db, projectID)
	} else {
		store = controlrule.NewInMemoryStore()
	}

	return &Workspace{
		ProjectID: projectID,
		Schema:    schema,
		Store:     store,
		cache:     controlrule.NewInMemoryRuleCache(controlrule.DefaultCacheConfig()),
	}
}
