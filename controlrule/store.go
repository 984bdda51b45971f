package controlrule

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// StoredRule is the persisted shape of a control rule. Only the rule
// identity and formula text are stored; diagnostics never are.
type StoredRule struct {
	TargetFieldID string    `json:"targetFieldId"`
	RuleType      RuleType  `json:"ruleType"`
	FormulaText   string    `json:"formulaText"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store manages control rule persistence for one project. Identity is
// (TargetFieldID, RuleType) and implementations enforce its uniqueness.
// Implementations never write into the caller's rule; timestamps live
// on the stored copy and come back through Get and List.
type Store interface {
	// Add a new rule; fails when the identity already exists.
	Add(rule *StoredRule) error

	// Get a rule by identity.
	Get(targetFieldID string, ruleType RuleType) (*StoredRule, error)

	// List all rules, ordered by target field id then rule type.
	List() ([]*StoredRule, error)

	// Update an existing rule's formula.
	Update(rule *StoredRule) error

	// Delete a rule by identity.
	Delete(targetFieldID string, ruleType RuleType) error
}

type ruleKey struct {
	targetFieldID string
	ruleType      RuleType
}

// InMemoryStore implements Store with a map. Thread-safe; used by tests
// and by servers running without a database.
type InMemoryStore struct {
	rules map[ruleKey]*StoredRule
	mu    sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory control rule store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rules: make(map[ruleKey]*StoredRule),
	}
}

func (s *InMemoryStore) Add(rule *StoredRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ruleKey{rule.TargetFieldID, rule.RuleType}
	if _, exists := s.rules[key]; exists {
		return fmt.Errorf("a %s rule for field %s already exists", rule.RuleType, rule.TargetFieldID)
	}

	stored := *rule
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.rules[key] = &stored
	return nil
}

func (s *InMemoryStore) Get(targetFieldID string, ruleType RuleType) (*StoredRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[ruleKey{targetFieldID, ruleType}]
	if !exists {
		return nil, fmt.Errorf("no %s rule for field %s", ruleType, targetFieldID)
	}
	return rule, nil
}

func (s *InMemoryStore) List() ([]*StoredRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*StoredRule, 0, len(s.rules))
	for _, rule := range s.rules {
		list = append(list, rule)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TargetFieldID != list[j].TargetFieldID {
			return list[i].TargetFieldID < list[j].TargetFieldID
		}
		return list[i].RuleType < list[j].RuleType
	})
	return list, nil
}

func (s *InMemoryStore) Update(rule *StoredRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ruleKey{rule.TargetFieldID, rule.RuleType}
	existing, exists := s.rules[key]
	if !exists {
		return fmt.Errorf("no %s rule for field %s", rule.RuleType, rule.TargetFieldID)
	}

	// Preserve the original creation timestamp.
	stored := *rule
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	s.rules[key] = &stored
	return nil
}

func (s *InMemoryStore) Delete(targetFieldID string, ruleType RuleType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ruleKey{targetFieldID, ruleType}
	if _, exists := s.rules[key]; !exists {
		return fmt.Errorf("no %s rule for field %s", ruleType, targetFieldID)
	}

	delete(s.rules, key)
	return nil
}
