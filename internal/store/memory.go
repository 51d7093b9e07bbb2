package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"shortcoder-go/internal/model"
)

// MemoryStore is an in-process Store used for development mode and tests.
// Counter increments hold the store mutex for the whole read-modify-write,
// giving the same atomicity the SQL store gets from UPDATE expressions.
type MemoryStore struct {
	mu        sync.Mutex
	settings  *model.ForwardingSettings
	rules     map[string]*model.ForwardingRule
	automates map[string]*model.Automation
	shortcuts map[string]*model.Shortcut
	log       []model.ExecutionLogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:     make(map[string]*model.ForwardingRule),
		automates: make(map[string]*model.Automation),
		shortcuts: make(map[string]*model.Shortcut),
	}
}

func (s *MemoryStore) ForwardingSettings() (*model.ForwardingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return model.DefaultForwardingSettings(), nil
	}
	copied := *s.settings
	return &copied, nil
}

func (s *MemoryStore) SaveForwardingSettings(settings *model.ForwardingSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *settings
	copied.ID = model.ForwardingSettingsID
	copied.UpdatedAt = time.Now()
	s.settings = &copied
	return nil
}

func (s *MemoryStore) ForwardingRules() ([]model.ForwardingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := make([]model.ForwardingRule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, *r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.Before(rules[j].CreatedAt) })
	return rules, nil
}

func (s *MemoryStore) EnabledForwardingRules() ([]model.ForwardingRule, error) {
	all, _ := s.ForwardingRules()
	enabled := all[:0]
	for _, r := range all {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled, nil
}

func (s *MemoryStore) ForwardingRule(id string) (*model.ForwardingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s not found", id)
	}
	copied := *rule
	return &copied, nil
}

func (s *MemoryStore) SaveForwardingRule(rule *model.ForwardingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rule
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.UpdatedAt = time.Now()
	s.rules[copied.ID] = &copied
	return nil
}

func (s *MemoryStore) DeleteForwardingRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
	return nil
}

func (s *MemoryStore) SetForwardingRuleEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return fmt.Errorf("rule %s not found", id)
	}
	rule.Enabled = enabled
	return nil
}

func (s *MemoryStore) IncrementForwardCount(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return fmt.Errorf("rule %s not found", id)
	}
	rule.ForwardCount++
	rule.LastForwarded = at
	return nil
}

func (s *MemoryStore) Automations() ([]model.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	automations := make([]model.Automation, 0, len(s.automates))
	for _, a := range s.automates {
		automations = append(automations, *a)
	}
	sort.Slice(automations, func(i, j int) bool { return automations[i].ID < automations[j].ID })
	return automations, nil
}

func (s *MemoryStore) EnabledAutomations() ([]model.Automation, error) {
	all, _ := s.Automations()
	enabled := all[:0]
	for _, a := range all {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled, nil
}

func (s *MemoryStore) Automation(id string) (*model.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	automation, ok := s.automates[id]
	if !ok {
		return nil, fmt.Errorf("automation %s not found", id)
	}
	copied := *automation
	return &copied, nil
}

func (s *MemoryStore) SaveAutomation(automation *model.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *automation
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.UpdatedAt = time.Now()
	s.automates[copied.ID] = &copied
	return nil
}

func (s *MemoryStore) DeleteAutomation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.automates, id)
	return nil
}

func (s *MemoryStore) SetAutomationEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	automation, ok := s.automates[id]
	if !ok {
		return fmt.Errorf("automation %s not found", id)
	}
	automation.Enabled = enabled
	return nil
}

func (s *MemoryStore) IncrementRunCount(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	automation, ok := s.automates[id]
	if !ok {
		return fmt.Errorf("automation %s not found", id)
	}
	automation.RunCount++
	automation.LastRun = at
	return nil
}

func (s *MemoryStore) Shortcuts() ([]model.Shortcut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shortcuts := make([]model.Shortcut, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		shortcuts = append(shortcuts, *sc)
	}
	sort.Slice(shortcuts, func(i, j int) bool { return shortcuts[i].ID < shortcuts[j].ID })
	return shortcuts, nil
}

func (s *MemoryStore) Shortcut(id string) (*model.Shortcut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shortcut, ok := s.shortcuts[id]
	if !ok {
		return nil, fmt.Errorf("shortcut %s not found", id)
	}
	copied := *shortcut
	return &copied, nil
}

func (s *MemoryStore) SaveShortcut(shortcut *model.Shortcut) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *shortcut
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.UpdatedAt = time.Now()
	s.shortcuts[copied.ID] = &copied
	return nil
}

func (s *MemoryStore) DeleteShortcut(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shortcuts, id)
	return nil
}

func (s *MemoryStore) IncrementShortcutRunCount(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shortcut, ok := s.shortcuts[id]
	if !ok {
		return fmt.Errorf("shortcut %s not found", id)
	}
	shortcut.RunCount++
	shortcut.LastRun = at
	return nil
}

func (s *MemoryStore) AppendLogEntry(entry *model.ExecutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, *entry)
	return nil
}

func (s *MemoryStore) LogEntries(limit, offset int) ([]model.ExecutionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]model.ExecutionLogEntry, len(s.log))
	copy(entries, s.log)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) PruneLogEntries(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.log[:0]
	var pruned int64
	for _, e := range s.log {
		if e.Timestamp.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	s.log = kept
	return pruned, nil
}
