package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shortcoder-go/internal/model"
)

// GormStore implements Store on top of a gorm database handle.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ForwardingSettings() (*model.ForwardingSettings, error) {
	var settings model.ForwardingSettings
	result := s.db.Where("id = ?", model.ForwardingSettingsID).First(&settings)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return model.DefaultForwardingSettings(), nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get forwarding settings: %w", result.Error)
	}
	return &settings, nil
}

func (s *GormStore) SaveForwardingSettings(settings *model.ForwardingSettings) error {
	settings.ID = model.ForwardingSettingsID
	if err := s.db.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save forwarding settings: %w", err)
	}
	return nil
}

func (s *GormStore) ForwardingRules() ([]model.ForwardingRule, error) {
	var rules []model.ForwardingRule
	if err := s.db.Order("created_at").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	return rules, nil
}

func (s *GormStore) EnabledForwardingRules() ([]model.ForwardingRule, error) {
	var rules []model.ForwardingRule
	if err := s.db.Where("enabled = ?", true).Order("created_at").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to get enabled rules: %w", err)
	}
	return rules, nil
}

func (s *GormStore) ForwardingRule(id string) (*model.ForwardingRule, error) {
	var rule model.ForwardingRule
	if err := s.db.Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, fmt.Errorf("failed to get rule %s: %w", id, err)
	}
	return &rule, nil
}

func (s *GormStore) SaveForwardingRule(rule *model.ForwardingRule) error {
	if err := s.db.Save(rule).Error; err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteForwardingRule(id string) error {
	if err := s.db.Delete(&model.ForwardingRule{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) SetForwardingRuleEnabled(id string, enabled bool) error {
	if err := s.db.Model(&model.ForwardingRule{}).Where("id = ?", id).Update("enabled", enabled).Error; err != nil {
		return fmt.Errorf("failed to set rule %s enabled=%t: %w", id, enabled, err)
	}
	return nil
}

func (s *GormStore) IncrementForwardCount(id string, at time.Time) error {
	err := s.db.Model(&model.ForwardingRule{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"forward_count":  gorm.Expr("forward_count + 1"),
			"last_forwarded": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment forward count for %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) Automations() ([]model.Automation, error) {
	var automations []model.Automation
	if err := s.db.Order("updated_at desc").Find(&automations).Error; err != nil {
		return nil, fmt.Errorf("failed to get automations: %w", err)
	}
	return automations, nil
}

func (s *GormStore) EnabledAutomations() ([]model.Automation, error) {
	var automations []model.Automation
	if err := s.db.Where("enabled = ?", true).Find(&automations).Error; err != nil {
		return nil, fmt.Errorf("failed to get enabled automations: %w", err)
	}
	return automations, nil
}

func (s *GormStore) Automation(id string) (*model.Automation, error) {
	var automation model.Automation
	if err := s.db.Where("id = ?", id).First(&automation).Error; err != nil {
		return nil, fmt.Errorf("failed to get automation %s: %w", id, err)
	}
	return &automation, nil
}

func (s *GormStore) SaveAutomation(automation *model.Automation) error {
	if err := s.db.Save(automation).Error; err != nil {
		return fmt.Errorf("failed to save automation: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteAutomation(id string) error {
	if err := s.db.Delete(&model.Automation{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) SetAutomationEnabled(id string, enabled bool) error {
	if err := s.db.Model(&model.Automation{}).Where("id = ?", id).Update("enabled", enabled).Error; err != nil {
		return fmt.Errorf("failed to set automation %s enabled=%t: %w", id, enabled, err)
	}
	return nil
}

func (s *GormStore) IncrementRunCount(id string, at time.Time) error {
	err := s.db.Model(&model.Automation{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"run_count": gorm.Expr("run_count + 1"),
			"last_run":  at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment run count for %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) Shortcuts() ([]model.Shortcut, error) {
	var shortcuts []model.Shortcut
	if err := s.db.Order("updated_at desc").Find(&shortcuts).Error; err != nil {
		return nil, fmt.Errorf("failed to get shortcuts: %w", err)
	}
	return shortcuts, nil
}

func (s *GormStore) Shortcut(id string) (*model.Shortcut, error) {
	var shortcut model.Shortcut
	if err := s.db.Where("id = ?", id).First(&shortcut).Error; err != nil {
		return nil, fmt.Errorf("failed to get shortcut %s: %w", id, err)
	}
	return &shortcut, nil
}

func (s *GormStore) SaveShortcut(shortcut *model.Shortcut) error {
	if err := s.db.Save(shortcut).Error; err != nil {
		return fmt.Errorf("failed to save shortcut: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteShortcut(id string) error {
	if err := s.db.Delete(&model.Shortcut{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete shortcut %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) IncrementShortcutRunCount(id string, at time.Time) error {
	err := s.db.Model(&model.Shortcut{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"run_count": gorm.Expr("run_count + 1"),
			"last_run":  at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment shortcut run count for %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) AppendLogEntry(entry *model.ExecutionLogEntry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func (s *GormStore) LogEntries(limit, offset int) ([]model.ExecutionLogEntry, error) {
	var entries []model.ExecutionLogEntry
	if err := s.db.Order("timestamp desc").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to get log entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) PruneLogEntries(before time.Time) (int64, error) {
	result := s.db.Where("timestamp < ?", before).Delete(&model.ExecutionLogEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune log entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
