// Package store provides persistence for shortcuts, automations, forwarding
// rules, settings, and the execution log. The runtime only depends on the
// Store interface; counter increments are atomic at the store boundary so
// concurrent runs never lose updates.
package store

import (
	"time"

	"shortcoder-go/internal/model"
)

// Store is the persistence boundary consumed by the runtime components.
type Store interface {
	// Forwarding settings (singleton row)
	ForwardingSettings() (*model.ForwardingSettings, error)
	SaveForwardingSettings(settings *model.ForwardingSettings) error

	// Forwarding rules
	ForwardingRules() ([]model.ForwardingRule, error)
	EnabledForwardingRules() ([]model.ForwardingRule, error)
	ForwardingRule(id string) (*model.ForwardingRule, error)
	SaveForwardingRule(rule *model.ForwardingRule) error
	DeleteForwardingRule(id string) error
	SetForwardingRuleEnabled(id string, enabled bool) error
	// IncrementForwardCount atomically bumps forward_count and sets
	// last_forwarded for the rule.
	IncrementForwardCount(id string, at time.Time) error

	// Automations
	Automations() ([]model.Automation, error)
	EnabledAutomations() ([]model.Automation, error)
	Automation(id string) (*model.Automation, error)
	SaveAutomation(automation *model.Automation) error
	DeleteAutomation(id string) error
	SetAutomationEnabled(id string, enabled bool) error
	// IncrementRunCount atomically bumps run_count and sets last_run.
	IncrementRunCount(id string, at time.Time) error

	// Shortcuts
	Shortcuts() ([]model.Shortcut, error)
	Shortcut(id string) (*model.Shortcut, error)
	SaveShortcut(shortcut *model.Shortcut) error
	DeleteShortcut(id string) error
	IncrementShortcutRunCount(id string, at time.Time) error

	// Execution log (append-only)
	AppendLogEntry(entry *model.ExecutionLogEntry) error
	LogEntries(limit, offset int) ([]model.ExecutionLogEntry, error)
	PruneLogEntries(before time.Time) (int64, error)
}
