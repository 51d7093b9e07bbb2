package model

import "time"

// ForwardingRuleType selects the match semantics of a forwarding rule.
type ForwardingRuleType string

const (
	// ForwardAll forwards every inbound message.
	ForwardAll ForwardingRuleType = "FORWARD_ALL"
	// ForwardFromSpecific forwards only messages whose sender is in SourceList.
	ForwardFromSpecific ForwardingRuleType = "FORWARD_FROM_SPECIFIC"
	// ForwardExceptSpecific forwards everything except senders in SourceList.
	ForwardExceptSpecific ForwardingRuleType = "FORWARD_EXCEPT_SPECIFIC"
	// ForwardContainingKeywords forwards messages containing any SourceList keyword.
	ForwardContainingKeywords ForwardingRuleType = "FORWARD_CONTAINING_KEYWORDS"
	// ForwardNotContainingKeywords forwards messages containing no SourceList keyword.
	ForwardNotContainingKeywords ForwardingRuleType = "FORWARD_NOT_CONTAINING_KEYWORDS"
)

// ForwardingRule decides whether and where an inbound message is re-sent.
// SourceList holds numbers or keywords depending on RuleType. An empty
// SourceList means "all" for FORWARD_ALL only; the other types never match
// on an empty list.
type ForwardingRule struct {
	ID                    string             `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name                  string             `json:"name" gorm:"type:varchar(255);not null"`
	Enabled               bool               `json:"enabled" gorm:"default:true;index"`
	RuleType              ForwardingRuleType `json:"rule_type" gorm:"type:varchar(64);not null"`
	SourceList            StringList         `json:"source_list" gorm:"type:text"`
	Destination           string             `json:"destination" gorm:"type:varchar(255);not null"`
	Prefix                string             `json:"prefix" gorm:"type:varchar(255)"`
	IncludeOriginalSender bool               `json:"include_original_sender" gorm:"default:true"`
	OnlyWhenIdle          bool               `json:"only_when_idle" gorm:"default:false"`
	QuietHoursStart       string             `json:"quiet_hours_start" gorm:"type:varchar(8)"`
	QuietHoursEnd         string             `json:"quiet_hours_end" gorm:"type:varchar(8)"`
	QuietHoursEnabled     bool               `json:"quiet_hours_enabled" gorm:"default:false"`
	ForwardCount          int64              `json:"forward_count" gorm:"default:0"`
	LastForwarded         time.Time          `json:"last_forwarded"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// TableName specifies the table name for ForwardingRule
func (ForwardingRule) TableName() string {
	return "forwarding_rules"
}

// ForwardingSettingsID is the primary key of the singleton settings row.
const ForwardingSettingsID = "default"

// ForwardingSettings is the global forwarding configuration singleton.
type ForwardingSettings struct {
	ID                             string    `json:"id" gorm:"primaryKey;type:varchar(32)"`
	GlobalForwardingEnabled        bool      `json:"global_forwarding_enabled" gorm:"default:false"`
	GlobalDestination              string    `json:"global_destination" gorm:"type:varchar(255)"`
	GlobalPrefix                   string    `json:"global_prefix" gorm:"type:varchar(255)"`
	IncludeOriginalSender          bool      `json:"include_original_sender" gorm:"default:true"`
	LogForwardedMessages           bool      `json:"log_forwarded_messages" gorm:"default:true"`
	RequireConfirmationForNewRules bool      `json:"require_confirmation_for_new_rules" gorm:"default:true"`
	UpdatedAt                      time.Time `json:"updated_at"`
}

// TableName specifies the table name for ForwardingSettings
func (ForwardingSettings) TableName() string {
	return "forwarding_settings"
}

// DefaultForwardingSettings returns the settings row used until the user
// changes anything.
func DefaultForwardingSettings() *ForwardingSettings {
	return &ForwardingSettings{
		ID:                             ForwardingSettingsID,
		GlobalForwardingEnabled:        false,
		GlobalPrefix:                   "[Forwarded]",
		IncludeOriginalSender:          true,
		LogForwardedMessages:           true,
		RequireConfirmationForNewRules: true,
	}
}

// GlobalRuleID is the rule id recorded on log entries produced by the
// global forwarding path rather than a stored rule.
const GlobalRuleID = "global"

// ExecutionLogEntry records one forwarding attempt. Entries are append-only
// and pruned by age by an external retention policy.
type ExecutionLogEntry struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	OriginalSender string    `json:"original_sender" gorm:"type:varchar(255)"`
	OriginalBody   string    `json:"original_body" gorm:"type:text"`
	Destination    string    `json:"destination" gorm:"type:varchar(255)"`
	ForwardedBody  string    `json:"forwarded_body" gorm:"type:text"`
	RuleID         string    `json:"rule_id" gorm:"type:varchar(64);index"`
	Timestamp      time.Time `json:"timestamp" gorm:"index"`
	Success        bool      `json:"success"`
	Error          string    `json:"error" gorm:"type:text"`
}

// TableName specifies the table name for ExecutionLogEntry
func (ExecutionLogEntry) TableName() string {
	return "execution_log"
}
