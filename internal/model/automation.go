package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TriggerType identifies the event family an automation listens for.
type TriggerType string

const (
	// Time-based triggers
	TriggerTimeOfDay TriggerType = "TIME_OF_DAY"
	TriggerAlarm     TriggerType = "ALARM"

	// Location-based triggers
	TriggerArriveLocation TriggerType = "ARRIVE_LOCATION"
	TriggerLeaveLocation  TriggerType = "LEAVE_LOCATION"

	// Communication triggers
	TriggerReceiveMessage TriggerType = "RECEIVE_MESSAGE"
	TriggerReceiveMMS     TriggerType = "RECEIVE_MMS"
	TriggerReceiveEmail   TriggerType = "RECEIVE_EMAIL"

	// App triggers
	TriggerOpenApp  TriggerType = "OPEN_APP"
	TriggerCloseApp TriggerType = "CLOSE_APP"

	// Device triggers
	TriggerConnectBluetooth    TriggerType = "CONNECT_BLUETOOTH"
	TriggerDisconnectBluetooth TriggerType = "DISCONNECT_BLUETOOTH"
	TriggerConnectWifi         TriggerType = "CONNECT_WIFI"
	TriggerDisconnectWifi      TriggerType = "DISCONNECT_WIFI"
	TriggerConnectCharger      TriggerType = "CONNECT_CHARGER"
	TriggerDisconnectCharger   TriggerType = "DISCONNECT_CHARGER"
	TriggerBatteryLevel        TriggerType = "BATTERY_LEVEL"

	// System triggers
	TriggerAirplaneModeOn  TriggerType = "AIRPLANE_MODE_ON"
	TriggerAirplaneModeOff TriggerType = "AIRPLANE_MODE_OFF"
	TriggerDoNotDisturbOn  TriggerType = "DO_NOT_DISTURB_ON"
	TriggerDoNotDisturbOff TriggerType = "DO_NOT_DISTURB_OFF"
	TriggerLowPowerModeOn  TriggerType = "LOW_POWER_MODE_ON"
	TriggerLowPowerModeOff TriggerType = "LOW_POWER_MODE_OFF"

	// Call triggers
	TriggerCallReceived TriggerType = "CALL_RECEIVED"
	TriggerCallMissed   TriggerType = "CALL_MISSED"

	TriggerCustom TriggerType = "CUSTOM_TRIGGER"
)

// AutomationTrigger pairs a trigger type with its loosely typed parameters.
// Parameters are interpreted per type; invalid or missing parameters mean
// the trigger never matches, they never fail evaluation.
type AutomationTrigger struct {
	Type       TriggerType `json:"type"`
	Parameters ParamMap    `json:"parameters"`
}

// Value implements driver.Valuer, storing the trigger as a JSON column.
func (t AutomationTrigger) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *AutomationTrigger) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// Automation is a stored trigger plus an ordered action list, fired
// autonomously by the runtime. The runtime only mutates RunCount and
// LastRun, exactly once per completed run.
type Automation struct {
	ID                   string            `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name                 string            `json:"name" gorm:"type:varchar(255);not null"`
	Description          string            `json:"description" gorm:"type:text"`
	Trigger              AutomationTrigger `json:"trigger" gorm:"type:text"`
	Actions              ActionList        `json:"actions" gorm:"type:text"`
	Enabled              bool              `json:"enabled" gorm:"default:true;index"`
	RequiresConfirmation bool              `json:"requires_confirmation" gorm:"default:true"`
	RunCount             int64             `json:"run_count" gorm:"default:0"`
	LastRun              time.Time         `json:"last_run"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Automation
func (Automation) TableName() string {
	return "automations"
}

// Shortcut is a stored ordered action list fired explicitly by a user.
type Shortcut struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name                 string     `json:"name" gorm:"type:varchar(255);not null"`
	Description          string     `json:"description" gorm:"type:text"`
	Actions              ActionList `json:"actions" gorm:"type:text"`
	Enabled              bool       `json:"enabled" gorm:"default:true"`
	RequiresConfirmation bool       `json:"requires_confirmation" gorm:"default:false"`
	RunCount             int64      `json:"run_count" gorm:"default:0"`
	LastRun              time.Time  `json:"last_run"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Shortcut
func (Shortcut) TableName() string {
	return "shortcuts"
}
