package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ActionType identifies the capability a ShortcutAction invokes.
type ActionType string

const (
	// Communication actions
	ActionSendMessage ActionType = "SEND_MESSAGE"
	ActionSendEmail   ActionType = "SEND_EMAIL"
	ActionMakeCall    ActionType = "MAKE_CALL"

	// Media actions
	ActionPlayMusic   ActionType = "PLAY_MUSIC"
	ActionTakePhoto   ActionType = "TAKE_PHOTO"
	ActionRecordVideo ActionType = "RECORD_VIDEO"

	// System actions
	ActionToggleWifi       ActionType = "TOGGLE_WIFI"
	ActionToggleBluetooth  ActionType = "TOGGLE_BLUETOOTH"
	ActionSetVolume        ActionType = "SET_VOLUME"
	ActionToggleFlashlight ActionType = "TOGGLE_FLASHLIGHT"

	// App actions
	ActionOpenApp   ActionType = "OPEN_APP"
	ActionShareText ActionType = "SHARE_TEXT"

	// Web actions
	ActionOpenURL    ActionType = "OPEN_URL"
	ActionGetWebPage ActionType = "GET_WEB_PAGE"

	// Text actions
	ActionGetTextFromInput ActionType = "GET_TEXT_FROM_INPUT"
	ActionShowNotification ActionType = "SHOW_NOTIFICATION"
	ActionShowAlert        ActionType = "SHOW_ALERT"

	// Location actions
	ActionGetCurrentLocation ActionType = "GET_CURRENT_LOCATION"
	ActionGetDirections      ActionType = "GET_DIRECTIONS"

	// Calendar actions
	ActionCreateEvent       ActionType = "CREATE_EVENT"
	ActionGetUpcomingEvents ActionType = "GET_UPCOMING_EVENTS"

	// Contacts actions
	ActionGetContact    ActionType = "GET_CONTACT"
	ActionCreateContact ActionType = "CREATE_CONTACT"

	// File actions
	ActionSaveToFiles ActionType = "SAVE_TO_FILES"
	ActionGetFile     ActionType = "GET_FILE"

	// Custom
	ActionCustom ActionType = "CUSTOM_ACTION"
)

// ShortcutAction is one unit of work inside a Shortcut or Automation.
// Order defines the execution sequence within its parent list; ties keep
// insertion order.
type ShortcutAction struct {
	ID         string     `json:"id"`
	Type       ActionType `json:"type"`
	Title      string     `json:"title"`
	Parameters ParamMap   `json:"parameters"`
	Enabled    bool       `json:"enabled"`
	Order      int        `json:"order"`
}

// ParamMap is a loosely typed string-keyed parameter bag, stored as JSON.
type ParamMap map[string]string

// Value implements driver.Valuer.
func (p ParamMap) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *ParamMap) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// ActionList is an ordered action list, stored as a JSON column.
type ActionList []ShortcutAction

// Value implements driver.Valuer.
func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *ActionList) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// StringList is a JSON-encoded list of numbers or keywords.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
