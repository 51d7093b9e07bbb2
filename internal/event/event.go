// Package event defines the inbound events the runtime reacts to: received
// messages, periodic ticks, and system-state snapshots.
package event

import "time"

// MessageKind distinguishes plain text messages from MMS-style ones.
type MessageKind string

const (
	KindSMS MessageKind = "sms"
	KindMMS MessageKind = "mms"
)

// Message is an inbound text message.
type Message struct {
	Sender    string      `json:"sender"`
	Body      string      `json:"body"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
}

// Tick is a periodic wall-clock tick from the monitor loop.
type Tick struct {
	Now time.Time
}

// State is a snapshot of the host's system state. Tags carries the names of
// the bare trigger families currently asserted (e.g. "CONNECT_WIFI",
// "LOW_POWER_MODE_ON"); triggers outside the interpreted families match by
// tag equality only.
type State struct {
	At           time.Time `json:"at"`
	BatteryLevel int       `json:"battery_level"`
	Connectivity string    `json:"connectivity"`
	Idle         bool      `json:"idle"`
	Charging     bool      `json:"charging"`
	Tags         []string  `json:"tags"`
}

// HasTag reports whether the snapshot asserts the given trigger family.
func (s State) HasTag(name string) bool {
	for _, t := range s.Tags {
		if t == name {
			return true
		}
	}
	return false
}
