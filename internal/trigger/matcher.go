// Package trigger decides which stored automations an inbound event fires.
package trigger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/event"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/store"
)

// Matcher evaluates events against the stored automation triggers. It keeps
// a per-automation last-fired minute for TIME_OF_DAY so a trigger never
// refires within the same minute even when polled more than once.
type Matcher struct {
	store   store.Store
	metrics *metrics.Metrics

	mu        sync.Mutex
	lastFired map[string]string // automation id -> "HH:MM" minute key of last fire
}

// NewMatcher creates a trigger matcher.
func NewMatcher(s store.Store, m *metrics.Metrics) *Matcher {
	return &Matcher{
		store:     s,
		metrics:   m,
		lastFired: make(map[string]string),
	}
}

// MatchMessage returns the automations fired by an inbound message.
func (m *Matcher) MatchMessage(ctx context.Context, msg event.Message) ([]model.Automation, error) {
	automations, err := m.store.EnabledAutomations()
	if err != nil {
		return nil, fmt.Errorf("failed to load automations: %w", err)
	}

	var matched []model.Automation
	for _, a := range automations {
		want := model.TriggerReceiveMessage
		if msg.Kind == event.KindMMS {
			want = model.TriggerReceiveMMS
		}
		if a.Trigger.Type != want {
			continue
		}
		if messageMatches(a.Trigger.Parameters, msg.Sender, msg.Body) {
			matched = append(matched, a)
		}
	}
	m.count(matched)
	return matched, nil
}

// MatchTick returns the automations fired by a wall-clock tick. Each
// TIME_OF_DAY automation fires at most once per minute.
func (m *Matcher) MatchTick(ctx context.Context, tick event.Tick) ([]model.Automation, error) {
	automations, err := m.store.EnabledAutomations()
	if err != nil {
		return nil, fmt.Errorf("failed to load automations: %w", err)
	}

	minute := tick.Now.Format("15:04")
	var matched []model.Automation
	for _, a := range automations {
		if a.Trigger.Type != model.TriggerTimeOfDay {
			continue
		}
		configured, ok := a.Trigger.Parameters["time"]
		if !ok || !validClock(configured) {
			// Malformed trigger parameters never match and never fail.
			continue
		}
		if configured != minute {
			continue
		}
		if !m.markFired(a.ID, minute) {
			logrus.Debugf("Automation %q already fired for minute %s, skipping", a.Name, minute)
			continue
		}
		matched = append(matched, a)
	}
	m.count(matched)
	return matched, nil
}

// MatchState returns the automations fired by a system-state snapshot.
// BATTERY_LEVEL is evaluated against the snapshot's level per the trigger's
// condition; every other family matches by bare type-name equality against
// the snapshot's asserted tags. Parameters of those families are not
// interpreted; this is a documented extension point.
func (m *Matcher) MatchState(ctx context.Context, state event.State) ([]model.Automation, error) {
	automations, err := m.store.EnabledAutomations()
	if err != nil {
		return nil, fmt.Errorf("failed to load automations: %w", err)
	}

	var matched []model.Automation
	for _, a := range automations {
		switch a.Trigger.Type {
		case model.TriggerTimeOfDay, model.TriggerReceiveMessage, model.TriggerReceiveMMS:
			// Driven by their own event families.
		case model.TriggerBatteryLevel:
			if batteryMatches(a.Trigger.Parameters, state.BatteryLevel) {
				matched = append(matched, a)
			}
		default:
			if state.HasTag(string(a.Trigger.Type)) {
				matched = append(matched, a)
			}
		}
	}
	m.count(matched)
	return matched, nil
}

// markFired records the fire minute for an automation and reports whether
// this call won the minute.
func (m *Matcher) markFired(id, minute string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastFired[id] == minute {
		return false
	}
	m.lastFired[id] = minute
	return true
}

func (m *Matcher) count(matched []model.Automation) {
	if m.metrics != nil && len(matched) > 0 {
		m.metrics.TriggerMatches.Add(float64(len(matched)))
	}
}

// messageMatches applies the optional sender and keyword filters. An absent
// filter is a wildcard; both present filters must hold.
func messageMatches(params model.ParamMap, sender, body string) bool {
	if want := params["sender"]; want != "" && want != sender {
		return false
	}
	if keyword := params["keyword"]; keyword != "" {
		if !strings.Contains(strings.ToLower(body), strings.ToLower(keyword)) {
			return false
		}
	}
	return true
}

// batteryMatches evaluates the level/condition parameters against the
// latest known battery level. Missing or invalid parameters never match.
func batteryMatches(params model.ParamMap, level int) bool {
	threshold, err := strconv.Atoi(params["level"])
	if err != nil {
		return false
	}
	switch params["condition"] {
	case "below", "":
		return level < threshold
	case "above":
		return level > threshold
	case "equals":
		return level == threshold
	default:
		return false
	}
}

func validClock(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}
