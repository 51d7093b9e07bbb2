// Package rules evaluates inbound messages against forwarding rules and the
// global forwarding settings, sends matching forwards, and records every
// attempt in the execution log.
package rules

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/capability"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/store"
)

// StateSource supplies the current system-state snapshot for rules gated on
// the idle state.
type StateSource interface {
	Snapshot(ctx context.Context) (event.State, error)
}

// Engine is the forwarding-rule evaluator.
type Engine struct {
	store    store.Store
	provider capability.Provider
	state    StateSource
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewEngine creates a rule engine. state may be nil when no idle gating is
// available; idle-gated rules then never match.
func NewEngine(s store.Store, provider capability.Provider, state StateSource, m *metrics.Metrics) *Engine {
	return &Engine{
		store:    s,
		provider: provider,
		state:    state,
		metrics:  m,
		now:      time.Now,
	}
}

// Forward evaluates one inbound message against the global settings and
// every enabled rule. A message may be forwarded multiple times: the global
// path and each matching rule are independent. A failed send never stops
// evaluation of the remaining rules.
func (e *Engine) Forward(ctx context.Context, msg event.Message) {
	settings, err := e.store.ForwardingSettings()
	if err != nil {
		logrus.Errorf("Failed to load forwarding settings: %v", err)
		return
	}

	if settings.GlobalForwardingEnabled && settings.GlobalDestination != "" {
		e.forwardOne(ctx, msg, settings.GlobalDestination, settings.GlobalPrefix,
			settings.IncludeOriginalSender, model.GlobalRuleID, settings.LogForwardedMessages)
	}

	enabledRules, err := e.store.EnabledForwardingRules()
	if err != nil {
		logrus.Errorf("Failed to load forwarding rules: %v", err)
		return
	}

	for _, rule := range enabledRules {
		if rule.QuietHoursEnabled && InQuietHours(rule.QuietHoursStart, rule.QuietHoursEnd, e.now()) {
			logrus.Debugf("Rule %q suppressed by quiet hours", rule.Name)
			continue
		}
		if rule.OnlyWhenIdle && !e.isIdle(ctx) {
			logrus.Debugf("Rule %q requires idle state, device not idle", rule.Name)
			continue
		}
		if !Matches(rule.RuleType, rule.SourceList, msg.Sender, msg.Body) {
			continue
		}

		sent := e.forwardOne(ctx, msg, rule.Destination, rule.Prefix,
			rule.IncludeOriginalSender, rule.ID, settings.LogForwardedMessages)
		if sent {
			if err := e.store.IncrementForwardCount(rule.ID, e.now()); err != nil {
				logrus.Errorf("Failed to increment forward count for rule %s: %v", rule.ID, err)
			}
		}
	}
}

// forwardOne sends a single forward and logs the attempt. Returns whether
// the send succeeded.
func (e *Engine) forwardOne(ctx context.Context, msg event.Message, destination, prefix string, includeSender bool, ruleID string, logAttempt bool) bool {
	body := BuildForwardedBody(msg.Sender, msg.Body, prefix, includeSender)

	sendErr := e.provider.SendMessage(ctx, destination, body)
	if sendErr != nil {
		logrus.Errorf("Failed to forward message to %s (rule %s): %v", destination, ruleID, sendErr)
		if e.metrics != nil {
			e.metrics.ForwardFailures.Inc()
		}
	} else {
		logrus.Infof("Forwarded message from %s to %s (rule %s)", msg.Sender, destination, ruleID)
		if e.metrics != nil {
			e.metrics.ForwardSuccesses.Inc()
		}
	}

	if logAttempt {
		entry := &model.ExecutionLogEntry{
			ID:             uuid.NewString(),
			OriginalSender: msg.Sender,
			OriginalBody:   msg.Body,
			Destination:    destination,
			ForwardedBody:  body,
			RuleID:         ruleID,
			Timestamp:      msg.Timestamp,
			Success:        sendErr == nil,
		}
		if sendErr != nil {
			entry.Error = sendErr.Error()
			entry.ForwardedBody = ""
		}
		if err := e.store.AppendLogEntry(entry); err != nil {
			logrus.Errorf("Failed to append execution log entry: %v", err)
		}
	}
	return sendErr == nil
}

func (e *Engine) isIdle(ctx context.Context) bool {
	if e.state == nil {
		return false
	}
	snapshot, err := e.state.Snapshot(ctx)
	if err != nil {
		logrus.Warnf("Failed to read system state: %v", err)
		return false
	}
	return snapshot.Idle
}

// Matches reports whether a rule of the given type and source list matches
// the sender/body pair. Pure function of its arguments. An empty source list
// only means "all" for FORWARD_ALL; every other type never matches on an
// empty list.
func Matches(ruleType model.ForwardingRuleType, sourceList []string, sender, body string) bool {
	if ruleType == model.ForwardAll {
		return true
	}
	if len(sourceList) == 0 {
		return false
	}
	switch ruleType {
	case model.ForwardFromSpecific:
		return containsExact(sourceList, sender)
	case model.ForwardExceptSpecific:
		return !containsExact(sourceList, sender)
	case model.ForwardContainingKeywords:
		return containsKeyword(sourceList, body)
	case model.ForwardNotContainingKeywords:
		return !containsKeyword(sourceList, body)
	default:
		return false
	}
}

func containsExact(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func containsKeyword(keywords []string, body string) bool {
	lower := strings.ToLower(body)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// BuildForwardedBody assembles the forwarded payload:
// "[prefix ][From: <sender> - ]body".
func BuildForwardedBody(sender, body, prefix string, includeSender bool) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(" ")
	}
	if includeSender {
		b.WriteString("From: ")
		b.WriteString(sender)
		b.WriteString(" - ")
	}
	b.WriteString(body)
	return b.String()
}

// InQuietHours reports whether at falls inside the half-open window
// [start, end). A window with start > end wraps midnight. Malformed times
// disable the window rather than failing.
func InQuietHours(start, end string, at time.Time) bool {
	startMin, ok := parseClock(start)
	if !ok {
		return false
	}
	endMin, ok := parseClock(end)
	if !ok {
		return false
	}
	current := at.Hour()*60 + at.Minute()

	if startMin == endMin {
		return false
	}
	if startMin < endMin {
		return current >= startMin && current < endMin
	}
	// Window wraps midnight: [start, 24:00) union [0:00, end).
	return current >= startMin || current < endMin
}

func parseClock(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
