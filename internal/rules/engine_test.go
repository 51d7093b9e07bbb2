package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcoder-go/internal/event"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/store"
)

type sentMessage struct {
	Destination string
	Body        string
}

// fakeProvider records sends and can fail specific destinations.
type fakeProvider struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fail: make(map[string]bool)}
}

func (p *fakeProvider) SendMessage(ctx context.Context, destination, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[destination] {
		return errors.New("send failed")
	}
	p.sent = append(p.sent, sentMessage{Destination: destination, Body: body})
	return nil
}

func (p *fakeProvider) PresentNotification(ctx context.Context, title, body string) error {
	return nil
}

func (p *fakeProvider) LaunchCapability(ctx context.Context, kind string, params map[string]string) error {
	return nil
}

func (p *fakeProvider) sentTo(destination string) []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []sentMessage
	for _, s := range p.sent {
		if s.Destination == destination {
			out = append(out, s)
		}
	}
	return out
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		ruleType   model.ForwardingRuleType
		sourceList []string
		sender     string
		body       string
		want       bool
	}{
		{"forward all always matches", model.ForwardAll, nil, "+1000", "hi", true},
		{"from specific hit", model.ForwardFromSpecific, []string{"+1000"}, "+1000", "hi", true},
		{"from specific miss", model.ForwardFromSpecific, []string{"+1000"}, "+2000", "hi", false},
		{"from specific empty list never matches", model.ForwardFromSpecific, nil, "+1000", "hi", false},
		{"except specific blocks listed sender", model.ForwardExceptSpecific, []string{"+1000"}, "+1000", "hi", false},
		{"except specific passes others", model.ForwardExceptSpecific, []string{"+1000"}, "+2000", "hi", true},
		{"except specific empty list never matches", model.ForwardExceptSpecific, nil, "+1000", "hi", false},
		{"keyword case-insensitive substring", model.ForwardContainingKeywords, []string{"OTP"}, "+1000", "your otp is 1234", true},
		{"keyword miss", model.ForwardContainingKeywords, []string{"OTP"}, "+1000", "hello", false},
		{"keyword empty list never matches", model.ForwardContainingKeywords, nil, "+1000", "hello", false},
		{"not containing passes clean body", model.ForwardNotContainingKeywords, []string{"spam"}, "+1000", "hello", true},
		{"not containing blocks keyword", model.ForwardNotContainingKeywords, []string{"spam"}, "+1000", "SPAM offer", false},
		{"not containing empty list never matches", model.ForwardNotContainingKeywords, nil, "+1000", "hello", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.ruleType, tt.sourceList, tt.sender, tt.body))
		})
	}
}

func TestMatchesExceptIsNegationOfFrom(t *testing.T) {
	sourceList := []string{"+1000", "+2000"}
	for _, sender := range []string{"+1000", "+2000", "+3000", ""} {
		from := Matches(model.ForwardFromSpecific, sourceList, sender, "body")
		except := Matches(model.ForwardExceptSpecific, sourceList, sender, "body")
		assert.Equal(t, !from, except, "sender %q", sender)
	}
}

func TestInQuietHours(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, 8, 28, hour, minute, 0, 0, time.UTC)
	}

	// Window wrapping midnight
	assert.True(t, InQuietHours("22:00", "06:00", at(23, 30)))
	assert.True(t, InQuietHours("22:00", "06:00", at(5, 0)))
	assert.False(t, InQuietHours("22:00", "06:00", at(12, 0)))

	// Plain window, half-open on the right
	assert.True(t, InQuietHours("09:00", "17:00", at(9, 0)))
	assert.True(t, InQuietHours("09:00", "17:00", at(16, 59)))
	assert.False(t, InQuietHours("09:00", "17:00", at(17, 0)))

	// Malformed times disable the window
	assert.False(t, InQuietHours("", "06:00", at(3, 0)))
	assert.False(t, InQuietHours("25:00", "06:00", at(3, 0)))
	assert.False(t, InQuietHours("2200", "0600", at(3, 0)))
}

func TestBuildForwardedBody(t *testing.T) {
	assert.Equal(t, "[Fwd] From: +1000 - hello",
		BuildForwardedBody("+1000", "hello", "[Fwd]", true))
	assert.Equal(t, "From: +1000 - hello",
		BuildForwardedBody("+1000", "hello", "", true))
	assert.Equal(t, "[Fwd] hello",
		BuildForwardedBody("+1000", "hello", "[Fwd]", false))
	assert.Equal(t, "hello",
		BuildForwardedBody("+1000", "hello", "", false))
}

func TestForwardKeywordRuleScenario(t *testing.T) {
	st := store.NewMemoryStore()
	provider := newFakeProvider()
	engine := NewEngine(st, provider, nil, nil)

	rule := &model.ForwardingRule{
		ID:          "rule-1",
		Name:        "otp",
		Enabled:     true,
		RuleType:    model.ForwardContainingKeywords,
		SourceList:  model.StringList{"OTP", "code"},
		Destination: "+1555",
	}
	require.NoError(t, st.SaveForwardingRule(rule))

	engine.Forward(context.Background(), event.Message{
		Sender:    "+1000",
		Body:      "Your code is 4821",
		Timestamp: time.Now(),
	})

	sent := provider.sentTo("+1555")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "4821")

	entries, err := st.LogEntries(10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rule-1", entries[0].RuleID)
	assert.True(t, entries[0].Success)
	assert.Contains(t, entries[0].ForwardedBody, "4821")

	updated, err := st.ForwardingRule("rule-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ForwardCount)
	assert.False(t, updated.LastForwarded.IsZero())
}

func TestForwardGlobalAndRuleAreIndependent(t *testing.T) {
	st := store.NewMemoryStore()
	provider := newFakeProvider()
	engine := NewEngine(st, provider, nil, nil)

	require.NoError(t, st.SaveForwardingSettings(&model.ForwardingSettings{
		GlobalForwardingEnabled: true,
		GlobalDestination:       "+1999",
		GlobalPrefix:            "[Forwarded]",
		IncludeOriginalSender:   true,
		LogForwardedMessages:    true,
	}))
	require.NoError(t, st.SaveForwardingRule(&model.ForwardingRule{
		ID:          "rule-1",
		Name:        "all",
		Enabled:     true,
		RuleType:    model.ForwardAll,
		Destination: "+1555",
	}))

	engine.Forward(context.Background(), event.Message{Sender: "+1000", Body: "hi", Timestamp: time.Now()})

	assert.Len(t, provider.sentTo("+1999"), 1)
	assert.Len(t, provider.sentTo("+1555"), 1)

	entries, err := st.LogEntries(10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ruleIDs := []string{entries[0].RuleID, entries[1].RuleID}
	assert.Contains(t, ruleIDs, model.GlobalRuleID)
	assert.Contains(t, ruleIDs, "rule-1")
}

func TestForwardSendFailureDoesNotStopOtherRules(t *testing.T) {
	st := store.NewMemoryStore()
	provider := newFakeProvider()
	provider.fail["+1555"] = true
	engine := NewEngine(st, provider, nil, nil)

	first := &model.ForwardingRule{
		ID: "rule-1", Name: "first", Enabled: true,
		RuleType: model.ForwardAll, Destination: "+1555",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	second := &model.ForwardingRule{
		ID: "rule-2", Name: "second", Enabled: true,
		RuleType: model.ForwardAll, Destination: "+1666",
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.SaveForwardingRule(first))
	require.NoError(t, st.SaveForwardingRule(second))

	engine.Forward(context.Background(), event.Message{Sender: "+1000", Body: "hi", Timestamp: time.Now()})

	// Second rule still forwarded despite the first failing.
	assert.Len(t, provider.sentTo("+1666"), 1)

	// Failed rule keeps its counter, successful rule increments.
	failed, err := st.ForwardingRule("rule-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), failed.ForwardCount)

	ok, err := st.ForwardingRule("rule-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ok.ForwardCount)

	// Both attempts logged, failure recorded as such.
	entries, err := st.LogEntries(10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestForwardQuietHoursSuppression(t *testing.T) {
	st := store.NewMemoryStore()
	provider := newFakeProvider()
	engine := NewEngine(st, provider, nil, nil)
	engine.now = func() time.Time {
		return time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC)
	}

	require.NoError(t, st.SaveForwardingRule(&model.ForwardingRule{
		ID: "rule-1", Name: "quiet", Enabled: true,
		RuleType: model.ForwardAll, Destination: "+1555",
		QuietHoursEnabled: true, QuietHoursStart: "22:00", QuietHoursEnd: "06:00",
	}))

	engine.Forward(context.Background(), event.Message{Sender: "+1000", Body: "hi", Timestamp: time.Now()})
	assert.Empty(t, provider.sentTo("+1555"))
}

func TestForwardIdleGate(t *testing.T) {
	st := store.NewMemoryStore()
	provider := newFakeProvider()
	state := event.NewStaticSource()
	engine := NewEngine(st, provider, state, nil)

	require.NoError(t, st.SaveForwardingRule(&model.ForwardingRule{
		ID: "rule-1", Name: "idle only", Enabled: true,
		RuleType: model.ForwardAll, Destination: "+1555",
		OnlyWhenIdle: true,
	}))

	engine.Forward(context.Background(), event.Message{Sender: "+1000", Body: "hi", Timestamp: time.Now()})
	assert.Empty(t, provider.sentTo("+1555"))

	state.Set(event.State{Idle: true, BatteryLevel: 80})
	engine.Forward(context.Background(), event.Message{Sender: "+1000", Body: "hi", Timestamp: time.Now()})
	assert.Len(t, provider.sentTo("+1555"), 1)
}
