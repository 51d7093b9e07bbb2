package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcoder-go/internal/model"
)

func TestMemoryStoreSettingsDefaults(t *testing.T) {
	st := NewMemoryStore()

	settings, err := st.ForwardingSettings()
	require.NoError(t, err)
	assert.Equal(t, model.ForwardingSettingsID, settings.ID)
	assert.False(t, settings.GlobalForwardingEnabled)
	assert.Equal(t, "[Forwarded]", settings.GlobalPrefix)
	assert.True(t, settings.IncludeOriginalSender)
	assert.True(t, settings.LogForwardedMessages)

	settings.GlobalForwardingEnabled = true
	settings.GlobalDestination = "+1999"
	require.NoError(t, st.SaveForwardingSettings(settings))

	loaded, err := st.ForwardingSettings()
	require.NoError(t, err)
	assert.True(t, loaded.GlobalForwardingEnabled)
	assert.Equal(t, "+1999", loaded.GlobalDestination)
}

func TestMemoryStoreRuleRoundTrip(t *testing.T) {
	st := NewMemoryStore()

	rule := &model.ForwardingRule{
		ID:         "rule-1",
		Name:       "otp",
		Enabled:    true,
		RuleType:   model.ForwardContainingKeywords,
		SourceList: model.StringList{"OTP"},
	}
	require.NoError(t, st.SaveForwardingRule(rule))

	loaded, err := st.ForwardingRule("rule-1")
	require.NoError(t, err)
	assert.Equal(t, rule.Name, loaded.Name)
	assert.Equal(t, model.StringList{"OTP"}, loaded.SourceList)

	// Mutating the returned copy never leaks into the store.
	loaded.Name = "changed"
	again, err := st.ForwardingRule("rule-1")
	require.NoError(t, err)
	assert.Equal(t, "otp", again.Name)

	require.NoError(t, st.SetForwardingRuleEnabled("rule-1", false))
	enabled, err := st.EnabledForwardingRules()
	require.NoError(t, err)
	assert.Empty(t, enabled)

	require.NoError(t, st.DeleteForwardingRule("rule-1"))
	_, err = st.ForwardingRule("rule-1")
	assert.Error(t, err)
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.SaveForwardingRule(&model.ForwardingRule{
		ID: "rule-1", Name: "r", Enabled: true, RuleType: model.ForwardAll,
	}))
	require.NoError(t, st.SaveAutomation(&model.Automation{ID: "auto-1", Name: "a"}))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.IncrementForwardCount("rule-1", time.Now()))
			assert.NoError(t, st.IncrementRunCount("auto-1", time.Now()))
		}()
	}
	wg.Wait()

	rule, err := st.ForwardingRule("rule-1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), rule.ForwardCount)

	automation, err := st.Automation("auto-1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), automation.RunCount)
}

func TestMemoryStoreLogPagingAndPrune(t *testing.T) {
	st := NewMemoryStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, st.AppendLogEntry(&model.ExecutionLogEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			RuleID:    "rule-1",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Success:   true,
		}))
	}

	// Newest first.
	entries, err := st.LogEntries(3, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry-9", entries[0].ID)
	assert.Equal(t, "entry-7", entries[2].ID)

	entries, err = st.LogEntries(3, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry-6", entries[0].ID)

	entries, err = st.LogEntries(10, 20)
	require.NoError(t, err)
	assert.Empty(t, entries)

	pruned, err := st.PruneLogEntries(base.Add(5 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(5), pruned)

	entries, err = st.LogEntries(20, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestMemoryStoreShortcutRunCount(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.SaveShortcut(&model.Shortcut{ID: "sc-1", Name: "demo", Enabled: true}))

	at := time.Now()
	require.NoError(t, st.IncrementShortcutRunCount("sc-1", at))
	require.NoError(t, st.IncrementShortcutRunCount("sc-1", at))

	shortcut, err := st.Shortcut("sc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), shortcut.RunCount)

	assert.Error(t, st.IncrementShortcutRunCount("missing", at))
}
