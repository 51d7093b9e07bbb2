package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcoder-go/internal/capability"
	"shortcoder-go/internal/confirm"
	"shortcoder-go/internal/dispatch"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/inbound"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/monitor"
	"shortcoder-go/internal/rules"
	"shortcoder-go/internal/store"
	"shortcoder-go/internal/trigger"
)

type silentRequester struct{}

func (silentRequester) RequestConfirmation(ctx context.Context, req confirm.Request) error {
	return nil
}

func setupTest(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	provider := capability.NewLogProvider()
	state := event.NewStaticSource()
	dispatcher := dispatch.NewDispatcher(provider, nil)
	engine := rules.NewEngine(st, provider, state, nil)
	matcher := trigger.NewMatcher(st, nil)
	gate := confirm.NewGate(st, dispatcher, silentRequester{}, time.Second, nil)
	processor := inbound.NewProcessor(engine, matcher, gate, nil)
	loop := monitor.NewLoop(time.Minute, 5, st, matcher, gate, state, nil)

	h := NewHandlers(st, processor, gate, dispatcher, loop, state)
	router := gin.New()
	h.SetupRoutes(router)
	return router, st
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTest(t)
	w := doJSON(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRuleLifecycle(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodPost, "/api/v1/rules", gin.H{
		"name":        "otp",
		"rule_type":   "FORWARD_CONTAINING_KEYWORDS",
		"source_list": []string{"OTP"},
		"destination": "+1555",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.ForwardingRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)
	assert.True(t, created.IncludeOriginalSender)

	w = doJSON(router, http.MethodGet, "/api/v1/rules", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/rules/"+created.ID+"/disable", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.ForwardingRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.False(t, fetched.Enabled)

	w = doJSON(router, http.MethodPut, "/api/v1/rules/"+created.ID, gin.H{
		"destination": "+1666",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRuleValidation(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodPost, "/api/v1/rules", gin.H{"name": "no destination"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestSettingsRoundTrip(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings model.ForwardingSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.False(t, settings.GlobalForwardingEnabled)

	settings.GlobalForwardingEnabled = true
	settings.GlobalDestination = "+1999"
	w = doJSON(router, http.MethodPut, "/api/v1/settings", settings)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.True(t, settings.GlobalForwardingEnabled)
	assert.Equal(t, "+1999", settings.GlobalDestination)
}

func TestCreateAutomationDefaults(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodPost, "/api/v1/automations", gin.H{
		"name": "missing trigger",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/automations", gin.H{
		"name": "morning",
		"trigger": gin.H{
			"type":       "TIME_OF_DAY",
			"parameters": gin.H{"time": "07:30"},
		},
		"actions": []gin.H{{
			"type":       "SHOW_NOTIFICATION",
			"title":      "wake",
			"parameters": gin.H{"title": "wake", "message": "up"},
			"enabled":    true,
			"order":      1,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var automation model.Automation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &automation))
	assert.True(t, automation.Enabled)
	assert.True(t, automation.RequiresConfirmation)
	require.Len(t, automation.Actions, 1)
	assert.NotEmpty(t, automation.Actions[0].ID)
}

func TestRunShortcut(t *testing.T) {
	router, st := setupTest(t)

	w := doJSON(router, http.MethodPost, "/api/v1/shortcuts", gin.H{
		"name": "greet",
		"actions": []gin.H{{
			"type":       "SHOW_NOTIFICATION",
			"title":      "hello",
			"parameters": gin.H{"title": "hello", "message": "world"},
			"enabled":    true,
			"order":      1,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var shortcut model.Shortcut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shortcut))

	w = doJSON(router, http.MethodPost, "/api/v1/shortcuts/"+shortcut.ID+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.AllSucceeded)
	assert.Len(t, result.PerAction, 1)

	stored, err := st.Shortcut(shortcut.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.RunCount)

	w = doJSON(router, http.MethodPost, "/api/v1/shortcuts/"+shortcut.ID+"/disable", nil)
	assert.Equal(t, http.StatusNotFound, w.Code) // shortcuts have no disable route

	w = doJSON(router, http.MethodPost, "/api/v1/shortcuts/missing/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunDisabledShortcutConflicts(t *testing.T) {
	router, st := setupTest(t)

	require.NoError(t, st.SaveShortcut(&model.Shortcut{
		ID: "sc-1", Name: "off", Enabled: false,
	}))

	w := doJSON(router, http.MethodPost, "/api/v1/shortcuts/sc-1/run", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInboundMessageForwards(t *testing.T) {
	router, st := setupTest(t)

	require.NoError(t, st.SaveForwardingRule(&model.ForwardingRule{
		ID: "rule-1", Name: "all", Enabled: true,
		RuleType: model.ForwardAll, Destination: "+1555",
	}))

	w := doJSON(router, http.MethodPost, "/api/v1/messages/inbound", gin.H{
		"sender": "+1000",
		"body":   "hello",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		entries, err := st.LogEntries(10, 0)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w = doJSON(router, http.MethodGet, "/api/v1/logs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rule-1")
}

func TestInboundMessageValidation(t *testing.T) {
	router, _ := setupTest(t)
	w := doJSON(router, http.MethodPost, "/api/v1/messages/inbound", gin.H{"sender": "+1000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPruneLogs(t *testing.T) {
	router, st := setupTest(t)

	old := time.Now().AddDate(0, 0, -60)
	require.NoError(t, st.AppendLogEntry(&model.ExecutionLogEntry{
		ID: "old", RuleID: "rule-1", Timestamp: old, Success: true,
	}))
	require.NoError(t, st.AppendLogEntry(&model.ExecutionLogEntry{
		ID: "fresh", RuleID: "rule-1", Timestamp: time.Now(), Success: true,
	}))

	w := doJSON(router, http.MethodDelete, "/api/v1/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pruned":1`)

	w = doJSON(router, http.MethodDelete, "/api/v1/logs?before=not-a-time", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmationEndpoints(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodGet, "/api/v1/confirmations", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":[]`)

	w = doJSON(router, http.MethodPost, "/api/v1/confirmations/missing/confirm", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStateRoundTrip(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(router, http.MethodPut, "/api/v1/state", gin.H{
		"battery_level": 15,
		"charging":      true,
		"tags":          []string{"CONNECT_CHARGER"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state event.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 15, state.BatteryLevel)
	assert.True(t, state.Charging)
	assert.True(t, state.HasTag("CONNECT_CHARGER"))
}
