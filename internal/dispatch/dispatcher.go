// Package dispatch executes ordered action lists against a capability
// provider. Execution is sequential and best-effort: a failing action is
// recorded and the sequence continues.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/capability"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/model"
)

// Outcome is the result of one action attempt.
type Outcome struct {
	ActionID string           `json:"action_id"`
	Type     model.ActionType `json:"type"`
	Title    string           `json:"title"`
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
}

// Result is the outcome of a full Execute call. AllSucceeded is the
// conjunction of every per-action outcome.
type Result struct {
	AllSucceeded bool      `json:"all_succeeded"`
	PerAction    []Outcome `json:"per_action"`
}

type handlerFunc func(ctx context.Context, action model.ShortcutAction) error

// Dispatcher executes action lists. It owns no persistent entity; its only
// state is the set of toggle positions it has applied this process, since
// the provider exposes set rather than toggle semantics.
type Dispatcher struct {
	provider capability.Provider
	metrics  *metrics.Metrics
	handlers map[model.ActionType]handlerFunc

	mu      sync.Mutex
	toggles map[string]bool
}

// NewDispatcher creates a dispatcher bound to the given provider.
func NewDispatcher(provider capability.Provider, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		metrics:  m,
		toggles:  make(map[string]bool),
	}
	d.handlers = map[model.ActionType]handlerFunc{
		model.ActionSendMessage:        d.sendMessage,
		model.ActionSendEmail:          d.sendEmail,
		model.ActionMakeCall:           d.launch("call", "phoneNumber"),
		model.ActionPlayMusic:          d.launch("music", "uri"),
		model.ActionTakePhoto:          d.launch("camera_photo"),
		model.ActionRecordVideo:        d.launch("camera_video"),
		model.ActionToggleWifi:         d.toggle("wifi"),
		model.ActionToggleBluetooth:    d.toggle("bluetooth"),
		model.ActionToggleFlashlight:   d.toggle("flashlight"),
		model.ActionSetVolume:          d.setVolume,
		model.ActionOpenApp:            d.launch("app", "packageName"),
		model.ActionShareText:          d.launch("share", "text"),
		model.ActionOpenURL:            d.launch("url", "url"),
		model.ActionGetWebPage:         d.launch("web_fetch", "url"),
		model.ActionShowNotification:   d.showNotification,
		model.ActionShowAlert:          d.showNotification,
		model.ActionGetCurrentLocation: d.launch("location"),
		model.ActionGetDirections:      d.launch("directions", "destination"),
		model.ActionCreateEvent:        d.launch("calendar_insert", "title"),
		model.ActionGetUpcomingEvents:  d.launch("calendar_query"),
		model.ActionGetContact:         d.launch("contact_query", "name"),
		model.ActionCreateContact:      d.launch("contact_insert", "name"),
		model.ActionSaveToFiles:        d.launch("file_save", "content"),
		model.ActionGetFile:            d.launch("file_get", "path"),
	}
	return d
}

// Execute runs the enabled actions in ascending order. Equal orders keep
// their input position. Failures never abort the remaining actions.
func (d *Dispatcher) Execute(ctx context.Context, actions []model.ShortcutAction) Result {
	enabled := make([]model.ShortcutAction, 0, len(actions))
	for _, a := range actions {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Order < enabled[j].Order })

	result := Result{AllSucceeded: true}
	for _, action := range enabled {
		if ctx.Err() != nil {
			// Host teardown: abandon the rest of the sequence. Applied side
			// effects stay applied.
			logrus.Warnf("Abandoning action sequence after %d of %d actions: %v",
				len(result.PerAction), len(enabled), ctx.Err())
			break
		}
		outcome := d.executeOne(ctx, action)
		if !outcome.Success {
			result.AllSucceeded = false
			if d.metrics != nil {
				d.metrics.ActionFailures.Inc()
			}
		} else if d.metrics != nil {
			d.metrics.ActionSuccesses.Inc()
		}
		result.PerAction = append(result.PerAction, outcome)
	}
	return result
}

func (d *Dispatcher) executeOne(ctx context.Context, action model.ShortcutAction) Outcome {
	outcome := Outcome{ActionID: action.ID, Type: action.Type, Title: action.Title, Success: true}

	handler, ok := d.handlers[action.Type]
	if !ok {
		// Unknown or unimplemented type: no-op success so old runtimes keep
		// working when new action types appear.
		logrus.Warnf("Unknown action type %s for action %q, treating as no-op", action.Type, action.Title)
		return outcome
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("action handler panicked: %v", r)
			}
		}()
		return handler(ctx, action)
	}()
	if err != nil {
		logrus.Errorf("Action %q (%s) failed: %v", action.Title, action.Type, err)
		outcome.Success = false
		outcome.Error = err.Error()
	} else {
		logrus.Debugf("Action %q (%s) succeeded", action.Title, action.Type)
	}
	return outcome
}

func (d *Dispatcher) sendMessage(ctx context.Context, action model.ShortcutAction) error {
	destination := action.Parameters["phoneNumber"]
	if destination == "" {
		destination = action.Parameters["destination"]
	}
	body := action.Parameters["message"]
	if destination == "" || body == "" {
		return fmt.Errorf("send message requires phoneNumber and message parameters")
	}
	return d.provider.SendMessage(ctx, destination, body)
}

func (d *Dispatcher) sendEmail(ctx context.Context, action model.ShortcutAction) error {
	address := action.Parameters["email"]
	if address == "" {
		return fmt.Errorf("send email requires an email parameter")
	}
	params := map[string]string{
		"email":   address,
		"subject": action.Parameters["subject"],
		"body":    action.Parameters["body"],
	}
	return d.provider.LaunchCapability(ctx, "email", params)
}

func (d *Dispatcher) showNotification(ctx context.Context, action model.ShortcutAction) error {
	title := action.Parameters["title"]
	if title == "" {
		title = action.Title
	}
	return d.provider.PresentNotification(ctx, title, action.Parameters["message"])
}

func (d *Dispatcher) setVolume(ctx context.Context, action model.ShortcutAction) error {
	level, err := strconv.Atoi(action.Parameters["level"])
	if err != nil || level < 0 || level > 100 {
		return fmt.Errorf("set volume requires a level parameter between 0 and 100")
	}
	return d.provider.LaunchCapability(ctx, "volume", map[string]string{
		"level": strconv.Itoa(level),
	})
}

// launch builds a handler that forwards the action's parameters to a named
// capability, requiring the listed parameter keys to be present.
func (d *Dispatcher) launch(kind string, required ...string) handlerFunc {
	return func(ctx context.Context, action model.ShortcutAction) error {
		for _, key := range required {
			if action.Parameters[key] == "" {
				return fmt.Errorf("%s requires a %s parameter", kind, key)
			}
		}
		params := make(map[string]string, len(action.Parameters))
		for k, v := range action.Parameters {
			params[k] = v
		}
		return d.provider.LaunchCapability(ctx, kind, params)
	}
}

// toggle builds a handler for toggle-type actions. The provider only offers
// set semantics, so the dispatcher remembers the position it last applied
// within this process.
func (d *Dispatcher) toggle(kind string) handlerFunc {
	return func(ctx context.Context, action model.ShortcutAction) error {
		d.mu.Lock()
		next := !d.toggles[kind]
		d.mu.Unlock()

		// An explicit "enabled" parameter overrides the remembered position.
		if v, ok := action.Parameters["enabled"]; ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s toggle has invalid enabled parameter %q", kind, v)
			}
			next = parsed
		}

		err := d.provider.LaunchCapability(ctx, kind, map[string]string{
			"enabled": strconv.FormatBool(next),
		})
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.toggles[kind] = next
		d.mu.Unlock()
		return nil
	}
}
