// Package confirm gates automation runs behind an explicit yes/no decision.
// Automations that do not require confirmation pass straight through.
package confirm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/dispatch"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/store"
)

// RunStatus is the terminal state of one automation run attempt.
type RunStatus string

const (
	// StatusExecuted means the actions ran (possibly with per-action failures).
	StatusExecuted RunStatus = "executed"
	// StatusCancelled means the user declined. Not an error.
	StatusCancelled RunStatus = "cancelled"
	// StatusTimedOut means no decision arrived before the timeout.
	StatusTimedOut RunStatus = "timed_out"
	// StatusDuplicate means a confirmation for this automation was already
	// pending and the new trigger match was ignored.
	StatusDuplicate RunStatus = "duplicate"
)

// Request is the confirmation request emitted to the decision surface.
type Request struct {
	AutomationID string `json:"automation_id"`
	Name         string `json:"name"`
	ActionCount  int    `json:"action_count"`
}

// Requester delivers a confirmation request to whatever surface collects
// the decision (notification, prompt, API client).
type Requester interface {
	RequestConfirmation(ctx context.Context, req Request) error
}

// Gate suspends confirmation-required automation runs until a decision
// arrives or the timeout elapses, and executes the action list on the far
// side. Run counts are incremented exactly once per completed run.
type Gate struct {
	store      store.Store
	dispatcher *dispatch.Dispatcher
	requester  Requester
	metrics    *metrics.Metrics
	timeout    time.Duration

	mu      sync.Mutex
	pending map[string]chan bool // automation id -> decision channel
}

// NewGate creates a confirmation gate.
func NewGate(s store.Store, d *dispatch.Dispatcher, requester Requester, timeout time.Duration, m *metrics.Metrics) *Gate {
	return &Gate{
		store:      s,
		dispatcher: d,
		requester:  requester,
		metrics:    m,
		timeout:    timeout,
		pending:    make(map[string]chan bool),
	}
}

// FireAutomation runs one matched automation through the gate. It blocks
// the calling goroutine while a confirmation is pending.
func (g *Gate) FireAutomation(ctx context.Context, automation model.Automation) (RunStatus, dispatch.Result) {
	if !automation.RequiresConfirmation {
		return StatusExecuted, g.execute(ctx, automation)
	}

	decision, ok := g.admit(automation.ID)
	if !ok {
		logrus.Debugf("Confirmation already pending for automation %q, ignoring trigger", automation.Name)
		return StatusDuplicate, dispatch.Result{}
	}
	defer g.release(automation.ID)

	req := Request{
		AutomationID: automation.ID,
		Name:         automation.Name,
		ActionCount:  len(automation.Actions),
	}
	if err := g.requester.RequestConfirmation(ctx, req); err != nil {
		logrus.Errorf("Failed to deliver confirmation request for %q: %v", automation.Name, err)
		// The request never reached the user; resolve as a timeout-class
		// skip rather than waiting the full window.
		return StatusTimedOut, dispatch.Result{}
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case confirmed := <-decision:
		if !confirmed {
			logrus.Infof("Automation %q cancelled by user", automation.Name)
			if g.metrics != nil {
				g.metrics.ConfirmationCancels.Inc()
			}
			return StatusCancelled, dispatch.Result{}
		}
		return StatusExecuted, g.execute(ctx, automation)
	case <-timer.C:
		logrus.Infof("Confirmation for automation %q timed out", automation.Name)
		if g.metrics != nil {
			g.metrics.ConfirmationTimeouts.Inc()
		}
		return StatusTimedOut, dispatch.Result{}
	case <-ctx.Done():
		logrus.Warnf("Confirmation for automation %q abandoned: %v", automation.Name, ctx.Err())
		return StatusTimedOut, dispatch.Result{}
	}
}

// Resolve delivers a decision for a pending confirmation. Returns an error
// when no confirmation is pending for the id.
func (g *Gate) Resolve(automationID string, confirmed bool) error {
	g.mu.Lock()
	decision, ok := g.pending[automationID]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending confirmation for automation %s", automationID)
	}
	select {
	case decision <- confirmed:
		return nil
	default:
		// A concurrent decision or timeout already settled this run.
		return fmt.Errorf("confirmation for automation %s already resolved", automationID)
	}
}

// Pending lists the automation ids currently awaiting a decision.
func (g *Gate) Pending() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	return ids
}

func (g *Gate) admit(automationID string) (chan bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.pending[automationID]; exists {
		return nil, false
	}
	decision := make(chan bool, 1)
	g.pending[automationID] = decision
	if g.metrics != nil {
		g.metrics.PendingConfirmations.Inc()
	}
	return decision, true
}

func (g *Gate) release(automationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, automationID)
	if g.metrics != nil {
		g.metrics.PendingConfirmations.Dec()
	}
}

func (g *Gate) execute(ctx context.Context, automation model.Automation) dispatch.Result {
	result := g.dispatcher.Execute(ctx, automation.Actions)
	if err := g.store.IncrementRunCount(automation.ID, time.Now()); err != nil {
		logrus.Errorf("Failed to increment run count for automation %s: %v", automation.ID, err)
	}
	if g.metrics != nil {
		g.metrics.AutomationRuns.Inc()
	}
	if result.AllSucceeded {
		logrus.Infof("Automation %q completed, %d actions", automation.Name, len(result.PerAction))
	} else {
		logrus.Warnf("Automation %q completed with failures", automation.Name)
	}
	return result
}
