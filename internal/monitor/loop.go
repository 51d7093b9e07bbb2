// Package monitor drives the time- and system-state-based triggers, the two
// families with no natural push source.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/confirm"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/model"
	"shortcoder-go/internal/rules"
	"shortcoder-go/internal/store"
	"shortcoder-go/internal/trigger"
)

// Loop polls the trigger matcher at a fixed interval. Ticks never overlap;
// a tick still running when the next fires causes the next to be skipped.
type Loop struct {
	cron    *cron.Cron
	entryID cron.EntryID

	interval              time.Duration
	settingsCheckMultiple int

	store   store.Store
	matcher *trigger.Matcher
	gate    *confirm.Gate
	state   rules.StateSource
	metrics *metrics.Metrics

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	tickCount int
	now       func() time.Time
}

// NewLoop creates a monitor loop. state may be nil; state-based triggers
// then never fire.
func NewLoop(interval time.Duration, settingsCheckMultiple int, s store.Store, matcher *trigger.Matcher, gate *confirm.Gate, state rules.StateSource, m *metrics.Metrics) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := cron.PrintfLogger(logrus.StandardLogger())
	return &Loop{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		interval:              interval,
		settingsCheckMultiple: settingsCheckMultiple,
		store:                 s,
		matcher:               matcher,
		gate:                  gate,
		state:                 state,
		metrics:               m,
		ctx:                   ctx,
		cancel:                cancel,
		now:                   time.Now,
	}
}

// Start begins ticking.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isRunning {
		return fmt.Errorf("monitor loop is already running")
	}

	schedule := fmt.Sprintf("@every %ds", int(l.interval.Seconds()))
	entryID, err := l.cron.AddFunc(schedule, l.tick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	l.entryID = entryID
	l.cron.Start()
	l.isRunning = true

	logrus.Infof("Monitor loop started with interval %s", l.interval)
	return nil
}

// Stop stops the loop and waits briefly for an in-flight tick.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isRunning {
		return nil
	}

	l.cancel()
	ctx := l.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Monitor loop stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Monitor loop stop timeout, forcing shutdown")
	}

	l.isRunning = false
	return nil
}

// IsRunning returns whether the loop is ticking.
func (l *Loop) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isRunning
}

// NextRun returns the time of the next scheduled tick.
func (l *Loop) NextRun() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.isRunning {
		return time.Time{}
	}
	return l.cron.Entry(l.entryID).Next
}

// Wait blocks until all in-flight automation runs started by ticks finish.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// tick is one poll cycle. A panicking tick is recovered and logged; the
// loop continues on the next interval.
func (l *Loop) tick() {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Monitor tick panicked: %v", r)
		}
	}()

	l.mu.Lock()
	l.tickCount++
	count := l.tickCount
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.TickCount.Inc()
	}

	now := l.now()
	logrus.Debugf("Monitor tick at %s", now.Format(time.RFC3339))

	l.checkTimeTriggers(now)
	l.checkStateTriggers(now)

	if count%l.settingsCheckMultiple == 0 {
		l.checkForwardingSettings()
	}
}

// RunOnce runs a single tick synchronously (for manual triggering and
// tests).
func (l *Loop) RunOnce() {
	l.tick()
}

func (l *Loop) checkTimeTriggers(now time.Time) {
	matched, err := l.matcher.MatchTick(l.ctx, event.Tick{Now: now})
	if err != nil {
		// Store unavailability is fatal for this tick only.
		logrus.Errorf("Failed to match time triggers: %v", err)
		return
	}
	l.fire(matched)
}

func (l *Loop) checkStateTriggers(now time.Time) {
	if l.state == nil {
		return
	}
	snapshot, err := l.state.Snapshot(l.ctx)
	if err != nil {
		logrus.Warnf("Failed to read system state: %v", err)
		return
	}
	snapshot.At = now
	matched, err := l.matcher.MatchState(l.ctx, snapshot)
	if err != nil {
		logrus.Errorf("Failed to match state triggers: %v", err)
		return
	}
	l.fire(matched)
}

// fire hands each matched automation to the confirmation gate on its own
// goroutine so a pending confirmation never blocks the tick.
func (l *Loop) fire(matched []model.Automation) {
	for _, automation := range matched {
		automation := automation
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			status, _ := l.gate.FireAutomation(l.ctx, automation)
			logrus.Infof("Automation %q run finished with status %s", automation.Name, status)
		}()
	}
}

// checkForwardingSettings is the slower sanity pass over the forwarding
// configuration, also refreshing the rule gauges.
func (l *Loop) checkForwardingSettings() {
	settings, err := l.store.ForwardingSettings()
	if err != nil {
		logrus.Errorf("Failed to load forwarding settings: %v", err)
		return
	}
	if settings.GlobalForwardingEnabled && settings.GlobalDestination == "" {
		logrus.Warn("Global forwarding is enabled but no destination is configured")
	}

	all, err := l.store.ForwardingRules()
	if err != nil {
		logrus.Errorf("Failed to load forwarding rules: %v", err)
		return
	}
	active := 0
	for _, rule := range all {
		if rule.Enabled {
			active++
		}
	}
	if l.metrics != nil {
		l.metrics.TotalRules.Set(float64(len(all)))
		l.metrics.ActiveRules.Set(float64(active))
	}
}
