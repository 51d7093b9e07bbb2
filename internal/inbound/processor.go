// Package inbound accepts message events from outside (webhook, mailbox
// poller) and fans them out to the forwarding and automation paths.
package inbound

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shortcoder-go/internal/confirm"
	"shortcoder-go/internal/event"
	"shortcoder-go/internal/metrics"
	"shortcoder-go/internal/rules"
	"shortcoder-go/internal/trigger"
)

// Processor routes one inbound message to the rule engine (forwarding) and
// the trigger matcher (automation firing). The two paths are independent
// and run concurrently.
type Processor struct {
	engine  *rules.Engine
	matcher *trigger.Matcher
	gate    *confirm.Gate
	metrics *metrics.Metrics
}

// NewProcessor creates an inbound message processor.
func NewProcessor(engine *rules.Engine, matcher *trigger.Matcher, gate *confirm.Gate, m *metrics.Metrics) *Processor {
	return &Processor{
		engine:  engine,
		matcher: matcher,
		gate:    gate,
		metrics: m,
	}
}

// HandleMessage processes one message event and blocks until the forwarding
// path and all non-pending automation runs complete. Callers processing
// multiple events run HandleMessage on separate goroutines.
func (p *Processor) HandleMessage(ctx context.Context, msg event.Message) {
	start := time.Now()
	logrus.Infof("Processing inbound message from %s", msg.Sender)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.engine.Forward(ctx, msg)
	}()

	go func() {
		defer wg.Done()
		matched, err := p.matcher.MatchMessage(ctx, msg)
		if err != nil {
			// Fatal for this event only; the next event retries.
			logrus.Errorf("Failed to match message triggers: %v", err)
			return
		}
		var runs sync.WaitGroup
		for _, automation := range matched {
			automation := automation
			runs.Add(1)
			go func() {
				defer runs.Done()
				status, _ := p.gate.FireAutomation(ctx, automation)
				logrus.Infof("Automation %q run finished with status %s", automation.Name, status)
			}()
		}
		runs.Wait()
	}()

	wg.Wait()
	if p.metrics != nil {
		p.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}
}

// HandleMessageAsync processes the event on its own goroutine.
func (p *Processor) HandleMessageAsync(ctx context.Context, msg event.Message) {
	go p.HandleMessage(ctx, msg)
}
