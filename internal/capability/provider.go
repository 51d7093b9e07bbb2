// Package capability abstracts the host facilities actions ultimately call:
// sending a message, presenting a notification, and launching a named
// capability (app, URL, radio toggle, media capture, ...).
package capability

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Provider is the boundary between the runtime and the host platform.
type Provider interface {
	SendMessage(ctx context.Context, destination, body string) error
	PresentNotification(ctx context.Context, title, body string) error
	LaunchCapability(ctx context.Context, kind string, params map[string]string) error
}

// LogProvider writes every capability invocation to the log without touching
// the outside world. It is the default provider in development mode.
type LogProvider struct{}

// NewLogProvider creates a provider that only logs.
func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (p *LogProvider) SendMessage(ctx context.Context, destination, body string) error {
	logrus.Infof("capability: send message to %s: %s", destination, body)
	return nil
}

func (p *LogProvider) PresentNotification(ctx context.Context, title, body string) error {
	logrus.Infof("capability: notification %q: %s", title, body)
	return nil
}

func (p *LogProvider) LaunchCapability(ctx context.Context, kind string, params map[string]string) error {
	logrus.Infof("capability: launch %s with params %v", kind, params)
	return nil
}
