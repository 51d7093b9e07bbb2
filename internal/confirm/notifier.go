package confirm

import (
	"context"
	"fmt"

	"shortcoder-go/internal/capability"
)

// NotificationRequester surfaces confirmation requests through the
// capability provider's notification facility. The decision itself comes
// back over the API via Gate.Resolve.
type NotificationRequester struct {
	provider capability.Provider
}

// NewNotificationRequester creates a requester backed by the provider.
func NewNotificationRequester(provider capability.Provider) *NotificationRequester {
	return &NotificationRequester{provider: provider}
}

func (r *NotificationRequester) RequestConfirmation(ctx context.Context, req Request) error {
	body := fmt.Sprintf("%s is ready to run (%d actions). Confirm or cancel via the API.",
		req.Name, req.ActionCount)
	return r.provider.PresentNotification(ctx, "Automation ready", body)
}
