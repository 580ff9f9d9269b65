package app

import (
	"github.com/amirasaad/corebank/pkg/handler/notification"
)

// setupEventBus registers the subscribers of the outcome events.
func (a *App) setupEventBus() {
	logger := a.Deps.Logger
	notifier := notification.LogNotifier{Logger: logger.With("component", "notifier")}
	notification.NewSubscriber(notifier, logger).Register(a.Deps.EventBus)
}
