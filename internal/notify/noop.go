package notify

import (
	"context"

	"github.com/pulseguard/pulse-sentinel/internal/models"
)

// NoopNotifier discards notifications. Used when no side-channel is
// configured.
type NoopNotifier struct{}

// NotifyCritical does nothing.
func (NoopNotifier) NotifyCritical(context.Context, models.Alert) error { return nil }

// Close does nothing.
func (NoopNotifier) Close() error { return nil }
