// Package notify delivers alert notifications to chat channels.
package notify

import (
	"context"
	"errors"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// Notifier delivers alerts and lifecycle messages.
type Notifier interface {
	// Send delivers one fired alert for the asset in s.
	Send(ctx context.Context, s domain.Snapshot, a domain.Alert) error

	// SendText delivers a plain lifecycle message (startup, trade closed).
	SendText(ctx context.Context, text string) error
}

// MultiNotifier fans out to every configured notifier.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a fan-out over the non-nil notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of wrapped notifiers.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Send delivers to every notifier and joins their errors.
func (m *MultiNotifier) Send(ctx context.Context, s domain.Snapshot, a domain.Alert) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, s, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendText delivers to every notifier and joins their errors.
func (m *MultiNotifier) SendText(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.SendText(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time interface checks
var (
	_ Notifier = (*MultiNotifier)(nil)
	_ Notifier = (*DiscordNotifier)(nil)
	_ Notifier = (*TelegramNotifier)(nil)
)
