// Package notifier delivers change notifications to configured chat and
// webhook channels. Delivery is best-effort: failures are logged and never
// retried within a tick, and they never roll back detection state.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// Event types carried by a Payload.
const (
	EventChanged = "value.changed"
	EventResent  = "value.resent"
	EventTest    = "test"
)

// Channel is one configured notification destination.
type Channel struct {
	Type     string            `json:"type" yaml:"type"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Setting returns a named settings value, or "" when absent.
func (c *Channel) Setting(key string) string {
	return c.Settings[key]
}

// Payload carries the notification data for one detected change.
type Payload struct {
	Event    string  `json:"event"`
	Target   string  `json:"target"`
	Website  string  `json:"website"`
	OldValue *string `json:"old_value,omitempty"`
	NewValue string  `json:"new_value"`
	Diff     string  `json:"diff,omitempty"`
}

// Sender delivers a payload via one channel type.
type Sender interface {
	Type() string
	Send(ctx context.Context, channel *Channel, payload *Payload) error
}

// Dispatcher routes payloads to the senders matching each channel's type,
// rate-limiting outbound calls across all channels.
type Dispatcher struct {
	senders map[string]Sender
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher with all built-in senders registered.
// ratePerSec and burst bound outbound API calls; zero values pick defaults
// tolerated by the Telegram Bot API.
func NewDispatcher(ratePerSec float64, burst int, logger *slog.Logger) *Dispatcher {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 5
	}
	d := &Dispatcher{
		senders: make(map[string]Sender),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  logger,
	}
	for _, s := range builtinSenders() {
		d.RegisterSender(s)
	}
	return d
}

func builtinSenders() []Sender {
	return []Sender{
		&TelegramSender{},
		&DiscordSender{},
		&SlackSender{},
		&WebhookSender{},
	}
}

// KnownChannelType reports whether typ names a built-in sender. Used at
// config load so a mistyped channel type fails startup instead of being
// skipped on every dispatch.
func KnownChannelType(typ string) bool {
	for _, s := range builtinSenders() {
		if s.Type() == typ {
			return true
		}
	}
	return false
}

// RegisterSender adds a sender for a channel type.
func (d *Dispatcher) RegisterSender(s Sender) {
	d.senders[s.Type()] = s
}

// KnownType reports whether a sender is registered for the channel type.
func (d *Dispatcher) KnownType(typ string) bool {
	_, ok := d.senders[typ]
	return ok
}

// Dispatch sends the payload to every channel in order. A failing channel
// does not stop delivery to the remaining ones.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, payload *Payload) {
	for i := range channels {
		ch := &channels[i]
		sender, ok := d.senders[ch.Type]
		if !ok {
			d.logger.Warn("no sender for channel type", "type", ch.Type)
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return
		}
		if err := sender.Send(ctx, ch, payload); err != nil {
			d.logger.Error("notification send failed",
				"target", payload.Target,
				"channel_type", ch.Type,
				"error", err,
			)
			continue
		}
		d.logger.Info("notification sent",
			"target", payload.Target,
			"channel_type", ch.Type,
			"event", payload.Event,
		)
	}
}

// FormatMessage creates the human-readable notification text.
func FormatMessage(p *Payload) string {
	switch p.Event {
	case EventChanged:
		if p.OldValue != nil {
			return fmt.Sprintf("[CHANGE] %s: %s (was %s)", p.Target, p.NewValue, *p.OldValue)
		}
		return fmt.Sprintf("[CHANGE] %s: %s", p.Target, p.NewValue)
	case EventResent:
		return fmt.Sprintf("[RESEND] %s: %s", p.Target, p.NewValue)
	case EventTest:
		return fmt.Sprintf("[TEST] %s: this is a test notification", p.Target)
	}
	return fmt.Sprintf("[%s] %s: %s", p.Event, p.Target, p.NewValue)
}

func marshalPayload(p *Payload) []byte {
	b, _ := json.Marshal(p)
	return b
}
