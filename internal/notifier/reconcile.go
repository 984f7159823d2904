package notifier

import (
	"context"
	"log/slog"
	"strings"
)

// Reconciler checks whether a target's Telegram channel already reflects the
// most recent observed value and re-sends the notification when it lags.
// This covers notifications lost while the process was not running.
type Reconciler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewReconciler(d *Dispatcher, logger *slog.Logger) *Reconciler {
	return &Reconciler{dispatcher: d, logger: logger}
}

// Reconcile reads the last channel post of every Telegram channel that has a
// read_bot_token configured and re-sends value when the post does not match.
// Best-effort: API errors log and skip the channel.
func (r *Reconciler) Reconcile(ctx context.Context, target, website string, channels []Channel, value string) {
	tg, ok := r.dispatcher.senders["telegram"].(*TelegramSender)
	if !ok {
		return
	}

	for i := range channels {
		ch := &channels[i]
		if ch.Type != "telegram" {
			continue
		}
		readToken := ch.Setting("read_bot_token")
		if readToken == "" {
			continue
		}

		last, err := tg.LastChannelPost(ctx, readToken, ch.Setting("chat_id"))
		if err != nil {
			r.logger.Warn("reconcile: read last channel post", "target", target, "error", err)
			continue
		}
		if last == value || last == tailSegment(value) {
			r.logger.Debug("reconcile: channel in sync", "target", target)
			continue
		}

		r.logger.Info("reconcile: channel lags observed value, resending",
			"target", target,
			"last_post", last,
		)
		r.dispatcher.Dispatch(ctx, []Channel{*ch}, &Payload{
			Event:    EventResent,
			Target:   target,
			Website:  website,
			NewValue: value,
		})
	}
}

// tailSegment returns the final path segment of a URL-like value. Telegram
// document posts carry only the file name, not the full URL.
func tailSegment(v string) string {
	if idx := strings.LastIndexByte(v, '/'); idx >= 0 {
		return v[idx+1:]
	}
	return v
}
