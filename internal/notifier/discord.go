package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type DiscordSender struct{}

func (s *DiscordSender) Type() string { return "discord" }

func (s *DiscordSender) Send(ctx context.Context, channel *Channel, payload *Payload) error {
	webhookURL := channel.Setting("webhook_url")
	if webhookURL == "" {
		return fmt.Errorf("discord webhook_url is required")
	}

	description := payload.NewValue
	if payload.Diff != "" {
		description = "```diff\n" + payload.Diff + "```"
	}

	body, _ := json.Marshal(map[string]any{
		"username": "webwatch",
		"embeds": []map[string]any{
			{
				"title":       FormatMessage(payload),
				"color":       0xE67E22,
				"description": description,
				"url":         payload.Website,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}

	return nil
}
