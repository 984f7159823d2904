package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

type TelegramSender struct {
	// APIBase overrides the Telegram API endpoint; used by tests.
	APIBase string
}

func (s *TelegramSender) Type() string { return "telegram" }

func (s *TelegramSender) apiURL(token, method string) string {
	base := s.APIBase
	if base == "" {
		base = telegramAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, token, method)
}

func (s *TelegramSender) Send(ctx context.Context, channel *Channel, payload *Payload) error {
	token := channel.Setting("bot_token")
	chatID := channel.Setting("chat_id")
	if token == "" || chatID == "" {
		return fmt.Errorf("telegram bot_token and chat_id are required")
	}

	text := html.EscapeString(FormatMessage(payload))

	body, _ := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL(token, "sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// LastChannelPost returns the text of the chat's most recent channel post,
// or the file name of its attached document when the post has no text.
// Returns "" when the chat has no recent posts.
func (s *TelegramSender) LastChannelPost(ctx context.Context, readToken, chatID string) (string, error) {
	if readToken == "" {
		return "", fmt.Errorf("telegram read_bot_token is required")
	}

	u := s.apiURL(readToken, "getUpdates")
	if chatID != "" {
		u += "?chat_id=" + url.QueryEscape(chatID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var updates struct {
		Result []struct {
			ChannelPost struct {
				Text     string `json:"text"`
				Document struct {
					FileName string `json:"file_name"`
				} `json:"document"`
			} `json:"channel_post"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return "", fmt.Errorf("decode updates: %w", err)
	}
	if len(updates.Result) == 0 {
		return "", nil
	}

	last := updates.Result[len(updates.Result)-1].ChannelPost
	if last.Text != "" {
		return last.Text, nil
	}
	return last.Document.FileName, nil
}
