package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/webwatch/webwatch/internal/step"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const validJSON = `{
	"configs": [
		{
			"name": "Exam schedule",
			"website": "https://example.com/exams",
			"steps": [
				{"method": "find_text", "params": {"text": "Label"}},
				{"method": "parent"},
				{"method": "get_attribute", "params": {"name": "href"}}
			],
			"bot_token": "123:abc",
			"read_bot_token": "456:def",
			"chat_id": "-100",
			"schedule_interval": "1"
		}
	]
}`

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Watch.Interval.Std() != 5*time.Minute {
		t.Fatalf("expected 5m default interval, got %s", cfg.Watch.Interval)
	}
	if cfg.Watch.Timeout.Std() != 10*time.Second {
		t.Fatalf("expected 10s default timeout, got %s", cfg.Watch.Timeout)
	}
	if cfg.Watch.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Watch.Workers)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadLegacyTelegramConfig(t *testing.T) {
	path := writeConfig(t, "config.json", validJSON)

	cfg, err := Load(path, step.DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Targets) != 1 {
		t.Fatalf("expected one target, got %d", len(cfg.Targets))
	}

	target := cfg.Targets[0]
	if target.Interval.Std() != time.Minute {
		t.Fatalf("expected schedule_interval \"1\" to mean one minute, got %s", target.Interval)
	}
	if len(target.Notify) != 1 {
		t.Fatalf("expected one mapped channel, got %d", len(target.Notify))
	}
	ch := target.Notify[0]
	if ch.Type != "telegram" {
		t.Fatalf("expected telegram channel, got %s", ch.Type)
	}
	if ch.Setting("bot_token") != "123:abc" || ch.Setting("chat_id") != "-100" {
		t.Fatalf("legacy credentials not mapped: %+v", ch.Settings)
	}
	if ch.Setting("read_bot_token") != "456:def" {
		t.Fatalf("read token not mapped: %+v", ch.Settings)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
watch:
  interval: 30s
configs:
  - name: Downloads page
    website: https://example.com/downloads
    steps:
      - method: select
        params: {selector: "a.latest"}
      - method: get_attribute
        params: {name: href}
    notify:
      - type: discord
        settings: {webhook_url: "https://discord.example/hook"}
`)

	cfg, err := Load(path, step.DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Targets[0].Interval.Std() != 30*time.Second {
		t.Fatalf("expected inherited 30s interval, got %s", cfg.Targets[0].Interval)
	}
	if cfg.Targets[0].Notify[0].Type != "discord" {
		t.Fatalf("unexpected channel: %+v", cfg.Targets[0].Notify)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("WW_TEST_TOKEN", "999:secret")
	path := writeConfig(t, "config.json", strings.Replace(validJSON, "123:abc", "${WW_TEST_TOKEN}", 1))

	cfg, err := Load(path, step.DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Targets[0].Notify[0].Setting("bot_token"); got != "999:secret" {
		t.Fatalf("expected env-expanded token, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errSub  string
	}{
		{
			name:    "malformed json",
			content: `{"configs": [`,
			errSub:  "parse config",
		},
		{
			name:    "no targets",
			content: `{"configs": []}`,
			errSub:  "at least one target",
		},
		{
			name: "missing steps",
			content: `{"configs": [{"name": "t", "website": "https://example.com",
				"bot_token": "x", "chat_id": "y", "schedule_interval": 1}]}`,
			errSub: "steps",
		},
		{
			name: "unknown method",
			content: `{"configs": [{"name": "t", "website": "https://example.com",
				"steps": [{"method": "teleport"}],
				"bot_token": "x", "chat_id": "y", "schedule_interval": 1}]}`,
			errSub: "unknown method",
		},
		{
			name: "terminal step not last",
			content: `{"configs": [{"name": "t", "website": "https://example.com",
				"steps": [{"method": "get_attribute", "params": {"name": "href"}}, {"method": "parent"}],
				"bot_token": "x", "chat_id": "y", "schedule_interval": 1}]}`,
			errSub: "last step",
		},
		{
			name: "relative website",
			content: `{"configs": [{"name": "t", "website": "/not-absolute",
				"steps": [{"method": "parent"}],
				"bot_token": "x", "chat_id": "y", "schedule_interval": 1}]}`,
			errSub: "absolute http",
		},
		{
			name: "zero interval",
			content: `{"watch": {"interval": "0s"}, "configs": [{"name": "t", "website": "https://example.com",
				"steps": [{"method": "parent"}],
				"bot_token": "x", "chat_id": "y"}]}`,
			errSub: "interval must be positive",
		},
		{
			name: "no notification channel",
			content: `{"configs": [{"name": "t", "website": "https://example.com",
				"steps": [{"method": "parent"}], "schedule_interval": 1}]}`,
			errSub: "notification channel",
		},
		{
			name: "unknown channel type",
			content: `{"configs": [{"name": "t", "website": "https://example.com",
				"steps": [{"method": "parent"}], "schedule_interval": 1,
				"notify": [{"type": "telgram", "settings": {"bot_token": "x", "chat_id": "y"}}]}]}`,
			errSub: "unknown channel type",
		},
		{
			name: "duplicate names",
			content: `{"configs": [
				{"name": "t", "website": "https://example.com", "steps": [{"method": "parent"}],
					"bot_token": "x", "chat_id": "y", "schedule_interval": 1},
				{"name": "t", "website": "https://example.com", "steps": [{"method": "parent"}],
					"bot_token": "x", "chat_id": "y", "schedule_interval": 1}
			]}`,
			errSub: "duplicate name",
		},
		{
			name:    "bad log level",
			content: strings.Replace(`{"logging": {"level": "loud"}, CONFIGS}`, "CONFIGS", validJSON[1:len(validJSON)-1], 1),
			errSub:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "config.json", tt.content)
			_, err := Load(path, step.DefaultRegistry())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Fatalf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json"), step.DefaultRegistry()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDurationForms(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{`"90s"`, 90 * time.Second},
		{`"5m"`, 5 * time.Minute},
		{`"3"`, 3 * time.Minute},
		{`2`, 2 * time.Minute},
		{`0.5`, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var d Duration
			if err := d.UnmarshalJSON([]byte(tt.raw)); err != nil {
				t.Fatal(err)
			}
			if d.Std() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, d)
			}
		})
	}

	var d Duration
	if err := d.UnmarshalJSON([]byte(`"soon"`)); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
