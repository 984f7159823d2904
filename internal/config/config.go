// Package config loads and validates the watcher configuration. Any error
// here is fatal: the process refuses to start monitoring with a config it
// cannot fully understand.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/webwatch/webwatch/internal/notifier"
	"github.com/webwatch/webwatch/internal/step"
)

type Config struct {
	Watch   WatchConfig   `json:"watch" yaml:"watch"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	History HistoryConfig `json:"history" yaml:"history"`
	Targets []*Target     `json:"configs" yaml:"configs"`
}

// WatchConfig holds global knobs applied to every target unless the target
// overrides them.
type WatchConfig struct {
	Interval            Duration `json:"interval" yaml:"interval"`
	Timeout             Duration `json:"timeout" yaml:"timeout"`
	UserAgent           string   `json:"user_agent" yaml:"user_agent"`
	MaxBodySize         int64    `json:"max_body_size" yaml:"max_body_size"`
	AllowPrivateTargets bool     `json:"allow_private_targets" yaml:"allow_private_targets"`
	Workers             int      `json:"workers" yaml:"workers"`
	NotifyRatePerSec    float64  `json:"notify_rate_per_sec" yaml:"notify_rate_per_sec"`
	NotifyBurst         int      `json:"notify_burst" yaml:"notify_burst"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// HistoryConfig enables the optional observation history database.
type HistoryConfig struct {
	Path string `json:"path" yaml:"path"`
}

// Target is one monitored website+extraction-path+notification triple.
type Target struct {
	Name     string             `json:"name" yaml:"name"`
	Website  string             `json:"website" yaml:"website"`
	Steps    []step.Step        `json:"steps" yaml:"steps"`
	Interval Duration           `json:"interval" yaml:"interval"`
	Timeout  Duration           `json:"timeout" yaml:"timeout"`
	Notify   []notifier.Channel `json:"notify" yaml:"notify"`

	// Flat Telegram fields accepted for compatibility with older configs;
	// mapped onto a telegram notify channel during Load.
	BotToken         string   `json:"bot_token" yaml:"bot_token"`
	ReadBotToken     string   `json:"read_bot_token" yaml:"read_bot_token"`
	ChatID           string   `json:"chat_id" yaml:"chat_id"`
	ScheduleInterval Duration `json:"schedule_interval" yaml:"schedule_interval"`
}

func Defaults() *Config {
	return &Config{
		Watch: WatchConfig{
			Interval:         Duration(5 * time.Minute),
			Timeout:          Duration(10 * time.Second),
			MaxBodySize:      1 << 20, // 1MB
			Workers:          4,
			NotifyRatePerSec: 1,
			NotifyBurst:      5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads, normalizes and validates the configuration at path. JSON is
// the primary format; files ending in .yaml/.yml are parsed as YAML.
// Step methods are validated against the given registry.
func Load(path string, methods *step.Registry) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so tokens can stay out of the file
	expanded := os.ExpandEnv(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), cfg)
	default:
		err = json.Unmarshal([]byte(expanded), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(methods); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// normalize maps legacy fields onto their current equivalents and fills
// per-target gaps from the global defaults.
func (c *Config) normalize() {
	for _, t := range c.Targets {
		if t.Interval == 0 {
			t.Interval = t.ScheduleInterval
		}
		if t.Interval == 0 {
			t.Interval = c.Watch.Interval
		}
		if t.Timeout == 0 {
			t.Timeout = c.Watch.Timeout
		}
		if t.BotToken != "" {
			settings := map[string]string{
				"bot_token": t.BotToken,
				"chat_id":   t.ChatID,
			}
			if t.ReadBotToken != "" {
				settings["read_bot_token"] = t.ReadBotToken
			}
			t.Notify = append(t.Notify, notifier.Channel{Type: "telegram", Settings: settings})
		}
	}
}

func (c *Config) Validate(methods *step.Registry) error {
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := validateLogging(c.Logging); err != nil {
		return err
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("configs must list at least one target")
	}
	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if err := t.validate(methods); err != nil {
			return fmt.Errorf("configs[%d]: %w", i, err)
		}
		if seen[t.Name] {
			return fmt.Errorf("configs[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	if c.Watch.Timeout <= 0 {
		return fmt.Errorf("watch.timeout must be positive")
	}
	if c.Watch.MaxBodySize <= 0 {
		return fmt.Errorf("watch.max_body_size must be positive")
	}
	if c.Watch.Workers <= 0 {
		return fmt.Errorf("watch.workers must be positive")
	}
	if c.Watch.NotifyRatePerSec <= 0 {
		return fmt.Errorf("watch.notify_rate_per_sec must be positive")
	}
	return nil
}

func (t *Target) validate(methods *step.Registry) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	u, err := url.Parse(t.Website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("website must be an absolute http(s) URL, got %q", t.Website)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("steps must not be empty")
	}
	for i, s := range t.Steps {
		if !methods.Known(s.Method) {
			return fmt.Errorf("steps[%d]: unknown method %q", i, s.Method)
		}
		if methods.Terminal(s.Method) && i != len(t.Steps)-1 {
			return fmt.Errorf("steps[%d]: %s must be the last step", i, s.Method)
		}
	}
	if t.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if len(t.Notify) == 0 {
		return fmt.Errorf("at least one notification channel is required")
	}
	for i, ch := range t.Notify {
		if ch.Type == "" {
			return fmt.Errorf("notify[%d]: type is required", i)
		}
		if !notifier.KnownChannelType(ch.Type) {
			return fmt.Errorf("notify[%d]: unknown channel type %q", i, ch.Type)
		}
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}
