package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "ELECTION_WATCHER_CONFIG"
	intervalEnv       = "ELECTION_WATCHER_INTERVAL"
	mentionIDEnv      = "ELECTION_WATCHER_MENTION_ID"
	discordWebhookEnv = "DISCORD_WEBHOOK_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	databaseDSNEnv    = "DATABASE_DSN"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	kafkaBrokersEnv   = "KAFKA_BROKERS"
)

// Notifier kinds.
const (
	NotifierDiscord  = "discord"
	NotifierTelegram = "telegram"
	NotifierNone     = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Poller        PollerConfig       `yaml:"poller"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Sites         []SiteConfig       `yaml:"sites"`
	Notifications NotificationConfig `yaml:"notifications"`
	Renderer      RendererConfig     `yaml:"renderer"`
	Translator    TranslatorConfig   `yaml:"translator"`
	Database      DatabaseConfig     `yaml:"database"`
	Kafka         KafkaConfig        `yaml:"kafka"`
	HTTP          HTTPConfig         `yaml:"http"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PollerConfig controls the cadence and output of the poll loop.
type PollerConfig struct {
	IntervalSeconds int    `yaml:"intervalSeconds"`
	OutputDir       string `yaml:"outputDir"`
	// Confirm asks on the terminal before each dispatch.
	Confirm bool `yaml:"confirm"`
}

// Interval returns the pause between poll cycles.
func (p PollerConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// FetchConfig bounds every page request.
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	UserAgent      string `yaml:"userAgent"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// SiteConfig describes a single result site with its adapter.
type SiteConfig struct {
	Name    string `yaml:"name"`
	Adapter string `yaml:"adapter"`
	// Label is the source name used in announcements.
	Label     string `yaml:"label"`
	SourceURL string `yaml:"sourceUrl"`
	BaseURL   string `yaml:"baseUrl"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Kind     string         `yaml:"kind"`
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
	Mention  MentionConfig  `yaml:"mention"`
}

// DiscordConfig holds the webhook endpoint.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// MentionConfig selects who is pinged in announcements.
type MentionConfig struct {
	// Kind is "role" or "user".
	Kind string `yaml:"kind"`
	ID   string `yaml:"id"`
}

// RendererConfig points at the external image tool; empty Command disables rendering.
type RendererConfig struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
}

// TranslatorConfig defines how district names are localized for images.
type TranslatorConfig struct {
	Enabled      bool              `yaml:"enabled"`
	Endpoint     string            `yaml:"endpoint"`
	Model        string            `yaml:"model"`
	APIKey       string            `yaml:"apiKey"`
	Language     string            `yaml:"language"`
	Replacements map[string]string `yaml:"replacements"`
}

// DatabaseConfig describes the dispatch history store; empty DSN disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// KafkaConfig enables the record publisher when brokers are set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// HTTPConfig enables the health and metrics endpoint when ListenAddr is set.
type HTTPConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// Load reads YAML configuration from path (or the env-provided path),
// merges it over defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if cfg, err = parse(raw); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("merge defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(intervalEnv); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s must be an integer: %w", intervalEnv, err)
		}
		c.Poller.IntervalSeconds = seconds
	}

	if v := os.Getenv(mentionIDEnv); v != "" {
		c.Notifications.Mention.ID = v
	}

	if v := os.Getenv(discordWebhookEnv); v != "" {
		c.Notifications.Discord.WebhookURL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.Translator.APIKey = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	return nil
}

// Validate reports configuration that makes polling impossible.
func (c Config) Validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("config: no sites configured")
	}
	names := map[string]struct{}{}
	for i, s := range c.Sites {
		if s.Name == "" {
			return fmt.Errorf("config: site %d has no name", i)
		}
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("config: duplicate site name %s", s.Name)
		}
		names[s.Name] = struct{}{}
		if s.Adapter == "" {
			return fmt.Errorf("config: site %s has no adapter", s.Name)
		}
		if s.SourceURL == "" {
			return fmt.Errorf("config: site %s has no sourceUrl", s.Name)
		}
	}

	if c.Poller.IntervalSeconds <= 0 {
		return fmt.Errorf("config: poller.intervalSeconds must be positive")
	}
	if c.Poller.OutputDir == "" {
		return fmt.Errorf("config: poller.outputDir is empty")
	}

	switch c.Notifications.Kind {
	case NotifierDiscord, NotifierTelegram, NotifierNone:
	default:
		return fmt.Errorf("config: unknown notifications.kind %q", c.Notifications.Kind)
	}

	switch c.Notifications.Mention.Kind {
	case "role", "user":
	default:
		return fmt.Errorf("config: unknown notifications.mention.kind %q", c.Notifications.Mention.Kind)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Poller: PollerConfig{
			IntervalSeconds: 20,
			OutputDir:       "results",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 15,
			UserAgent:      "ElectionWatcher/1.0",
		},
		Sites: []SiteConfig{
			{
				Name:      "adaderana",
				Adapter:   "division-index",
				Label:     "adaderana.lk",
				SourceURL: "https://election.adaderana.lk/general-election-2024/index.php",
				BaseURL:   "https://election.adaderana.lk/general-election-2024/",
			},
		},
		Notifications: NotificationConfig{
			Kind:    NotifierDiscord,
			Mention: MentionConfig{Kind: "role"},
		},
		Renderer: RendererConfig{TimeoutSeconds: 120},
		Translator: TranslatorConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Language: "Sinhala",
			Replacements: map[string]string{
				"දිස්ත්රික්": "දිස්ත්‍රික්කය",
			},
		},
		Database: DatabaseConfig{Driver: "sqlite"},
		Kafka:    KafkaConfig{Topic: "election-results"},
	}
}
