package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCredentials is returned when the bot token or chat id is absent
	ErrMissingCredentials = errors.New("missing telegram credentials")

	// ErrInvalidConfig wraps every other configuration problem
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds all configuration options for the relay
type Config struct {
	// Bot API credentials and endpoint
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Source page settings
	Source SourceConfig `yaml:"source" json:"source"`

	// Pacing between items
	Relay RelayConfig `yaml:"relay" json:"relay"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TelegramConfig holds Bot API configuration
type TelegramConfig struct {
	BotToken    string        `yaml:"bot_token" json:"-"`
	ChatID      string        `yaml:"chat_id" json:"chat_id"`
	APIURL      string        `yaml:"api_url" json:"api_url"`
	SendTimeout time.Duration `yaml:"send_timeout" json:"send_timeout"`
}

// SourceConfig holds settings for the scraped page and image downloads
type SourceConfig struct {
	PageURL      string        `yaml:"page_url" json:"page_url"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	PageTimeout  time.Duration `yaml:"page_timeout" json:"page_timeout"`
	ImageTimeout time.Duration `yaml:"image_timeout" json:"image_timeout"`
}

// RelayConfig holds the courtesy delays applied while sending
type RelayConfig struct {
	DelaySeconds  float64       `yaml:"delay_seconds" json:"delay_seconds"`
	PostSendPause time.Duration `yaml:"post_send_pause" json:"post_send_pause"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// RunConfig is the read-only view of the settings a single run depends on
type RunConfig struct {
	BotToken string
	ChatID   string
	Delay    time.Duration
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			APIURL:      "https://api.telegram.org",
			SendTimeout: 60 * time.Second,
		},
		Source: SourceConfig{
			PageURL:      "https://thetv.jp/news/detail/1310405/",
			UserAgent:    "Mozilla/5.0 (compatible; newsrelay/1.0)",
			PageTimeout:  15 * time.Second,
			ImageTimeout: 20 * time.Second,
		},
		Relay: RelayConfig{
			DelaySeconds:  1,
			PostSendPause: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// maxDelaySeconds is the largest delay a time.Duration can hold
const maxDelaySeconds = float64(math.MaxInt64 / int64(time.Second))

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.loadCredentialsFromEnv()

	if apiURL := os.Getenv("TELEGRAM_API_URL"); apiURL != "" {
		c.Telegram.APIURL = apiURL
	}

	if delay := os.Getenv("TELEGRAM_DELAY_SECONDS"); delay != "" {
		val, err := strconv.ParseFloat(strings.TrimSpace(delay), 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_DELAY_SECONDS %q is not a number", ErrInvalidConfig, delay)
		}
		c.Relay.DelaySeconds = val
	}

	if pageURL := os.Getenv("NEWSRELAY_PAGE_URL"); pageURL != "" {
		c.Source.PageURL = pageURL
	}
	if userAgent := os.Getenv("NEWSRELAY_USER_AGENT"); userAgent != "" {
		c.Source.UserAgent = userAgent
	}

	if logLevel := os.Getenv("NEWSRELAY_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("NEWSRELAY_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

func (c *Config) loadCredentialsFromEnv() {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		c.Telegram.ChatID = chatID
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: failed to parse config file: %v", ErrInvalidConfig, err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".newsrelay.yaml",
		".newsrelay.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "newsrelay", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "newsrelay", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if pageURL, ok := flags["page-url"].(string); ok && pageURL != "" {
		c.Source.PageURL = pageURL
	}
	if delay, ok := flags["delay"].(float64); ok {
		c.Relay.DelaySeconds = delay
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Validate checks everything except credentials, which only the relay command needs
func (c *Config) Validate() error {
	var errs []error

	if c.Source.PageURL == "" {
		errs = append(errs, errors.New("page url is required"))
	}
	if c.Telegram.APIURL == "" {
		errs = append(errs, errors.New("telegram api url is required"))
	}
	switch d := c.Relay.DelaySeconds; {
	case math.IsNaN(d) || math.IsInf(d, 0):
		errs = append(errs, fmt.Errorf("delay seconds must be a finite number, got %v", d))
	case d < 0:
		errs = append(errs, errors.New("delay seconds cannot be negative"))
	case d > maxDelaySeconds:
		errs = append(errs, fmt.Errorf("delay seconds cannot exceed %.0f", maxDelaySeconds))
	}
	if c.Relay.PostSendPause < 0 {
		errs = append(errs, errors.New("post-send pause cannot be negative"))
	}
	if c.Source.PageTimeout <= 0 || c.Source.ImageTimeout <= 0 || c.Telegram.SendTimeout <= 0 {
		errs = append(errs, errors.New("request timeouts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// RequireCredentials fails unless both the bot token and chat id are non-empty
func (c *Config) RequireCredentials() error {
	var missing []string
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Delay returns the inter-item delay as a duration
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Relay.DelaySeconds * float64(time.Second))
}

// RunConfig returns the credentials and delay used by one run
func (c *Config) RunConfig() RunConfig {
	return RunConfig{
		BotToken: c.Telegram.BotToken,
		ChatID:   c.Telegram.ChatID,
		Delay:    c.Delay(),
	}
}

// CheckCredentials looks for the bot token and chat id in the config file,
// .env and the environment without parsing any other setting, so that missing
// credentials are reported even when the rest of the configuration is broken.
func CheckCredentials(configPath string) error {
	_ = godotenv.Load(".env")

	config := DefaultConfig()
	// a malformed file leaves the environment as the only source
	_ = config.LoadFromFile(configPath)
	config.loadCredentialsFromEnv()

	return config.RequireCredentials()
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
