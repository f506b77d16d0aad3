package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
	"TELEGRAM_API_URL",
	"TELEGRAM_DELAY_SECONDS",
	"NEWSRELAY_PAGE_URL",
	"NEWSRELAY_USER_AGENT",
	"NEWSRELAY_LOG_LEVEL",
	"NEWSRELAY_LOG_FILE",
}

// clearEnv blanks every variable the loader reads; empty values count as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "https://thetv.jp/news/detail/1310405/", config.Source.PageURL)
	assert.Equal(t, "https://api.telegram.org", config.Telegram.APIURL)
	assert.Equal(t, 15*time.Second, config.Source.PageTimeout)
	assert.Equal(t, 20*time.Second, config.Source.ImageTimeout)
	assert.Equal(t, 60*time.Second, config.Telegram.SendTimeout)
	assert.Equal(t, 3*time.Second, config.Relay.PostSendPause)
	assert.Equal(t, time.Second, config.Delay())
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("TELEGRAM_DELAY_SECONDS", "2.5")
	t.Setenv("NEWSRELAY_PAGE_URL", "https://example.com/news/detail/1/")
	t.Setenv("NEWSRELAY_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	run := config.RunConfig()
	assert.Equal(t, "123:abc", run.BotToken)
	assert.Equal(t, "-100200300", run.ChatID)
	assert.Equal(t, 2500*time.Millisecond, run.Delay)
	assert.Equal(t, "https://example.com/news/detail/1/", config.Source.PageURL)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidDelay(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_DELAY_SECONDS", "soon")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestRequireCredentials(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		chatID  string
		wantErr bool
	}{
		{name: "both present", token: "123:abc", chatID: "42"},
		{name: "missing token", chatID: "42", wantErr: true},
		{name: "missing chat id", token: "123:abc", wantErr: true},
		{name: "blank values", token: "  ", chatID: "\t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Telegram.BotToken = tt.token
			config.Telegram.ChatID = tt.chatID

			err := config.RequireCredentials()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingCredentials))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "negative delay", mutate: func(c *Config) { c.Relay.DelaySeconds = -1 }},
		{name: "NaN delay", mutate: func(c *Config) { c.Relay.DelaySeconds = math.NaN() }},
		{name: "infinite delay", mutate: func(c *Config) { c.Relay.DelaySeconds = math.Inf(1) }},
		{name: "negative infinite delay", mutate: func(c *Config) { c.Relay.DelaySeconds = math.Inf(-1) }},
		{name: "delay overflows duration", mutate: func(c *Config) { c.Relay.DelaySeconds = 1e300 }},
		{name: "empty page url", mutate: func(c *Config) { c.Source.PageURL = "" }},
		{name: "zero send timeout", mutate: func(c *Config) { c.Telegram.SendTimeout = 0 }},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
telegram:
  chat_id: "@channel"
  send_timeout: 30s
source:
  page_url: https://thetv.jp/news/detail/999/
  image_timeout: 5s
relay:
  delay_seconds: 0.5
  post_send_pause: 1s
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, "@channel", config.Telegram.ChatID)
	assert.Equal(t, 30*time.Second, config.Telegram.SendTimeout)
	assert.Equal(t, "https://thetv.jp/news/detail/999/", config.Source.PageURL)
	assert.Equal(t, 5*time.Second, config.Source.ImageTimeout)
	assert.Equal(t, 15*time.Second, config.Source.PageTimeout, "unset keys keep defaults")
	assert.Equal(t, 500*time.Millisecond, config.Delay())
	assert.Equal(t, time.Second, config.Relay.PostSendPause)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadFromFileMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("relay: [unterminated"), 0o644))

	err := DefaultConfig().LoadFromFile(configPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source:
  page_url: https://file.example/news/detail/1/
relay:
  delay_seconds: 4
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	t.Setenv("TELEGRAM_DELAY_SECONDS", "2")

	config, err := Load(configPath, map[string]interface{}{
		"page-url": "https://flag.example/news/detail/1/",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example/news/detail/1/", config.Source.PageURL, "flag beats file")
	assert.Equal(t, 2*time.Second, config.Delay(), "env beats file")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TELEGRAM_DELAY_SECONDS", "-3")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadRejectsNonFiniteDelay(t *testing.T) {
	for _, value := range []string{"NaN", "Inf", "-Inf", "1e300"} {
		t.Run(value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("HOME", t.TempDir())
			t.Setenv("TELEGRAM_DELAY_SECONDS", value)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidateAcceptsLargestDelay(t *testing.T) {
	config := DefaultConfig()
	config.Relay.DelaySeconds = maxDelaySeconds
	require.NoError(t, config.Validate())
	assert.Greater(t, config.Delay(), time.Duration(0))
}

func TestCheckCredentials(t *testing.T) {
	t.Run("ignores malformed settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("TELEGRAM_CHAT_ID", "42")
		t.Setenv("TELEGRAM_DELAY_SECONDS", "soon")

		err := CheckCredentials("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCredentials))
		assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	})

	t.Run("reads the config file", func(t *testing.T) {
		clearEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := "telegram:\n  bot_token: \"1:file\"\n  chat_id: \"42\"\n"
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

		assert.NoError(t, CheckCredentials(configPath))
	})

	t.Run("environment only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("TELEGRAM_BOT_TOKEN", "1:env")
		t.Setenv("TELEGRAM_CHAT_ID", "42")

		assert.NoError(t, CheckCredentials(""))
	})
}
