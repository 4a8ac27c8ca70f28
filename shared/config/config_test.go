package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"CONFIG_FILE", "GEMINI_API_KEY", "YOUTUBE_API_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"YTDLP_PATH", "LOG_LEVEL", "MAX_VIDEO_DURATION_SECONDS", "PORT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, 0.3, cfg.AI.Temperature)
	assert.Equal(t, 7200, cfg.Transcript.MaxDurationSeconds)
	assert.Equal(t, []string{"en", "en-US", "en-GB", "a.en"}, cfg.Transcript.NativeLanguages)
	assert.Equal(t, []string{"en", "en-US", "en-GB"}, cfg.Transcript.SubtitleLanguages)
	assert.Equal(t, 70.0, cfg.Verification.ConfidenceThreshold)
	assert.Equal(t, 3000, cfg.Verification.SampleChars)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "youtube_token.json", cfg.YouTube.TokenFile)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Minute, cfg.Transcript.StageTimeout())
	assert.Equal(t, 45*time.Second, cfg.Transcript.MetadataTimeout())
	assert.Equal(t, time.Hour, cfg.Workspace.MaxAge())
	assert.NotEmpty(t, cfg.AI.QuizModels)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
ai:
  gemini_api_key: file-key
  quiz_models: [model-a, model-b]
transcript:
  native_languages: [en]
verification:
  confidence_threshold: 80
  extra_platforms:
    - pattern: learn.example.org
      name: Example Learning
  extra_channels: [Sixty Symbols]
server:
  port: 9090
logging:
  level: debug
  format: text
`)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("MAX_VIDEO_DURATION_SECONDS", "3600")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.AI.GeminiAPIKey, "file value wins over env")
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.AI.QuizModels)
	assert.Equal(t, []string{"en"}, cfg.Transcript.NativeLanguages)
	assert.Equal(t, 3600, cfg.Transcript.MaxDurationSeconds)
	assert.Equal(t, 80.0, cfg.Verification.ConfidenceThreshold)
	require.Len(t, cfg.Verification.ExtraPlatforms, 1)
	assert.Equal(t, "Example Learning", cfg.Verification.ExtraPlatforms[0].Name)
	assert.Equal(t, []string{"Sixty Symbols"}, cfg.Verification.ExtraChannels)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "yt-key", cfg.YouTube.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvFillsEmptyFields(t *testing.T) {
	tests := []struct {
		key   string
		value string
		got   func(*Config) any
		want  any
	}{
		{key: "GEMINI_API_KEY", value: "g", got: func(c *Config) any { return c.AI.GeminiAPIKey }, want: "g"},
		{key: "YOUTUBE_API_KEY", value: "y", got: func(c *Config) any { return c.YouTube.APIKey }, want: "y"},
		{key: "GOOGLE_CLIENT_ID", value: "id", got: func(c *Config) any { return c.YouTube.ClientID }, want: "id"},
		{key: "GOOGLE_CLIENT_SECRET", value: "s", got: func(c *Config) any { return c.YouTube.ClientSecret }, want: "s"},
		{key: "YTDLP_PATH", value: "/opt/yt-dlp", got: func(c *Config) any { return c.Transcript.YtDlpPath }, want: "/opt/yt-dlp"},
		{key: "LOG_LEVEL", value: "warn", got: func(c *Config) any { return c.Logging.Level }, want: "warn"},
		{key: "MAX_VIDEO_DURATION_SECONDS", value: "900", got: func(c *Config) any { return c.Transcript.MaxDurationSeconds }, want: 900},
		{key: "PORT", value: "9191", got: func(c *Config) any { return c.Server.Port }, want: 9191},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv("GEMINI_API_KEY", "k")
			t.Setenv("GOOGLE_CLIENT_SECRET", "s")
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.got(cfg))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "missing gemini key", yaml: "server:\n  port: 8080\n"},
		{name: "threshold above 100", yaml: "ai:\n  gemini_api_key: k\nverification:\n  confidence_threshold: 120\n"},
		{name: "bad port", yaml: "ai:\n  gemini_api_key: k\nserver:\n  port: 70000\n"},
		{name: "bad log format", yaml: "ai:\n  gemini_api_key: k\nlogging:\n  format: xml\n"},
		{name: "incomplete extra platform", yaml: "ai:\n  gemini_api_key: k\nverification:\n  extra_platforms:\n    - pattern: x.org\n"},
		{name: "client id without secret", yaml: "ai:\n  gemini_api_key: k\nyoutube:\n  client_id: id\n"},
		{name: "malformed yaml", yaml: "ai: [unclosed"},
		{name: "bad duration env", yaml: "ai:\n  gemini_api_key: k\n", env: map[string]string{"MAX_VIDEO_DURATION_SECONDS": "two hours"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeConfig(t, dir, tt.yaml)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "nope.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "nope.yaml")
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	require.NoError(t, ConfigureLogging(LoggingConfig{Level: "warn", Format: "text"}))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	_, isText := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)

	assert.Error(t, ConfigureLogging(LoggingConfig{Level: "loud"}))
}
