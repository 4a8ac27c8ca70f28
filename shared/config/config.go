package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	AI           AIConfig           `yaml:"ai"`
	YouTube      YouTubeConfig      `yaml:"youtube"`
	Transcript   TranscriptConfig   `yaml:"transcript"`
	Speech       SpeechConfig       `yaml:"speech"`
	Verification VerificationConfig `yaml:"verification"`
	Server       ServerConfig       `yaml:"server"`
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type AIConfig struct {
	GeminiAPIKey       string   `yaml:"gemini_api_key" validate:"required"`
	ClassifierModel    string   `yaml:"classifier_model"`
	SpeechModel        string   `yaml:"speech_model"`
	QuizModels         []string `yaml:"quiz_models" validate:"min=1,dive,required"`
	Temperature        float64  `yaml:"temperature" validate:"gte=0,lte=2"`
	CallTimeoutSeconds int      `yaml:"call_timeout_seconds" validate:"gt=0"`
}

type YouTubeConfig struct {
	APIKey                  string `yaml:"api_key"`
	ClientID                string `yaml:"client_id"`
	ClientSecret            string `yaml:"client_secret"`
	TokenFile               string `yaml:"token_file"`
	InnertubeTimeoutSeconds int    `yaml:"innertube_timeout_seconds" validate:"gt=0"`
}

type TranscriptConfig struct {
	MaxDurationSeconds     int      `yaml:"max_duration_seconds" validate:"gt=0"`
	NativeLanguages        []string `yaml:"native_languages" validate:"min=1,dive,required"`
	SubtitleLanguages      []string `yaml:"subtitle_languages" validate:"min=1,dive,required"`
	YtDlpPath              string   `yaml:"ytdlp_path"`
	WorkspaceRoot          string   `yaml:"workspace_root"`
	StageTimeoutSeconds    int      `yaml:"stage_timeout_seconds" validate:"gt=0"`
	MetadataTimeoutSeconds int      `yaml:"metadata_timeout_seconds" validate:"gt=0"`
}

type SpeechConfig struct {
	MaxAudioBytes int64 `yaml:"max_audio_bytes" validate:"gt=0"`
}

type VerificationConfig struct {
	ConfidenceThreshold float64          `yaml:"confidence_threshold" validate:"gt=0,lte=100"`
	SampleChars         int              `yaml:"sample_chars" validate:"gt=0"`
	ExtraPlatforms      []PlatformConfig `yaml:"extra_platforms" validate:"dive"`
	ExtraChannels       []string         `yaml:"extra_channels" validate:"dive,required"`
}

type PlatformConfig struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
}

type ServerConfig struct {
	Port                int      `yaml:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	MaxUploadBytes      int64    `yaml:"max_upload_bytes" validate:"gt=0"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds" validate:"gt=0"`
}

type WorkspaceConfig struct {
	SweepSchedule string `yaml:"sweep_schedule" validate:"required"`
	MaxAgeMinutes int    `yaml:"max_age_minutes" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Load reads config.yaml (or CONFIG_FILE), fills secrets from the
// environment and .env, applies defaults and validates the result. A missing
// default config.yaml is fine; a missing CONFIG_FILE is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnv fills fields the config file left empty from GEMINI_API_KEY,
// YOUTUBE_API_KEY, GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, YTDLP_PATH,
// LOG_LEVEL, MAX_VIDEO_DURATION_SECONDS and PORT.
func (c *Config) applyEnv() error {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.Transcript.YtDlpPath == "" {
		c.Transcript.YtDlpPath = os.Getenv("YTDLP_PATH")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = os.Getenv("LOG_LEVEL")
	}

	if v := os.Getenv("MAX_VIDEO_DURATION_SECONDS"); v != "" && c.Transcript.MaxDurationSeconds == 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_VIDEO_DURATION_SECONDS %q: %w", v, err)
		}
		c.Transcript.MaxDurationSeconds = n
	}
	if v := os.Getenv("PORT"); v != "" && c.Server.Port == 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AI.ClassifierModel == "" {
		c.AI.ClassifierModel = "gemini-2.5-flash"
	}
	if c.AI.SpeechModel == "" {
		c.AI.SpeechModel = "gemini-2.5-flash"
	}
	if len(c.AI.QuizModels) == 0 {
		c.AI.QuizModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-2.0-flash"}
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.CallTimeoutSeconds == 0 {
		c.AI.CallTimeoutSeconds = 60
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.InnertubeTimeoutSeconds == 0 {
		c.YouTube.InnertubeTimeoutSeconds = 30
	}

	if c.Transcript.MaxDurationSeconds == 0 {
		c.Transcript.MaxDurationSeconds = 7200
	}
	if len(c.Transcript.NativeLanguages) == 0 {
		c.Transcript.NativeLanguages = []string{"en", "en-US", "en-GB", "a.en"}
	}
	if len(c.Transcript.SubtitleLanguages) == 0 {
		c.Transcript.SubtitleLanguages = []string{"en", "en-US", "en-GB"}
	}
	if c.Transcript.YtDlpPath == "" {
		c.Transcript.YtDlpPath = "yt-dlp"
	}
	if c.Transcript.WorkspaceRoot == "" {
		c.Transcript.WorkspaceRoot = os.TempDir()
	}
	if c.Transcript.StageTimeoutSeconds == 0 {
		c.Transcript.StageTimeoutSeconds = 600
	}
	if c.Transcript.MetadataTimeoutSeconds == 0 {
		c.Transcript.MetadataTimeoutSeconds = 45
	}

	if c.Speech.MaxAudioBytes == 0 {
		c.Speech.MaxAudioBytes = 20 * 1024 * 1024 // Gemini inline data limit
	}

	if c.Verification.ConfidenceThreshold == 0 {
		c.Verification.ConfidenceThreshold = 70
	}
	if c.Verification.SampleChars == 0 {
		c.Verification.SampleChars = 3000
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 25 * 1024 * 1024
	}
	if c.Server.FetchTimeoutSeconds == 0 {
		c.Server.FetchTimeoutSeconds = 15
	}

	if c.Workspace.SweepSchedule == "" {
		c.Workspace.SweepSchedule = "0 */15 * * * *" // every 15 minutes
	}
	if c.Workspace.MaxAgeMinutes == 0 {
		c.Workspace.MaxAgeMinutes = 60
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.YouTube.ClientID != "" && c.YouTube.ClientSecret == "" {
		return fmt.Errorf("YouTube client secret is required with a client ID (set GOOGLE_CLIENT_SECRET or youtube.client_secret)")
	}
	return nil
}

func (c *AIConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

func (c *YouTubeConfig) InnertubeTimeout() time.Duration {
	return time.Duration(c.InnertubeTimeoutSeconds) * time.Second
}

func (c *TranscriptConfig) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSeconds) * time.Second
}

func (c *TranscriptConfig) MetadataTimeout() time.Duration {
	return time.Duration(c.MetadataTimeoutSeconds) * time.Second
}

func (c *ServerConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *WorkspaceConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}
