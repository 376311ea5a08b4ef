package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"avatar-video-platform/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKeys      []string      `yaml:"api_keys"`
	KeyQuota     int           `yaml:"key_quota"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollAttempts int           `yaml:"poll_attempts"`
}

type MediaConfig struct {
	ScratchDir string        `yaml:"scratch_dir"`
	FFmpegPath string        `yaml:"ffmpeg_path"`
	SweepEvery time.Duration `yaml:"sweep_every"`
	SweepTTL   time.Duration `yaml:"sweep_ttl"`
}

type PublishConfig struct {
	UploadURL string        `yaml:"upload_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type CreditsConfig struct {
	CostPerVideo int                    `yaml:"cost_per_video"`
	Packages     []model.PurchaseOption `yaml:"packages"`
}

type PaymentConfig struct {
	ZarinPal struct {
		MerchantID  string `yaml:"merchant_id"`
		CallbackURL string `yaml:"callback_url"`
		Sandbox     bool   `yaml:"sandbox"`
	} `yaml:"zarinpal"`
}

type AIConfig struct {
	OpenAIKey    string `yaml:"openai_key"`
	GeminiKey    string `yaml:"gemini_key"`
	DefaultModel string `yaml:"default_model"`
	ScriptTokens int    `yaml:"script_tokens"` // token cap for generated scripts
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	GeneratePerHour int `yaml:"generate_per_hour"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Provider  ProviderConfig  `yaml:"provider"`
	Media     MediaConfig     `yaml:"media"`
	Publish   PublishConfig   `yaml:"publish"`
	Credits   CreditsConfig   `yaml:"credits"`
	Payment   PaymentConfig   `yaml:"payment"`
	AI        AIConfig        `yaml:"ai"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		// generation runs synchronously for up to the whole poll budget
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Provider.KeyQuota <= 0 {
		cfg.Provider.KeyQuota = 10
	}
	if cfg.Provider.PollInterval <= 0 {
		cfg.Provider.PollInterval = 5 * time.Second
	}
	if cfg.Provider.PollAttempts <= 0 {
		cfg.Provider.PollAttempts = 60
	}
	if cfg.Media.ScratchDir == "" {
		cfg.Media.ScratchDir = os.TempDir()
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.SweepEvery <= 0 {
		cfg.Media.SweepEvery = 15 * time.Minute
	}
	if cfg.Media.SweepTTL <= 0 {
		cfg.Media.SweepTTL = time.Hour
	}
	if cfg.Publish.Timeout <= 0 {
		cfg.Publish.Timeout = 120 * time.Second
	}
	if cfg.Credits.CostPerVideo <= 0 {
		cfg.Credits.CostPerVideo = 20
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.ScriptTokens <= 0 {
		cfg.AI.ScriptTokens = 400
	}
	if cfg.RateLimit.GeneratePerHour <= 0 {
		cfg.RateLimit.GeneratePerHour = 10
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Provider.BaseURL == "" {
		return nil, errors.New("provider.base_url is required")
	}
	if len(cfg.Provider.APIKeys) == 0 {
		return nil, errors.New("provider.api_keys is required")
	}
	if cfg.Publish.UploadURL == "" {
		return nil, errors.New("publish.upload_url is required")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, errors.New("security.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
