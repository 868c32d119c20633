package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"APP_ENV" env-default:"local"`
	Port      string `env:"PORT" env-default:":8081"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`

	Database  DatabaseConfig
	Evidence  EvidenceConfig
	AI        AIConfig
	Pipeline  PipelineConfig
	Broadcast BroadcastConfig
	Session   SessionConfig
	Media     MediaConfig
}

type DatabaseConfig struct {
	URL         string `env:"DATABASE_URL"`
	MaxConns    int32  `env:"DATABASE_MAX_CONNS" env-default:"10"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" env-default:"true"`
}

type EvidenceConfig struct {
	Endpoint      string `env:"EVIDENCE_S3_ENDPOINT"`
	Region        string `env:"EVIDENCE_S3_REGION" env-default:"us-east-1"`
	AccessKey     string `env:"EVIDENCE_S3_ACCESS_KEY"`
	SecretKey     string `env:"EVIDENCE_S3_SECRET_KEY"`
	Bucket        string `env:"EVIDENCE_S3_BUCKET" env-default:"fraudwatch-evidence"`
	UseSSL        bool   `env:"EVIDENCE_S3_USE_SSL" env-default:"true"`
	PublicBaseURL string `env:"EVIDENCE_S3_PUBLIC_BASE_URL"`
}

// CanUseS3 reports whether enough is configured to reach object storage.
func (c EvidenceConfig) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

type AIConfig struct {
	Provider    string        `env:"AI_PROVIDER" env-default:"gemini"`
	APIKey      string        `env:"GEMINI_API_KEY"`
	Model       string        `env:"AI_MODEL" env-default:"gemini-2.0-flash"`
	ChatModel   string        `env:"AI_CHAT_MODEL" env-default:"gemini-2.0-flash-lite"`
	EmbedModel  string        `env:"AI_EMBED_MODEL" env-default:"text-embedding-004"`
	EmbedDims   int           `env:"AI_EMBED_DIMS" env-default:"768"`
	Timeout     time.Duration `env:"AI_TIMEOUT" env-default:"30s"`
	MaxAttempts int           `env:"AI_MAX_ATTEMPTS" env-default:"2"`
	RPS         float64       `env:"AI_RPS" env-default:"0"`
	Burst       int           `env:"AI_BURST" env-default:"1"`
}

type PipelineConfig struct {
	StoreTimeout        time.Duration `env:"STORE_TIMEOUT" env-default:"10s"`
	SimilarityThreshold float64       `env:"SIMILARITY_THRESHOLD" env-default:"0.8"`
}

type BroadcastConfig struct {
	MinCount int           `env:"BROADCAST_MIN_COUNT" env-default:"3"`
	Interval time.Duration `env:"BROADCAST_INTERVAL" env-default:"5m"`
}

type SessionConfig struct {
	TTL         time.Duration `env:"SESSION_TTL" env-default:"24h"`
	MaxSessions int           `env:"SESSION_MAX" env-default:"10000"`
}

type MediaConfig struct {
	CacheBytes int           `env:"MEDIA_CACHE_BYTES" env-default:"67108864"`
	TTL        time.Duration `env:"MEDIA_TTL" env-default:"24h"`
}

const (
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// Load reads .env when present, decodes the environment and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Port = NormalizePort(c.Port)
	c.Env = strings.TrimSpace(c.Env)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	if strings.EqualFold(c.Env, "local") && strings.TrimSpace(c.Evidence.Endpoint) != "" {
		// Local MinIO runs without TLS.
		c.Evidence.UseSSL = false
	}
}

// NormalizePort turns a bare port number into a listen address.
func NormalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8081"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

// Validate checks ranges. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be json or text", c.LogFormat))
	}
	switch c.AI.Provider {
	case ProviderGemini:
		if strings.TrimSpace(c.AI.APIKey) == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when AI_PROVIDER is gemini"))
		}
	case ProviderFake:
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER %q must be gemini or fake", c.AI.Provider))
	}
	if c.AI.EmbedDims <= 0 {
		errs = append(errs, errors.New("AI_EMBED_DIMS must be positive"))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.AI.MaxAttempts < 1 {
		errs = append(errs, errors.New("AI_MAX_ATTEMPTS must be at least 1"))
	}
	if c.AI.RPS < 0 {
		errs = append(errs, errors.New("AI_RPS must not be negative"))
	}
	if t := c.Pipeline.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD %v must be in (0,1]", t))
	}
	if c.Pipeline.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.Broadcast.MinCount < 1 {
		errs = append(errs, errors.New("BROADCAST_MIN_COUNT must be at least 1"))
	}
	if c.Broadcast.Interval <= 0 {
		errs = append(errs, errors.New("BROADCAST_INTERVAL must be positive"))
	}
	if c.Session.TTL <= 0 || c.Session.MaxSessions <= 0 {
		errs = append(errs, errors.New("SESSION_TTL and SESSION_MAX must be positive"))
	}
	if c.Media.CacheBytes <= 0 || c.Media.TTL <= 0 {
		errs = append(errs, errors.New("MEDIA_CACHE_BYTES and MEDIA_TTL must be positive"))
	}
	if c.Database.URL != "" && c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("DATABASE_MAX_CONNS must be positive"))
	}
	return errors.Join(errs...)
}
