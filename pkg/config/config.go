package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Bot        BotConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	AI         AIConfig
	Extraction ExtractionConfig
	Research   ResearchConfig
	Payment    PaymentConfig
	Exports    ExportsConfig
}

// BotConfig tunes the conversation engine.
type BotConfig struct {
	WebhookToken   string
	DeliveryURL    string
	DeliveryToken  string
	MaxFactsLength int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// AIConfig points at the analysis provider.
type AIConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ExtractionConfig points at the OCR/transcription service.
type ExtractionConfig struct {
	BaseURL   string
	Timeout   time.Duration
	MaxLength int
}

// ResearchConfig points at the case-law search service.
type ResearchConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
}

// PaymentConfig points at the payment provider used for plan upgrades.
type PaymentConfig struct {
	BaseURL   string
	SecretKey string
	Currency  string
}

// ExportsConfig controls document rendering and delivery.
type ExportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	PublicBaseURL     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Bot = BotConfig{
		WebhookToken:   v.GetString("BOT_WEBHOOK_TOKEN"),
		DeliveryURL:    v.GetString("BOT_DELIVERY_URL"),
		DeliveryToken:  v.GetString("BOT_DELIVERY_TOKEN"),
		MaxFactsLength: v.GetInt("BOT_MAX_FACTS_LENGTH"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.AI = AIConfig{
		BaseURL:  v.GetString("AI_BASE_URL"),
		APIKey:   v.GetString("AI_API_KEY"),
		Model:    v.GetString("AI_MODEL"),
		Timeout:  parseDuration(v.GetString("AI_TIMEOUT"), 90*time.Second),
		CacheTTL: parseDuration(v.GetString("AI_CACHE_TTL"), 15*time.Minute),
	}

	cfg.Extraction = ExtractionConfig{
		BaseURL:   v.GetString("EXTRACTION_BASE_URL"),
		Timeout:   parseDuration(v.GetString("EXTRACTION_TIMEOUT"), 60*time.Second),
		MaxLength: v.GetInt("EXTRACTION_MAX_LENGTH"),
	}

	cfg.Research = ResearchConfig{
		BaseURL:    v.GetString("RESEARCH_BASE_URL"),
		APIKey:     v.GetString("RESEARCH_API_KEY"),
		Timeout:    parseDuration(v.GetString("RESEARCH_TIMEOUT"), 10*time.Second),
		MaxResults: v.GetInt("RESEARCH_MAX_RESULTS"),
	}

	cfg.Payment = PaymentConfig{
		BaseURL:   v.GetString("PAYMENT_BASE_URL"),
		SecretKey: v.GetString("PAYMENT_SECRET_KEY"),
		Currency:  v.GetString("PAYMENT_CURRENCY"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
		PublicBaseURL:     v.GetString("EXPORTS_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("BOT_WEBHOOK_TOKEN", "")
	v.SetDefault("BOT_DELIVERY_URL", "")
	v.SetDefault("BOT_DELIVERY_TOKEN", "")
	v.SetDefault("BOT_MAX_FACTS_LENGTH", 8000)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "caseview")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AI_BASE_URL", "http://localhost:11434")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "caseview-legal")
	v.SetDefault("AI_TIMEOUT", "90s")
	v.SetDefault("AI_CACHE_TTL", "15m")

	v.SetDefault("EXTRACTION_BASE_URL", "http://localhost:9090")
	v.SetDefault("EXTRACTION_TIMEOUT", "60s")
	v.SetDefault("EXTRACTION_MAX_LENGTH", 20000)

	v.SetDefault("RESEARCH_BASE_URL", "")
	v.SetDefault("RESEARCH_API_KEY", "")
	v.SetDefault("RESEARCH_TIMEOUT", "10s")
	v.SetDefault("RESEARCH_MAX_RESULTS", 3)

	v.SetDefault("PAYMENT_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYMENT_SECRET_KEY", "")
	v.SetDefault("PAYMENT_CURRENCY", "NGN")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
	v.SetDefault("EXPORTS_PUBLIC_BASE_URL", "http://localhost:8080")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
