package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Failure policies for remote comment mutations.
const (
	FailurePolicyLenient = "lenient"
	FailurePolicyStrict  = "strict"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Review      ReviewConfig
	PublishFeed PublishFeedConfig
	Exports     ExportsConfig
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

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReviewConfig tunes the annotation engine.
type ReviewConfig struct {
	FailurePolicy   string
	FlyoutThreshold float64
	WorkspaceTTL    time.Duration
	RetryEnabled    bool
	RetryWorkers    int
	RetryAttempts   int
	RetryDelay      time.Duration
}

// PublishFeedConfig governs caching of the external publish-event feed.
type PublishFeedConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ExportsConfig toggles annotation exports.
type ExportsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Review = ReviewConfig{
		FailurePolicy:   parsePolicy(v.GetString("REVIEW_FAILURE_POLICY")),
		FlyoutThreshold: v.GetFloat64("REVIEW_FLYOUT_THRESHOLD"),
		WorkspaceTTL:    parseDuration(v.GetString("REVIEW_WORKSPACE_TTL"), 2*time.Hour),
		RetryEnabled:    v.GetBool("REVIEW_RETRY_ENABLED"),
		RetryWorkers:    v.GetInt("REVIEW_RETRY_WORKERS"),
		RetryAttempts:   v.GetInt("REVIEW_RETRY_ATTEMPTS"),
		RetryDelay:      parseDuration(v.GetString("REVIEW_RETRY_DELAY"), 5*time.Second),
	}

	cfg.PublishFeed = PublishFeedConfig{
		CacheEnabled: v.GetBool("PUBLISH_FEED_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("PUBLISH_FEED_CACHE_TTL"), time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "content_review")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REVIEW_FAILURE_POLICY", FailurePolicyLenient)
	v.SetDefault("REVIEW_FLYOUT_THRESHOLD", 300)
	v.SetDefault("REVIEW_WORKSPACE_TTL", "2h")
	v.SetDefault("REVIEW_RETRY_ENABLED", false)
	v.SetDefault("REVIEW_RETRY_WORKERS", 1)
	v.SetDefault("REVIEW_RETRY_ATTEMPTS", 3)
	v.SetDefault("REVIEW_RETRY_DELAY", "5s")

	v.SetDefault("PUBLISH_FEED_CACHE_ENABLED", false)
	v.SetDefault("PUBLISH_FEED_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_EXPORTS", true)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parsePolicy(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), FailurePolicyStrict) {
		return FailurePolicyStrict
	}
	return FailurePolicyLenient
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
