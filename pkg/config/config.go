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
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Upstream   UpstreamConfig
	Sync       SyncConfig
	Cache      CacheConfig
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig centralises the duration-default policy used when a job
// carries no explicit duration. Defaults were previously inline literals at
// the two assignment call sites; they are deliberate policy, not constants.
type SchedulingConfig struct {
	ServiceDefaultDays   float64
	RoadsideDefaultHours float64
}

// UpstreamConfig points at the services this core reconciles against. Every
// outbound call is bounded by Timeout.
type UpstreamConfig struct {
	IntakeBaseURL   string
	RosterBaseURL   string
	RoadsideBaseURL string
	Timeout         time.Duration
}

// SyncConfig governs the background reconciliation loop.
type SyncConfig struct {
	Enabled        bool
	Interval       time.Duration
	Workers        int
	MaxRetries     int
	RetryDelay     time.Duration
	ErrorSampleCap int
}

// CacheConfig tunes the availability-listing cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
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

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		ServiceDefaultDays:   v.GetFloat64("SCHEDULING_SERVICE_DEFAULT_DAYS"),
		RoadsideDefaultHours: v.GetFloat64("SCHEDULING_ROADSIDE_DEFAULT_HOURS"),
	}

	cfg.Upstream = UpstreamConfig{
		IntakeBaseURL:   v.GetString("UPSTREAM_INTAKE_URL"),
		RosterBaseURL:   v.GetString("UPSTREAM_ROSTER_URL"),
		RoadsideBaseURL: v.GetString("UPSTREAM_ROADSIDE_URL"),
		Timeout:         parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
	}

	cfg.Sync = SyncConfig{
		Enabled:        v.GetBool("SYNC_ENABLED"),
		Interval:       parseDuration(v.GetString("SYNC_INTERVAL"), 5*time.Minute),
		Workers:        v.GetInt("SYNC_WORKERS"),
		MaxRetries:     v.GetInt("SYNC_MAX_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("SYNC_RETRY_DELAY"), 30*time.Second),
		ErrorSampleCap: v.GetInt("SYNC_ERROR_SAMPLE_CAP"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
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
	v.SetDefault("DB_NAME", "workshop_dispatch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_SERVICE_DEFAULT_DAYS", 1)
	v.SetDefault("SCHEDULING_ROADSIDE_DEFAULT_HOURS", 4)

	v.SetDefault("UPSTREAM_INTAKE_URL", "http://localhost:3001")
	v.SetDefault("UPSTREAM_ROSTER_URL", "http://localhost:3002")
	v.SetDefault("UPSTREAM_ROADSIDE_URL", "http://localhost:3003")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")

	v.SetDefault("SYNC_ENABLED", false)
	v.SetDefault("SYNC_INTERVAL", "5m")
	v.SetDefault("SYNC_WORKERS", 2)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "30s")
	v.SetDefault("SYNC_ERROR_SAMPLE_CAP", 5)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "1m")
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
