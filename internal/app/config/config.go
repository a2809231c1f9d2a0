package config

import (
	"log/slog"
	"time"
)

type LogLeveler string

func (l LogLeveler) Level() slog.Level {
	var level slog.Level

	_ = level.UnmarshalText([]byte(l))

	return level
}

// Config holds the server configuration.
type Config struct {
	LogLevel LogLeveler `mapstructure:"LOG_LEVEL"`
	HTTP     HTTP       `mapstructure:",squash"`
	Redis    Redis      `mapstructure:",squash"`
	QPX      QPX        `mapstructure:",squash"`
	Trip     Trip       `mapstructure:",squash"`
}

type HTTP struct {
	Port               int           `mapstructure:"HTTP_PORT"`
	Timeout            time.Duration `mapstructure:"HTTP_TIMEOUT"`
	CORSAllowedOrigins []string      `mapstructure:"HTTP_CORS_ALLOWED_ORIGINS"`
}

type Redis struct {
	Addr     string        `mapstructure:"REDIS_ADDR"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	Timeout  time.Duration `mapstructure:"REDIS_TIMEOUT"`
}

type RateLimitBackend string

const (
	RateLimitRedis RateLimitBackend = "redis"
	RateLimitLocal RateLimitBackend = "local"
	RateLimitNone  RateLimitBackend = "none"
)

// QPX holds the upstream search API configuration. KeyFile wins over APIKey.
type QPX struct {
	APIURL           string           `mapstructure:"QPX_API_URL"`
	APIKey           string           `mapstructure:"QPX_API_KEY"`
	KeyFile          string           `mapstructure:"QPX_KEY_FILE"`
	Timeout          time.Duration    `mapstructure:"QPX_TIMEOUT"`
	MaxRetries       int              `mapstructure:"QPX_MAX_RETRIES"`
	RateLimitRPS     int              `mapstructure:"QPX_RATE_LIMIT"`
	RateLimitBackend RateLimitBackend `mapstructure:"QPX_RATE_LIMIT_BACKEND"`
}

type Trip struct {
	LockTimeout     time.Duration `mapstructure:"TRIP_LOCK_TIMEOUT"`
	CacheExpiration time.Duration `mapstructure:"TRIP_CACHE_EXPIRATION"`
}

// LogValue keeps secrets out of the logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("log_level", string(c.LogLevel)),
		slog.Int("http_port", c.HTTP.Port),
		slog.String("redis_addr", c.Redis.Addr),
		slog.String("qpx_api_url", c.QPX.APIURL),
		slog.Bool("qpx_api_key_set", c.QPX.APIKey != ""),
		slog.String("qpx_key_file", c.QPX.KeyFile),
		slog.Int("qpx_max_retries", c.QPX.MaxRetries),
		slog.String("qpx_rate_limit_backend", string(c.QPX.RateLimitBackend)),
		slog.Duration("trip_cache_expiration", c.Trip.CacheExpiration),
	)
}
