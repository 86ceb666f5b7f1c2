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

// Storage backends accepted by STORE_BACKEND.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Booking   BookingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
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

// Enabled reports whether a Redis host was configured at all.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig tunes slot derivation and claim handling.
type BookingConfig struct {
	SlotDuration      time.Duration
	StoreBackend      string
	StrictClaims      bool
	MaxRange          time.Duration
	MaxRangesPerOwner int
}

// CacheConfig governs the free-slot cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RateLimitConfig throttles the public claim endpoint.
type RateLimitConfig struct {
	Enabled  bool
	Limit    int
	Window   time.Duration
	FailOpen bool
}

// EventsConfig configures booking event delivery.
type EventsConfig struct {
	Brokers      []string
	BookingTopic string
	Workers      int
	Retries      int
	RetryDelay   time.Duration
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
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Booking = BookingConfig{
		SlotDuration: parseDuration(v.GetString("SLOT_DURATION"), 30*time.Minute),
		StoreBackend: strings.ToLower(v.GetString("STORE_BACKEND")),
		StrictClaims: v.GetBool("BOOKING_STRICT_CLAIMS"),
		MaxRange:     parseDuration(v.GetString("BOOKING_MAX_RANGE"), 90*24*time.Hour),

		MaxRangesPerOwner: v.GetInt("BOOKING_MAX_RANGES_PER_OWNER"),
	}
	if cfg.Booking.SlotDuration <= 0 {
		cfg.Booking.SlotDuration = 30 * time.Minute
	}
	if cfg.Booking.MaxRange <= 0 {
		cfg.Booking.MaxRange = 90 * 24 * time.Hour
	}
	if cfg.Booking.MaxRangesPerOwner <= 0 {
		cfg.Booking.MaxRangesPerOwner = 100
	}
	if cfg.Booking.StoreBackend != StoreBackendMemory {
		cfg.Booking.StoreBackend = StoreBackendPostgres
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		TTL:     parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 30*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("ENABLE_BOOK_RATE_LIMIT"),
		Limit:    v.GetInt("BOOK_RATE_LIMIT"),
		Window:   parseDuration(v.GetString("BOOK_RATE_WINDOW"), time.Minute),
		FailOpen: v.GetBool("RATE_LIMIT_FAIL_OPEN"),
	}

	cfg.Events = EventsConfig{
		Brokers:      splitAndTrim(v.GetString("KAFKA_BROKERS")),
		BookingTopic: v.GetString("KAFKA_BOOKING_TOPIC"),
		Workers:      v.GetInt("NOTIFY_WORKERS"),
		Retries:      v.GetInt("NOTIFY_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "calendar_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "calendar-booking-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SLOT_DURATION", "30m")
	v.SetDefault("STORE_BACKEND", StoreBackendPostgres)
	v.SetDefault("BOOKING_STRICT_CLAIMS", false)
	v.SetDefault("BOOKING_MAX_RANGE", "2160h")
	v.SetDefault("BOOKING_MAX_RANGES_PER_OWNER", 100)

	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "30s")

	v.SetDefault("ENABLE_BOOK_RATE_LIMIT", false)
	v.SetDefault("BOOK_RATE_LIMIT", 20)
	v.SetDefault("BOOK_RATE_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_FAIL_OPEN", true)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "booking.claimed")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")
}

// isMissingFile covers viper returning a raw fs error when SetConfigFile points at a missing .env.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
