package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Payphone-Digital/content-api/internal/constants"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Cron      CronConfig
	Query     QueryConfig
	Sentry    SentryConfig
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Environment     string        `mapstructure:"environment"`
	Debug           bool          `mapstructure:"debug"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            string        `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// ConnectRetry bounds how long startup keeps retrying the first connection
	ConnectRetry time.Duration `mapstructure:"connect_retry"`
	LogQueries   bool          `mapstructure:"log_queries"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	ExpirationTime time.Duration `mapstructure:"expiration_time"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	ListTTL time.Duration `mapstructure:"list_ttl"`
	// Backend is "redis" or "memory"; redis falls back to memory when Redis is disabled
	Backend string `mapstructure:"backend"`
}

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type SentryConfig struct {
	DSN        string  `mapstructure:"dsn"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the process environment still applies
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "content-api"),
			Environment:     getEnv("APP_ENV", constants.EnvDevelopment),
			Port:            getEnv("APP_PORT", "8080"),
			Debug:           getEnvAsBool("APP_DEBUG", true),
			Timeout:         getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "content_db"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 60*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
			ConnectRetry:    getEnvAsDuration("DB_CONNECT_RETRY", 30*time.Second),
			LogQueries:      getEnvAsBool("DB_LOG_QUERIES", false),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", "default_secret_key_change_in_production"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 100),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 60),
		},
		Cache: CacheConfig{
			Enabled: getEnvAsBool("CACHE_ENABLED", true),
			ListTTL: getEnvAsDuration("CACHE_LIST_TTL", 30*time.Second),
			Backend: getEnv("CACHE_BACKEND", "redis"),
		},
		Cron: CronConfig{
			Enabled: getEnvAsBool("CRON_ENABLED", true),
		},
		Query: QueryConfig{
			DefaultLimit: getEnvAsInt("QUERY_DEFAULT_LIMIT", 10),
			MaxLimit:     getEnvAsInt("QUERY_MAX_LIMIT", 100),
		},
		Sentry: SentryConfig{
			DSN:        getEnv("SENTRY_DSN", ""),
			SampleRate: getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.Query.MaxLimit < 1 {
		return fmt.Errorf("QUERY_MAX_LIMIT must be positive, got %d", c.Query.MaxLimit)
	}
	if c.Query.DefaultLimit < 1 || c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("QUERY_DEFAULT_LIMIT must be between 1 and %d, got %d", c.Query.MaxLimit, c.Query.DefaultLimit)
	}
	if c.Cache.Backend != "redis" && c.Cache.Backend != "memory" {
		return fmt.Errorf("CACHE_BACKEND must be redis or memory, got %q", c.Cache.Backend)
	}
	if c.App.Environment == constants.EnvProduction && c.JWT.Secret == "default_secret_key_change_in_production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether error causes must be hidden from clients
func (c *Config) IsProduction() bool {
	return c.App.Environment == constants.EnvProduction
}

// CronEnabled reports whether scheduled jobs should be registered
func (c *Config) CronEnabled() bool {
	return c.Cron.Enabled && c.App.Environment != constants.EnvTest
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
