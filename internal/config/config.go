package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type WorksConfig struct {
	DefaultLimit  int
	MaxLimit      int
	ExportMaxRows int
	RetryBackoff  time.Duration
}

type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	Capacity      uint64
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type MemoryConfig struct {
	CheckInterval time.Duration
	FlushRatio    float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Works       WorksConfig
	Cache       CacheConfig
	Memory      MemoryConfig
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7090)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("WORKS_DEFAULT_LIMIT", 20)
	v.SetDefault("WORKS_MAX_LIMIT", 100)
	v.SetDefault("WORKS_EXPORT_MAX_ROWS", 5000)
	v.SetDefault("STORE_RETRY_BACKOFF", "200ms")
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_CAPACITY", 1000)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEMORY_CHECK_INTERVAL", "5m")
	v.SetDefault("MEMORY_FLUSH_RATIO", 0.85)

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	durations := map[string]*time.Duration{}
	cfg := &Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Works: WorksConfig{
			DefaultLimit:  v.GetInt("WORKS_DEFAULT_LIMIT"),
			MaxLimit:      v.GetInt("WORKS_MAX_LIMIT"),
			ExportMaxRows: v.GetInt("WORKS_EXPORT_MAX_ROWS"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			Capacity:      v.GetUint64("CACHE_CAPACITY"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		Memory: MemoryConfig{
			FlushRatio: v.GetFloat64("MEMORY_FLUSH_RATIO"),
		},
	}

	durations["HTTP_SHUTDOWN_TIMEOUT"] = &cfg.HTTP.ShutdownTimeout
	durations["DB_CONN_MAX_LIFETIME"] = &cfg.DB.ConnMaxLifetime
	durations["DB_QUERY_TIMEOUT"] = &cfg.DB.QueryTimeout
	durations["STORE_RETRY_BACKOFF"] = &cfg.Works.RetryBackoff
	durations["CACHE_TTL"] = &cfg.Cache.TTL
	durations["MEMORY_CHECK_INTERVAL"] = &cfg.Memory.CheckInterval
	for key, target := range durations {
		d, err := parseDuration(key, v.GetString(key))
		if err != nil {
			return nil, err
		}
		*target = d
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Works.DefaultLimit < 1 {
		return fmt.Errorf("WORKS_DEFAULT_LIMIT must be positive")
	}
	if cfg.Works.MaxLimit < cfg.Works.DefaultLimit {
		return fmt.Errorf("WORKS_MAX_LIMIT must be at least WORKS_DEFAULT_LIMIT")
	}
	if cfg.Works.ExportMaxRows < 1 {
		return fmt.Errorf("WORKS_EXPORT_MAX_ROWS must be positive")
	}
	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis, none")
	}
	if cfg.Memory.FlushRatio <= 0 || cfg.Memory.FlushRatio > 1 {
		return fmt.Errorf("MEMORY_FLUSH_RATIO must be in (0, 1]")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", key)
	}
	return d, nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
