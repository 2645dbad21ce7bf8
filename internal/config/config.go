package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultMySQLDSN        = "root:root@tcp(localhost:3306)/minimall?parseTime=true"
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisPoolSize   = 100
	defaultKafkaTopic      = "order-events"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	MySQL       MySQLConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the stock snapshot cache. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	PoolSize int
}

// KafkaConfig configures order event publishing. Empty Brokers disable
// publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from the environment, applying local
// development defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("APP_ENV", "local"),
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", defaultHTTPAddr),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		MySQL: MySQLConfig{
			DSN:             getEnv("MYSQL_DSN", defaultMySQLDSN),
			MaxOpenConns:    defaultMaxOpenConns,
			MaxIdleConns:    defaultMaxIdleConns,
			ConnMaxLifetime: defaultConnMaxLifetime,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			PoolSize: defaultRedisPoolSize,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		},
	}

	var err error
	if cfg.MySQL.MaxOpenConns, err = getIntEnv("MYSQL_MAX_OPEN_CONNS", cfg.MySQL.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if cfg.MySQL.MaxIdleConns, err = getIntEnv("MYSQL_MAX_IDLE_CONNS", cfg.MySQL.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = getIntEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Config{}, err
	}

	if cfg.MySQL.DSN == "" {
		return Config{}, fmt.Errorf("MYSQL_DSN must not be empty")
	}
	return cfg, nil
}

// Production reports whether the process runs with production settings.
func (c Config) Production() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
