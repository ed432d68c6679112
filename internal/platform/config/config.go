package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; empty Postgres/Redis/Kafka settings mean
// the corresponding backend is disabled and an in-memory fallback is used.
type Config struct {
	Addr          string
	HTTP          HTTPConfig
	PostgresURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	AuthDisabled  bool
}

// HTTPConfig carries server timeout settings.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// RedisConfig carries go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ScheduleTTL  time.Duration
}

// KafkaConfig carries franz-go producer settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	addr := os.Getenv("LOANCORE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_LOAN_EVENTS_TOPIC")
	if topic == "" {
		topic = "loan.events.v1"
	}
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = splitCSV(raw)
	}

	return Config{
		Addr: addr,
		HTTP: HTTPConfig{
			ReadHeaderTimeout: durationFromEnv("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       durationFromEnv("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      durationFromEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       durationFromEnv("HTTP_IDLE_TIMEOUT", time.Minute),
			ShutdownTimeout:   durationFromEnv("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		PostgresURL: os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intFromEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			ScheduleTTL:  durationFromEnv("REDIS_SCHEDULE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		JWTSigningKey: jwtSigningKey,
		AuthDisabled:  os.Getenv("AUTH_DISABLED") == "true",
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
