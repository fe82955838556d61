package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr               string
	PostgresDSN        string
	Redis              RedisConfig
	Kafka              KafkaConfig
	JWTSigningKey      string
	CollectionName     string
	CollectionSymbol   string
	BootstrapPrincipal string
}

// RedisConfig configures the optional token URI cache. An empty URL disables
// Redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit event sink. Empty brokers disable
// Kafka publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TokenURICacheTTL bounds staleness of cached metadata URIs.
var TokenURICacheTTL = 5 * time.Minute

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("MINTGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("MINTGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	name := os.Getenv("MINTGATE_COLLECTION_NAME")
	if name == "" {
		name = "MintGate Collection"
	}
	symbol := os.Getenv("MINTGATE_COLLECTION_SYMBOL")
	if symbol == "" {
		symbol = "MGC"
	}

	topic := os.Getenv("MINTGATE_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "mintgate.audit"
	}

	var brokers []string
	if raw := os.Getenv("MINTGATE_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:        addr,
		PostgresDSN: os.Getenv("MINTGATE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("MINTGATE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		JWTSigningKey:      jwtSigningKey,
		CollectionName:     name,
		CollectionSymbol:   symbol,
		BootstrapPrincipal: os.Getenv("MINTGATE_BOOTSTRAP_PRINCIPAL"),
	}
}
