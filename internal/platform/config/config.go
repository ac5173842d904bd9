// Package config builds the service configuration from environment
// variables so main stays lean. Every knob has a development default except
// the signing keys, which fall back to a clearly-marked dev key.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr string

	// SigningKeys verify capability tokens; the first key signs new ones.
	// AEGIS_SIGNING_KEYS is comma-separated, newest first.
	SigningKeys   []string
	TokenValidity time.Duration
	TokenIssuer   string

	// PostgresURL selects the durable stores; empty runs in-memory.
	PostgresURL string

	// RedisURL enables the shared rate limiter and API key cache; empty
	// falls back to per-instance memory.
	RedisURL       string
	APIKeyCacheTTL time.Duration

	// KafkaBrokers enables the audit stream mirror; empty disables it.
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv reads configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("AEGIS_ADDR", ":8080"),
		TokenValidity:  durationOr("AEGIS_TOKEN_VALIDITY", 365*24*time.Hour),
		TokenIssuer:    envOr("AEGIS_TOKEN_ISSUER", "aegis-registry"),
		PostgresURL:    os.Getenv("AEGIS_POSTGRES_URL"),
		RedisURL:       os.Getenv("AEGIS_REDIS_URL"),
		APIKeyCacheTTL: durationOr("AEGIS_API_KEY_CACHE_TTL", 5*time.Minute),
		KafkaTopic:     envOr("AEGIS_KAFKA_TOPIC", "aegis.audit"),
	}

	keys := envOr("AEGIS_SIGNING_KEYS", "dev-secret-key-change-in-production")
	for _, key := range strings.Split(keys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			cfg.SigningKeys = append(cfg.SigningKeys, key)
		}
	}

	if brokers := os.Getenv("AEGIS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

// SigningKeyBytes returns the key set in the form the token issuer takes.
func (c Config) SigningKeyBytes() [][]byte {
	keys := make([][]byte, 0, len(c.SigningKeys))
	for _, k := range c.SigningKeys {
		keys = append(keys, []byte(k))
	}
	return keys
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func durationOr(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
