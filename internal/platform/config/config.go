package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr            string
	PostgresDSN     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaTopic      string
	JWTSigningKey   string
	BootstrapAdmin  string
	CacheTTL        time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
//
// PROOFVAULT_POSTGRES_DSN selects postgres persistence; when empty the
// registry runs on its in-memory stores. PROOFVAULT_REDIS_URL and
// PROOFVAULT_KAFKA_BROKERS are optional in both modes.
func FromEnv() Server {
	addr := os.Getenv("PROOFVAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("PROOFVAULT_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("PROOFVAULT_KAFKA_TOPIC")
	if topic == "" {
		topic = "proofvault.events"
	}

	admin := os.Getenv("PROOFVAULT_BOOTSTRAP_ADMIN")
	if admin == "" {
		admin = "admin"
	}

	var brokers []string
	if raw := os.Getenv("PROOFVAULT_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:            addr,
		PostgresDSN:     os.Getenv("PROOFVAULT_POSTGRES_DSN"),
		RedisURL:        os.Getenv("PROOFVAULT_REDIS_URL"),
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		JWTSigningKey:   jwtSigningKey,
		BootstrapAdmin:  admin,
		CacheTTL:        5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}
