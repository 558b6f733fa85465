package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	CRDBDSN       string
	MongoURI      string
	RedisAddr     string
	RabbitURL     string
	JWTSecret     string
	EventCacheTTL time.Duration
	IdempTTL      time.Duration
	OTLPEndpoint  string
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	return &Config{
		Port:          port,
		CRDBDSN:       os.Getenv("CRDB_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RabbitURL:     os.Getenv("RABBIT_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		EventCacheTTL: durationEnv("EVENT_CACHE_TTL", time.Minute),
		IdempTTL:      durationEnv("IDEMPOTENCY_TTL", time.Hour),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
