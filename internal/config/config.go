package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	RedisURL      string
	NATSURL       string
	JWTSecret     string
	TokenTTLHours int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func Load() Config {
	ttl, _ := strconv.Atoi(getenv("TOKEN_TTL_HOURS", "24"))
	if ttl <= 0 {
		ttl = 24
	}
	return Config{
		Port:          getenv("PORT", "8080"),
		Env:           getenv("APP_ENV", "dev"),
		DatabaseURL:   getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=koinonia port=5432 sslmode=disable TimeZone=UTC"),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:       getenv("NATS_URL", ""),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTLHours: ttl,
	}
}
