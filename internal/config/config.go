package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DBDSN             string
	LogFile           string
	RedisAddr         string
	RedisPassword     string
	CloudinaryURL     string
	ReconcileInterval time.Duration
	OrphanGrace       time.Duration
	ResyncInterval    time.Duration
	Seed              bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] could not read .env: %v", err)
	}

	cfg := Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		DBDSN:             getEnvOrDefault("DB_DSN", "stallhub.db"), // sqlite file in project root
		LogFile:           os.Getenv("LOG_FILE"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		CloudinaryURL:     os.Getenv("CLOUDINARY_URL"),
		ReconcileInterval: durationOrDefault("RECONCILE_INTERVAL", 5*time.Minute),
		OrphanGrace:       durationOrDefault("ORPHAN_GRACE", 10*time.Minute),
		ResyncInterval:    durationOrDefault("RESYNC_INTERVAL", 0),
		Seed:              boolOrDefault("SEED", true),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS=%t CLOUDINARY=%t RECONCILE_INTERVAL=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.RedisAddr != "", cfg.CloudinaryURL != "", cfg.ReconcileInterval)
	return cfg
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func boolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %t", key, v, def)
		return def
	}
	return b
}
