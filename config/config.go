package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Debug        bool
	DatabaseDSN  string
	JWTSecret    string
	AllowOrigins []string

	// Push delivery
	FirebaseCredentialsFile string
	PushWorkers             int
	PushQueueSize           int
	PushMaxAttempts         int
	PushBaseBackoff         time.Duration

	// Device token retention sweep
	TokenRetentionDays int
	TokenSweepInterval time.Duration
}

// Load reads .env (if present) and assembles the config from the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8082"),
		Debug:        getEnvBool("DEBUG", false),
		DatabaseDSN:  getEnv("DATABASE_DSN", "root:root@tcp(127.0.0.1:3306)/rideway?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AllowOrigins: []string{getEnv("CORS_ORIGIN", "*")},

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		PushWorkers:             getEnvInt("PUSH_WORKERS", 4),
		PushQueueSize:           getEnvInt("PUSH_QUEUE_SIZE", 1024),
		PushMaxAttempts:         getEnvInt("PUSH_MAX_ATTEMPTS", 3),
		PushBaseBackoff:         getEnvDuration("PUSH_BASE_BACKOFF", 2*time.Second),

		TokenRetentionDays: getEnvInt("TOKEN_RETENTION_DAYS", 30),
		TokenSweepInterval: getEnvDuration("TOKEN_SWEEP_INTERVAL", 24*time.Hour),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
