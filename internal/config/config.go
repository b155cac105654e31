package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credential backend identifiers accepted by CREDENTIAL_BACKEND.
const (
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	// CredentialBackend selects where the credential store persists
	// {token, role}: a local bbolt file, a shared redis, or nowhere.
	CredentialBackend string
	CredentialPath    string
	CredentialKey     string
	RedisURL          string
	CertificateDir    string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:          getEnv("LOG_LEVEL", "warn"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
		CredentialBackend: parseBackend(getEnv("CREDENTIAL_BACKEND", BackendBolt)),
		CredentialPath:    getEnv("CREDENTIAL_PATH", "./certify.db"),
		CredentialKey:     getEnv("CREDENTIAL_KEY", "auth-storage"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CertificateDir:    getEnv("CERTIFICATE_DIR", "."),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseBackend normalizes the backend name. Unknown values fall back to bolt
// so a typo never silently drops the credential on restart.
func parseBackend(raw string) string {
	switch b := strings.ToLower(strings.TrimSpace(raw)); b {
	case BackendBolt, BackendRedis, BackendMemory:
		return b
	default:
		return BackendBolt
	}
}
