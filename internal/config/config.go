package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string

	JWTSecret         string
	JWTClockSkewSecs  int

	// Ledger gateway connection. The API key is the process-wide
	// signing identity, injected here and owned by the ledger client.
	LedgerURL                 string
	LedgerAPIKey              string
	LedgerConfirmTimeoutSecs  int
	LedgerPollIntervalMillis  int

	AuditListDefaultLimit int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                 addr,
		PostgresDSN:              os.Getenv("POSTGRES_DSN"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTClockSkewSecs:         envIntDefault("JWT_CLOCK_SKEW_SECONDS", 60),
		LedgerURL:                os.Getenv("LEDGER_URL"),
		LedgerAPIKey:             os.Getenv("LEDGER_API_KEY"),
		LedgerConfirmTimeoutSecs: envIntDefault("LEDGER_CONFIRM_TIMEOUT_SECONDS", 30),
		LedgerPollIntervalMillis: envIntDefault("LEDGER_POLL_INTERVAL_MS", 500),
		AuditListDefaultLimit:    envIntDefault("AUDIT_LIST_DEFAULT_LIMIT", 50),
		RateLimitRequests:        envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds:   envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:      envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:         envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  envIntDefault("REDIS_DB", 0),
	}
}

func (c Config) LedgerConfirmTimeout() time.Duration {
	return time.Duration(c.LedgerConfirmTimeoutSecs) * time.Second
}

func (c Config) LedgerPollInterval() time.Duration {
	return time.Duration(c.LedgerPollIntervalMillis) * time.Millisecond
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
