package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string
	Environment           string
	StorageDriver         string
	StoragePath           string
	StorageLatency        time.Duration
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	DataEncryptionKey     string
	JWTSecret             string
	JWTTTL                time.Duration
	AdvisoryAPIKey        string
	AdvisoryModel         string
	AdvisoryInsightsModel string
	AdvisoryTimeout       time.Duration
	AuthzMode             string
	AuthzUnsafeDisabled   bool
	AuthzModelPath        string
	AuthzPolicyPath       string
	CompanyDeletePolicy   string
	LeaveAmendPolicy      string
	AllowSelfSignup       bool
	SeedDemoAccounts      bool
	SeedFile              string
	MaxBodyBytes          int64
	RateLimit             string
	MetricsEnabled        bool
	SessionSweepInterval  time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		Environment:           getEnv("APP_ENV", "development"),
		StorageDriver:         strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
		StoragePath:           getEnv("STORAGE_PATH", "data/zenpayroll.db"),
		StorageLatency:        getEnvDuration("STORAGE_LATENCY", 0),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		DataEncryptionKey:     getEnv("DATA_ENCRYPTION_KEY", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTTTL:                getEnvDuration("JWT_TTL", 12*time.Hour),
		AdvisoryAPIKey:        getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		AdvisoryModel:         getEnv("ADVISORY_MODEL", "gemini-2.5-pro"),
		AdvisoryInsightsModel: getEnv("ADVISORY_INSIGHTS_MODEL", "gemini-2.5-flash"),
		AdvisoryTimeout:       getEnvDuration("ADVISORY_TIMEOUT", 20*time.Second),
		AuthzMode:             strings.ToLower(getEnv("AUTHZ_MODE", "enforce")),
		AuthzUnsafeDisabled:   os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") == "1",
		AuthzModelPath:        getEnv("AUTHZ_MODEL_PATH", ""),
		AuthzPolicyPath:       getEnv("AUTHZ_POLICY_PATH", ""),
		CompanyDeletePolicy:   strings.ToLower(getEnv("COMPANY_DELETE_POLICY", "orphan")),
		LeaveAmendPolicy:      strings.ToLower(getEnv("LEAVE_AMEND_POLICY", "forbid")),
		AllowSelfSignup:       getEnvBool("ALLOW_SELF_SIGNUP", false),
		SeedDemoAccounts:      getEnvBool("SEED_DEMO_ACCOUNTS", true),
		SeedFile:              getEnv("SEED_FILE", ""),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimit:             getEnv("RATE_LIMIT", "120-M"),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		SessionSweepInterval:  getEnvDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for STORAGE_DRIVER=postgres")
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for STORAGE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory|sqlite|postgres|redis")
	}
	if c.StorageLatency < 0 {
		return fmt.Errorf("STORAGE_LATENCY must not be negative")
	}

	switch c.AuthzMode {
	case "enforce", "shadow":
	case "disabled":
		if !c.AuthzUnsafeDisabled {
			return fmt.Errorf("AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
	default:
		return fmt.Errorf("AUTHZ_MODE must be one of enforce|shadow|disabled")
	}
	if (c.AuthzModelPath == "") != (c.AuthzPolicyPath == "") {
		return fmt.Errorf("AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH must be set together")
	}

	switch c.CompanyDeletePolicy {
	case "orphan", "block", "cascade":
	default:
		return fmt.Errorf("COMPANY_DELETE_POLICY must be one of orphan|block|cascade")
	}
	switch c.LeaveAmendPolicy {
	case "forbid", "allow":
	default:
		return fmt.Errorf("LEAVE_AMEND_POLICY must be one of forbid|allow")
	}

	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.SeedDemoAccounts {
			return fmt.Errorf("SEED_DEMO_ACCOUNTS must be disabled in production")
		}
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.SessionSweepInterval < 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must not be negative")
	}
	if strings.TrimSpace(c.RateLimit) == "" {
		return fmt.Errorf("RATE_LIMIT must be set, e.g. 120-M")
	}
	return nil
}
