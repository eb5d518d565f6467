package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "fotofacturas"
	defaultAppEnv         = "development"
	defaultAppBuild       = "dev"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultStoreDriver    = StoreFile
	timeoutMillisEnvVar   = "REQUEST_TIMEOUT_MS"
	timeoutDurationEnvVar = "REQUEST_TIMEOUT"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config captures client runtime configuration loaded from environment variables.
// It is resolved once at startup and never reloaded.
type Config struct {
	AppName        string
	AppEnv         string
	AppBuild       string
	LogLevel       string
	LegacyAPIURL   string
	APIURL         string
	UseNewBackend  bool
	RequestTimeout time.Duration
	StoreDriver    string
	StateDir       string
	RedisURL       string
	DatabaseURL    string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		AppBuild:       getEnv("APP_BUILD", defaultAppBuild),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LegacyAPIURL:   strings.TrimRight(os.Getenv("LEGACY_API_URL"), "/"),
		APIURL:         strings.TrimRight(os.Getenv("API_URL"), "/"),
		RequestTimeout: defaultRequestTimeout,
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", defaultStoreDriver)),
		StateDir:       os.Getenv("STATE_DIR"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	if v := os.Getenv("USE_NEW_BACKEND"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid USE_NEW_BACKEND: %w", err)
		}
		cfg.UseNewBackend = enabled
	}

	if v := os.Getenv(timeoutMillisEnvVar); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", timeoutMillisEnvVar, err)
		}
		cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
	} else if v := os.Getenv(timeoutDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", timeoutDurationEnvVar, err)
		}
		cfg.RequestTimeout = d
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request timeout must be positive")
	}

	if cfg.LegacyAPIURL == "" {
		return Config{}, fmt.Errorf("LEGACY_API_URL must be set")
	}
	if cfg.APIURL == "" {
		return Config{}, fmt.Errorf("API_URL must be set")
	}

	switch cfg.StoreDriver {
	case StoreFile:
		if cfg.StateDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolve state dir: %w", err)
			}
			cfg.StateDir = filepath.Join(home, "."+cfg.AppName)
		}
	case StoreMemory:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when STORE_DRIVER=%s", StoreRedis)
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// SessionKey is the durable storage key of the session record. It is
// namespaced per application build so builds never read each other's state.
func (c Config) SessionKey() string {
	return fmt.Sprintf("%s:%s:session", c.AppName, c.AppBuild)
}

// CandidateSeedKey is the durable storage key of the phone candidate counter.
func (c Config) CandidateSeedKey() string {
	return c.AppName + ":phone-candidate-seed"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
