package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMockPort      = "8080"
	defaultShutdownDelay = 10 * time.Second
	defaultTokenSecret   = "mockapi-dev-secret"
)

// MockConfig configures the development backend served by cmd/mockapi.
type MockConfig struct {
	AppName        string
	Port           string
	LogLevel       string
	OTPCode        string
	TokenSecret    string
	RedisURL       string
	OTPPerMinute   int
	ShutdownPeriod time.Duration
}

// LoadMock reads the development backend configuration from the environment.
func LoadMock() (MockConfig, error) {
	cfg := MockConfig{
		AppName:        getEnv("APP_NAME", defaultAppName) + "-mockapi",
		Port:           getEnv("MOCK_PORT", defaultMockPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		OTPCode:        os.Getenv("MOCK_OTP_CODE"),
		TokenSecret:    getEnv("MOCK_TOKEN_SECRET", defaultTokenSecret),
		RedisURL:       os.Getenv("REDIS_URL"),
		OTPPerMinute:   5,
		ShutdownPeriod: defaultShutdownDelay,
	}

	if v := os.Getenv("MOCK_OTP_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return MockConfig{}, fmt.Errorf("invalid MOCK_OTP_PER_MINUTE: %w", err)
		}
		cfg.OTPPerMinute = n
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return MockConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	}

	if cfg.OTPCode != "" && len(cfg.OTPCode) != 6 {
		return MockConfig{}, fmt.Errorf("MOCK_OTP_CODE must have 6 digits")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c MockConfig) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
