// Package config loads dashboard client configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hygienequest/dashboard/internal/model"
)

// DefaultAPIBaseURL is the fixed origin used when HQ_API_URL is unset.
const DefaultAPIBaseURL = "https://hygienequestemdpoints.onrender.com"

type Config struct {
	APIBaseURL string

	// Timeout budgets. Plain data fetches abort sooner than OTP calls,
	// which wait on an SMS gateway behind the API.
	DataTimeout time.Duration
	OTPTimeout  time.Duration

	SessionTTL      time.Duration
	SchoolAdminTTL  time.Duration
	ExportTokenTTL  time.Duration
	ResendCooldown  time.Duration
	PollInterval    time.Duration
	SessionTickRate time.Duration

	// DegradedMode substitutes bundled sample records when the API is
	// unreachable. Off by default so outages stay visible.
	DegradedMode bool

	// CredentialDir is where the session and export-token files live.
	CredentialDir string
}

// Load reads configuration from the environment, after best-effort loading
// of a .env file from the working directory.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIBaseURL:      getenv("HQ_API_URL", DefaultAPIBaseURL),
		DataTimeout:     getenvDuration("HQ_DATA_TIMEOUT", 10*time.Second),
		OTPTimeout:      getenvDuration("HQ_OTP_TIMEOUT", 30*time.Second),
		SessionTTL:      getenvDuration("HQ_SESSION_TTL", model.SessionLifetime),
		SchoolAdminTTL:  getenvDuration("HQ_SCHOOL_ADMIN_TTL", model.SchoolAdminSessionLifetime),
		ExportTokenTTL:  getenvDuration("HQ_EXPORT_TOKEN_TTL", model.ExportTokenLifetime),
		ResendCooldown:  getenvDuration("HQ_RESEND_COOLDOWN", 120*time.Second),
		PollInterval:    getenvDuration("HQ_POLL_INTERVAL", 30*time.Second),
		SessionTickRate: time.Second,
		DegradedMode:    getenvBool("HQ_DEGRADED_MODE", false),
		CredentialDir:   getenv("HQ_CREDENTIAL_DIR", defaultCredentialDir()),
	}
}

func defaultCredentialDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "hygienequest")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hygienequest")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
