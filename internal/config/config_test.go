package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	require.Equal(t, 10*time.Second, cfg.DataTimeout)
	require.Equal(t, 30*time.Second, cfg.OTPTimeout)
	require.Equal(t, 20*time.Minute, cfg.SessionTTL)
	require.Equal(t, 30*time.Minute, cfg.ExportTokenTTL)
	require.Equal(t, 120*time.Second, cfg.ResendCooldown)
	require.Equal(t, 30*time.Second, cfg.PollInterval)
	require.False(t, cfg.DegradedMode)
	require.NotEmpty(t, cfg.CredentialDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HQ_API_URL", "http://localhost:9999")
	t.Setenv("HQ_DATA_TIMEOUT", "2s")
	t.Setenv("HQ_POLL_INTERVAL", "5s")
	t.Setenv("HQ_DEGRADED_MODE", "true")
	t.Setenv("HQ_CREDENTIAL_DIR", "/tmp/hq-test")

	cfg := Load()

	require.Equal(t, "http://localhost:9999", cfg.APIBaseURL)
	require.Equal(t, 2*time.Second, cfg.DataTimeout)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
	require.True(t, cfg.DegradedMode)
	require.Equal(t, "/tmp/hq-test", cfg.CredentialDir)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("HQ_OTP_TIMEOUT", "not-a-duration")

	cfg := Load()
	require.Equal(t, 30*time.Second, cfg.OTPTimeout)
}
