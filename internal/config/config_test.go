package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationHelpers_ConvertFromRawFields(t *testing.T) {
	c := &Config{
		FreeRetentionDays:    30,
		PremiumRetentionDays: 365,
		MessageEditWindowSec: 900,
		ExpireJobIntervalMS:  30000,
	}
	require.Equal(t, 30*24*time.Hour, c.FreeRetention())
	require.Equal(t, 365*24*time.Hour, c.PremiumRetention())
	require.Equal(t, 900*time.Second, c.EditWindow())
	require.Equal(t, 30*time.Second, c.ExpireJobInterval())
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_AppliesDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-session-secret")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "memory", cfg.StoreDriver)
	require.Equal(t, 30, cfg.FreeRetentionDays)
	require.Equal(t, 50, cfg.RateLimitMessagesPerWindow)
	require.Equal(t, 10*time.Second, cfg.RateLimitMessagesWindow)
}

func TestLoad_SplitsAllowedOriginsOnComma(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-session-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}
