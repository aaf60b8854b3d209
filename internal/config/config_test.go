package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "5000", cfg.AppPort)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, "static/research.db", cfg.DatabaseURL)
	require.Equal(t, "groupa.csv", cfg.QuestionsPath)
	require.False(t, cfg.QuestionsCache)
	require.Equal(t, "study_session", cfg.SessionCookie)
	require.Equal(t, 4*time.Hour, cfg.SessionTTL)
	require.Equal(t, 3*time.Second, cfg.RedisPingTimeout)
	require.Equal(t, 20, cfg.IntakeRateLimit)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.AdminEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STUDY_APP_PORT", ":8080")
	t.Setenv("STUDY_DATABASE_URL", "postgres://study@localhost/study")
	t.Setenv("STUDY_QUESTIONS_PATH", "banks/pilot.csv")
	t.Setenv("STUDY_QUESTIONS_CACHE", "true")
	t.Setenv("STUDY_SESSION_TTL", "30m")
	t.Setenv("STUDY_REDIS_PING_TIMEOUT", "500ms")
	t.Setenv("STUDY_JWT_SECRET", "s3cret")
	t.Setenv("STUDY_INTAKE_RATE_LIMIT", "0")
	t.Setenv("STUDY_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "postgres://study@localhost/study", cfg.DatabaseURL)
	require.Equal(t, "banks/pilot.csv", cfg.QuestionsPath)
	require.True(t, cfg.QuestionsCache)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 500*time.Millisecond, cfg.RedisPingTimeout)
	require.True(t, cfg.AdminEnabled())
	require.Equal(t, 20, cfg.IntakeRateLimit)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("STUDY_SESSION_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
}
