package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/graphselect/internal/curve"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.RangeCacheTTL)
	assert.Equal(t, curve.DefaultOptions(), cfg.CurveOptions())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SAMPLE_STEP", "0.05")
	t.Setenv("MAX_CLIMB_STEPS", "200")
	t.Setenv("MAX_SAMPLES", "5000")
	t.Setenv("RANGE_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.SampleStep)
	assert.Equal(t, 200, cfg.MaxClimbSteps)
	assert.Equal(t, 5000, cfg.CurveOptions().MaxSamples)
	assert.Equal(t, 30*time.Second, cfg.RangeCacheTTL)
}

func TestLoadRejectsZeroStep(t *testing.T) {
	t.Setenv("SAMPLE_STEP", "0")

	_, err := Load()
	assert.ErrorIs(t, err, curve.ErrInvalidStep)
}

func TestListAndLevel(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	cfg.LogLevel = "loud"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
