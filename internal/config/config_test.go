package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"agromarket-dispatch/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	old := pflag.CommandLine
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	t.Cleanup(func() {
		pflag.CommandLine = old
	})
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AUTH_SECRET",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"KAFKA_BROKERS", "KAFKA_PAYMENTS_TOPIC", "KAFKA_PAYMENTS_GROUP", "KAFKA_NOTIFICATIONS_TOPIC",
		"SETTLEMENT_DRIVER_SHARE_PCT", "SETTLEMENT_CONFIRM_WINDOW", "SETTLEMENT_RESOLVE_INTERVAL",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RATE", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 8080, cfg.Port)

	require.Equal(t, "127.0.0.1", cfg.DB.Host)
	require.Equal(t, "5432", cfg.DB.Port)
	require.Equal(t, "dispatch_db", cfg.DB.Name)

	require.Equal(t, int64(85), cfg.Settlement.DriverSharePct)
	require.Equal(t, 48*time.Hour, cfg.Settlement.ConfirmWindow)
	require.Equal(t, 10*time.Minute, cfg.Settlement.ResolveInterval)

	require.Equal(t, "payment-events", cfg.Kafka.PaymentsTopic)
	require.Empty(t, cfg.Kafka.Brokers)

	require.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "15432")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "dispatch")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SETTLEMENT_DRIVER_SHARE_PCT", "80")
	t.Setenv("SETTLEMENT_CONFIRM_WINDOW", "24h")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "db", cfg.DB.Host)
	require.Equal(t, "postgres://u:p@db:15432/dispatch?sslmode=disable", cfg.DB.DSN())
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, int64(80), cfg.Settlement.DriverSharePct)
	require.Equal(t, 24*time.Hour, cfg.Settlement.ConfirmWindow)
	require.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "70000")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_InvalidDriverShare(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("SETTLEMENT_DRIVER_SHARE_PCT", "140")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}
