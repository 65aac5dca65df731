package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/order-matcher/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, 10*time.Minute, cfg.HTTP.DedupTTL)
	assert.Equal(t, 1024, cfg.Dispatcher.Buffer)
	assert.Equal(t, 5*time.Second, cfg.Dispatcher.SinkTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Kafka.Enabled)

	instruments, err := cfg.TradedInstruments()
	require.NoError(t, err)
	assert.Equal(t, domain.Instruments(), instruments)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
http:
  addr: ":18080"
instruments:
  - btc_usd
  - XRP_USD
ratelimit:
  interval: 250ms
redis:
  enabled: true
  addr: redis:6379
  ttl: 1m
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
  topic: fills
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":18080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.GRPC.Addr, "unset keys keep their default")
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.Interval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "fills", cfg.Kafka.Topic)

	instruments, err := cfg.TradedInstruments()
	require.NoError(t, err)
	assert.Equal(t, []domain.Instrument{domain.BTCUSD, domain.XRPUSD}, instruments)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":18080\"\n")
	t.Setenv("ORDERMATCHER_HTTP_ADDR", ":28080")
	t.Setenv("ORDERMATCHER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":28080", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"unknown instrument", "instruments: [DOGE_USD]\n"},
		{"duplicate instrument", "instruments: [BTC_USD, btc_usd]\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"no listeners", "http:\n  addr: \"\"\ngrpc:\n  addr: \"\"\n"},
		{"zero dedup ttl", "http:\n  dedup_ttl: 0s\n"},
		{"zero buffer", "dispatcher:\n  buffer: 0\n"},
		{"kafka without topic", "kafka:\n  enabled: true\n  topic: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
