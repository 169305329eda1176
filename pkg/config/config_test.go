package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 555, c.Market.OpenMinute)
	assert.Equal(t, 930, c.Market.CloseMinute)
	assert.Equal(t, time.Second, c.Feed.TickInterval)
	assert.Equal(t, 10*time.Second, c.Feed.ResyncInterval)
	assert.Equal(t, 0.0005, c.Feed.DefaultVolatility)
	assert.Equal(t, 100000.0, c.Ledger.StartingCash)
	assert.Equal(t, "1234", c.Ledger.PIN)
	assert.Equal(t, 50, c.Ledger.HistoryLimit)
	assert.Equal(t, []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS"}, c.Ledger.Watchlist)
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.False(t, c.Kafka.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: test
ledger:
  starting_cash: 5000
  watchlist: [SBIN.NS]
feed:
  resync_interval: 30s
storage:
  backend: redis
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 5000.0, c.Ledger.StartingCash)
	assert.Equal(t, []string{"SBIN.NS"}, c.Ledger.Watchlist)
	assert.Equal(t, 30*time.Second, c.Feed.ResyncInterval)
	assert.Equal(t, "redis", c.Storage.Backend)
	// untouched keys keep defaults
	assert.Equal(t, time.Second, c.Feed.TickInterval)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"backend":    "storage:\n  backend: sqlite\n",
		"session":    "market:\n  open_minute: 930\n  close_minute: 555\n",
		"holiday":    "market:\n  holidays: [\"26-01-2025\"]\n",
		"kafka":      "kafka:\n  enabled: true\n",
		"clickhouse": "clickhouse:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TRADEPILOT_PIN", "9999")
	t.Setenv("WATCHLIST", "TCS.NS, INFY.NS ,")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, "9999", c.Ledger.PIN)
	assert.Equal(t, []string{"TCS.NS", "INFY.NS"}, c.Ledger.Watchlist)
	assert.Equal(t, "cache", c.Storage.Redis.Host)
	assert.Equal(t, 6380, c.Storage.Redis.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}
