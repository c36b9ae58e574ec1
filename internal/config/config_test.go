package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	var (
		addr = "localhost:8080"
		dsn  = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
		key  = "c29tZV9zZWNyZXQ="
		orig = []string{"http://localhost:3000"}
	)

	tcases := []struct {
		name string
		addr string
		dsn  string
		key  string
		orig []string
		err  bool
	}{
		{
			name: "valid config",
			addr: addr,
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  false,
		},
		{
			name: "empty address",
			addr: "",
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty DSN",
			addr: addr,
			dsn:  "",
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty signing key",
			addr: addr,
			dsn:  dsn,
			key:  "",
			orig: orig,
			err:  true,
		},
		{
			name: "signing key not base64",
			addr: addr,
			dsn:  dsn,
			key:  "not base64!",
			orig: orig,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := NewConfig(tc.addr, tc.dsn, tc.key, tc.orig)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.addr, config.ServerAddr, "expected server address to match")
			assert.Equal(t, tc.dsn, config.DatabaseDSN, "expected database DSN to match")
			assert.Equal(t, tc.orig, config.AllowedOrigins, "expected allowed origins to match")
			assert.Equal(t, DeliveryLocal, config.Delivery.Mode, "expected local delivery by default")
			assert.NotEmpty(t, config.SigningKey, "expected signing key to be decoded and not empty")
		})
	}
}

func Test_decodeSigningKey(t *testing.T) {
	tcases := []struct {
		name         string
		base64Secret string
		expectedKey  []byte
		expectError  bool
	}{
		{
			name:         "valid base64 secret",
			base64Secret: "c29tZV9zZWNyZXQ=",
			expectedKey:  []byte("some_secret"),
			expectError:  false,
		},
		{
			name:         "invalid base64 secret",
			base64Secret: "invalid_base64",
			expectedKey:  nil,
			expectError:  true,
		},
		{
			name:         "empty base64 secret",
			base64Secret: "",
			expectedKey:  nil,
			expectError:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := decodeSigningSecret(tc.base64Secret)
			if tc.expectError {
				assert.Error(t, err, "expected error for base64 secret: %s", tc.base64Secret)
			} else {
				assert.NoError(t, err, "expected no error for base64 secret: %s", tc.base64Secret)
				assert.Equal(t, tc.expectedKey, key, "expected decoded key to match for base64 secret: %s", tc.base64Secret)
			}
		})
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budget.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
addr: "0.0.0.0:9000"
signing_key: "c29tZV9zZWNyZXQ="
database:
  driver: sqlite
  dsn: "file:budget.db"
delivery:
  mode: rooms
  room_hosts: ["http://rooms-a:8100", "http://rooms-b:8100"]
  room_secret: shh
notifications:
  retention_days: 7
  sweep_interval: 10m
exchange_rates:
  eur: "1.08"
`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr)
		assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		assert.Equal(t, "file:budget.db", cfg.DatabaseDSN)
		assert.Equal(t, DeliveryRooms, cfg.Delivery.Mode)
		assert.Equal(t, []string{"http://rooms-a:8100", "http://rooms-b:8100"}, cfg.Delivery.RoomHosts)
		assert.Equal(t, "shh", cfg.Delivery.RoomSecret)
		assert.Equal(t, 7, cfg.Notifications.RetentionDays)
		assert.Equal(t, 10*time.Minute, cfg.Notifications.SweepInterval)
		assert.Equal(t, 30*time.Second, cfg.Notifications.HeartbeatInterval, "expected default heartbeat")
		assert.Equal(t, "USD", cfg.BaseCurrency)
		assert.True(t, decimal.RequireFromString("1.08").Equal(cfg.ExchangeRates["EUR"]), "expected rate keys to be upper-cased")
	})

	t.Run("environment supplies the signing key", func(t *testing.T) {
		t.Setenv("BUDGET_SIGNING_KEY", "c29tZV9zZWNyZXQ=")
		t.Setenv("BUDGET_DATABASE_DRIVER", "sqlite")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, []byte("some_secret"), cfg.SigningKey)
		assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		t.Setenv("BUDGET_SIGNING_KEY", "c29tZV9zZWNyZXQ=")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DeliveryLocal, cfg.Delivery.Mode)
	})

	tcases := []struct {
		name string
		body string
	}{
		{
			name: "rooms mode without hosts",
			body: "signing_key: c29tZV9zZWNyZXQ=\ndelivery:\n  mode: rooms\n",
		},
		{
			name: "unknown delivery mode",
			body: "signing_key: c29tZV9zZWNyZXQ=\ndelivery:\n  mode: carrier-pigeon\n",
		},
		{
			name: "unknown driver",
			body: "signing_key: c29tZV9zZWNyZXQ=\ndatabase:\n  driver: oracle\n",
		},
		{
			name: "non-positive retention",
			body: "signing_key: c29tZV9zZWNyZXQ=\nnotifications:\n  retention_days: 0\n",
		},
		{
			name: "bad exchange rate",
			body: "signing_key: c29tZV9zZWNyZXQ=\nexchange_rates:\n  EUR: abc\n",
		},
		{
			name: "negative exchange rate",
			body: "signing_key: c29tZV9zZWNyZXQ=\nexchange_rates:\n  EUR: \"-1\"\n",
		},
		{
			name: "missing signing key",
			body: "addr: localhost:8000\n",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tc.body))
			assert.Error(t, err, "expected error for config: %s", tc.name)
		})
	}
}
