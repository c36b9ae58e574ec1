package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DeliveryLocal = "local"
	DeliveryRooms = "rooms"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServerAddr     string
	DatabaseDriver string
	DatabaseDSN    string
	SigningKey     []byte
	AllowedOrigins []string
	Delivery       DeliveryConfig
	Notifications  NotificationsConfig
	RoomHost       RoomHostConfig
	BaseCurrency   string
	ExchangeRates  map[string]decimal.Decimal
}

type DeliveryConfig struct {
	Mode       string
	RoomHosts  []string
	RoomSecret string
}

type NotificationsConfig struct {
	RetentionDays     int
	SweepInterval     time.Duration
	HeartbeatInterval time.Duration
}

type RoomHostConfig struct {
	Addr        string
	IdleTimeout time.Duration
}

// fileConfig mirrors the YAML/env layout read by viper.
type fileConfig struct {
	Addr           string            `mapstructure:"addr"`
	SigningKey     string            `mapstructure:"signing_key"`
	AllowedOrigins []string          `mapstructure:"allowed_origins"`
	BaseCurrency   string            `mapstructure:"base_currency"`
	ExchangeRates  map[string]string `mapstructure:"exchange_rates"`
	Database       struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Delivery struct {
		Mode       string   `mapstructure:"mode"`
		RoomHosts  []string `mapstructure:"room_hosts"`
		RoomSecret string   `mapstructure:"room_secret"`
	} `mapstructure:"delivery"`
	Notifications struct {
		RetentionDays     int           `mapstructure:"retention_days"`
		SweepInterval     time.Duration `mapstructure:"sweep_interval"`
		HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	} `mapstructure:"notifications"`
	RoomHost struct {
		Addr        string        `mapstructure:"addr"`
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"room_host"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("empty secret")
	}

	return base64.StdEncoding.DecodeString(base64Secret)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BUDGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", "localhost:8000")
	v.SetDefault("signing_key", "")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("base_currency", "USD")
	v.SetDefault("exchange_rates", map[string]string{})
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable")
	v.SetDefault("delivery.mode", DeliveryLocal)
	v.SetDefault("delivery.room_hosts", []string{})
	v.SetDefault("delivery.room_secret", "")
	v.SetDefault("notifications.retention_days", 30)
	v.SetDefault("notifications.sweep_interval", time.Hour)
	v.SetDefault("notifications.heartbeat_interval", 30*time.Second)
	v.SetDefault("room_host.addr", "localhost:8100")
	v.SetDefault("room_host.idle_timeout", time.Minute)

	return v
}

// LoadConfig reads the optional YAML file at path, overlays BUDGET_* environment
// variables and validates the result. An empty path uses defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return fromFile(fc)
}

func fromFile(fc fileConfig) (*Config, error) {
	cfg, err := NewConfig(fc.Addr, fc.Database.DSN, fc.SigningKey, fc.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	switch fc.Database.Driver {
	case DriverPostgres, DriverSQLite:
		cfg.DatabaseDriver = fc.Database.Driver
	default:
		return nil, fmt.Errorf("unsupported database driver %q", fc.Database.Driver)
	}

	switch fc.Delivery.Mode {
	case DeliveryLocal:
	case DeliveryRooms:
		if len(fc.Delivery.RoomHosts) == 0 {
			return nil, fmt.Errorf("delivery mode %q requires at least one room host", DeliveryRooms)
		}
	default:
		return nil, fmt.Errorf("unsupported delivery mode %q", fc.Delivery.Mode)
	}
	cfg.Delivery = DeliveryConfig{
		Mode:       fc.Delivery.Mode,
		RoomHosts:  fc.Delivery.RoomHosts,
		RoomSecret: fc.Delivery.RoomSecret,
	}

	if fc.Notifications.RetentionDays <= 0 {
		return nil, fmt.Errorf("notifications.retention_days must be positive")
	}
	if fc.Notifications.SweepInterval <= 0 || fc.Notifications.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("notification intervals must be positive")
	}
	cfg.Notifications = NotificationsConfig{
		RetentionDays:     fc.Notifications.RetentionDays,
		SweepInterval:     fc.Notifications.SweepInterval,
		HeartbeatInterval: fc.Notifications.HeartbeatInterval,
	}

	if fc.RoomHost.Addr == "" || fc.RoomHost.IdleTimeout <= 0 {
		return nil, fmt.Errorf("room_host.addr and room_host.idle_timeout must be set")
	}
	cfg.RoomHost = RoomHostConfig{
		Addr:        fc.RoomHost.Addr,
		IdleTimeout: fc.RoomHost.IdleTimeout,
	}

	cfg.BaseCurrency = strings.ToUpper(fc.BaseCurrency)
	if cfg.BaseCurrency == "" {
		return nil, fmt.Errorf("base_currency cannot be empty")
	}

	cfg.ExchangeRates = make(map[string]decimal.Decimal, len(fc.ExchangeRates))
	for code, raw := range fc.ExchangeRates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("exchange rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("exchange rate for %s must be positive", code)
		}
		cfg.ExchangeRates[strings.ToUpper(code)] = rate
	}

	return cfg, nil
}

// NewConfig validates the settings every process needs.
func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDriver: DriverPostgres,
		DatabaseDSN:    databaseDSN,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		Delivery:       DeliveryConfig{Mode: DeliveryLocal},
		BaseCurrency:   "USD",
		ExchangeRates:  map[string]decimal.Decimal{},
	}, nil
}
