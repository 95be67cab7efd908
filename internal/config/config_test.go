package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Bybit: BybitConfig{
			BaseURL:        "https://api.bybit.com",
			Category:       "linear",
			QuoteCoin:      "USDT",
			KlineLimit:     200,
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RetryDelayBase: 2 * time.Second,
		},
		Scanner: ScannerConfig{
			Interval: 5 * time.Minute,
			Workers:  10,
		},
		Indicator: IndicatorConfig{Fast: 12, Slow: 26, Signal: 9},
		Storage:   StorageConfig{DBPath: "./data/test.db"},
		Server:    ServerConfig{ListenAddr: ":8080", PingInterval: 5 * time.Minute, PingTimeout: 10 * time.Second},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestLoadAndValidate(t *testing.T) {
	content := `
bybit:
  quote_coin: USDT
  kline_limit: 150
  timeout: 15s

scanner:
  interval: 10m
  workers: 5

indicator:
  fast: 12
  slow: 26
  signal: 9

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scanner.Interval != 10*time.Minute {
		t.Errorf("Unexpected scan interval: %v", cfg.Scanner.Interval)
	}
	if cfg.Scanner.Workers != 5 {
		t.Errorf("Unexpected worker count: %d", cfg.Scanner.Workers)
	}
	if cfg.Bybit.KlineLimit != 150 {
		t.Errorf("Unexpected kline limit: %d", cfg.Bybit.KlineLimit)
	}

	// Defaults fill the omitted keys.
	if cfg.Bybit.BaseURL != "https://api.bybit.com" {
		t.Errorf("Unexpected base URL default: %s", cfg.Bybit.BaseURL)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Unexpected listen addr default: %s", cfg.Server.ListenAddr)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing telegram token when enabled",
			mutate: func(c *Config) { c.Telegram.Enabled = true },
		},
		{
			name:   "scan interval too short",
			mutate: func(c *Config) { c.Scanner.Interval = time.Second },
		},
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Scanner.Workers = 0 },
		},
		{
			name:   "kline limit below detector minimum",
			mutate: func(c *Config) { c.Bybit.KlineLimit = 2 },
		},
		{
			name:   "zero fast period",
			mutate: func(c *Config) { c.Indicator.Fast = 0 },
		},
		{
			name:   "empty db path",
			mutate: func(c *Config) { c.Storage.DBPath = "" },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
