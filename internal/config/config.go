package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Bybit     BybitConfig     `mapstructure:"bybit"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BybitConfig holds market-data API configuration
type BybitConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Category       string        `mapstructure:"category"`
	QuoteCoin      string        `mapstructure:"quote_coin"`
	KlineLimit     int           `mapstructure:"kline_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ScannerConfig holds scan-cycle configuration
type ScannerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Workers  int           `mapstructure:"workers"`
}

// IndicatorConfig holds the MACD periods
type IndicatorConfig struct {
	Fast   int `mapstructure:"fast"`
	Slow   int `mapstructure:"slow"`
	Signal int `mapstructure:"signal"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds the HTTP surface and self-ping configuration
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	SelfURL      string        `mapstructure:"self_url"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	PingTimeout  time.Duration `mapstructure:"ping_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("MACDSCAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("bybit.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.category", "linear")
	v.SetDefault("bybit.quote_coin", "USDT")
	v.SetDefault("bybit.kline_limit", 200)
	v.SetDefault("bybit.timeout", "10s")
	v.SetDefault("bybit.max_retries", 3)
	v.SetDefault("bybit.retry_delay_base", "2s")

	v.SetDefault("scanner.interval", "5m")
	v.SetDefault("scanner.workers", 10)

	v.SetDefault("indicator.fast", 12)
	v.SetDefault("indicator.slow", 26)
	v.SetDefault("indicator.signal", 9)

	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/macdscan.db")

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.ping_interval", "5m")
	v.SetDefault("server.ping_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Bybit.BaseURL == "" {
		return fmt.Errorf("bybit.base_url is required")
	}
	if c.Bybit.KlineLimit < 3 || c.Bybit.KlineLimit > 1000 {
		return fmt.Errorf("bybit.kline_limit must be between 3 and 1000")
	}
	if c.Bybit.Timeout < time.Second {
		return fmt.Errorf("bybit.timeout must be at least 1 second")
	}
	if c.Bybit.MaxRetries < 0 {
		return fmt.Errorf("bybit.max_retries must not be negative")
	}
	if c.Bybit.RetryDelayBase < 0 {
		return fmt.Errorf("bybit.retry_delay_base must not be negative")
	}

	if c.Scanner.Interval < 10*time.Second {
		return fmt.Errorf("scanner.interval must be at least 10 seconds")
	}
	if c.Scanner.Workers < 1 || c.Scanner.Workers > 100 {
		return fmt.Errorf("scanner.workers must be between 1 and 100")
	}

	if c.Indicator.Fast < 1 {
		return fmt.Errorf("indicator.fast must be at least 1")
	}
	if c.Indicator.Slow < 1 {
		return fmt.Errorf("indicator.slow must be at least 1")
	}
	if c.Indicator.Signal < 1 {
		return fmt.Errorf("indicator.signal must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.SelfURL != "" && c.Server.PingInterval < 10*time.Second {
		return fmt.Errorf("server.ping_interval must be at least 10 seconds")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
