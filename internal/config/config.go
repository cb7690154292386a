// Package config provides configuration management for the trading simulator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "binary-trader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Account AccountConfig `mapstructure:"account"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	UI      UIConfig      `mapstructure:"ui"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// AccountConfig holds the values used when nothing has been persisted yet.
type AccountConfig struct {
	InitialBalance    float64 `mapstructure:"initial_balance"`
	InitialInvestment float64 `mapstructure:"initial_investment"`
	InitialProfitRate float64 `mapstructure:"initial_profit_rate"`
}

// EngineConfig holds trade engine timing and limits.
type EngineConfig struct {
	ResolutionDelay   time.Duration `mapstructure:"resolution_delay"`
	AutoTradeInterval time.Duration `mapstructure:"auto_trade_interval"`
	StakeFloor        float64       `mapstructure:"stake_floor"`
	MaxLedgerRecords  int           `mapstructure:"max_ledger_records"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds CLI presentation configuration.
type UIConfig struct {
	ColorEnabled   bool   `mapstructure:"color_enabled"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	TimeFormat     string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/binary-trader"
	}
	return filepath.Join(home, ".config", "binary-trader")
}

// Default returns the configuration used when no file overrides a value.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return &Config{
		Account: AccountConfig{
			InitialBalance:    10000,
			InitialInvestment: 1,
			InitialProfitRate: 80,
		},
		Engine: EngineConfig{
			ResolutionDelay:   1500 * time.Millisecond,
			AutoTradeInterval: 2 * time.Second,
			StakeFloor:        1,
			MaxLedgerRecords:  0,
		},
		Store: StoreConfig{
			Path: filepath.Join(configDir, "bintrade.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    false,
			File:       true,
			Path:       filepath.Join(configDir, "logs", "bintrade.log"),
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     30,
		},
		UI: UIConfig{
			ColorEnabled:   true,
			CurrencySymbol: "$",
			TimeFormat:     "2006-01-02 15:04:05",
		},
		Dir: configDir,
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	def := Default(configDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, def)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.Dir = configDir

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("account.initial_balance", def.Account.InitialBalance)
	v.SetDefault("account.initial_investment", def.Account.InitialInvestment)
	v.SetDefault("account.initial_profit_rate", def.Account.InitialProfitRate)

	v.SetDefault("engine.resolution_delay", def.Engine.ResolutionDelay)
	v.SetDefault("engine.auto_trade_interval", def.Engine.AutoTradeInterval)
	v.SetDefault("engine.stake_floor", def.Engine.StakeFloor)
	v.SetDefault("engine.max_ledger_records", def.Engine.MaxLedgerRecords)

	v.SetDefault("store.path", def.Store.Path)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.path", def.Logging.Path)
	v.SetDefault("logging.max_size", def.Logging.MaxSize)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age", def.Logging.MaxAge)

	v.SetDefault("ui.color_enabled", def.UI.ColorEnabled)
	v.SetDefault("ui.currency_symbol", def.UI.CurrencySymbol)
	v.SetDefault("ui.time_format", def.UI.TimeFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINTRADE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("BINTRADE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NO_COLOR"); v != "" {
		cfg.UI.ColorEnabled = false
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Account.InitialProfitRate < 0 || c.Account.InitialProfitRate > 100 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "initial_profit_rate must be between 0 and 100")
	}
	if c.Account.InitialBalance < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "initial_balance must be non-negative")
	}
	if c.Engine.ResolutionDelay < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "resolution_delay must be non-negative")
	}
	if c.Engine.AutoTradeInterval <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "auto_trade_interval must be positive")
	}
	if c.Engine.StakeFloor <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "stake_floor must be positive")
	}
	if c.Engine.MaxLedgerRecords < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max_ledger_records must be non-negative")
	}
	if c.Store.Path == "" {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "store path must be set")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid log level: %s", c.Logging.Level)
	}
	return nil
}
