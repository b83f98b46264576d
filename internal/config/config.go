package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"musd-rewards-watcher/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Poll       PollConfig       `mapstructure:"poll"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Rewards    RewardsConfig    `mapstructure:"rewards"`
	Flags      FlagsConfig      `mapstructure:"flags"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the preference
// store. Optional: without a DSN the education flag falls back to
// always-unseen.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PollConfig governs transaction-list observation cadence.
type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// GeoConfig covers geolocation and blocked regions.
type GeoConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RewardsConfig covers the rewards API and the distributor contract.
type RewardsConfig struct {
	APIBaseURL         string        `mapstructure:"api_base_url"`
	RPCURL             string        `mapstructure:"rpc_url"`
	DistributorAddress string        `mapstructure:"distributor_address"`
	RewardTokenAddress string        `mapstructure:"reward_token_address"`
	TestTokenAddress   string        `mapstructure:"test_token_address"`
	ClaimChainID       string        `mapstructure:"claim_chain_id"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// FlagsConfig locates the remote feature-flag endpoint.
type FlagsConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ConversionConfig 描述转换交易的目标链与收款地址。
type ConversionConfig struct {
	ChainID           string `mapstructure:"chain_id"`
	ConversionAddress string `mapstructure:"conversion_address"`
}

// WalletConfig locates the external transaction controller.
type WalletConfig struct {
	ControllerURL  string        `mapstructure:"controller_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// NetworkClients maps hex chain ids to the controller's network
	// client ids.
	NetworkClients map[string]string `mapstructure:"network_clients"`
}

// NotifyConfig defines lifecycle-event routing.
type NotifyConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 通知参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MUSDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "musdwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("poll.interval", "10s")
	v.SetDefault("poll.startup_delay", "0s")

	v.SetDefault("geo.endpoint", "https://on-ramp.api.cx.metamask.io/geolocation")
	v.SetDefault("geo.cache_ttl", "5m")
	v.SetDefault("geo.request_timeout", "10s")

	v.SetDefault("rewards.api_base_url", "https://api.merkl.xyz/v4")
	v.SetDefault("rewards.claim_chain_id", "0xe708")
	v.SetDefault("rewards.cache_ttl", "5m")
	v.SetDefault("rewards.request_timeout", "10s")

	v.SetDefault("flags.request_timeout", "10s")

	v.SetDefault("wallet.request_timeout", "10s")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be greater than zero")
	}
	if c.Rewards.ClaimChainID == "" {
		return fmt.Errorf("rewards.claim_chain_id is required")
	}
	if !strings.HasPrefix(c.Rewards.ClaimChainID, "0x") {
		return fmt.Errorf("rewards.claim_chain_id must be a hex chain id")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token 必须配置")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id 必须配置")
		}
	}
	return nil
}
