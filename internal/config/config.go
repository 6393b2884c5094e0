package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Storefront  StorefrontConfig  `yaml:"storefront" mapstructure:"storefront"`
	Marketplace MarketplaceConfig `yaml:"marketplace" mapstructure:"marketplace"`
	Review      ReviewConfig      `yaml:"review" mapstructure:"review"`
	Exchange    ExchangeConfig    `yaml:"exchange" mapstructure:"exchange"`
	Matching    MatchingConfig    `yaml:"matching" mapstructure:"matching"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// StorefrontConfig holds storefront order API settings.
type StorefrontConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MarketplaceConfig holds resale marketplace API settings.
type MarketplaceConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Token       string  `yaml:"token" mapstructure:"token"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ReviewConfig holds Notion review-board settings.
type ReviewConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	QueueDB string `yaml:"queue_db" mapstructure:"queue_db"`
}

// ExchangeConfig configures the supplier order-file FTP exchange.
type ExchangeConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MatchingConfig points at the external matching-rules file.
type MatchingConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ServerConfig configures the review API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "backoffice.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storefront.rate_limit", 2)
	v.SetDefault("storefront.timeout_secs", 30)
	v.SetDefault("marketplace.rate_limit", 1)
	v.SetDefault("marketplace.timeout_secs", 30)
	v.SetDefault("exchange.timeout_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration needed by the named subsystem is
// present before a command starts work.
func (c *Config) Validate(subsystem string) error {
	switch subsystem {
	case "storefront":
		if c.Storefront.BaseURL == "" {
			return eris.New("config: storefront.base_url is required")
		}
	case "marketplace":
		if c.Marketplace.BaseURL == "" {
			return eris.New("config: marketplace.base_url is required")
		}
	case "review":
		if c.Review.Token == "" || c.Review.QueueDB == "" {
			return eris.New("config: review.token and review.queue_db are required")
		}
	case "exchange":
		if c.Exchange.URL == "" {
			return eris.New("config: exchange.url is required")
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
