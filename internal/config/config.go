package config

import (
	"fmt"
	"os"

	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/internal/pkg/utils"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Provider  ProviderConfig           `yaml:"provider"`
	PriceFeed PriceFeedConfig          `yaml:"priceFeed"`
	Valuation ValuationConfig          `yaml:"valuation"`
	Logging   LoggingConfig            `yaml:"logging"`
	Tokens    []entity.TokenDescriptor `yaml:"tokens"`
	// TokensFile is consulted when the inline token list is empty.
	TokensFile string `yaml:"tokensFile"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// ProviderConfig holds the configuration for the balance provider RPC.
// The API key never lives in the YAML file; it is read from the environment
// (PORTFOLIO_API_KEY) via envconfig.
type ProviderConfig struct {
	BaseURL              string `yaml:"baseURL" ignored:"true"`
	APIKey               string `yaml:"-" envconfig:"API_KEY"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis" ignored:"true"`
}

// PriceFeedConfig holds the configuration for the public price feed client.
type PriceFeedConfig struct {
	BaseURL              string `yaml:"baseURL"`
	VsCurrency           string `yaml:"vsCurrency"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	PacingMillis         int64  `yaml:"pacingMillis"`
}

// ValuationConfig holds configuration for the valuation service.
type ValuationConfig struct {
	TokenPacingMillis      int64 `yaml:"tokenPacingMillis"`
	SequentialPacingMillis int64 `yaml:"sequentialPacingMillis"`
	// CompareStrategies keeps the sequential comparison call running even
	// when the batched call succeeded, so the dashboard can chart both
	// strategies. Production deployments turn this off to halve traffic.
	CompareStrategies  bool `yaml:"compareStrategies"`
	SnapshotTTLMinutes int  `yaml:"snapshotTTLMinutes"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file and overlays secrets from
// the environment.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if err := envconfig.Process("portfolio", &cfg.Provider); err != nil {
		return nil, fmt.Errorf("failed to process provider environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if len(cfg.Tokens) == 0 && cfg.TokensFile != "" {
		tokens, err := utils.LoadTokensFromJSON(cfg.TokensFile)
		if err != nil {
			logrus.Errorf("Failed to load token list from %s: %v", cfg.TokensFile, err)
			return nil, fmt.Errorf("failed to load token list from %s: %w", cfg.TokensFile, err)
		}
		cfg.Tokens = tokens
		logrus.Infof("Loaded %d tokens from %s", len(tokens), cfg.TokensFile)
	}
	if len(cfg.Tokens) == 0 {
		return nil, fmt.Errorf("no tokens configured: set tokens or tokensFile in %s", path)
	}

	for _, t := range cfg.Tokens {
		if t.Decimals < 0 {
			return nil, fmt.Errorf("token %s has negative decimals", t.Symbol)
		}
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.Provider.RequestTimeoutMillis == 0 {
		cfg.Provider.RequestTimeoutMillis = 10000
		logrus.Infof("Provider.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Provider.RequestTimeoutMillis)
	}

	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("PriceFeed.BaseURL not set, defaulting to %s", cfg.PriceFeed.BaseURL)
	}
	if cfg.PriceFeed.VsCurrency == "" {
		cfg.PriceFeed.VsCurrency = "usd"
	}
	if cfg.PriceFeed.RequestTimeoutMillis == 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
		logrus.Infof("PriceFeed.RequestTimeoutMillis not set, defaulting to %d ms", cfg.PriceFeed.RequestTimeoutMillis)
	}
	if cfg.PriceFeed.PacingMillis == 0 {
		cfg.PriceFeed.PacingMillis = 120
		logrus.Infof("PriceFeed.PacingMillis not set, defaulting to %d ms", cfg.PriceFeed.PacingMillis)
	}

	if cfg.Valuation.TokenPacingMillis == 0 {
		cfg.Valuation.TokenPacingMillis = 150
		logrus.Infof("Valuation.TokenPacingMillis not set, defaulting to %d ms", cfg.Valuation.TokenPacingMillis)
	}
	if cfg.Valuation.SequentialPacingMillis == 0 {
		cfg.Valuation.SequentialPacingMillis = 120
	}
	if cfg.Valuation.SnapshotTTLMinutes == 0 {
		cfg.Valuation.SnapshotTTLMinutes = 5
	}
}
