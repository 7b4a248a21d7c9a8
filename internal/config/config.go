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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Oracle     OracleConfig     `yaml:"oracle" mapstructure:"oracle"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID    string  `yaml:"client_id" mapstructure:"client_id"`
	Username    string  `yaml:"username" mapstructure:"username"`
	KeyPath     string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL    string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimitPS float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// OracleConfig configures the LLM arbitration and adjustment oracles.
type OracleConfig struct {
	RateLimitPS    float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MatchMaxTokens int64   `yaml:"match_max_tokens" mapstructure:"match_max_tokens"`
	ETAMaxTokens   int64   `yaml:"eta_max_tokens" mapstructure:"eta_max_tokens"`
}

// PipelineConfig configures batch resolution and scoring behavior.
type PipelineConfig struct {
	MaxConcurrent  int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	SeedOnly       bool   `yaml:"seed_only_grouping" mapstructure:"seed_only_grouping"`
	ThresholdsPath string `yaml:"thresholds_path" mapstructure:"thresholds_path"`
}

// ExportConfig configures lead export output.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("OPENINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "openings.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit_per_sec", 5.0)
	v.SetDefault("oracle.rate_limit_per_sec", 2.0)
	v.SetDefault("oracle.timeout_secs", 30)
	v.SetDefault("oracle.match_max_tokens", 300)
	v.SetDefault("oracle.eta_max_tokens", 400)
	v.SetDefault("pipeline.max_concurrent", 8)
	v.SetDefault("pipeline.seed_only_grouping", false)
	v.SetDefault("export.dir", "exports")

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
