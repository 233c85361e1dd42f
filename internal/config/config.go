package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/supplygraph/matching-engine/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Score     ScoreConfig     `yaml:"score" mapstructure:"score"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// AnthropicConfig holds Anthropic API settings for the language-model
// matching layer. An empty key disables the layer entirely.
type AnthropicConfig struct {
	Key   string  `yaml:"key" mapstructure:"key"`
	Model string  `yaml:"model" mapstructure:"model"`
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
}

// MatchConfig configures the matching service.
type MatchConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	LLMTimeoutSecs    int     `yaml:"llm_timeout_secs" mapstructure:"llm_timeout_secs"`
	LLMThreshold      float64 `yaml:"llm_threshold" mapstructure:"llm_threshold"`
	EditDistanceLimit int     `yaml:"edit_distance_limit" mapstructure:"edit_distance_limit"`
}

// ScoreConfig holds scoring weights, one per comparison factor. Zero
// values fall back to the built-in defaults.
type ScoreConfig struct {
	Process   float64 `yaml:"process" mapstructure:"process"`
	Material  float64 `yaml:"material" mapstructure:"material"`
	Equipment float64 `yaml:"equipment" mapstructure:"equipment"`
	Scale     float64 `yaml:"scale" mapstructure:"scale"`
	Other     float64 `yaml:"other" mapstructure:"other"`
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

// Validate checks that the configuration is usable for the given mode
// ("match", "validate", "serve", "trees"). Missing required fields are
// collected so the operator sees them all at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "match", "validate", "trees":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Match.Concurrency < 1 || c.Match.Concurrency > 64 {
		problems = append(problems, "match.concurrency must be between 1 and 64")
	}
	if c.Match.LLMThreshold < 0 || c.Match.LLMThreshold > 1 {
		problems = append(problems, "match.llm_threshold must be in [0, 1]")
	}
	for _, w := range []float64{c.Score.Process, c.Score.Material, c.Score.Equipment, c.Score.Scale, c.Score.Other} {
		if w < 0 {
			problems = append(problems, "score weights must be >= 0")
			break
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "matching.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.rps", 2.0)
	v.SetDefault("match.concurrency", 4)
	v.SetDefault("match.llm_timeout_secs", 20)
	v.SetDefault("match.llm_threshold", 0.5)
	v.SetDefault("match.edit_distance_limit", 2)

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
