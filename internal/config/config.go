package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Intake    IntakeConfig    `yaml:"intake" mapstructure:"intake"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// DatabaseURL is the postgres DSN, or the database file path for sqlite.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// MaxConns and MinConns tune the postgres pool; zero keeps the
	// store defaults. Ignored by sqlite.
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
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

// AnthropicConfig holds settings for the optional insight summary.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// NotionConfig holds credentials for the optional assessment publisher.
type NotionConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	AssessmentDB string `yaml:"assessment_db" mapstructure:"assessment_db"`
}

// IntakeConfig configures the FTP inbox sweeper.
type IntakeConfig struct {
	Addr        string      `yaml:"addr" mapstructure:"addr"`
	User        string      `yaml:"user" mapstructure:"user"`
	Password    string      `yaml:"password" mapstructure:"password"`
	Inbox       string      `yaml:"inbox" mapstructure:"inbox"`
	Staging     string      `yaml:"staging" mapstructure:"staging"`
	Schedule    string      `yaml:"schedule" mapstructure:"schedule"`
	TimeoutSecs int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig holds raw retry tuning values for remote calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ReportConfig configures workbook rendering.
type ReportConfig struct {
	// Layout is the path to an optional layout tuning file.
	Layout string `yaml:"layout" mapstructure:"layout"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so their keys are registered and
	// environment variables can reach them through Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tender.db")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 700)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.assessment_db", "")
	v.SetDefault("intake.addr", "")
	v.SetDefault("intake.user", "anonymous")
	v.SetDefault("intake.password", "anonymous@")
	v.SetDefault("intake.inbox", "/inbox")
	v.SetDefault("intake.staging", "/tmp/tender-intake")
	v.SetDefault("intake.schedule", "@every 5m")
	v.SetDefault("intake.timeout_secs", 30)
	v.SetDefault("intake.retry.max_attempts", 3)
	v.SetDefault("intake.retry.initial_backoff_ms", 500)
	v.SetDefault("intake.retry.max_backoff_ms", 30000)
	v.SetDefault("intake.retry.multiplier", 2.0)
	v.SetDefault("intake.retry.jitter_fraction", 0.25)
	v.SetDefault("report.layout", "report.yaml")

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

// Validate checks the configuration for the given run mode: "cli" for
// store-backed commands, "serve" for the HTTP server, "intake" for inbox
// sweeps. All problems are reported in one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	case "intake":
		if c.Intake.Addr == "" {
			problems = append(problems, "intake.addr is required")
		}
		if c.Intake.Staging == "" {
			problems = append(problems, "intake.staging is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
