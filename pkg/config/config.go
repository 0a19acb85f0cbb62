package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type WebhookConfig struct {
	// URL is the process-wide default notification target. Empty means
	// deliveries are skipped until a URL is configured via the API.
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// RetryCount is reported to clients as configuration metadata; the
	// dispatcher itself never loops retries (see webhook.Dispatcher).
	RetryCount  int `mapstructure:"retry_count"`
	HistorySize int `mapstructure:"history_size"`
}

type ScenarioConfig struct {
	File string `mapstructure:"file"`
}

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Config struct {
	Env         Env            `mapstructure:"env"`
	Server      ServerConfig   `mapstructure:"server"`
	Webhook     WebhookConfig  `mapstructure:"webhook"`
	Scenario    ScenarioConfig `mapstructure:"scenario"`
	MetricsAddr string         `mapstructure:"metrics_addr"`
}

func (c *Config) IsProd() bool {
	return c != nil && c.Env == EnvProd
}

func New() (*Config, error) {
	v := viper.New()
	// Allow overriding config file via env:
	// - MOCK_CONFIG_FILE: absolute or relative file path
	// - MOCK_CONFIG_NAME: config base name without extension (default: "config")
	if file := os.Getenv("MOCK_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		cfgName := os.Getenv("MOCK_CONFIG_NAME")
		if cfgName == "" {
			cfgName = "config"
		}
		v.SetConfigName(cfgName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	// MOCK_WEBHOOK_URL and MOCK_SERVER_PORT map onto webhook.url and
	// server.port through the key replacer.
	v.SetEnvPrefix("MOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("env", "dev")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout_seconds", 5)
	v.SetDefault("webhook.retry_count", 3)
	v.SetDefault("webhook.history_size", 200)
	v.SetDefault("scenario.file", "./scenarios.yaml")
	v.SetDefault("metrics_addr", "")

	// Config file is optional; env vars and defaults cover everything.
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &c, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
