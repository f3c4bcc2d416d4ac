package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type WebhooksConfig struct {
	DispatchInterval      time.Duration `mapstructure:"dispatch_interval"`
	DefaultTimeoutSeconds int           `mapstructure:"default_timeout_seconds"`
	DefaultMaxRetries     int           `mapstructure:"default_max_retries"`
}

type RateLimitConfig struct {
	DefaultPerMinute int `mapstructure:"default_per_minute"`
	DefaultPerHour   int `mapstructure:"default_per_hour"`
	DefaultPerDay    int `mapstructure:"default_per_day"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("webhooks.dispatch_interval", time.Second)
	viper.SetDefault("webhooks.default_timeout_seconds", 10)
	viper.SetDefault("webhooks.default_max_retries", 5)
	viper.SetDefault("rate_limit.default_per_minute", 60)
	viper.SetDefault("rate_limit.default_per_hour", 1000)
	viper.SetDefault("rate_limit.default_per_day", 10000)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
