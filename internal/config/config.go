package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the group order system.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	Platform  PlatformConfig  `yaml:"platform"`
	Session   SessionConfig   `yaml:"session"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration.
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// RedisConfig holds the display-name cache configuration.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// PlatformConfig holds chat platform API access configuration.
// The channel token is a secret and is normally supplied via the
// CHANNEL_ACCESS_TOKEN environment variable.
type PlatformConfig struct {
	APIBaseURL   string `yaml:"api_base_url"`
	ChannelToken string `yaml:"channel_token"`
}

// SessionConfig holds group session policy knobs.
type SessionConfig struct {
	ClearItemsOnReselect bool `yaml:"clear_items_on_reselect"`
}

// RecommendConfig holds recommendation engine parameters.
type RecommendConfig struct {
	TopN       int `yaml:"top_n"`
	WindowDays int `yaml:"window_days"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides for secrets.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			TTLMinutes: 24 * 60,
		},
		Recommend: RecommendConfig{
			TopN:       3,
			WindowDays: 30,
		},
	}
}

// applyEnv overrides file values with environment variables when set.
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("CHANNEL_ACCESS_TOKEN"); v != "" {
		c.Platform.ChannelToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) validate() error {
	if c.Recommend.TopN <= 0 {
		return fmt.Errorf("recommend.top_n must be positive, got %d", c.Recommend.TopN)
	}
	if c.Recommend.WindowDays <= 0 {
		return fmt.Errorf("recommend.window_days must be positive, got %d", c.Recommend.WindowDays)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
