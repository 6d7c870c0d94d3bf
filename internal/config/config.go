package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type BackendConfig struct {
	URL            string        `mapstructure:"url"`
	ProductTimeout time.Duration `mapstructure:"product_timeout"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	ProductLimit   int           `mapstructure:"product_limit"`
}

type OrdersConfig struct {
	MinimumOrder string `mapstructure:"minimum_order"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("backend.url", "http://localhost:3000")
	v.SetDefault("backend.product_timeout", 30*time.Second)
	v.SetDefault("backend.default_timeout", 10*time.Second)
	v.SetDefault("backend.product_limit", 500000)
	v.SetDefault("orders.minimum_order", "2500")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.session_ttl", 72*time.Hour)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.group_id", "storefront-receipts")
	v.SetDefault("log.level", "info")
}

// Load reads storefront.yaml (or the file at path when set) and applies
// STOREFRONT_ environment overrides, e.g. STOREFRONT_BACKEND_URL. A missing
// default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("$HOME/.storefront/")
		v.AddConfigPath("/etc/storefront/")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	if _, err := decimal.NewFromString(c.Orders.MinimumOrder); err != nil {
		return fmt.Errorf("orders.minimum_order: %w", err)
	}
	return nil
}

// MinimumOrderValue is the fallback used when the backend reports none.
func (c *Config) MinimumOrderValue() decimal.Decimal {
	v, err := decimal.NewFromString(c.Orders.MinimumOrder)
	if err != nil {
		return decimal.Zero
	}
	return v
}
