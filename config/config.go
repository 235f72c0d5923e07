package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pricecheck/backend/internal/logger"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Keepa       KeepaConfig
	Marketplace MarketplaceConfig
	Resolver    ResolverConfig
	Cache       CacheConfig
	RateLimit   RateLimitConfig
	Storage     StorageConfig
	Log         logger.Config
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// KeepaConfig holds pricing API configuration.
// APIKey is optional at load time; lookups fail with a configuration error without it.
type KeepaConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Domain  int           `mapstructure:"domain"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MarketplaceConfig holds the referral link settings
type MarketplaceConfig struct {
	Domain     string `mapstructure:"domain"`
	PartnerTag string `mapstructure:"partner_tag"`
}

// ResolverConfig holds redirect resolution settings
type ResolverConfig struct {
	MaxHops    int           `mapstructure:"max_hops"`
	HopTimeout time.Duration `mapstructure:"hop_timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`
	Pricing int `mapstructure:"pricing"`
}

// StorageConfig holds flat-file locations
type StorageConfig struct {
	SubscribersFile string `mapstructure:"subscribers_file"`
	AnalyticsFile   string `mapstructure:"analytics_file"`
}

// DefaultUserAgent is sent on redirect hops; some shorteners reject non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricecheck/")

	v.SetEnvPrefix("PRICECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already present in the environment are not overridden.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("keepa.api_key", "")
	v.SetDefault("keepa.base_url", "https://api.keepa.com")
	v.SetDefault("keepa.domain", 1) // US
	v.SetDefault("keepa.timeout", "30s")

	v.SetDefault("marketplace.domain", "www.amazon.com")
	v.SetDefault("marketplace.partner_tag", "pricechecknow-20")

	v.SetDefault("resolver.max_hops", 10)
	v.SetDefault("resolver.hop_timeout", "15s")
	v.SetDefault("resolver.user_agent", DefaultUserAgent)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "15m")

	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.pricing", 60)

	v.SetDefault("storage.subscribers_file", "data/subscribers.csv")
	v.SetDefault("storage.analytics_file", "data/analytics-data.json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Resolver.MaxHops <= 0 {
		return fmt.Errorf("resolver max hops must be positive, got: %d", config.Resolver.MaxHops)
	}

	if config.Marketplace.Domain == "" {
		return fmt.Errorf("marketplace domain is required")
	}

	return nil
}
