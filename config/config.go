package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	OpenAIAPIKey             string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL            string        `mapstructure:"OPENAI_BASE_URL"`
	AssistantID              string        `mapstructure:"ASSISTANT_ID"`
	AssistantVersion         string        `mapstructure:"ASSISTANT_VERSION"`
	AssistantModel           string        `mapstructure:"ASSISTANT_MODEL"`
	VectorStoreIDs           []string      `mapstructure:"VECTOR_STORE_IDS"`
	AssistantRunTimeout      time.Duration `mapstructure:"ASSISTANT_RUN_TIMEOUT"`
	MaxRetries               int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds        time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`
	LLMRequestTimeout        time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	WebPort                  int           `mapstructure:"WEB_PORT"`
	LogLevel                 string        `mapstructure:"LOG_LEVEL"`
	CacheCapacity            int           `mapstructure:"CACHE_CAPACITY"`
	CacheTTL                 time.Duration `mapstructure:"CACHE_TTL"`
	CacheSimilarityThreshold float64       `mapstructure:"CACHE_SIMILARITY_THRESHOLD"`
	AnalyticsBackend         string        `mapstructure:"ANALYTICS_BACKEND"`
	DatabaseURL              string        `mapstructure:"DATABASE_URL"`
	RedisURL                 string        `mapstructure:"REDIS_URL"`
	KVRestAPIURL             string        `mapstructure:"KV_REST_API_URL"`
	KVRestAPIToken           string        `mapstructure:"KV_REST_API_TOKEN"`
	AnalyticsRetentionDays   int           `mapstructure:"ANALYTICS_RETENTION_DAYS"`
	CleanupEnabled           bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupInterval          time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	RateLimitMessagesPerMin  int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitBurstSize       int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
}

// Analytics backends understood by ANALYTICS_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func Load(logger *zap.Logger) *Config {
	// A missing .env is the normal case in deployed environments.
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")        // For running locally
	viper.AddConfigPath("./config") // Common config folder
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.normalize()
	return &config
}

func setDefaults(v *viper.Viper) {
	// Keys without a default are still bound so AutomaticEnv can fill them on Unmarshal.
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("ASSISTANT_ID", "")
	v.SetDefault("ASSISTANT_VERSION", "v1")
	v.SetDefault("ASSISTANT_MODEL", "gpt-4o-mini")
	v.SetDefault("VECTOR_STORE_IDS", []string{"vs_68efc55ad9108191af23dc3b86942e71"})
	v.SetDefault("ASSISTANT_RUN_TIMEOUT", 60)
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_DELAY_SECONDS", 1)
	v.SetDefault("LLM_REQUEST_TIMEOUT", 30)
	v.SetDefault("WEB_PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_CAPACITY", 100)
	v.SetDefault("CACHE_TTL", 3600)
	v.SetDefault("CACHE_SIMILARITY_THRESHOLD", 0.6)
	v.SetDefault("ANALYTICS_BACKEND", BackendMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KV_REST_API_URL", "")
	v.SetDefault("KV_REST_API_TOKEN", "")
	v.SetDefault("ANALYTICS_RETENTION_DAYS", 30)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("CLEANUP_INTERVAL", 6)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
}

// normalize converts raw seconds/hours into durations and tidies list values.
func (c *Config) normalize() {
	c.AssistantRunTimeout = c.AssistantRunTimeout * time.Second
	c.RetryDelaySeconds = c.RetryDelaySeconds * time.Second
	c.LLMRequestTimeout = c.LLMRequestTimeout * time.Second
	c.CacheTTL = c.CacheTTL * time.Second
	c.CleanupInterval = c.CleanupInterval * time.Hour

	// Env vars arrive as a single comma-separated string.
	var ids []string
	for _, raw := range c.VectorStoreIDs {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	c.VectorStoreIDs = ids

	c.AnalyticsBackend = strings.ToLower(strings.TrimSpace(c.AnalyticsBackend))
	if c.RedisURL == "" {
		c.RedisURL = c.KVRestAPIURL
	}
}

// AnalyticsRetention is the lifetime of a recorded question event.
func (c *Config) AnalyticsRetention() time.Duration {
	return time.Duration(c.AnalyticsRetentionDays) * 24 * time.Hour
}
