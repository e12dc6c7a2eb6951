package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	NATSSubject        string
	ResourceStoreURL   string
	ResourceStoreDir   string
	ResourceCacheDir   string
	DefaultExam        string
	ExecutionTimeout   time.Duration
	ReportCacheTTL     time.Duration
	ExecutionRateLimit int
	OpenAIAPIKey       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CSE Assessment API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "cseassessment.submissions")
	v.SetDefault("resource.cache_dir", "/tmp/cseassessment")
	v.SetDefault("default_exam", "M31")
	v.SetDefault("execution_timeout_ms", 10000)
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("execution_rate_limit", 30)

	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		NATSSubject:        v.GetString("nats.subject"),
		ResourceStoreURL:   v.GetString("resource.store_url"),
		ResourceStoreDir:   v.GetString("resource.store_dir"),
		ResourceCacheDir:   v.GetString("resource.cache_dir"),
		DefaultExam:        v.GetString("default_exam"),
		ExecutionTimeout:   time.Duration(timeoutMs) * time.Millisecond,
		ReportCacheTTL:     ttl,
		ExecutionRateLimit: v.GetInt("execution_rate_limit"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
	}

	if cfg.ResourceStoreURL == "" && cfg.ResourceStoreDir == "" {
		return Config{}, fmt.Errorf("a resource store url or directory must be provided")
	}

	if cfg.ExecutionRateLimit <= 0 {
		cfg.ExecutionRateLimit = 30
	}

	return cfg, nil
}
