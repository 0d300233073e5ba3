package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	CargoAPIURL string
	JWTSecret   string
	Origins     []string

	CacheEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	PendingTTL    time.Duration

	TaxRate  float64
	Currency string

	BackendTimeout    time.Duration
	BackendMaxRetries int

	OTLPEndpoint string
	OTLPInsecure bool
	ServiceName  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CARGO_API_URL", "http://localhost:8000")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "5m")
	v.SetDefault("PENDING_TTL", "24h")
	v.SetDefault("TAX_RATE", 0.18)
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("BACKEND_TIMEOUT", "5s")
	v.SetDefault("BACKEND_MAX_RETRIES", 2)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "aircargo-gateway")
}

// Load reads an optional .env file from dir, then the environment.
func Load(dir string) (*Config, error) {
	envFile := strings.TrimRight(dir, "/") + "/.env"
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:              v.GetString("PORT"),
		CargoAPIURL:       v.GetString("CARGO_API_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		Origins:           splitList(v.GetString("ALLOWED_ORIGINS")),
		CacheEnabled:      v.GetBool("CACHE_ENABLED"),
		RedisHost:         v.GetString("REDIS_HOST"),
		RedisPort:         v.GetString("REDIS_PORT"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		RedisTTL:          v.GetDuration("REDIS_TTL"),
		PendingTTL:        v.GetDuration("PENDING_TTL"),
		TaxRate:           v.GetFloat64("TAX_RATE"),
		Currency:          strings.ToUpper(v.GetString("CURRENCY")),
		BackendTimeout:    v.GetDuration("BACKEND_TIMEOUT"),
		BackendMaxRetries: v.GetInt("BACKEND_MAX_RETRIES"),
		OTLPEndpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		ServiceName:       v.GetString("OTEL_SERVICE_NAME"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.CargoAPIURL == "" {
		return errors.New("CARGO_API_URL is required")
	}
	if c.TaxRate < 0 {
		return fmt.Errorf("TAX_RATE must not be negative, got %v", c.TaxRate)
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative, got %d", c.BackendMaxRetries)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
