package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	aws_pkg "orderpro/pkg/aws"

	"go.uber.org/zap"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the order service.
type Config struct {
	Port              string
	AppEnv            string
	JWTSecret         string
	StoreDriver       string
	MongoURI          string
	MongoDBName       string
	MongoTransactions bool
	RedisURL          string
	AllowedOrigins    string
	OrderEventsTopic  string
	CloudWatchEnabled bool
	CloudWatchNS      string
	RateLimitRPS      float64
	RateLimitBurst    int
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// NeedsAWS reports whether any AWS client has to be built.
func (c *Config) NeedsAWS() bool { return c.OrderEventsTopic != "" || c.CloudWatchEnabled }

// LoadConfig reads configuration from the environment with an optional
// Secrets Manager override.
func LoadConfig(ctx context.Context, log *zap.Logger) (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "5000"),
		AppEnv:            getEnv("APP_ENV", "development"),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGO_DB_NAME", "orderpro"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", false),
		RedisURL:          os.Getenv("REDIS_URL"),
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		OrderEventsTopic:  os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNS:      getEnv("CLOUDWATCH_NAMESPACE", aws_pkg.DefaultMetricsNamespace),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 40),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		overrideFromSecrets(ctx, cfg, aws_pkg.NewSecretsClient(awsCfg), log)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideFromSecrets applies the secrets and warns about every lookup
// that failed. The service then runs on the environment value.
func overrideFromSecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter, log *zap.Logger) {
	if err := applySecrets(ctx, cfg, sm); err != nil {
		log.Warn("Secrets Manager lookup failed, keeping environment values", zap.Error(err))
	}
}

// applySecrets overrides credentials with values from Secrets Manager.
// Missing secrets keep the environment value and are reported together.
func applySecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter) error {
	return errors.Join(
		aws_pkg.Override(ctx, sm, "orderpro/JWT_SECRET", &cfg.JWTSecret),
		aws_pkg.Override(ctx, sm, "orderpro/MONGO_URI", &cfg.MongoURI),
		aws_pkg.Override(ctx, sm, "orderpro/REDIS_URL", &cfg.RedisURL),
	)
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}
