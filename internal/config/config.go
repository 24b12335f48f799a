package config

import (
	"fmt"
	"os"

	"founderkit-backend/internal/payments/stripe"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// Stripe
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePublishableKey string

	// Checkout
	CheckoutReturnURL string

	// Server
	Port        string
	Environment string

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
	RateLimitBurst    int

	// Features
	EnableMetrics bool
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "founderkit"),
		DBPassword: getEnv("DB_PASSWORD", "founderkit"),
		DBName:     getEnv("DB_NAME", "founderkit"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", false),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// Stripe
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),

		// Checkout
		CheckoutReturnURL: getEnv("CHECKOUT_RETURN_URL", "http://localhost:3000/checkout/success"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),

		// Features
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	// Build DSN
	c.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)

	return c
}

// Validate checks the Stripe credential surface before the application is
// allowed to start. A malformed secret is never worked around, and
// production refuses to run on the mock provider.
func (c *Config) Validate() error {
	if c.StripeSecretKey != "" && !stripe.IsSecretKey(c.StripeSecretKey) {
		return fmt.Errorf("STRIPE_SECRET_KEY does not look like a Stripe secret key (expected %q or %q prefix)",
			stripe.SecretKeyPrefixStandard, stripe.SecretKeyPrefixRestricted)
	}

	if c.StripeSecretKey == "" && c.IsProduction() {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}

	if c.StripeSecretKey != "" {
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when a Stripe secret key is configured")
		}
		if !stripe.IsWebhookSecret(c.StripeWebhookSecret) {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET does not look like a Stripe webhook signing secret (expected %q prefix)",
				stripe.WebhookSecretPrefix)
		}
	}

	if c.StripePublishableKey != "" && !stripe.IsPublishableKey(c.StripePublishableKey) {
		return fmt.Errorf("STRIPE_PUBLISHABLE_KEY does not look like a Stripe publishable key (expected %q prefix)",
			stripe.PublishableKeyPrefix)
	}

	return nil
}

// MockPayments reports whether the mock payment provider should be used.
// The mock is only ever reachable in development with no real secret key.
func (c *Config) MockPayments() bool {
	return c.StripeSecretKey == "" && !c.IsProduction()
}

// CheckoutEnabled reports whether a browser client can complete checkout.
// Without a publishable key the client has nothing to mount payment fields
// with, so the UI must degrade to a disabled state.
func (c *Config) CheckoutEnabled() bool {
	return c.MockPayments() || c.StripePublishableKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
