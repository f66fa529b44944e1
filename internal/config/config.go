package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Payment     PaymentConfig
	Carrier     CarrierConfig
	Checkout    CheckoutConfig
	Rates       RateConfig
	API         APIConfig
	Notify      NotifyConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PaymentConfig is used to call the payment provider and verify its webhooks
type PaymentConfig struct {
	BaseURL       string // e.g. https://api.payprovider.com
	SecretKey     string // PAYMENT_SECRET_KEY
	WebhookSecret string // PAYMENT_WEBHOOK_SECRET: verify X-Payment-Signature
}

// CarrierConfig is used to call the carrier-rate provider and verify its webhooks
type CarrierConfig struct {
	BaseURL       string // e.g. https://api.shiprates.example
	APIKey        string // CARRIER_API_KEY
	WebhookSecret string // CARRIER_WEBHOOK_SECRET: verify X-Carrier-Signature
}

// CheckoutConfig holds checkout-time pricing inputs and the warehouse origin
type CheckoutConfig struct {
	TaxRate string // decimal, e.g. "0.0825"
	Origin  OriginAddress
}

type OriginAddress struct {
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// RateConfig drives standard/express classification of carrier services.
// Keywords are matched case-insensitively against the service name; an
// excludes match wins over a keyword match (so "3-Day Express Saver" stays
// standard).
type RateConfig struct {
	ExpressKeywords []string
	ExpressExcludes []string
}

type APIConfig struct {
	AdminKeyHash    string // bcrypt hash of the admin API key
	CustomerKeyHash string // bcrypt hash of the storefront service key
}

// NotifyConfig is the fire-and-forget notification sink (email service)
type NotifyConfig struct {
	WebhookURL string // empty disables notifications
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TAX_RATE", "0")
	viper.SetDefault("EXPRESS_KEYWORDS", "express,priority,overnight,next day,next-day")
	viper.SetDefault("EXPRESS_EXCLUDES", "3-day,3 day,saver ground")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "fulfillment"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Payment: PaymentConfig{
			BaseURL:       strings.TrimSpace(getEnvOrViper("PAYMENT_BASE_URL", "")),
			SecretKey:     strings.TrimSpace(getEnvOrViper("PAYMENT_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getEnvOrViper("PAYMENT_WEBHOOK_SECRET", "")),
		},
		Carrier: CarrierConfig{
			BaseURL:       strings.TrimSpace(getEnvOrViper("CARRIER_BASE_URL", "")),
			APIKey:        strings.TrimSpace(getEnvOrViper("CARRIER_API_KEY", "")),
			WebhookSecret: strings.TrimSpace(getEnvOrViper("CARRIER_WEBHOOK_SECRET", "")),
		},
		Checkout: CheckoutConfig{
			TaxRate: getEnvOrViper("TAX_RATE", "0"),
			Origin: OriginAddress{
				Name:       getEnvOrViper("ORIGIN_NAME", "Warehouse"),
				Street:     getEnvOrViper("ORIGIN_STREET", ""),
				City:       getEnvOrViper("ORIGIN_CITY", ""),
				State:      getEnvOrViper("ORIGIN_STATE", ""),
				PostalCode: getEnvOrViper("ORIGIN_POSTAL_CODE", ""),
				Country:    getEnvOrViper("ORIGIN_COUNTRY", "CA"),
			},
		},
		Rates: RateConfig{
			ExpressKeywords: splitList(getEnvOrViper("EXPRESS_KEYWORDS", "express,priority,overnight,next day,next-day")),
			ExpressExcludes: splitList(getEnvOrViper("EXPRESS_EXCLUDES", "3-day,3 day,saver ground")),
		},
		API: APIConfig{
			AdminKeyHash:    getEnvOrViper("ADMIN_API_KEY_HASH", ""),
			CustomerKeyHash: getEnvOrViper("CUSTOMER_API_KEY_HASH", ""),
		},
		Notify: NotifyConfig{
			WebhookURL: strings.TrimSpace(getEnvOrViper("NOTIFY_WEBHOOK_URL", "")),
		},
	}

	// Validate required fields
	if cfg.Payment.SecretKey == "" {
		return nil, fmt.Errorf("PAYMENT_SECRET_KEY is required")
	}
	if cfg.Payment.WebhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.Carrier.APIKey == "" {
		return nil, fmt.Errorf("CARRIER_API_KEY is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
