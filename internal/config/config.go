package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"photo-agency/internal/core"
	"photo-agency/internal/logger"

	"github.com/shopspring/decimal"
)

// Config is the process configuration, read from the environment after
// godotenv has loaded any .env file.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	// CompanyCode selects the tenant for CLI commands when more than one company exists.
	CompanyCode string

	// Pricing
	VATMode                 string // per_line or flat
	DefaultVATRate          decimal.Decimal
	DefaultPaymentTermsDays int

	// Mail
	SMTP SMTPConfig

	// Jobs
	AutoPeriodInvoicing bool
	CronLocation        string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// SMTPConfig configures outgoing notification mail. An empty Host disables sending.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail relay is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func Load() (*Config, error) {
	vatRate, err := decimal.NewFromString(getEnv("DEFAULT_VAT_RATE", "25"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_VAT_RATE is not a number: %w", err)
	}
	terms, err := strconv.Atoi(getEnv("DEFAULT_PAYMENT_TERMS_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_PAYMENT_TERMS_DAYS is not an integer: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT is not an integer: %w", err)
	}

	config := &Config{
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:          getEnv("ALLOWED_ORIGINS", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		CompanyCode:             getEnv("COMPANY_CODE", ""),
		VATMode:                 strings.ToLower(getEnv("VAT_MODE", "per_line")),
		DefaultVATRate:          vatRate,
		DefaultPaymentTermsDays: terms,
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@localhost"),
		},
		AutoPeriodInvoicing: getEnv("AUTO_PERIOD_INVOICING", "false") == "true",
		CronLocation:        getEnv("CRON_LOCATION", "Europe/Oslo"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.VATMode != "per_line" && c.VATMode != "flat" {
		return fmt.Errorf("VAT_MODE must be per_line or flat, got %q", c.VATMode)
	}
	if c.DefaultVATRate.IsNegative() || c.DefaultVATRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("DEFAULT_VAT_RATE must be between 0 and 100")
	}
	if c.DefaultPaymentTermsDays < 0 {
		return fmt.Errorf("DEFAULT_PAYMENT_TERMS_DAYS must not be negative")
	}
	return nil
}

// RequireJWTSecret is checked by the HTTP server only; CLI commands do not sign tokens.
func (c *Config) RequireJWTSecret() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// PricingOptions returns the order pricing configuration.
func (c *Config) PricingOptions() core.PricingOptions {
	mode, _ := core.ParseVATMode(c.VATMode)
	return core.PricingOptions{VATMode: mode, FlatVATRate: c.DefaultVATRate}
}

// InvoiceOptions returns the invoicing configuration.
func (c *Config) InvoiceOptions() core.InvoiceOptions {
	return core.InvoiceOptions{PaymentTermsDays: c.DefaultPaymentTermsDays}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.TimeFormat = c.LogTimeFormat
	lc.Output = c.LogOutput
	return lc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
