// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int32
}

// SessionConfig provides settings for verifying portal session tokens.
type SessionConfig interface {
	GetSessionSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WebhookConfig provides the shared secret for inbound booking webhooks.
type WebhookConfig interface {
	GetBookingWebhookSecret() string
}

// StorageConfig provides settings for the S3-compatible (R2) object storage.
type StorageConfig interface {
	GetStorageEndpoint() string
	GetStorageAccessKey() string
	GetStorageSecretKey() string
	GetStorageUseSSL() bool
	GetStorageRegion() string
	GetStorageBucket() string
	GetStorageMaxFileSize() int64
	IsStorageEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetResendAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// AutomationConfig provides settings for templated email automation.
type AutomationConfig interface {
	GetAppBaseURL() string
	GetEmailMinSendInterval() time.Duration
	GetEmailRateLimitBackoff() time.Duration
	GetTimezone() *time.Location
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetAutomationScanInterval() time.Duration
}

// CacheConfig provides settings for the shared lookup cache.
type CacheConfig interface {
	GetRedisURL() string
	GetResolverCacheTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	DatabaseMaxConns       int32
	SessionSecret          string
	BookingWebhookSecret   string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AppBaseURL             string
	Timezone               *time.Location
	EmailEnabled           bool
	EmailProvider          string
	ResendAPIKey           string
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	EmailMinSendInterval   time.Duration
	EmailRateLimitBackoff  time.Duration
	StorageEndpoint        string
	StorageAccessKey       string
	StorageSecretKey       string
	StorageUseSSL          bool
	StorageRegion          string
	StorageBucket          string
	StorageMaxFileSize     int64
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	AutomationScanInterval time.Duration
	ResolverCacheTTL       time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int32 { return c.DatabaseMaxConns }

// SessionConfig implementation
func (c *Config) GetSessionSecret() string { return c.SessionSecret }

// WebhookConfig implementation
func (c *Config) GetBookingWebhookSecret() string { return c.BookingWebhookSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// StorageConfig implementation
func (c *Config) GetStorageEndpoint() string   { return c.StorageEndpoint }
func (c *Config) GetStorageAccessKey() string  { return c.StorageAccessKey }
func (c *Config) GetStorageSecretKey() string  { return c.StorageSecretKey }
func (c *Config) GetStorageUseSSL() bool       { return c.StorageUseSSL }
func (c *Config) GetStorageRegion() string     { return c.StorageRegion }
func (c *Config) GetStorageBucket() string     { return c.StorageBucket }
func (c *Config) GetStorageMaxFileSize() int64 { return c.StorageMaxFileSize }
func (c *Config) IsStorageEnabled() bool       { return c.StorageEndpoint != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetResendAPIKey() string     { return c.ResendAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// AutomationConfig implementation
func (c *Config) GetAppBaseURL() string                   { return c.AppBaseURL }
func (c *Config) GetEmailMinSendInterval() time.Duration  { return c.EmailMinSendInterval }
func (c *Config) GetEmailRateLimitBackoff() time.Duration { return c.EmailRateLimitBackoff }
func (c *Config) GetTimezone() *time.Location             { return c.Timezone }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                 { return c.AsynqConcurrency }
func (c *Config) GetAutomationScanInterval() time.Duration { return c.AutomationScanInterval }

// CacheConfig implementation
func (c *Config) GetResolverCacheTTL() time.Duration { return c.ResolverCacheTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	provider := strings.ToLower(getEnv("EMAIL_PROVIDER", "resend"))
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	tz, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Europe/Berlin"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:       int32(mustInt(getEnv("DATABASE_MAX_CONNS", "10"))),
		SessionSecret:          getEnv("SESSION_SECRET", ""),
		BookingWebhookSecret:   getEnv("BOOKING_WEBHOOK_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:             strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		Timezone:               tz,
		EmailEnabled:           emailEnabled,
		EmailProvider:          provider,
		ResendAPIKey:           getEnv("RESEND_API_KEY", ""),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Minimusiker"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailMinSendInterval:   mustDuration(getEnv("EMAIL_MIN_SEND_INTERVAL", "600ms")),
		EmailRateLimitBackoff:  mustDuration(getEnv("EMAIL_RATE_LIMIT_BACKOFF", "2s")),
		StorageEndpoint:        getEnv("R2_ENDPOINT", ""),
		StorageAccessKey:       getEnv("R2_ACCESS_KEY_ID", ""),
		StorageSecretKey:       getEnv("R2_SECRET_ACCESS_KEY", ""),
		StorageUseSSL:          strings.EqualFold(getEnv("R2_USE_SSL", "true"), "true"),
		StorageRegion:          getEnv("R2_REGION", "auto"),
		StorageBucket:          getEnv("R2_BUCKET", "minimusiker-audio"),
		StorageMaxFileSize:     mustInt64(getEnv("R2_MAX_FILE_SIZE", "2147483648")),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		AutomationScanInterval: mustDuration(getEnv("AUTOMATION_SCAN_INTERVAL", "15m")),
		ResolverCacheTTL:       mustDuration(getEnv("RESOLVER_CACHE_TTL", "10m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.EmailEnabled {
		switch cfg.EmailProvider {
		case "resend":
			if cfg.ResendAPIKey == "" {
				return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER is resend")
			}
		case "smtp":
			if cfg.SMTPHost == "" {
				return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
			}
		default:
			return nil, fmt.Errorf("unsupported EMAIL_PROVIDER %q", cfg.EmailProvider)
		}
		if cfg.EmailFromAddress == "" {
			return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
		}
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
