// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides Redis and asynq settings for background jobs.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetScheduledSendInterval() time.Duration
	GetScheduledSendBatchSize() int
}

// SMTPConfig provides outbound mail settings.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketEmailAttachments() string
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

// PipelineConfig provides settings for the pipeline and analytics module.
type PipelineConfig interface {
	GetKPICacheTTL() time.Duration
	GetReportingLocation() *time.Location
	// GetManualStatusRole returns the role required to override a pipeline
	// status by hand. Empty allows every authenticated user.
	GetManualStatusRole() string
}

// ClientsConfig provides settings for the clients module.
type ClientsConfig interface {
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	ScheduledSendInterval       time.Duration
	ScheduledSendBatchSize      int
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromName               string
	EmailFromAddress            string
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinioBucketEmailAttachments string
	MinIOMaxFileSizeMB          int64
	KPICacheTTL                 time.Duration
	ReportingTimezone           string
	ManualStatusRole            string
	DefaultPhoneRegion          string

	reportingLocation *time.Location
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                     { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool               { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string               { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                { return c.AsynqConcurrency }
func (c *Config) GetScheduledSendInterval() time.Duration { return c.ScheduledSendInterval }
func (c *Config) GetScheduledSendBatchSize() int          { return c.ScheduledSendBatchSize }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketEmailAttachments() string {
	return c.MinioBucketEmailAttachments
}
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSizeMB * 1024 * 1024 }
func (c *Config) IsMinIOEnabled() bool       { return c.MinIOEndpoint != "" }

// PipelineConfig implementation
func (c *Config) GetKPICacheTTL() time.Duration { return c.KPICacheTTL }
func (c *Config) GetReportingLocation() *time.Location {
	if c.reportingLocation == nil {
		return time.UTC
	}
	return c.reportingLocation
}

func (c *Config) GetManualStatusRole() string { return c.ManualStatusRole }

// ClientsConfig implementation
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

// Load reads configuration from environment variables (and a .env file when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		ScheduledSendInterval:       mustDuration(getEnv("SCHEDULED_SEND_INTERVAL", "1m")),
		ScheduledSendBatchSize:      mustInt(getEnv("SCHEDULED_SEND_BATCH_SIZE", "50")),
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Eclipse"),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketEmailAttachments: getEnv("MINIO_BUCKET_EMAIL_ATTACHMENTS", "email-attachments"),
		MinIOMaxFileSizeMB:          int64(mustInt(getEnv("MINIO_MAX_FILE_SIZE_MB", "25"))),
		KPICacheTTL:                 mustDuration(getEnv("KPI_CACHE_TTL", "5m")),
		ReportingTimezone:           getEnv("REPORTING_TIMEZONE", "Europe/Paris"),
		ManualStatusRole:            getEnv("PIPELINE_MANUAL_STATUS_ROLE", ""),
		DefaultPhoneRegion:          strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "FR")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.IsSMTPEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}

	loc, err := time.LoadLocation(cfg.ReportingTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORTING_TIMEZONE %q: %w", cfg.ReportingTimezone, err)
	}
	cfg.reportingLocation = loc

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
