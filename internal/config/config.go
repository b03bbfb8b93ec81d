package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `validate:"required"`
	Port               string `validate:"required"`
	User               string `validate:"required"`
	Password           string
	Name               string `validate:"required"`
	SSLMode            string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns       int    `validate:"min=1"`
	MaxIdleConns       int    `validate:"min=0"`
	ConnMaxLifetimeSec int    `validate:"min=0"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the filesystem mirror backing the tree store.
type StorageConfig struct {
	// Backend is "local" (files under Root) or "minio" (objects keyed by path in the bucket).
	Backend string `validate:"oneof=local minio"`
	// Root is the storage root every stored path must resolve under.
	Root string `validate:"required"`
	// DiskWorkers bounds concurrent disk operations.
	DiskWorkers int `validate:"min=1,max=256"`
}

// SweepConfig controls the background retention sweep.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration `validate:"min=1s"`
	Timeout  time.Duration `validate:"min=1s"`
}

// NotifyConfig configures the notification collaborator. An empty WebhookURL logs events only.
type NotifyConfig struct {
	WebhookURL string `validate:"omitempty,url"`
	Timeout    time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string `validate:"required"`
	Timezone string
	LogLevel string `validate:"oneof=debug info warn error"`

	Database DatabaseConfig
	MinIO    MinIOConfig
	Storage  StorageConfig

	// RetentionPeriod is how long binned entities are kept before the sweeper purges them.
	RetentionPeriod time.Duration `validate:"min=1s"`
	Sweep           SweepConfig
	Notify          NotifyConfig

	// AllowedRoles may bin, restore and purge.
	AllowedRoles []string `validate:"min=1,dive,required"`
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			Root:        getEnv("STORAGE_ROOT", "./data"),
			DiskWorkers: getEnvInt("DISK_WORKERS", 8),
		},
		RetentionPeriod: getEnvDuration("RETENTION_PERIOD", 720*time.Hour),
		Sweep: SweepConfig{
			Enabled:  getEnvBool("SWEEP_ENABLED", true),
			Interval: getEnvDuration("SWEEP_INTERVAL", time.Hour),
			Timeout:  getEnvDuration("SWEEP_TIMEOUT", 30*time.Minute),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:    getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		AllowedRoles: getEnvList("ALLOWED_ROLES", []string{"admin", "staff"}),
	}
}

// Location returns the configured time zone, falling back to UTC when it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
