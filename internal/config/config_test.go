package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("RETENTION_PERIOD", "48h")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("ALLOWED_ROLES", "admin, ,auditor")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, 48*time.Hour, cfg.RetentionPeriod)
	assert.Equal(t, 15*time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Sweep.Timeout)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, []string{"admin", "auditor"}, cfg.AllowedRoles)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 8, cfg.Storage.DiskWorkers)
	assert.Equal(t, 720*time.Hour, cfg.RetentionPeriod)
	assert.Equal(t, time.UTC, cfg.Location())
}

func validConfig() *AppConfig {
	cfg := Load()
	cfg.Database.Host = "db"
	cfg.Database.User = "docbin"
	cfg.Database.Name = "docbin"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *AppConfig) {}},
		{
			name:    "missing db host",
			mutate:  func(c *AppConfig) { c.Database.Host = "" },
			wantErr: "AppConfig.Database.Host: validation failed on 'required' tag",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *AppConfig) { c.Storage.Backend = "ftp" },
			wantErr: "AppConfig.Storage.Backend: validation failed on 'oneof' tag",
		},
		{
			name:    "zero retention",
			mutate:  func(c *AppConfig) { c.RetentionPeriod = 0 },
			wantErr: "AppConfig.RetentionPeriod: validation failed on 'min' tag",
		},
		{
			name:    "minio without bucket",
			mutate:  func(c *AppConfig) { c.Storage.Backend = "minio"; c.MinIO.Endpoint = "minio:9000" },
			wantErr: "minio: endpoint and bucket are required",
		},
		{
			name:    "bad webhook url",
			mutate:  func(c *AppConfig) { c.Notify.WebhookURL = "not a url" },
			wantErr: "AppConfig.Notify.WebhookURL: validation failed on 'url' tag",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *AppConfig) { c.Timezone = "Mars/Olympus" },
			wantErr: "timezone:",
		},
		{
			name:    "timeout longer than interval",
			mutate:  func(c *AppConfig) { c.Sweep.Interval = time.Minute },
			wantErr: "sweep: timeout 30m0s exceeds interval 1m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	t.Setenv(key, "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration(key, time.Hour))

	t.Setenv(key, "ninety")
	assert.Equal(t, time.Hour, getEnvDuration(key, time.Hour))
}
