package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hsdest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.hubapi.com", cfg.HubSpot.APIBaseURL)
	assert.Equal(t, "https://track.hubspot.com/v1/event", cfg.HubSpot.TrackURL)
	assert.Equal(t, "memory", cfg.SchemaCache.Driver)
	assert.Equal(t, time.Duration(0), cfg.SchemaCache.TTL)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  signing_secret: s3cret
schema_cache:
  driver: redis
  ttl: 10m
  redis:
    addr: localhost:6379
batch:
  workers: 4
`)
	t.Setenv("HSDEST_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.SigningSecret)
	assert.Equal(t, "redis", cfg.SchemaCache.Driver)
	assert.Equal(t, 10*time.Minute, cfg.SchemaCache.TTL)
	assert.Equal(t, "localhost:6379", cfg.SchemaCache.Redis.Addr)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown cache driver", body: "schema_cache:\n  driver: memcached\n"},
		{name: "redis without addr", body: "schema_cache:\n  driver: redis\n"},
		{name: "zero workers", body: "batch:\n  workers: 0\n"},
		{name: "bad log format", body: "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
