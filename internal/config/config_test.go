package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("auth:\n  username: deployer\n  password: secret\n"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, time.Hour, cfg.Server.CacheMaxAge)
	require.Equal(t, BackendSQLite, cfg.Storage.Backend)
	require.Equal(t, "./data", cfg.Storage.DataDir)
	require.Equal(t, 5, cfg.Publish.MetadataRetries)
	require.True(t, cfg.Publish.GenerateChecksums)
	require.True(t, cfg.Metrics.Enabled)
}

func TestParseFull(t *testing.T) {
	data := []byte(`
server:
  port: 9090
  maxUploadBytes: 1048576
  cacheMaxAge: 10m
storage:
  backend: s3
  s3:
    bucket: maven
    region: auto
    endpoint: https://example.r2.cloudflarestorage.com
    usePathStyle: true
auth:
  username: deployer
  password: secret
metrics:
  enabled: false
publish:
  metadataRetries: 9
  generateChecksums: false
log:
  level: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, int64(1048576), cfg.Server.MaxUploadBytes)
	require.Equal(t, 10*time.Minute, cfg.Server.CacheMaxAge)
	require.Equal(t, "maven", cfg.Storage.S3.Bucket)
	require.True(t, cfg.Storage.S3.UsePathStyle)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, 9, cfg.Publish.MetadataRetries)
	require.False(t, cfg.Publish.GenerateChecksums)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAVEN_USERNAME", "ci")
	t.Setenv("MAVEN_PASSWORD", "from-env")
	t.Setenv("MAVEN_S3_ACCESS_KEY_ID", "AKID")
	t.Setenv("MAVEN_S3_SECRET_ACCESS_KEY", "SECRET")

	cfg, err := Parse([]byte("storage:\n  backend: s3\n  s3:\n    bucket: b\n"))
	require.NoError(t, err)
	require.Equal(t, "ci", cfg.Auth.Username)
	require.Equal(t, "from-env", cfg.Auth.Password)
	require.Equal(t, "AKID", cfg.Storage.S3.AccessKeyID)
	require.Equal(t, "SECRET", cfg.Storage.S3.SecretAccessKey)
}

func TestValidation(t *testing.T) {
	auth := "auth:\n  username: u\n  password: p\n"
	tests := []struct {
		name string
		yaml string
	}{
		{"missing credentials", "server:\n  port: 8080\n"},
		{"bad port", auth + "server:\n  port: 70000\n"},
		{"unknown backend", auth + "storage:\n  backend: mongo\n"},
		{"s3 without bucket", auth + "storage:\n  backend: s3\n"},
		{"zero retries", auth + "publish:\n  metadataRetries: 0\n"},
		{"relative metrics path", auth + "metrics:\n  path: metrics\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  username: u\n  password: p\nstorage:\n  backend: bolt\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendBolt, cfg.Storage.Backend)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
