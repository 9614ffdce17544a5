package devapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.HTTP.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, "admin@example.com", cfg.Seed.AdminEmail)
	assert.True(t, cfg.Seed.Scholarships)
	assert.Equal(t, []string{"http://localhost:*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Limits.LoginRate)

	opts := cfg.Options()
	assert.Equal(t, cfg.Auth.AccessTTL, opts.AccessTTL)
	assert.Equal(t, 20, opts.LoginRate)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "devapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
auth:
  secret: file-secret
  access_ttl: 30s
log:
  format: json
`), 0o600))
	t.Setenv(EnvConfigPath, path)
	t.Setenv("DEVAPI_ACCESS_TTL", "45s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr())
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, 45*time.Second, cfg.Auth.AccessTTL, "env overrides the file")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	_, err := LoadConfig("missing.yaml")
	assert.Error(t, err)

	t.Setenv("DEVAPI_LOG_FORMAT", "xml")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "invalid config")
}
