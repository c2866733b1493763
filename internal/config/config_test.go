package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":5000", c.Server.Addr)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "admr50.fr", c.Script.DefaultDomain)
	assert.Equal(t, "ExchangePermissionScript", c.Script.LogPrefix)
	assert.False(t, c.Script.RequireAuth)
	assert.Equal(t, time.Hour, c.SessionTTL())
	assert.False(t, c.TLSEnabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
script:
  default_domain: "southpark.fr"
session:
  ttl: "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("SCRIPT_REQUIRE_AUTH", "true")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.Server.Addr)
	assert.Equal(t, "southpark.fr", c.Script.DefaultDomain)
	assert.True(t, c.Script.RequireAuth)
	assert.Equal(t, 30*time.Minute, c.SessionTTL())
}

func TestLoad_RequireAuthenticationAlias(t *testing.T) {
	t.Setenv("REQUIRE_AUTHENTICATION", "1")
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.Script.RequireAuth)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown cache kind", func(t *testing.T) {
		t.Setenv("CACHE_KIND", "memcached")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("tls half configured", func(t *testing.T) {
		t.Setenv("TLS_CERT_FILE", "cert.pem")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("prod needs a session secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "prod")
		_, err := Load("")
		assert.Error(t, err)

		t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
		_, err = Load("")
		assert.NoError(t, err)
	})
}

func TestLoad_Rate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.False(t, c.Rate.Enabled)
	assert.Equal(t, 30, c.Rate.MaxRequests)
	assert.Equal(t, time.Minute, c.RateWindow())

	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("RATE_MAX_REQUESTS", "5")
	t.Setenv("RATE_WINDOW", "10s")
	c, err = Load("")
	require.NoError(t, err)
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 5, c.Rate.MaxRequests)
	assert.Equal(t, 10*time.Second, c.RateWindow())
}
