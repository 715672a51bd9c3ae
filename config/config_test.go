package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[mail]
base_url = "http://localhost:5000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "@miracmail.com", cfg.Mail.DomainSuffix)
	assert.Equal(t, 30*time.Second, cfg.Mail.Timeout())
	assert.Equal(t, "miracmail_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.Expiration())
	assert.True(t, cfg.Auth.LogoutOnUnauthorized)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[mail]
base_url = "http://mail.internal:5000"
domain_suffix = "@example.com"
timeout_seconds = 5

[auth]
logout_on_unauthorized = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "@example.com", cfg.Mail.DomainSuffix)
	assert.Equal(t, 5*time.Second, cfg.Mail.Timeout())
	assert.False(t, cfg.Auth.LogoutOnUnauthorized)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateBaseURLRequired(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 3000
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateDomainSuffix(t *testing.T) {
	path := writeConfig(t, `
[mail]
base_url = "http://localhost:5000"
domain_suffix = "miracmail.com"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain_suffix")
}

func TestValidateEncryptionKeyLength(t *testing.T) {
	path := writeConfig(t, `
[mail]
base_url = "http://localhost:5000"

[session]
encryption_key = "short"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption_key")
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[mail]
base_url = "http://from-file:5000"
`)

	t.Setenv("MIRACMAIL_API_URL", "http://from-env:5000")
	t.Setenv("MIRACMAIL_JWT_SECRET", "env-secret")
	t.Setenv("MIRACMAIL_SESSION_KEY", strings.Repeat("k", 32))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:5000", cfg.Mail.BaseURL)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, strings.Repeat("k", 32), cfg.Session.EncryptionKey)
}
