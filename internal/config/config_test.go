package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog-accounts", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, 0, cfg.Reset.KeyTTLMinutes)
	assert.Equal(t, "user.activity.persist", cfg.RabbitMQ.ActivityQueue)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090
site_url = "https://catalog.example.org/"

[reset]
key_ttl_minutes = 30
link_path = "/user/reset"

[mail]
host = "smtp.example.org"
port = 587
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_INSECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 30, cfg.Reset.KeyTTLMinutes)
	assert.Equal(t, "smtp.example.org", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Insecure)
	assert.Equal(t, "https://catalog.example.org/user/reset", cfg.ResetLinkBase())
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport="), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-number")
	assert.Equal(t, 8080, getEnvAsInt("APP_PORT", 8080))
}
