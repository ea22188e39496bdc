package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8443", c.Addr)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, c.AccessTTL)
	assert.Equal(t, 5, c.Limiter.MaxFails)
	assert.Equal(t, 15*time.Minute, c.Limiter.Window)
	assert.False(t, c.Dev)
}

func TestLoad_RequiresJWTKey(t *testing.T) {
	_, err := Load(nil)
	require.Error(t, err)
}

func TestLoad_FlagsOverrideYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	yml := `
addr: ":9000"
database_dsn: "postgres://u:p@db/goals"
jwt_key: "from-file"
access_ttl: 30m
limiter:
  max_fails: 3
  block_for: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	c, err := Load([]string{"-config", path, "-addr", ":7000", "-dev"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.Addr)
	assert.Equal(t, "postgres://u:p@db/goals", c.DatabaseDSN)
	assert.Equal(t, "from-file", c.JWTKey)
	assert.Equal(t, 30*time.Minute, c.AccessTTL)
	assert.True(t, c.Dev)
	assert.Equal(t, 3, c.Limiter.MaxFails)
	assert.Equal(t, time.Hour, c.Limiter.BlockFor)
	assert.Equal(t, 15*time.Minute, c.Limiter.Window, "unset yaml keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("addr: [unterminated"), 0o600))
	_, err = Load([]string{"--config=" + bad, "-jwt-key", "k"})
	require.Error(t, err)

	_, err = Load([]string{"-jwt-key", "k", "-tls-cert", "cert.pem"})
	require.Error(t, err)

	_, err = Load([]string{"-jwt-key", "k", "-access-ttl", "0s"})
	require.Error(t, err)

	_, err = Load([]string{"-jwt-key", "k", "-no-such-flag"})
	require.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.yaml", configPath([]string{"-x", "-config", "a.yaml"}))
	assert.Equal(t, "b.yaml", configPath([]string{"--config=b.yaml"}))
	assert.Equal(t, "", configPath([]string{"-config"}))
	assert.Equal(t, "", configPath(nil))
}

func TestLoad_Flags(t *testing.T) {
	defaults := func() Config {
		var c Config
		c.LoadDefaults()
		c.JWTKey = "k"
		return c
	}
	tests := []struct {
		name     string
		args     []string
		expected func() Config
	}{
		{
			name:     "defaults",
			args:     []string{"-jwt-key", "k"},
			expected: defaults,
		},
		{
			name: "postgres with tls",
			args: []string{"-jwt-key", "k", "-dsn", "postgres://db/goals", "-tls-cert", "c.pem", "-tls-key", "k.pem", "-access-ttl", "1h"},
			expected: func() Config {
				c := defaults()
				c.DatabaseDSN = "postgres://db/goals"
				c.TLSCert, c.TLSKey = "c.pem", "k.pem"
				c.AccessTTL = time.Hour
				return c
			},
		},
		{
			name: "limiter",
			args: []string{"-jwt-key", "k", "-login-window", "1m", "-login-max-fails", "2", "-login-block", "10m"},
			expected: func() Config {
				c := defaults()
				c.Limiter = LimiterConfig{Window: time.Minute, MaxFails: 2, BlockFor: 10 * time.Minute}
				return c
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(tt.args)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), *c))
		})
	}
}
