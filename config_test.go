package seedauth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfigRequiresSecret(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "token", cfg.Session.KeyPrefix)
	assert.Equal(t, CredentialBoth, cfg.Credential.Mode)
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"algorithm":        func(c *Config) { c.JWT.Algorithm = "RS256" },
		"negative access":  func(c *Config) { c.JWT.AccessTokenTTL = -time.Second },
		"window over ttl":  func(c *Config) { c.JWT.RenewalWindow = c.JWT.RefreshTokenTTL + time.Hour },
		"leeway":           func(c *Config) { c.JWT.Leeway = 5 * time.Minute },
		"prefix":           func(c *Config) { c.Session.KeyPrefix = " " },
		"same cookie keys": func(c *Config) { c.Cookie.RefreshKey = c.Cookie.AccessKey },
		"empty cookie key": func(c *Config) { c.Cookie.AccessKey = "" },
		"samesite":         func(c *Config) { c.Cookie.SameSite = "sometimes" },
		"none insecure":    func(c *Config) { c.Cookie.SameSite = "none"; c.Cookie.Secure = false },
		"credential mode":  func(c *Config) { c.Credential.Mode = "carrier-pigeon" },
		"audit buffer":     func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigValidateAcceptsZeroTTLs(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTokenTTL = 0
	cfg.JWT.RefreshTokenTTL = 0
	cfg.JWT.RenewalWindow = time.Hour
	assert.NoError(t, cfg.Validate())
}

func TestCloneConfigIsDeep(t *testing.T) {
	cfg := testConfig()
	cfg.Cookie.Domains = []string{"example.com"}

	clone := cloneConfig(cfg)
	clone.JWT.Secret[0] = 'X'
	clone.Cookie.Domains[0] = "evil.com"

	assert.Equal(t, byte('0'), cfg.JWT.Secret[0])
	assert.Equal(t, "example.com", cfg.Cookie.Domains[0])
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt:
  secret: file-secret-file-secret
  access_token_ttl: 1800
  refresh_token_ttl: "1w"
  renewal_window: 1d 12h
session:
  key_prefix: sess
cookie:
  domains: [a.example.com, b.example.com]
  same_site: strict
credential:
  mode: header
log:
  level: debug
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []byte("file-secret-file-secret"), cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, 36*time.Hour, cfg.JWT.RenewalWindow)
	assert.Equal(t, "sess", cfg.Session.KeyPrefix)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Cookie.Domains)
	assert.Equal(t, "strict", cfg.Cookie.SameSite)
	assert.Equal(t, CredentialHeader, cfg.Credential.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "access_token", cfg.Cookie.AccessKey)
	assert.True(t, cfg.Cookie.HTTPOnly)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SEEDAUTH_JWT_SECRET", "env-secret-env-secret")
	t.Setenv("SEEDAUTH_JWT_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SEEDAUTH_COOKIE_DOMAINS", "x.example.com,y.example.com")
	t.Setenv("SEEDAUTH_METRICS_ENABLE_LATENCY_HISTOGRAMS", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []byte("env-secret-env-secret"), cfg.JWT.Secret)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, []string{"x.example.com", "y.example.com"}, cfg.Cookie.Domains)
	assert.True(t, cfg.Metrics.EnableLatencyHistograms)
}

func TestLoadConfigValidates(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	t.Setenv("SEEDAUTH_JWT_SECRET", "env-secret-env-secret")
	t.Setenv("SEEDAUTH_JWT_REFRESH_TOKEN_TTL", "not a duration")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
