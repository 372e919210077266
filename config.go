package seedauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seedkit/seedauth/credential"
	"github.com/seedkit/seedauth/jwt"
)

// Config is the full engine configuration. Build validates a private copy; later
// changes to the caller's value have no effect.
type Config struct {
	JWT        JWTConfig        `mapstructure:"jwt"`
	Session    SessionConfig    `mapstructure:"session"`
	Cookie     CookieConfig     `mapstructure:"cookie"`
	Credential CredentialConfig `mapstructure:"credential"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the signing secret and token lifetimes. A zero TTL issues tokens
// without expiry.
type JWTConfig struct {
	Secret          []byte        `mapstructure:"secret"`
	Algorithm       string        `mapstructure:"algorithm"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	// RenewalWindow is the remaining refresh lifetime below which Refresh also
	// reissues the refresh token.
	RenewalWindow time.Duration `mapstructure:"renewal_window"`
	Leeway        time.Duration `mapstructure:"leeway"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis session records.
type SessionConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

/*
====================================
COOKIE & CREDENTIAL CONFIG
====================================
*/

// CookieConfig controls inbound cookie names and outbound Set-Cookie attributes.
// Each domain in Domains receives its own cookie.
type CookieConfig struct {
	Domains    []string `mapstructure:"domains"`
	AccessKey  string   `mapstructure:"access_key"`
	RefreshKey string   `mapstructure:"refresh_key"`
	Path       string   `mapstructure:"path"`
	HTTPOnly   bool     `mapstructure:"http_only"`
	Secure     bool     `mapstructure:"secure"`
	// SameSite is one of "", "lax", "strict" or "none".
	SameSite string `mapstructure:"same_site"`
}

// Key returns the cookie name for tokenType.
func (c CookieConfig) Key(tokenType TokenType) string {
	return c.keys()[tokenType]
}

func (c CookieConfig) keys() map[jwt.TokenType]string {
	return map[jwt.TokenType]string{
		jwt.TypeAccess:  c.AccessKey,
		jwt.TypeRefresh: c.RefreshKey,
	}
}

// Credential modes accepted by CredentialConfig.Mode.
const (
	CredentialBoth   = "both"
	CredentialCookie = "cookie"
	CredentialHeader = "header"
)

// CredentialConfig selects the inbound channels. In CredentialBoth mode a header
// credential overrides a cookie one.
type CredentialConfig struct {
	Mode string `mapstructure:"mode"`
}

func (c CredentialConfig) resolverMode() (credential.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", CredentialBoth:
		return credential.ModeBoth, nil
	case CredentialCookie:
		return credential.ModeCookie, nil
	case CredentialHeader:
		return credential.ModeHeader, nil
	default:
		return 0, fmt.Errorf("unsupported credential mode %q", c.Mode)
	}
}

/*
====================================
AUDIT, METRICS & LOGGING
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms"`
}

// LogConfig controls the logger built by NewLogger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults every loader starts from. The secret is empty
// and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm:       string(jwt.MethodHS256),
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 14 * 24 * time.Hour,
			RenewalWindow:   24 * time.Hour,
		},
		Session: SessionConfig{
			KeyPrefix: "token",
		},
		Cookie: CookieConfig{
			AccessKey:  "access_token",
			RefreshKey: "refresh_token",
			Path:       "/",
			HTTPOnly:   true,
			SameSite:   "lax",
		},
		Credential: CredentialConfig{
			Mode: CredentialBoth,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.Cookie.Domains != nil {
		out.Cookie.Domains = append([]string(nil), cfg.Cookie.Domains...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must be set")
	}
	switch jwt.SigningMethod(strings.ToUpper(c.JWT.Algorithm)) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
	default:
		return fmt.Errorf("unsupported JWT algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenTTL < 0 {
		return errors.New("JWT AccessTokenTTL must be >= 0")
	}
	if c.JWT.RefreshTokenTTL < 0 {
		return errors.New("JWT RefreshTokenTTL must be >= 0")
	}
	if c.JWT.RenewalWindow < 0 {
		return errors.New("JWT RenewalWindow must be >= 0")
	}
	if c.JWT.RefreshTokenTTL > 0 && c.JWT.RenewalWindow > c.JWT.RefreshTokenTTL {
		return errors.New("JWT RenewalWindow must not exceed RefreshTokenTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Session
	if strings.TrimSpace(c.Session.KeyPrefix) == "" {
		return errors.New("Session KeyPrefix must be set")
	}

	// Cookie
	if c.Cookie.AccessKey == "" || c.Cookie.RefreshKey == "" {
		return errors.New("Cookie AccessKey and RefreshKey must be set")
	}
	if c.Cookie.AccessKey == c.Cookie.RefreshKey {
		return errors.New("Cookie AccessKey and RefreshKey must differ")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "", "lax", "strict", "none":
	default:
		return fmt.Errorf("unsupported Cookie SameSite %q", c.Cookie.SameSite)
	}
	if strings.EqualFold(c.Cookie.SameSite, "none") && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=none requires Secure")
	}

	// Credential
	if _, err := c.Credential.resolverMode(); err != nil {
		return err
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
