package seedauth

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/seedkit/seedauth/internal/units"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SEEDAUTH_JWT_SECRET.
const EnvPrefix = "SEEDAUTH"

// LoadConfig reads path (yaml, json or toml; optional when empty or missing) over
// DefaultConfig and applies SEEDAUTH_* environment overrides. Durations accept plain
// seconds, Go durations and unit terms like "1d 12h". The result is validated.
func LoadConfig(path string) (Config, error) {
	v := newConfigViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range configDefaults(DefaultConfig()) {
		v.SetDefault(key, value)
	}
	return v
}

// configDefaults lists every key so AutomaticEnv can resolve it without a file.
func configDefaults(d Config) map[string]any {
	return map[string]any{
		"jwt.secret":            "",
		"jwt.algorithm":         d.JWT.Algorithm,
		"jwt.issuer":            d.JWT.Issuer,
		"jwt.access_token_ttl":  d.JWT.AccessTokenTTL.String(),
		"jwt.refresh_token_ttl": d.JWT.RefreshTokenTTL.String(),
		"jwt.renewal_window":    d.JWT.RenewalWindow.String(),
		"jwt.leeway":            d.JWT.Leeway.String(),

		"session.key_prefix": d.Session.KeyPrefix,

		"cookie.domains":     append([]string{}, d.Cookie.Domains...),
		"cookie.access_key":  d.Cookie.AccessKey,
		"cookie.refresh_key": d.Cookie.RefreshKey,
		"cookie.path":        d.Cookie.Path,
		"cookie.http_only":   d.Cookie.HTTPOnly,
		"cookie.secure":      d.Cookie.Secure,
		"cookie.same_site":   d.Cookie.SameSite,

		"credential.mode": d.Credential.Mode,

		"audit.enabled":      d.Audit.Enabled,
		"audit.buffer_size":  d.Audit.BufferSize,
		"audit.drop_if_full": d.Audit.DropIfFull,

		"metrics.enabled":                   d.Metrics.Enabled,
		"metrics.enable_latency_histograms": d.Metrics.EnableLatencyHistograms,

		"log.level":       d.Log.Level,
		"log.development": d.Log.Development,
	}
}

func decodeConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			durationHook,
			secretHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	bytesType    = reflect.TypeOf([]byte(nil))
)

// durationHook decodes strings with units.Parse and bare numbers as seconds.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		return units.Parse(data.(string))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	default:
		return data, nil
	}
}

func secretHook(from, to reflect.Type, data any) (any, error) {
	if to != bytesType || from.Kind() != reflect.String {
		return data, nil
	}
	return []byte(data.(string)), nil
}
