package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// TLS opcional: si ambos archivos existen se sirve HTTPS.
		TLSCertFile string `yaml:"tls_cert_file"`
		TLSKeyFile  string `yaml:"tls_key_file"`
		// Tamaño máximo aceptado en POST /upload.
		UploadMaxBytes int64 `yaml:"upload_max_bytes"`
	} `yaml:"server"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Session struct {
		// Secreto HS256 del cookie. Vacío = se genera uno efímero al arrancar.
		Secret     string `yaml:"secret"`
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
		SameSite   string `yaml:"samesite"` // Lax | Strict | None
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Script struct {
		DefaultDomain string `yaml:"default_domain"`
		// Fuerza auth_enabled en toda generación.
		RequireAuth bool   `yaml:"require_auth"`
		LogPrefix   string `yaml:"log_prefix"`
	} `yaml:"script"`

	// Rate limit de POST /upload y POST /generate_permission_script, por IP.
	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`
}

// Load lee path (si existe), aplica defaults y luego las variables de entorno.
// Un path vacío o inexistente no es error: la config sale de defaults + env.
func Load(path string) (*Config, error) {
	var c Config

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.UploadMaxBytes <= 0 {
		c.Server.UploadMaxBytes = 5 << 20
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "mbxperm"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "mbxperm_session"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "1h"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if c.Script.DefaultDomain == "" {
		c.Script.DefaultDomain = "admr50.fr"
	}
	if c.Script.LogPrefix == "" {
		c.Script.LogPrefix = "ExchangePermissionScript"
	}
	if c.Rate.MaxRequests <= 0 {
		c.Rate.MaxRequests = 30
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
}

// SessionTTL devuelve Session.TTL parseado (1h si es inválido).
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RateWindow devuelve Rate.Window parseado (1m si es inválido).
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.Rate.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// TLSEnabled indica si hay cert y key configurados.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("TLS_CERT_FILE"); ok {
		c.Server.TLSCertFile = v
	}
	if v, ok := getEnvStr("TLS_KEY_FILE"); ok {
		c.Server.TLSKeyFile = v
	}
	if v, ok := getEnvInt("UPLOAD_MAX_BYTES"); ok {
		c.Server.UploadMaxBytes = int64(v)
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvDur("SESSION_TTL"); ok {
		c.Session.TTL = v.String()
	}
	if v, ok := getEnvStr("SESSION_SAMESITE"); ok {
		c.Session.SameSite = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}

	// SCRIPT
	if v, ok := getEnvStr("SCRIPT_DEFAULT_DOMAIN"); ok {
		c.Script.DefaultDomain = v
	}
	if v, ok := getEnvBool("SCRIPT_REQUIRE_AUTH"); ok {
		c.Script.RequireAuth = v
	} else if v, ok := getEnvBool("REQUIRE_AUTHENTICATION"); ok {
		// alias histórico
		c.Script.RequireAuth = v
	}
	if v, ok := getEnvStr("SCRIPT_LOG_PREFIX"); ok {
		c.Script.LogPrefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v.String()
	}
}

// Validate revisa combinaciones que no tienen sentido.
func (c *Config) Validate() error {
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind %q no soportado (memory|redis)", c.Cache.Kind)
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("config: tls_cert_file y tls_key_file van juntos")
	}
	if c.App.Env == "prod" && len(c.Session.Secret) < 32 {
		return errors.New("config: SESSION_SECRET debe tener al menos 32 bytes en prod")
	}
	return nil
}
