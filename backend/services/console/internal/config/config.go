package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	libconfig "colonnine/backend/libs/config"
)

// HTTPConfig is the listening side.
type HTTPConfig struct {
	Port            string        `yaml:"port" env:"CONSOLE_HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"CONSOLE_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"CONSOLE_HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"CONSOLE_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"CONSOLE_HTTP_SHUTDOWN_TIMEOUT"`
}

// BackendConfig points at the colonnine REST backend.
type BackendConfig struct {
	URL     string        `yaml:"url" env:"BACKEND_URL"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT"`
}

// SessionConfig controls the signed workspace cookie and workspace lifetime.
type SessionConfig struct {
	Secret       string        `yaml:"secret" env:"CONSOLE_SESSION_SECRET"`
	TTL          time.Duration `yaml:"ttl" env:"CONSOLE_SESSION_TTL"`
	IdleTTL      time.Duration `yaml:"idleTtl" env:"CONSOLE_WORKSPACE_IDLE_TTL"`
	SecureCookie bool          `yaml:"secureCookie" env:"CONSOLE_SECURE_COOKIE"`
}

// RedisConfig enables backend cookie persistence when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_COOKIE_TTL"`
}

// DatabaseConfig enables the request audit log when DSN is set.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"DATABASE_MAX_OPEN_CONNS"`
}

// GeocoderConfig enables address lookup when APIKey is set.
type GeocoderConfig struct {
	URL    string `yaml:"url" env:"GEOCODER_URL"`
	APIKey string `yaml:"apiKey" env:"LOCATIONIQ_API_KEY"`
}

// RateLimitConfig limits login and registration attempts per client IP.
// TrustedProxies is a comma separated list of IPs or CIDRs whose X-Forwarded-For is honoured.
type RateLimitConfig struct {
	RPS            float64 `yaml:"rps" env:"CONSOLE_AUTH_RPS"`
	Burst          int     `yaml:"burst" env:"CONSOLE_AUTH_BURST"`
	TrustedProxies string  `yaml:"trustedProxies" env:"CONSOLE_TRUSTED_PROXIES"`
}

// WebSocketConfig tunes view push connections.
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"CONSOLE_WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"CONSOLE_WS_WRITE_TIMEOUT"`
}

// Config defines console configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	Session   SessionConfig   `yaml:"session"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend:   BackendConfig{URL: "http://localhost:5000", Timeout: 10 * time.Second},
		Session:   SessionConfig{TTL: 24 * time.Hour, IdleTTL: 30 * time.Minute},
		Redis:     RedisConfig{TTL: 24 * time.Hour},
		Geocoder:  GeocoderConfig{URL: "https://us1.locationiq.com"},
		RateLimit: RateLimitConfig{RPS: 1, Burst: 5},
		WebSocket: WebSocketConfig{PingInterval: 30 * time.Second, WriteTimeout: 10 * time.Second},
	}
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("config: session secret required")
	}
	u, err := url.Parse(strings.TrimSpace(c.Backend.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid backend url %q", c.Backend.URL)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit rps and burst must be positive")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.IdleTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("config: http timeouts must be positive")
	}
	if _, err := c.TrustedProxies(); err != nil {
		return err
	}
	return nil
}

// TrustedProxies parses RateLimit.TrustedProxies. Bare addresses become single-host prefixes.
func (c *Config) TrustedProxies() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range strings.Split(c.RateLimit.TrustedProxies, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("config: trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("config: trusted proxy %q: %w", raw, err)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// BackendTimeout returns http client timeout.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Backend.Timeout
}

// GeocoderEnabled reports whether address lookup is configured.
func (c *Config) GeocoderEnabled() bool {
	return strings.TrimSpace(c.Geocoder.APIKey) != "" && strings.TrimSpace(c.Geocoder.URL) != ""
}
