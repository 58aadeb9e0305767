package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete gateway configuration, loadable from
// environment variables (MBC_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (MBC_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	BackendBaseURL string `usage:"Commerce backend base URL (MBC_BACKEND_BASE_URL)" flag:"backend-base-url"`
	JWTSecret      string `usage:"HS256 secret for customer bearer tokens (MBC_JWT_SECRET)" flag:"jwt-secret"`
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Session        SessionConfig
	GuestCarts     GuestCartConfig
	Graceful       GracefulConfig
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers. Credentials
// default to on: the guest cart rides on a cookie.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// SessionConfig controls the in-memory cart session table.
type SessionConfig struct {
	CleanupInterval time.Duration `default:"5m"  usage:"How often idle cart sessions are evicted" flag:"session-cleanup-interval"`
	MaxIdle         time.Duration `default:"30m" usage:"Idle time before a cart session is evicted" flag:"session-max-idle"`
}

// GuestCartConfig controls the persisted guest cart table. Abandoned guest
// carts are purged once they go untouched for the retention period.
type GuestCartConfig struct {
	SweepInterval time.Duration `default:"1h"   usage:"How often stale guest carts are purged" flag:"guestcart-sweep-interval"`
	Retention     time.Duration `default:"720h" usage:"Idle age after which a guest cart is purged" flag:"guestcart-retention"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MBC",
		Files:     []string{"config.yaml", "/etc/madebycan/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set MBC_DATABASE_URL or DATABASE_URL")
	}
	if cfg.BackendBaseURL == "" {
		return nil, errors.New("backend base URL is required: set MBC_BACKEND_BASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is required: set MBC_JWT_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the MBC_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
