package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL; empty serves the in-memory catalog" flag:"database-url"`
	FeaturedCount int    `default:"4" usage:"Products featured on the storefront home" flag:"featured-count"`
	Catalog       CatalogConfig
	AddressLookup AddressLookupConfig
	Order         OrderConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// CatalogConfig controls the in-memory catalog.
type CatalogConfig struct {
	SimulateLatency bool    `default:"true" usage:"Delay in-memory catalog calls like a remote backend" flag:"simulate-latency"`
	LatencyScale    float64 `default:"1" usage:"Multiplier of the simulated delays" flag:"latency-scale"`
}

// AddressLookupConfig points at the ViaCEP postal code service.
type AddressLookupConfig struct {
	BaseURL string        `default:"https://viacep.com.br" usage:"ViaCEP base URL" flag:"viacep-url"`
	Timeout time.Duration `default:"5s" usage:"Postal code lookup timeout" flag:"viacep-timeout"`
}

// OrderConfig bounds retries of order submission.
type OrderConfig struct {
	SubmitAttempts  uint          `default:"3" usage:"Attempts to store an order before giving up" flag:"order-attempts"`
	InitialInterval time.Duration `default:"200ms" usage:"First retry backoff" flag:"order-initial-interval"`
	MaxInterval     time.Duration `default:"2s" usage:"Maximum retry backoff" flag:"order-max-interval"`
}

// SessionConfig controls shopper session expiry.
type SessionConfig struct {
	TTL             time.Duration `default:"30m" usage:"Idle time after which a session is dropped" flag:"session-ttl"`
	CleanupInterval time.Duration `default:"1m" usage:"How often expired sessions are swept" flag:"session-cleanup"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads a local .env file if present, then configuration from
// environment variables, YAML config files and command line flags, and
// applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

// loadConfig skips flag parsing when args is nil.
func loadConfig(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: args == nil,
		Args:      args,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch {
	case c.FeaturedCount < 0:
		return errors.New("featured count must not be negative")
	case c.Catalog.LatencyScale < 0:
		return errors.New("latency scale must not be negative")
	case c.Order.SubmitAttempts == 0:
		return errors.New("order submit attempts must be at least 1")
	case c.AddressLookup.BaseURL == "":
		return errors.New("address lookup base URL is required")
	}
	return nil
}

// latencyScale is the multiplier handed to the in-memory catalog.
func (c *Config) latencyScale() float64 {
	if !c.Catalog.SimulateLatency {
		return 0
	}
	return c.Catalog.LatencyScale
}
