package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration.
// Precedence: built-in defaults < TOML file < environment variables.
type Config struct {
	// Server
	Port     int    `toml:"port" env:"PORT"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	// Storage backend: "supabase" (hosted) or "sqlite" (local file)
	StoreBackend string `toml:"store_backend" env:"STORE_BACKEND"`
	SQLitePath   string `toml:"sqlite_path" env:"SQLITE_PATH"`

	// Supabase
	SupabaseURL        string `toml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseAnonKey    string `toml:"supabase_anon_key" env:"SUPABASE_ANON_KEY"`
	SupabaseServiceKey string `toml:"supabase_service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`

	// JWTSecret verifies access tokens; the sqlite backend also signs with it.
	JWTSecret       string   `toml:"jwt_secret" env:"SUPABASE_JWT_SECRET"`
	AccessTokenTTL  Duration `toml:"access_token_ttl" env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL Duration `toml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL"`

	// HTTP client
	HTTPTimeout Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`

	// Resilience
	MaxRetries     int      `toml:"max_retries" env:"MAX_RETRIES"`
	InitialBackoff Duration `toml:"initial_backoff" env:"INITIAL_BACKOFF"`
	MaxConcurrency int      `toml:"max_concurrency" env:"MAX_CONCURRENCY"`

	// Cache
	CacheTTL Duration `toml:"cache_ttl" env:"CACHE_TTL"`

	// Observability; an empty endpoint disables trace export.
	OTLPEndpoint string `toml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// CORS
	CORSAllowedOrigins []string `toml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Duration is a time.Duration read from strings such as "15m" in both the
// TOML file and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:     8080,
		LogLevel: "info",

		StoreBackend: BackendSupabase,
		SQLitePath:   "leilao.db",

		JWTSecret:       "leilao-default-dev-secret-change-me",
		AccessTokenTTL:  Duration{time.Hour},
		RefreshTokenTTL: Duration{30 * 24 * time.Hour},

		HTTPTimeout: Duration{10 * time.Second},

		MaxRetries:     3,
		InitialBackoff: Duration{100 * time.Millisecond},
		MaxConcurrency: 50,

		CacheTTL: Duration{time.Minute},

		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path (skipped when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("supabase backend requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
