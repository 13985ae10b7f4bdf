package photoblog

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"github.com/eringen/photoblog/events"
	"github.com/eringen/photoblog/objectstore"
)

// Config holds all configuration for a photoblog instance. LoadConfig fills
// it from the environment; zero values are replaced by setDefaults.
type Config struct {
	Site SiteConfig `envPrefix:"SITE_"`

	Addr          string        `env:"LISTEN_ADDR"`    // default ":3000"
	Production    bool          `env:"PRODUCTION"`     // secure cookies, JSON logs
	AdminEmail    string        `env:"ADMIN_EMAIL"`    // required: the only admin identity
	SessionSecret string        `env:"SESSION_SECRET"` // required: signs the session cookie
	PostCacheTTL  time.Duration `env:"POST_CACHE_TTL"` // default 5m
	HTTPTimeout   time.Duration `env:"HTTP_CLIENT_TIMEOUT"`
	NATSURL       string        `env:"NATS_URL"`

	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Supabase  SupabaseConfig  `envPrefix:"SUPABASE_"`
	S3        S3Config        `envPrefix:"S3_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Upload    UploadConfig    `envPrefix:"UPLOAD_"`
	Log       LogConfig       `envPrefix:"LOG_"`
}

// SiteConfig is rendered into pages and feeds.
type SiteConfig struct {
	Name        string `env:"NAME"` // default "Photos"
	URL         string `env:"URL"`  // default "http://localhost:3000"
	Description string `env:"DESCRIPTION"`
	Author      string `env:"AUTHOR"`
}

type DatabaseConfig struct {
	Driver string `env:"DRIVER"` // "sqlite" (default) or "postgres"
	DSN    string `env:"DSN"`    // default "data/photoblog.db" for sqlite
}

type SupabaseConfig struct {
	URL       string `env:"URL"`
	AnonKey   string `env:"ANON_KEY"`
	JWTSecret string `env:"JWT_SECRET"`
}

type S3Config struct {
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET"`
	Endpoint  string `env:"ENDPOINT"`
	Region    string `env:"REGION"`
	PublicURL string `env:"PUBLIC_URL"`
	KeyPrefix string `env:"KEY_PREFIX"`
}

type RateLimitConfig struct {
	Max      int64         `env:"MAX"`    // default 100
	Window   time.Duration `env:"WINDOW"` // default 1m
	RedisURL string        `env:"REDIS_URL"`
}

type UploadConfig struct {
	MaxBytes   int64  `env:"MAX_BYTES"` // default 10MB
	Preprocess bool   `env:"PREPROCESS" envDefault:"true"`
	MaxWidth   int    `env:"MAX_WIDTH"`
	MaxHeight  int    `env:"MAX_HEIGHT"`
	Quality    int    `env:"QUALITY"`
	OutputType string `env:"OUTPUT_TYPE"`
}

type LogConfig struct {
	Level      string `env:"LEVEL"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB"`
	MaxBackups int    `env:"MAX_BACKUPS"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("photoblog: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "Photos"
	}
	if c.Site.URL == "" {
		c.Site.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/photoblog.db"
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
}

func (c Config) validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("photoblog: SESSION_SECRET is required")
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("photoblog: ADMIN_EMAIL is required")
	}
	return nil
}

// ObjectStore returns the S3 client settings.
func (c Config) ObjectStore() objectstore.Config {
	return objectstore.Config{
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
		Bucket:    c.S3.Bucket,
		Endpoint:  c.S3.Endpoint,
		Region:    c.S3.Region,
		PublicURL: c.S3.PublicURL,
		KeyPrefix: c.S3.KeyPrefix,
		Timeout:   c.HTTPTimeout,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the application logger (default: zap.NewNop).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.l = l }
}

// WithStore uses an already opened Store.
func WithStore(s *Store) Option {
	return func(a *App) { a.Store = s }
}

// WithAuthProvider replaces the Supabase client.
func WithAuthProvider(p AuthProvider) Option {
	return func(a *App) { a.auth = p }
}

// WithUploader replaces the S3 client.
func WithUploader(u Uploader) Option {
	return func(a *App) { a.uploader = u }
}

// WithCounter replaces the rate-limit counter.
func WithCounter(c Counter) Option {
	return func(a *App) { a.counter = c }
}

// WithEventBus replaces the cache invalidation bus.
func WithEventBus(b events.Bus) Option {
	return func(a *App) { a.events = b }
}

// WithViews overrides the page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) { a.Views = v }
}
