package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/units"
	"github.com/joho/godotenv"
)

// Environment keys.
const (
	KeyAppName             = "APP_NAME"
	KeyAppEnv              = "APP_ENV"
	KeyAppVersion          = "APP_VERSION"
	KeyHost                = "HOST"
	KeyPort                = "PORT"
	KeyMaxRequestSize      = "MAX_REQUEST_SIZE"
	KeyRequestTimeout      = "HTTP_REQUEST_TIMEOUT_SECONDS"
	KeyDatabaseURI         = "DATABASE_URI"
	KeyDatabaseMigrations  = "DATABASE_RUN_MIGRATIONS"
	KeyDatabaseMaxConns    = "DATABASE_MAX_CONNS"
	KeyRedisURL            = "REDIS_URL"
	KeyLogLevel            = "LOG_LEVEL"
	KeyCookieSecret        = "COOKIE_SECRET"
	KeyJWTSecret           = "JWT_SECRET"
	KeyAuthTokenCookieName = "AUTH_TOKEN_COOKIE_NAME"
	KeyAuthTokenTTL        = "AUTH_TOKEN_TTL"
	KeyBcryptCost          = "BCRYPT_COST"
	KeyFrontendDomain      = "FRONTEND_DOMAIN"
	KeyFrontendURL         = "FRONTEND_URL"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Frontend FrontendConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  int
	Version               string
	RequestTimeoutSeconds int
	MaxRequestSize        string
	BodyLimit             int
}

// DatabaseConfig holds the datastore connection values.
type DatabaseConfig struct {
	URI           string
	RunMigrations bool
	MaxConns      int32
}

// RedisConfig holds the optional Redis connection used for token revocation.
type RedisConfig struct {
	URL string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret    string
	CookieSecret string
	CookieName   string
	TokenTTL     string
	BcryptCost   int
}

// FrontendConfig describes the browser client the auth cookie is scoped to.
type FrontendConfig struct {
	Domain string
	URLs   []string
}

// Declarations builds the schema of every setting the service reads.
func Declarations(lookup func(string) (string, bool)) Schema {
	env := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	return Schema{
		KeyAppName:             {Value: env(KeyAppName), Default: "cookie-session"},
		KeyAppEnv:              {Value: env(KeyAppEnv), Default: "development"},
		KeyAppVersion:          {Value: env(KeyAppVersion), Default: "dev"},
		KeyHost:                {Value: env(KeyHost), Default: "0.0.0.0"},
		KeyPort:                {Value: env(KeyPort), Default: "5000", Kind: KindNumber},
		KeyMaxRequestSize:      {Value: env(KeyMaxRequestSize), Default: "10mb"},
		KeyRequestTimeout:      {Value: env(KeyRequestTimeout), Default: "30", Kind: KindNumber},
		KeyDatabaseURI:         {Value: env(KeyDatabaseURI), Required: true},
		KeyDatabaseMigrations:  {Value: env(KeyDatabaseMigrations), Default: "true", Kind: KindBoolean},
		KeyDatabaseMaxConns:    {Value: env(KeyDatabaseMaxConns), Default: "10", Kind: KindNumber},
		KeyRedisURL:            {Value: env(KeyRedisURL)},
		KeyLogLevel:            {Value: env(KeyLogLevel), Default: "info"},
		KeyCookieSecret:        {Value: env(KeyCookieSecret), Required: true},
		KeyJWTSecret:           {Value: env(KeyJWTSecret), Required: true},
		KeyAuthTokenCookieName: {Value: env(KeyAuthTokenCookieName), Required: true},
		KeyAuthTokenTTL:        {Value: env(KeyAuthTokenTTL), Default: "1d"},
		KeyBcryptCost:          {Value: env(KeyBcryptCost), Default: "12", Kind: KindNumber},
		KeyFrontendDomain:      {Value: env(KeyFrontendDomain), Required: true},
		KeyFrontendURL:         {Value: env(KeyFrontendURL), Required: true, Kind: KindArray, IsURL: true},
	}
}

// Load reads .env (when present) and the process environment. On validation
// failure it still returns the partially populated Config together with a
// ValidationErrors value listing every offending key; callers must not start
// dependent subsystems in that case.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	snap, errs := Parse(Declarations(lookup))
	cfg := FromSnapshot(snap)

	if size := snap.Value(KeyMaxRequestSize); size.Valid() {
		limit, err := ParseByteSize(size.String())
		if err != nil {
			errs = append(errs, newFieldError(KeyMaxRequestSize, RuleSize, "%s must be a byte size such as 10mb"))
		} else {
			cfg.App.BodyLimit = limit
		}
	}

	if len(errs) > 0 {
		return cfg, errs
	}
	return cfg, nil
}

// FromSnapshot maps a parsed snapshot onto the typed Config.
func FromSnapshot(snap Snapshot) *Config {
	return &Config{
		App: AppConfig{
			Name:                  snap.Value(KeyAppName).String(),
			Env:                   snap.Value(KeyAppEnv).String(),
			Host:                  snap.Value(KeyHost).String(),
			Port:                  snap.Value(KeyPort).Int(),
			Version:               snap.Value(KeyAppVersion).String(),
			RequestTimeoutSeconds: snap.Value(KeyRequestTimeout).Int(),
			MaxRequestSize:        snap.Value(KeyMaxRequestSize).String(),
		},
		Database: DatabaseConfig{
			URI:           snap.Value(KeyDatabaseURI).String(),
			RunMigrations: snap.Value(KeyDatabaseMigrations).Bool(),
			MaxConns:      int32(snap.Value(KeyDatabaseMaxConns).Int()),
		},
		Redis: RedisConfig{
			URL: snap.Value(KeyRedisURL).String(),
		},
		Logger: LoggerConfig{
			Level: snap.Value(KeyLogLevel).String(),
		},
		Auth: AuthConfig{
			JWTSecret:    snap.Value(KeyJWTSecret).String(),
			CookieSecret: snap.Value(KeyCookieSecret).String(),
			CookieName:   snap.Value(KeyAuthTokenCookieName).String(),
			TokenTTL:     snap.Value(KeyAuthTokenTTL).String(),
			BcryptCost:   snap.Value(KeyBcryptCost).Int(),
		},
		Frontend: FrontendConfig{
			Domain: snap.Value(KeyFrontendDomain).String(),
			URLs:   snap.Value(KeyFrontendURL).Strings(),
		},
	}
}

// ParseByteSize converts sizes such as "10mb", "512KB" or "1024" into bytes.
func ParseByteSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	n, err := units.ParseBase2Bytes(strings.ToUpper(s))
	if err != nil {
		return 0, fmt.Errorf("parse byte size %q: %w", s, err)
	}
	return int(n), nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}
