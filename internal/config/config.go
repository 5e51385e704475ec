package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	GuardModeBypass = "bypass"
	GuardModeStrict = "strict"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Guards   GuardConfig
	Redis    RedisConfig
	Limits   LimitConfig
	PDF      PDFConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	CORSOrigin  string
	LogLevel    string
	SeedFile    string
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

// GuardConfig keeps the raw placeholder modes. The guards validate them per request so that a
// bad value fails closed instead of preventing startup.
type GuardConfig struct {
	InviteMode string
	AdminMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

type LimitConfig struct {
	AdminRPS   float64
	AdminBurst int
}

type PDFConfig struct {
	Enabled    bool
	ChromePath string
	Timeout    time.Duration
}

func (c Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

var errInvalidEnv = errors.New("environment validation failed")

// Load reads an optional .env file from the working directory and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{}

	var problems []string
	fail := func(key, reason string) {
		problems = append(problems, key+": "+reason)
	}
	opt := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}
	def := func(key, fallback string) string {
		if v := opt(key); v != "" {
			return v
		}
		return fallback
	}

	env := opt("APP_ENV")
	if env == "" {
		env = def("NODE_ENV", EnvDevelopment)
	}
	switch env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		fail("APP_ENV", "must be one of development, production, test")
	}

	port := def("PORT", "3000")
	if p, err := strconv.Atoi(port); err != nil || p <= 0 {
		fail("PORT", "must be a positive integer")
	}

	corsOrigin := def("CORS_ORIGIN", "http://localhost:5173")
	if u, err := url.Parse(corsOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		fail("CORS_ORIGIN", "must be a valid URL")
	}

	logLevel := strings.ToLower(def("LOG_LEVEL", "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		fail("LOG_LEVEL", "must be one of debug, info, warn, error")
	}

	cfg.App = AppConfig{
		AppName:     def("APP_NAME", "cv-hub"),
		Environment: env,
		HTTPPort:    port,
		CORSOrigin:  corsOrigin,
		LogLevel:    logLevel,
		SeedFile:    opt("SEED_FILE"),
	}

	cfg.Database = DatabaseConfig{
		Driver:         DriverSQLite,
		Path:           def("DATABASE_PATH", "./data/cv-hub.db"),
		URL:            opt("DATABASE_URL"),
		ConnectTimeout: 5 * time.Second,
		PoolMaxConns:   int32(intOr(opt("DB_POOL_MAX_CONNS"), 0)),
		PoolMinConns:   int32(intOr(opt("DB_POOL_MIN_CONNS"), 0)),
	}
	if cfg.Database.URL != "" {
		cfg.Database.Driver = DriverPostgres
	}

	cfg.Guards = GuardConfig{
		InviteMode: def("EPIC_2_PLACEHOLDER_MODE", GuardModeStrict),
		AdminMode:  def("EPIC_2_ADMIN_PLACEHOLDER_MODE", GuardModeBypass),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     def("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      time.Duration(intOr(opt("REDIS_TTL"), 300)) * time.Second,
	}
	if cfg.Redis.TTL <= 0 {
		fail("REDIS_TTL", "must be a positive number of seconds")
	}

	rps, err := strconv.ParseFloat(def("ADMIN_RATE_LIMIT_RPS", "5"), 64)
	if err != nil || rps <= 0 {
		fail("ADMIN_RATE_LIMIT_RPS", "must be a positive number")
	}
	burst := intOr(opt("ADMIN_RATE_LIMIT_BURST"), 10)
	if burst <= 0 {
		fail("ADMIN_RATE_LIMIT_BURST", "must be a positive integer")
	}
	cfg.Limits = LimitConfig{AdminRPS: rps, AdminBurst: burst}

	pdfEnabled, err := strconv.ParseBool(def("PDF_ENABLED", "false"))
	if err != nil {
		fail("PDF_ENABLED", "must be a boolean")
	}
	cfg.PDF = PDFConfig{
		Enabled:    pdfEnabled,
		ChromePath: opt("CHROME_PATH"),
		Timeout:    30 * time.Second,
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(problems, ", "))
	}

	return cfg, nil
}

func intOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
