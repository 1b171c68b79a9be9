package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix keeps our variables apart from the ones used by the OS or other
// software.
const EnvPrefix = "STATUSPAGE_"

type Config struct {
	WebsiteURL       string   `yaml:"website_url"`        // the single monitored target
	Frequency        int      `yaml:"frequency"`          // minutes between probes
	DatabaseURL      string   `yaml:"database_url"`       // postgres://..., sqlite:path, or empty for in-memory
	DatabasePoolSize int      `yaml:"database_pool_size"` // max connections shared by probe and API
	DatabaseDialect  string   `yaml:"database_dialect"`   // postgres, questdb, or empty to detect from the URL
	Debug            bool     `yaml:"debug"`              // debug level logs, mirrored to stderr
	Addr             string   `yaml:"addr"`               // API bind address
	LogDir           string   `yaml:"log_dir"`            // logs directory
	ProbeTimeoutMS   int      `yaml:"probe_timeout_ms"`   // HEAD request timeout
	AllowedOrigins   []string `yaml:"allowed_origins"`    // CORS origins of the dashboard
	RateLimitRPM     int      `yaml:"rate_limit_rpm"`     // per client IP on /signals, 0 disables
	RateLimitBurst   int      `yaml:"rate_limit_burst"`   // bucket size per client IP
	TrustProxy       bool     `yaml:"trust_proxy"`        // key the rate limit on X-Forwarded-For
	Migrate          bool     `yaml:"migrate"`            // create the signals table on startup
}

func Default() Config {
	return Config{
		Frequency:        1,
		DatabasePoolSize: 3,
		Addr:             "127.0.0.1:8080",
		LogDir:           "logs",
		ProbeTimeoutMS:   10_000,
		AllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitRPM:     600,
		RateLimitBurst:   60,
		Migrate:          true,
	}
}

// Load reads .env (if present), then the YAML file named by
// STATUSPAGE_CONFIG_FILE (if set), then STATUSPAGE_* variables, and validates
// the result. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(EnvPrefix + "CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv returns defaults overridden by STATUSPAGE_* variables, unvalidated.
func FromEnv() Config {
	cfg := Default()
	cfg.mergeEnv()
	return cfg
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	if v, ok := lookup("WEBSITE_URL"); ok && v != "" {
		c.WebsiteURL = v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		c.DatabaseURL = v
	}
	if v, ok := lookup("DATABASE_DIALECT"); ok {
		c.DatabaseDialect = v
	}
	if v, ok := lookup("ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("LOG_DIR"); ok && v != "" {
		c.LogDir = v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	c.Frequency = envInt("FREQUENCY", c.Frequency)
	c.DatabasePoolSize = envInt("DATABASE_POOL_SIZE", c.DatabasePoolSize)
	c.ProbeTimeoutMS = envInt("PROBE_TIMEOUT_MS", c.ProbeTimeoutMS)
	c.RateLimitRPM = envInt("RATE_LIMIT_RPM", c.RateLimitRPM)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.Debug = envBool("DEBUG", c.Debug)
	c.Migrate = envBool("MIGRATE", c.Migrate)
	c.TrustProxy = envBool("TRUST_PROXY", c.TrustProxy)
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.WebsiteURL == "" {
		return errors.New(EnvPrefix + "WEBSITE_URL is required")
	}
	u, err := url.ParseRequestURI(c.WebsiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%sWEBSITE_URL must be an absolute http(s) URL, got %q", EnvPrefix, c.WebsiteURL)
	}
	if c.Frequency < 1 {
		return fmt.Errorf("%sFREQUENCY must be at least 1 minute, got %d", EnvPrefix, c.Frequency)
	}
	if c.DatabasePoolSize < 1 {
		return fmt.Errorf("%sDATABASE_POOL_SIZE must be positive, got %d", EnvPrefix, c.DatabasePoolSize)
	}
	switch strings.ToLower(strings.TrimSpace(c.DatabaseDialect)) {
	case "", "postgres", "questdb":
	default:
		return fmt.Errorf("%sDATABASE_DIALECT must be postgres or questdb, got %q", EnvPrefix, c.DatabaseDialect)
	}
	if c.ProbeTimeoutMS < 1 {
		return fmt.Errorf("%sPROBE_TIMEOUT_MS must be positive, got %d", EnvPrefix, c.ProbeTimeoutMS)
	}
	return nil
}

// Interval is the probe cadence.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Frequency) * time.Minute
}

func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(v), ok
}

func envInt(key string, fallback int) int {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
