package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the Flock client.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API.
//   - RequestTimeout: per-request HTTP timeout.
//   - CommentsPollInterval: how often the live comment feed is refreshed.
//   - DataDir: where the credential database and device key live.
//   - PaymentURLTemplate: payment page URL; "{ref}" is replaced by the payment reference.
//   - SuccessURL / FailureURL: deep links the payment provider redirects to.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL           string
	RequestTimeout       time.Duration
	CommentsPollInterval time.Duration
	DataDir              string
	PaymentURLTemplate   string
	SuccessURL           string
	FailureURL           string
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.CommentsPollInterval = 5 * time.Second
	c.DataDir = defaultDataDir()
	c.PaymentURLTemplate = "http://127.0.0.1:8080/pay/{ref}"
	c.SuccessURL = "flock://payment-success"
	c.FailureURL = "flock://payment-failed"
	c.LogLevel = "warn"
}

// DBPath is the credential database file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "flock.db")
}

// KeyPath is the device key file inside DataDir.
func (c *Config) KeyPath() string {
	return filepath.Join(c.DataDir, "device.key")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and a .env file), a JSON or YAML file (if given) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env", os.Getenv)
	parseFile(cfg)
	parseFlags(cfg)
	cfg.validate()
	return cfg
}

// validate panics on settings the client cannot run with.
func (c *Config) validate() {
	if c.RequestTimeout <= 0 {
		panic(fmt.Sprintf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.CommentsPollInterval <= 0 {
		panic(fmt.Sprintf("comment poll interval must be positive, got %s", c.CommentsPollInterval))
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".flock"
	}
	return filepath.Join(dir, "flock")
}
