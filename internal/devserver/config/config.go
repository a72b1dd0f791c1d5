// Package config handles configuration for the development backend,
// including defaults, environment overlay, and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the development backend.
//
// Fields:
//   - ListenAddr: bind address of the HTTP endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Development only.
//   - AccessTokenValidityDuration: token lifetime.
//   - BcryptCost: password hashing cost.
//   - Seed: load demo products, program, events and the demo user.
type Config struct {
	ListenAddr                  string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	Seed                        bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure and meant for local use only.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.SecretKey = "dev-secret-key"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 10
	c.Seed = true
}

// LoadConfig builds a Config by applying defaults, then FLOCK_DEV_* variables
// (a .env file is loaded first if present) and finally command-line flags.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, os.Getenv)
	parseFlags(cfg)
	return cfg
}

func parseEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("FLOCK_DEV_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getenv("FLOCK_DEV_SECRET"); v != "" {
		cfg.SecretKey = v
	}
	if v := getenv("FLOCK_DEV_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.AccessTokenValidityDuration = d
	}
}
