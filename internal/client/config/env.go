package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAPIURL         = "FLOCK_API_URL"
	EnvRequestTimeout = "FLOCK_REQUEST_TIMEOUT"
	EnvPollInterval   = "FLOCK_POLL_INTERVAL"
	EnvDataDir        = "FLOCK_DATA_DIR"
	EnvPaymentURL     = "FLOCK_PAYMENT_URL"
	EnvSuccessURL     = "FLOCK_SUCCESS_URL"
	EnvFailureURL     = "FLOCK_FAILURE_URL"
	EnvLogLevel       = "FLOCK_LOG_LEVEL"
)

// parseEnv overlays cfg with FLOCK_* variables. Values from envFile (a .env
// file, optional) are used for variables that getenv does not provide.
// Durations use Go syntax ("5s"). Panics on unreadable files or bad values.
func parseEnv(cfg *Config, envFile string, getenv func(string) string) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			panic(err)
		default:
			fileVars = vars
		}
	}

	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fileVars[key]
	}

	setString(&cfg.APIBaseURL, lookup(EnvAPIURL))
	setString(&cfg.DataDir, lookup(EnvDataDir))
	setString(&cfg.PaymentURLTemplate, lookup(EnvPaymentURL))
	setString(&cfg.SuccessURL, lookup(EnvSuccessURL))
	setString(&cfg.FailureURL, lookup(EnvFailureURL))
	setString(&cfg.LogLevel, lookup(EnvLogLevel))
	setDuration(&cfg.RequestTimeout, lookup(EnvRequestTimeout))
	setDuration(&cfg.CommentsPollInterval, lookup(EnvPollInterval))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
