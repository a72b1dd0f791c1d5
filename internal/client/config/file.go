package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/flockapp/internal/flagx"
	"github.com/dmitrijs2005/flockapp/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling.
// It relies on timex.Duration so files can specify intervals either as
// strings like "5s" or as integer nanoseconds. Empty fields leave the
// runtime Config untouched.
type FileConfig struct {
	APIBaseURL           string         `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout       timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	CommentsPollInterval timex.Duration `json:"comments_poll_interval" yaml:"comments_poll_interval"`
	DataDir              string         `json:"data_dir" yaml:"data_dir"`
	PaymentURLTemplate   string         `json:"payment_url_template" yaml:"payment_url_template"`
	SuccessURL           string         `json:"success_url" yaml:"success_url"`
	FailureURL           string         `json:"failure_url" yaml:"failure_url"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays Config with values loaded from the file named by -c or
// -config. Files ending in .yaml or .yml are read as YAML, anything else as
// JSON. Panics on read or unmarshal errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.PaymentURLTemplate, fc.PaymentURLTemplate)
	setString(&cfg.SuccessURL, fc.SuccessURL)
	setString(&cfg.FailureURL, fc.FailureURL)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.CommentsPollInterval.Duration > 0 {
		cfg.CommentsPollInterval = fc.CommentsPollInterval.Duration
	}
}
