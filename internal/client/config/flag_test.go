package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", "http://10.0.0.2:8080", "-t", "20", "-p", "3", "-d", "/data", "-l", "debug"}, expectPanic: false,
			expected: &Config{APIBaseURL: "http://10.0.0.2:8080", RequestTimeout: 20 * time.Second, CommentsPollInterval: 3 * time.Second, DataDir: "/data", LogLevel: "debug"}},
		{name: "Test2 unrelated flags ignored", args: []string{"cmd", "-c", "x.json", "-a", "http://h"}, expectPanic: false,
			expected: &Config{APIBaseURL: "http://h"}},
		{name: "Test3 incorrect poll interval", args: []string{"cmd", "-a", "http://h", "-p", "abc"}, expectPanic: true, expected: &Config{}},
		{name: "Test4 zero poll interval", args: []string{"cmd", "-p", "0"}, expectPanic: true, expected: &Config{}},
		{name: "Test5 negative timeout", args: []string{"cmd", "-t", "-1"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}

func TestParseFlags_KeepsSubSecondDurationsWhenUnset(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-a", "http://h"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, "", envMap(map[string]string{
		EnvPollInterval:   "500ms",
		EnvRequestTimeout: "750ms",
	}))

	parseFlags(cfg)

	assert.Equal(t, 500*time.Millisecond, cfg.CommentsPollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "http://h", cfg.APIBaseURL)
}

func TestParseFlags_OverridesEnvDuration(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd", "-p", "2"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, "", envMap(map[string]string{EnvPollInterval: "500ms"}))

	parseFlags(cfg)

	assert.Equal(t, 2*time.Second, cfg.CommentsPollInterval)
}
