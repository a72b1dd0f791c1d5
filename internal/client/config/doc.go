// Package config loads runtime configuration for the Flock client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables FLOCK_* (see parseEnv); a .env file in the
//     working directory supplies variables the environment does not set.
//  3. Optional JSON or YAML file (see parseFile) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend API
//	-t int      request timeout (seconds)
//	-p int      comment poll interval (seconds)
//	-d string   data directory
//	-l string   log level
//
// # File schema
//
// Intervals use timex.Duration, so values can be either strings like "5s" or
// integer nanoseconds:
//
//	api_base_url: https://api.flock.example
//	request_timeout: 15s
//	comments_poll_interval: 5s
//	data_dir: /var/lib/flock
//	payment_url_template: https://checkout.example.com/{ref}
package config
