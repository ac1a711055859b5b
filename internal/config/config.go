package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all process configuration. It is built once at startup and
// treated as immutable afterwards.
type Config struct {
	// APIKey is the shared secret required in the Authorization header.
	// Empty means every request is rejected.
	APIKey string `yaml:"api_key"`
	// UpstreamURL is the base URL (or full chat endpoint URL) of the
	// downstream inference service.
	UpstreamURL string `yaml:"upstream_url"`
	// ListenAddr is the gateway listen address.
	ListenAddr string `yaml:"listen_addr"`
	// RequestTimeout bounds one downstream round trip.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MetricsEnabled exposes GET /metrics when true.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// Load builds the Config from, in increasing precedence: built-in defaults,
// an optional YAML file named by CONFIG_FILE, environment variables, and
// command-line flags.
func Load() *Config {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	flag.StringVar(&cfg.APIKey, "api-key", getEnv("API_KEYS", cfg.APIKey), "Shared secret required in the Authorization header (empty rejects everything)")
	flag.StringVar(&cfg.UpstreamURL, "upstream-url", getEnv("UPSTREAM_URL", cfg.UpstreamURL), "Downstream inference service base URL or full chat endpoint URL")
	flag.StringVar(&cfg.ListenAddr, "listen-addr", getEnv("LISTEN_ADDR", cfg.ListenAddr), "Gateway listen address")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout), "Downstream round-trip timeout")
	flag.BoolVar(&cfg.MetricsEnabled, "metrics", getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled), "Expose Prometheus metrics on GET /metrics")

	flag.Parse()
	return cfg
}

// Default returns a Config with built-in defaults and no credential.
func Default() *Config {
	return &Config{
		UpstreamURL:    "http://127.0.0.1:11434",
		ListenAddr:     ":3009",
		RequestTimeout: 120 * time.Second,
		MetricsEnabled: true,
	}
}

// LoadFile overlays the YAML file at path onto the receiver.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
