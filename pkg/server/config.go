package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the HTTP adapter settings. The core needs none of these;
// they only shape how the /schedule surface is exposed.
type Config struct {
	ListenAddress string `yaml:"listen_address"`

	// RequestsPerSecond and RequestBurst rate-limit /schedule; solving is
	// CPU-bound, so unthrottled callers can starve the host.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestBurst      int     `yaml:"request_burst"`

	// MaxConcurrentSolves caps GA runs executing at once; extra requests
	// queue until a slot frees or their context is cancelled.
	MaxConcurrentSolves int64 `yaml:"max_concurrent_solves"`

	// CacheTTLSeconds bounds the response cache. Only seeded requests are
	// cached; identical input plus seed yields an identical response.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// AllowedOrigins configures CORS for the planning UI.
	AllowedOrigins []string `yaml:"allowed_origins"`

	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:        ":8080",
		RequestsPerSecond:    5,
		RequestBurst:         10,
		MaxConcurrentSolves:  2,
		CacheTTLSeconds:      300,
		AllowedOrigins:       []string{"*"},
		ShutdownGraceSeconds: 10,
	}
}

// LoadConfig reads a YAML config file and overlays it onto the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
