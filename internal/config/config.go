package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Upstream struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Credential struct {
		TTL string `yaml:"ttl"`
	} `yaml:"credential"`
	Categories struct {
		TTL string `yaml:"ttl"`
	} `yaml:"categories"`
	Questions struct {
		// Source selects the question bank: "opentdb" (default) or "postgres".
		Source string `yaml:"source"`
	} `yaml:"questions"`
	Signing struct {
		// Key is optional hex key material shared across instances; when empty
		// a fresh key is generated per process.
		Key string `yaml:"key"`
	} `yaml:"signing"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
