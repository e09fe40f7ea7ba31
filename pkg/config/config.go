// Package config loads the client configuration from a YAML file with
// environment overrides. A .env file is honored when present.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Venue backend variants. The in-memory ledger is the only implemented
// backend; "network" is reserved for a real wire-protocol client.
const (
	BackendMemory  = "memory"
	BackendNetwork = "network"
)

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// VenueConfig configures the venue connection and the simulated account.
type VenueConfig struct {
	ID          string `yaml:"id"`
	Backend     string `yaml:"backend"`
	Symbol      string `yaml:"symbol"`
	APIKey      string `yaml:"api_key"`
	APISecret   string `yaml:"api_secret"`
	Currency    string `yaml:"currency"`
	BalanceFree string `yaml:"balance_free"`
}

// JournalConfig configures the user-data audit journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Venue   VenueConfig   `yaml:"venue"`
	Journal JournalConfig `yaml:"journal"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			JWTSecret: "venue-secret-key",
		},
		Venue: VenueConfig{
			ID:          "grvt",
			Backend:     BackendMemory,
			Currency:    "USDC",
			BalanceFree: "100000",
		},
		Journal: JournalConfig{
			Path: "journal.db",
		},
	}
}

// Load reads the config file at path (optional, empty means defaults),
// then applies environment overrides. A .env file in the working
// directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("VENUE_BACKEND"); v != "" {
		cfg.Venue.Backend = v
	}
	if v := os.Getenv("VENUE_API_KEY"); v != "" {
		cfg.Venue.APIKey = v
	}
	if v := os.Getenv("VENUE_API_SECRET"); v != "" {
		cfg.Venue.APISecret = v
	}
	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

// Validate checks the configuration for values that would fail at
// runtime: an unknown backend or an unparseable balance fail fast here.
func (c *Config) Validate() error {
	switch c.Venue.Backend {
	case BackendMemory, BackendNetwork:
	default:
		return fmt.Errorf("unknown venue backend %q", c.Venue.Backend)
	}

	if _, err := decimal.NewFromString(c.Venue.BalanceFree); err != nil {
		return fmt.Errorf("invalid balance_free %q: %w", c.Venue.BalanceFree, err)
	}
	return nil
}

// BalanceAmount returns the configured free balance as a decimal. Call
// Validate (or Load) first; invalid values fall back to zero.
func (c *Config) BalanceAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.Venue.BalanceFree)
	if err != nil {
		return decimal.Zero
	}
	return d
}
