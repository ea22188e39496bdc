// Package config handles configuration for the server component,
// including defaults, a YAML overlay, and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the goals server.
//
// An empty DatabaseDSN selects the in-memory store, which loses data on restart.
// Empty TLS paths start a plaintext listener.
type Config struct {
	Addr        string        `yaml:"addr"`
	DatabaseDSN string        `yaml:"database_dsn"`
	JWTKey      string        `yaml:"jwt_key"`
	AccessTTL   time.Duration `yaml:"access_ttl"`
	TLSCert     string        `yaml:"tls_cert"`
	TLSKey      string        `yaml:"tls_key"`
	Dev         bool          `yaml:"dev"`

	Limiter LimiterConfig `yaml:"limiter"`
}

// LimiterConfig mirrors limiter.Policy.
type LimiterConfig struct {
	Window   time.Duration `yaml:"window"`
	MaxFails int           `yaml:"max_fails"`
	BlockFor time.Duration `yaml:"block_for"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8443"
	c.DatabaseDSN = ""
	c.JWTKey = ""
	c.AccessTTL = 24 * time.Hour
	c.TLSCert = ""
	c.TLSKey = ""
	c.Dev = false
	c.Limiter = LimiterConfig{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}
}

// Load applies defaults, then the YAML file named by -config (if any), then flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := configPath(args); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.JWTKey == "" {
		return errors.New("missing jwt signing key (-jwt-key)")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("access ttl must be positive, got %s", c.AccessTTL)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("gk-goals-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("config", "", "YAML config file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.DatabaseDSN, "dsn", c.DatabaseDSN, "PostgreSQL DSN (empty: in-memory store)")
	fs.StringVar(&c.JWTKey, "jwt-key", c.JWTKey, "HS256 signing key (required)")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "access token TTL")
	fs.StringVar(&c.TLSCert, "tls-cert", c.TLSCert, "TLS certificate (PEM)")
	fs.StringVar(&c.TLSKey, "tls-key", c.TLSKey, "TLS private key (PEM)")
	fs.BoolVar(&c.Dev, "dev", c.Dev, "enable server reflection (dev only)")
	fs.DurationVar(&c.Limiter.Window, "login-window", c.Limiter.Window, "failed login window")
	fs.IntVar(&c.Limiter.MaxFails, "login-max-fails", c.Limiter.MaxFails, "failed logins before lockout")
	fs.DurationVar(&c.Limiter.BlockFor, "login-block", c.Limiter.BlockFor, "lockout duration")

	return fs.Parse(args)
}

// configPath finds -config/--config without parsing the rest of the flags.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		for _, name := range []string{"-config", "--config"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if len(a) > len(name)+1 && a[:len(name)+1] == name+"=" {
				return a[len(name)+1:]
			}
		}
	}
	return ""
}
