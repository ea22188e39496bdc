// Package config builds the CLI client configuration from defaults,
// an optional YAML file and global command-line flags.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheMemory selects the process-local goal cache instead of SQLite.
const CacheMemory = "memory"

// Config holds runtime settings for the goals CLI.
type Config struct {
	ServerAddr   string        `yaml:"server_addr"`
	CACert       string        `yaml:"ca_cert"`
	Insecure     bool          `yaml:"insecure"`
	Plaintext    bool          `yaml:"plaintext"`
	ConfigDir    string        `yaml:"config_dir"`
	CachePath    string        `yaml:"cache_path"`
	QuoteURL     string        `yaml:"quote_url"`
	QuoteTimeout time.Duration `yaml:"quote_timeout"`
	SyncTimeout  time.Duration `yaml:"sync_timeout"`
	RPCTimeout   time.Duration `yaml:"rpc_timeout"`
	Upcoming     int           `yaml:"upcoming"`
	Verbose      bool          `yaml:"verbose"`
}

// DefaultDir is $XDG_CONFIG_HOME/goalkeeper or ~/.config/goalkeeper.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "goalkeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "goalkeeper")
}

// LoadDefaults populates Config with defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "localhost:8443"
	c.CACert = ""
	c.Insecure = false
	c.Plaintext = false
	c.ConfigDir = DefaultDir()
	c.CachePath = ""
	c.QuoteURL = "https://zenquotes.io/api/random"
	c.QuoteTimeout = 3 * time.Second
	c.SyncTimeout = 10 * time.Second
	c.RPCTimeout = 30 * time.Second
	c.Upcoming = 3
	c.Verbose = false
}

// CacheFile resolves the SQLite cache location. It returns CacheMemory unchanged.
func (c *Config) CacheFile() string {
	switch c.CachePath {
	case "":
		return filepath.Join(c.ConfigDir, "cache.db")
	default:
		return c.CachePath
	}
}

// Load applies defaults, the YAML file from -config (or config.yaml in the
// config dir when present), then global flags. It returns the remaining
// arguments, starting with the subcommand.
func Load(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path := configPath(args)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.ConfigDir, "config.yaml")
	}
	if err := cfg.loadYAML(path, explicit); err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet("gk-goals", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("config", "", "YAML config file")
	fs.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	fs.StringVar(&cfg.CACert, "cacert", cfg.CACert, "CA cert (PEM)")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "skip cert verify (dev)")
	fs.BoolVar(&cfg.Plaintext, "plaintext", cfg.Plaintext, "no TLS (dev server without certificates)")
	fs.StringVar(&cfg.CachePath, "cache", cfg.CachePath, `goal cache file, or "memory"`)
	fs.DurationVar(&cfg.SyncTimeout, "sync-timeout", cfg.SyncTimeout, "timeout of one background remote write")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if cfg.Upcoming <= 0 {
		cfg.Upcoming = 3
	}
	return cfg, fs.Args(), nil
}

func (c *Config) loadYAML(path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// valueFlags are the global flags that consume the next argument.
var valueFlags = map[string]bool{"addr": true, "cacert": true, "cache": true, "sync-timeout": true}

// configPath finds the global -config flag, stopping at the subcommand.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if valueFlags[name] {
			i++
		}
	}
	return ""
}
