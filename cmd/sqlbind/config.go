package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlbind/compiler/resolve"
	"github.com/syssam/sqlbind/dialect"
)

// Config is the project file consumed by every subcommand. Inputs are
// glob patterns of statement documents; Out is where the resolved
// bindings land.
type Config struct {
	Dialect   string   `yaml:"dialect,omitempty"`
	Inputs    []string `yaml:"inputs"`
	Out       string   `yaml:"out,omitempty"`
	CacheDir  string   `yaml:"cache_dir,omitempty"`
	TableScan *bool    `yaml:"table_scan,omitempty"`
}

// LoadConfig reads and validates a project config. The raw bytes come
// back alongside, as they are part of the run's fingerprint.
func LoadConfig(path string) (*Config, []byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := parseConfig(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, buf, nil
}

func parseConfig(buf []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("config declares no inputs")
	}
	if cfg.Dialect != "" && !dialect.Valid(cfg.Dialect) {
		return nil, fmt.Errorf("unsupported dialect %q, use one of %v", cfg.Dialect, dialect.All)
	}
	if cfg.Out == "" {
		cfg.Out = "bindings.json"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".sqlbind"
	}
	return cfg, nil
}

// Options maps the config onto resolver options. Unset keys keep the
// resolver defaults.
func (c *Config) Options() []resolve.Option {
	var opts []resolve.Option
	if c.Dialect != "" {
		opts = append(opts, resolve.WithDialect(c.Dialect))
	}
	if c.TableScan != nil {
		opts = append(opts, resolve.WithTableScan(*c.TableScan))
	}
	return opts
}
