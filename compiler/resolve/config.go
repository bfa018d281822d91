package resolve

import (
	"errors"

	"github.com/syssam/sqlbind/dialect"
)

// Config holds the resolver configuration.
type Config struct {
	// Dialect is the SQL dialect used for column type mapping.
	// Defaults to sqlite.
	Dialect string

	// TableScan enables the whole-schema scan for fields that carry no
	// source alias. The scan is best-effort and takes the first table
	// declaring a matching column, in declaration order. Enabled by
	// default; disable it to keep such fields unresolved.
	TableScan bool
}

// Option configures the resolver.
type Option func(*Config) error

// WithDialect sets the SQL dialect used for column type mapping.
// Supported dialects: "mysql", "sqlite", "postgres".
func WithDialect(d string) Option {
	return func(c *Config) error {
		if !dialect.Valid(d) {
			return NewConfigError("Dialect", d, "unsupported dialect; use mysql, sqlite, or postgres")
		}
		c.Dialect = d
		return nil
	}
}

// WithTableScan toggles the whole-schema scan for fields without alias
// information. Disabling it leaves such fields unresolved instead of
// matching them against the first declaring table.
func WithTableScan(enabled bool) Option {
	return func(c *Config) error {
		c.TableScan = enabled
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Dialect:   dialect.SQLite,
		TableScan: true,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
