// Package config loads process configuration from an optional HCL file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/cms-gateway/pkg/collection"
	"github.com/hashicorp-forge/cms-gateway/pkg/database"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
	"github.com/hashicorp-forge/cms-gateway/pkg/transport"
)

// Environment variables.
const (
	EnvConfigFile  = "CMS_GATEWAY_CONFIG"
	EnvCollections = "CMS_GATEWAY_COLLECTIONS"
	EnvLogLevel    = "LOG_LEVEL"
	EnvPort        = "PORT"
)

// Defaults.
const (
	DefaultListenAddress = ":3000"
	DefaultLogLevel      = "info"
	DefaultTimeout       = "30s"
	DefaultAuditDriver   = database.DriverSQLite
	DefaultAuditDSN      = "cms-gateway.db"
)

// Config contains the gateway configuration.
type Config struct {
	// ListenAddress is the host:port the HTTP server binds to.
	ListenAddress string `hcl:"listen_address,optional"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// Collections is the inline collection allowlist.
	Collections []string `hcl:"collections,optional"`

	// CollectionsManifest is a YAML, HCL or JSON file listing more allowed
	// collections. Relative paths resolve against the config file directory.
	CollectionsManifest string `hcl:"collections_manifest,optional"`

	// StrictProviders requires a display name on every provider.
	StrictProviders bool `hcl:"strict_providers,optional"`

	Backend *Backend `hcl:"backend,block"`
	Audit   *Audit   `hcl:"audit,block"`
}

// Backend configures outbound calls to the Directus providers.
type Backend struct {
	// Timeout is a Go duration string.
	Timeout string `hcl:"timeout,optional"`

	// TLSVerify disables certificate verification when false.
	TLSVerify *bool `hcl:"tls_verify,optional"`
}

// Audit configures the persisted request trail.
type Audit struct {
	Enabled bool   `hcl:"enabled,optional"`
	Driver  string `hcl:"driver,optional"`
	DSN     string `hcl:"dsn,optional"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	tlsVerify := true
	return &Config{
		ListenAddress: DefaultListenAddress,
		LogLevel:      DefaultLogLevel,
		Backend: &Backend{
			Timeout:   DefaultTimeout,
			TLSVerify: &tlsVerify,
		},
		Audit: &Audit{
			Driver: DefaultAuditDriver,
			DSN:    DefaultAuditDSN,
		},
	}
}

// Load builds the configuration: defaults, then the HCL file at path (if
// any), then the environment.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.decodeFile(fs, path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) decodeFile(fs afero.Fs, path string) error {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var fc Config
	if err := hclsimple.Decode(filepath.Base(path), src, nil, &fc); err != nil {
		return fmt.Errorf("error decoding config file: %w", err)
	}

	c.merge(&fc)
	if c.CollectionsManifest != "" && !filepath.IsAbs(c.CollectionsManifest) {
		c.CollectionsManifest = filepath.Join(filepath.Dir(path), c.CollectionsManifest)
	}
	return nil
}

// merge copies every value set in o over c.
func (c *Config) merge(o *Config) {
	if o.ListenAddress != "" {
		c.ListenAddress = o.ListenAddress
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if len(o.Collections) > 0 {
		c.Collections = o.Collections
	}
	if o.CollectionsManifest != "" {
		c.CollectionsManifest = o.CollectionsManifest
	}
	if o.StrictProviders {
		c.StrictProviders = true
	}

	if o.Backend != nil {
		if o.Backend.Timeout != "" {
			c.Backend.Timeout = o.Backend.Timeout
		}
		if o.Backend.TLSVerify != nil {
			c.Backend.TLSVerify = o.Backend.TLSVerify
		}
	}

	if o.Audit != nil {
		c.Audit.Enabled = o.Audit.Enabled
		if o.Audit.Driver != "" {
			c.Audit.Driver = o.Audit.Driver
		}
		if o.Audit.DSN != "" {
			c.Audit.DSN = o.Audit.DSN
		}
	}
}

// ApplyEnv overrides values from the environment through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPort); ok && v != "" {
		host, _, err := net.SplitHostPort(c.ListenAddress)
		if err != nil {
			host = ""
		}
		c.ListenAddress = net.JoinHostPort(host, v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvCollections); ok && v != "" {
		c.Collections = splitList(v)
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ListenAddress == "" {
		result = multierror.Append(result, errors.New("listen_address is required"))
	} else if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		result = multierror.Append(result, fmt.Errorf("listen_address is invalid: %w", err))
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("log_level %q is invalid", c.LogLevel))
	}

	if _, err := c.BackendTimeout(); err != nil {
		result = multierror.Append(result, err)
	}

	if len(c.Collections) == 0 && c.CollectionsManifest == "" {
		result = multierror.Append(result,
			errors.New("at least one collection must be allowed (collections or collections_manifest)"))
	}
	for i, name := range c.Collections {
		if strings.TrimSpace(name) == "" {
			result = multierror.Append(result, fmt.Errorf("collections entry %d is empty", i))
		}
	}

	if c.Audit.Enabled {
		switch c.Audit.Driver {
		case database.DriverSQLite, database.DriverPostgres:
		default:
			result = multierror.Append(result,
				fmt.Errorf("audit driver %q is not supported (sqlite or postgres)", c.Audit.Driver))
		}
		if c.Audit.DSN == "" {
			result = multierror.Append(result, errors.New("audit dsn is required when audit is enabled"))
		}
	}

	return result.ErrorOrNil()
}

// BackendTimeout parses the outbound timeout.
func (c *Config) BackendTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("backend timeout %q is invalid: %w", c.Backend.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("backend timeout must be positive, got: %s", d)
	}
	return d, nil
}

// TransportConfig returns the fetcher settings.
func (c *Config) TransportConfig() (*transport.Config, error) {
	timeout, err := c.BackendTimeout()
	if err != nil {
		return nil, err
	}
	cfg := transport.DefaultConfig()
	cfg.Timeout = timeout
	if c.Backend.TLSVerify != nil {
		cfg.TLSVerify = c.Backend.TLSVerify
	}
	return cfg, nil
}

// DatabaseConfig returns the audit database settings.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Driver: c.Audit.Driver,
		DSN:    c.Audit.DSN,
	}
}

// ProviderOptions returns the registry load options.
func (c *Config) ProviderOptions() provider.LoadOptions {
	return provider.LoadOptions{RequireName: c.StrictProviders}
}

// Allowlist builds the collection allowlist from the inline list and the
// manifest, if one is configured.
func (c *Config) Allowlist(fs afero.Fs) (*collection.Allowlist, error) {
	names := append([]string{}, c.Collections...)

	if c.CollectionsManifest != "" {
		m, err := collection.LoadManifest(fs, c.CollectionsManifest)
		if err != nil {
			return nil, err
		}
		names = append(names, m.Names()...)
	}

	a := collection.New(names...)
	if a.Len() == 0 {
		return nil, errors.New("collection allowlist is empty")
	}
	return a, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
