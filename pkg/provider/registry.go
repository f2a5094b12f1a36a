package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadOptions tunes provider validation.
type LoadOptions struct {
	// RequireName rejects entries without a display name.
	RequireName bool
}

// Registry maps provider IDs to their configuration. It is built once and
// only read afterwards, so it is safe for concurrent use without locking.
type Registry struct {
	providers map[string]Config
	order     []string
}

// LoadFromEnv loads the registry from the API_PROVIDERS environment variable.
func LoadFromEnv(opts LoadOptions) (*Registry, error) {
	raw, ok := os.LookupEnv(EnvVar)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, &ConfigError{Index: -1, Err: ErrEnvNotSet}
	}
	return Load([]byte(raw), opts)
}

// Load parses a JSON array of provider objects and validates every entry.
// Any invalid entry or duplicate identifier fails the whole load.
func Load(data []byte, opts LoadOptions) (*Registry, error) {
	var raws []rawConfig
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &raws); err != nil {
		return nil, &ConfigError{
			Index: -1,
			Err:   fmt.Errorf("failed to parse %s as JSON: %w", EnvVar, err),
		}
	}

	if len(raws) == 0 {
		return nil, &ConfigError{Index: -1, Err: ErrNoProviders}
	}

	for i, raw := range raws {
		if err := raw.validate(opts.RequireName); err != nil {
			return nil, &ConfigError{Index: i, ProviderID: raw.ProviderID, Err: err}
		}
	}

	configs := make([]Config, len(raws))
	for i, raw := range raws {
		configs[i] = raw.toConfig()
	}
	return newRegistry(configs)
}

// newRegistry indexes already validated configs, rejecting duplicate IDs.
func newRegistry(configs []Config) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Config, len(configs)),
		order:     make([]string, 0, len(configs)),
	}

	for i, cfg := range configs {
		if _, exists := r.providers[cfg.ID]; exists {
			return nil, &ConfigError{Index: i, ProviderID: cfg.ID, Err: ErrDuplicateProvider}
		}
		r.providers[cfg.ID] = cfg
		r.order = append(r.order, cfg.ID)
	}

	return r, nil
}

// Lookup returns the provider with the given ID. A miss is a normal outcome.
func (r *Registry) Lookup(id string) (Config, bool) {
	cfg, ok := r.providers[id]
	return cfg, ok
}

// IDs returns provider IDs in configuration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All returns every provider in configuration order.
func (r *Registry) All() []Config {
	configs := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		configs = append(configs, r.providers[id])
	}
	return configs
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.order)
}
