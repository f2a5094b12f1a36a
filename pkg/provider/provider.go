// Package provider holds the tenant registry: one Config per backend content
// store, keyed by provider ID and validated once at startup.
package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EnvVar is the environment variable holding the provider JSON array.
const EnvVar = "API_PROVIDERS"

var (
	// ErrNoProviders is returned when the configuration holds no providers.
	ErrNoProviders = errors.New("API_PROVIDERS must be a non-empty array of providers")

	// ErrDuplicateProvider is returned when two entries share an identifier.
	ErrDuplicateProvider = errors.New("all provider IDs must be unique")

	// ErrEnvNotSet is returned when API_PROVIDERS is not defined.
	ErrEnvNotSet = errors.New("API_PROVIDERS environment variable is not defined")
)

// Config is one tenant's backend configuration. It is immutable once loaded.
type Config struct {
	// ID is the unique identifier callers use to select the provider.
	ID string `json:"providerId"`

	// Name is the display name.
	Name string `json:"name"`

	// Endpoint is the absolute base URL of the backend, without a trailing
	// slash.
	Endpoint string `json:"endpoint"`

	// Token is the bearer token sent to the backend.
	Token string `json:"-"` // Never marshal the token
}

// String renders the config without its token so it is safe to log.
func (c Config) String() string {
	return fmt.Sprintf("provider{id=%s name=%q endpoint=%s}", c.ID, c.Name, c.Endpoint)
}

// rawConfig is the wire shape of one API_PROVIDERS entry.
type rawConfig struct {
	ProviderID string `json:"providerId"`
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	Token      string `json:"token"`
}

func (r rawConfig) validate(requireName bool) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProviderID, validation.Required),
		validation.Field(&r.Endpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Name, validation.When(requireName, validation.Required)),
	)
}

func (r rawConfig) toConfig() Config {
	return Config{
		ID:       r.ProviderID,
		Name:     r.Name,
		Endpoint: strings.TrimRight(r.Endpoint, "/"),
		Token:    r.Token,
	}
}

// absoluteURL is an ozzo rule accepting only absolute http(s) URLs.
func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("must be a valid absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme, got: %s", u.Scheme)
	}
	return nil
}

// ConfigError describes why the provider configuration could not be loaded.
// Index is -1 when the problem is not tied to a single entry.
type ConfigError struct {
	Index      int
	ProviderID string
	Err        error
}

func (e *ConfigError) Error() string {
	switch {
	case e.ProviderID != "":
		return fmt.Sprintf("provider %s: %v", e.ProviderID, e.Err)
	case e.Index >= 0:
		return fmt.Sprintf("provider at index %d: %v", e.Index, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
