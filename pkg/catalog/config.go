package catalog

import (
	"errors"
	"time"
)

// Define static errors
var (
	ErrShopRequired        = errors.New("catalog shop domain is required")
	ErrAccessTokenRequired = errors.New("catalog access token is required")
)

// Config holds remote catalog API settings.
type Config struct {
	// Shop is the myshopify domain, e.g. "example.myshopify.com"
	Shop string `yaml:"shop"`
	// AccessToken authenticates Admin API calls
	AccessToken string `yaml:"accessToken"`
	// APIVersion selects the Admin API version
	APIVersion string `yaml:"apiVersion" default:"2024-01"`
	// Timeout bounds each request
	Timeout time.Duration `yaml:"timeout" default:"15s"`
	// Debug logs request/response bodies
	Debug bool `yaml:"debug"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Shop == "" {
		return ErrShopRequired
	}

	if c.AccessToken == "" {
		return ErrAccessTokenRequired
	}

	return nil
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = "2024-01"
	}

	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}
