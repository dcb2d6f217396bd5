package storefront

import "errors"

// Default pagination and timeout settings.
const (
	DefaultPageSize       = 50
	DefaultMaxPages       = 200
	DefaultTimeoutSeconds = 30
)

// Config holds the connection settings for the storefront REST API.
type Config struct {
	// BaseURL is the API root, e.g. "https://store.example.com/api/v1"
	BaseURL string
	// APIToken is the bearer token attached to every request
	APIToken string
	// PageSize is the page size used by list endpoints
	PageSize int
	// MaxPages bounds pagination loops against a misbehaving endpoint
	MaxPages int
	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int
}

// Validate checks required settings and applies defaults to the rest.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("storefront: base url is required")
	}
	if c.APIToken == "" {
		return errors.New("storefront: api token is required")
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}
