package odoo

import "errors"

// Config holds the connection settings for the ERP's XML-RPC endpoint.
type Config struct {
	// URL is the ERP base URL, e.g. "https://erp.example.com"
	URL string
	// Database is the ERP database name
	Database string
	// Username is the RPC login
	Username string
	// Password is the RPC password or API key
	Password string
	// CompanyID scopes reads to one company, 0 for all
	CompanyID int64
	// PriceListID selects the price list used for variant prices, 0 for
	// the ERP default
	PriceListID int64
}

// Validate checks that the required connection settings are present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("odoo: url is required")
	}
	if c.Database == "" {
		return errors.New("odoo: database is required")
	}
	if c.Username == "" {
		return errors.New("odoo: username is required")
	}
	if c.Password == "" {
		return errors.New("odoo: password is required")
	}
	return nil
}
