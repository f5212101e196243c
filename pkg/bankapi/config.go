// Package bankapi provides a Go client for the two remote services behind the
// banking app: the authentication service and the banking/groups service.
//
// The package has two layers. Client.Send is the transport adapter: it issues
// one JSON request against one of the two base URLs and reports non-2xx
// answers as ordinary responses. The gateway methods (Login, ViewAccount,
// Transfer, ...) translate one typed call into one Send and classify failures
// as *model.Error. Neither layer holds session state.
package bankapi

import "time"

// Default service URLs for a local development deployment.
const (
	DefaultAuthURL = "http://localhost:8083"
	DefaultBankURL = "http://localhost:8084"
)

// Config holds all configuration for the API client.
type Config struct {
	// AuthURL is the base URL of the authentication service.
	AuthURL string

	// BankURL is the base URL of the banking/groups service.
	BankURL string

	// Timeout is the HTTP client timeout for each request. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the local development URLs and no timeout.
func DefaultConfig() Config {
	return Config{
		AuthURL: DefaultAuthURL,
		BankURL: DefaultBankURL,
	}
}

// WithURLs returns a copy of the config with the given base URLs.
func (c Config) WithURLs(authURL, bankURL string) Config {
	c.AuthURL = authURL
	c.BankURL = bankURL
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
