package twilio

import (
	"net/http"
	"strings"
	"time"

	auth "github.com/strategiz/authcore"
)

const (
	// defaultBaseURL sets the default API version for all Twilio requests.
	defaultBaseURL = "https://api.twilio.com/2010-04-01"
	// defaultTimeout bounds a single API request.
	defaultTimeout = 10 * time.Second
)

// Config holds configuration options for Twilio.
type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	SMSSender  string
}

// ConfigOption configures the service.
type ConfigOption func(*client)

// NewClient returns a Twilio client.
func NewClient(options ...ConfigOption) auth.SMSer {
	c := client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range options {
		opt(&c)
	}

	return &c
}

// WithConfig configures the service with a Config.
func WithConfig(config Config) ConfigOption {
	return func(c *client) {
		c.accountSID = config.AccountSID
		c.authToken = config.AuthToken
		c.smsSender = config.SMSSender
		if config.BaseURL != "" {
			c.baseURL = strings.TrimSuffix(config.BaseURL, "/")
		}
	}
}

// WithDefaults configures a Twilio client with a user's
// account SID and authentication token and configures all other
// values to default.
func WithDefaults(accountSID, authToken, smsSender string) ConfigOption {
	return WithConfig(Config{
		AccountSID: accountSID,
		AuthToken:  authToken,
		SMSSender:  smsSender,
	})
}

// WithHTTPClient configures the HTTP client used for API requests.
func WithHTTPClient(h *http.Client) ConfigOption {
	return func(c *client) {
		c.httpClient = h
	}
}
