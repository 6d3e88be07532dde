package trustapi

import (
	"time"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.DeviceTrustAPI.
func NewService(options ...ConfigOption) auth.DeviceTrustAPI {
	s := service{
		logger: log.NewNopLogger(),
		clock:  time.Now,
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithDeviceTrust configures the service with a DeviceTrustService.
func WithDeviceTrust(d auth.DeviceTrustService) ConfigOption {
	return func(s *service) {
		s.trust = d
	}
}

// WithCookieDomain sets the domain of token cookies set after
// silent authentication.
func WithCookieDomain(domain string) ConfigOption {
	return func(s *service) {
		s.cookieDomain = domain
	}
}
