package tokenapi

import (
	"time"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.TokenAPI
func NewService(options ...ConfigOption) auth.TokenAPI {
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

// WithTokenService configures the service with a TokenService.
func WithTokenService(tokenSvc auth.TokenService) ConfigOption {
	return func(s *service) {
		s.token = tokenSvc
	}
}

// WithCookieDomain sets the domain token cookies are issued for.
func WithCookieDomain(domain string) ConfigOption {
	return func(s *service) {
		s.cookieDomain = domain
	}
}
