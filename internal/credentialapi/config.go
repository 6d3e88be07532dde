package credentialapi

import (
	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.CredentialAPI.
func NewService(options ...ConfigOption) auth.CredentialAPI {
	s := service{
		logger: log.NewNopLogger(),
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

// WithCredentialService configures the service with a CredentialService.
func WithCredentialService(c auth.CredentialService) ConfigOption {
	return func(s *service) {
		s.credentials = c
	}
}

// WithMFA configures the service with an MFAService.
func WithMFA(m auth.MFAService) ConfigOption {
	return func(s *service) {
		s.mfa = m
	}
}
