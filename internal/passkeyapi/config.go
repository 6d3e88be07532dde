package passkeyapi

import (
	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.PasskeyAPI.
func NewService(options ...ConfigOption) auth.PasskeyAPI {
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

// WithWebAuthn configures the service with a WebAuthnService.
func WithWebAuthn(w auth.WebAuthnService) ConfigOption {
	return func(s *service) {
		s.webauthn = w
	}
}

// WithRepoManager configures the service with a RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}
