package signupapi

import (
	"time"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.SignUpAPI.
func NewService(options ...ConfigOption) auth.SignUpAPI {
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

// WithTokenService configures the service with a new TokenService.
func WithTokenService(tokenSvc auth.TokenService) ConfigOption {
	return func(s *service) {
		s.token = tokenSvc
	}
}

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithOTP configures the service with an OTP issuer.
func WithOTP(o auth.OTPService) ConfigOption {
	return func(s *service) {
		s.otp = o
	}
}

// WithPassword configures the service with a password validator.
func WithPassword(p auth.PasswordService) ConfigOption {
	return func(s *service) {
		s.password = p
	}
}

// WithCookieDomain sets the domain token cookies are issued for.
func WithCookieDomain(domain string) ConfigOption {
	return func(s *service) {
		s.cookieDomain = domain
	}
}
