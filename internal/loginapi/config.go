package loginapi

import (
	"time"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
)

// NewService returns a new implementation of auth.LoginAPI.
func NewService(options ...ConfigOption) auth.LoginAPI {
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

// WithRepoManager configures the service with a RepositoryManager.
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

// WithWebAuthn configures the service with a WebAuthnService.
func WithWebAuthn(w auth.WebAuthnService) ConfigOption {
	return func(s *service) {
		s.webauthn = w
	}
}

// WithStrategies configures the verifier every submitted factor
// is dispatched to.
func WithStrategies(strategies auth.AuthenticationStrategy) ConfigOption {
	return func(s *service) {
		s.strategies = strategies
	}
}

// WithMFA configures the service with an MFAService.
func WithMFA(m auth.MFAService) ConfigOption {
	return func(s *service) {
		s.mfa = m
	}
}

// WithMagicLinkURL enables magic link login. The URL must contain
// a single %s verb which is replaced by the login token.
func WithMagicLinkURL(url string) ConfigOption {
	return func(s *service) {
		s.magicLinkURL = url
	}
}

// WithCookieDomain sets the domain token cookies are issued for.
func WithCookieDomain(domain string) ConfigOption {
	return func(s *service) {
		s.cookieDomain = domain
	}
}
