package webauthn

import (
	"time"

	"github.com/go-kit/log"
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

const defaultSessionTTL = time.Minute * 5

// NewService returns a new WebAuthn validator.
func NewService(options ...ConfigOption) (auth.WebAuthnService, error) {
	s := WebAuthn{
		logger:     log.NewNopLogger(),
		sessionTTL: defaultSessionTTL,
		clock:      time.Now,
	}

	for _, opt := range options {
		opt(&s)
	}

	lib, err := webauthnLib.New(&webauthnLib.Config{
		RPDisplayName: s.displayName,
		RPID:          s.domain,
		RPOrigins:     s.requestOrigins,
	})
	if err != nil {
		return nil, err
	}

	s.lib = lib

	return &s, nil
}

// ConfigOption configures the validator.
type ConfigOption func(*WebAuthn)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *WebAuthn) {
		s.logger = l
	}
}

// WithDB configures the service with a redis DB
func WithDB(db redis.UniversalClient) ConfigOption {
	return func(s *WebAuthn) {
		s.db = db
	}
}

// WithDisplayName configures the validator with a display name.
func WithDisplayName(name string) ConfigOption {
	return func(s *WebAuthn) {
		s.displayName = name
	}
}

// WithDomain configures the validator with a domain name.
func WithDomain(domain string) ConfigOption {
	return func(s *WebAuthn) {
		s.domain = domain
	}
}

// WithRequestOrigin adds an accepted origin for ceremonies.
func WithRequestOrigin(origin string) ConfigOption {
	return func(s *WebAuthn) {
		s.requestOrigins = append(s.requestOrigins, origin)
	}
}

// WithSessionTTL sets how long a ceremony may take to complete.
func WithSessionTTL(ttl time.Duration) ConfigOption {
	return func(s *WebAuthn) {
		s.sessionTTL = ttl
	}
}

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *WebAuthn) {
		s.repoMngr = repoMngr
	}
}
