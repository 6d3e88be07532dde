package token

import (
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

const (
	defaultTokenExpiry        = time.Minute * 30
	defaultRefreshTokenExpiry = time.Hour * 24 * 30
	defaultIssuer             = "authcore"
)

// NewService returns a new TokenService.
func NewService(options ...ConfigOption) auth.TokenService {
	s := service{
		logger:             log.NewNopLogger(),
		tokenExpiry:        defaultTokenExpiry,
		refreshTokenExpiry: defaultRefreshTokenExpiry,
		issuer:             defaultIssuer,
		clock:              time.Now,
	}

	s.entropy = entropy.New()

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

// WithDB configures the service with a redis DB.
func WithDB(db redis.UniversalClient) ConfigOption {
	return func(s *service) {
		s.db = db
	}
}

// WithTokenExpiry defines how long access tokens are valid for.
// The default value is 30 minutes.
func WithTokenExpiry(expiresIn time.Duration) ConfigOption {
	return func(s *service) {
		s.tokenExpiry = expiresIn
	}
}

// WithRefreshTokenExpiry defines how long a refresh token is valid for.
// The default value is 30 days.
func WithRefreshTokenExpiry(expiresIn time.Duration) ConfigOption {
	return func(s *service) {
		s.refreshTokenExpiry = expiresIn
	}
}

// WithSecret configures the service with a secret value
// for signing functions.
func WithSecret(secret string) ConfigOption {
	return func(s *service) {
		s.secret = []byte(secret)
	}
}

// WithIssuer is the issuer identity for the JWT
// token.
func WithIssuer(issuer string) ConfigOption {
	return func(s *service) {
		s.issuer = issuer
	}
}

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithClock replaces the time source used for issuing and
// validating tokens.
func WithClock(clock func() time.Time) ConfigOption {
	return func(s *service) {
		s.clock = clock
	}
}
