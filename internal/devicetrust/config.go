package devicetrust

import (
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

const defaultChallengeTTL = time.Second * 60

// NewService returns a new DeviceTrustService.
func NewService(options ...ConfigOption) auth.DeviceTrustService {
	s := service{
		logger:       log.NewNopLogger(),
		challengeTTL: defaultChallengeTTL,
		clock:        time.Now,
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

// WithDB configures the service with a redis DB for challenges.
func WithDB(db redis.UniversalClient) ConfigOption {
	return func(s *service) {
		s.db = db
	}
}

// WithRepoManager configures the service with a RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithTokenService configures the service with a TokenService used
// to mint sessions for trusted devices.
func WithTokenService(tokens auth.TokenService) ConfigOption {
	return func(s *service) {
		s.tokens = tokens
	}
}

// WithChallengeTTL sets how long a device has to sign a challenge.
func WithChallengeTTL(ttl time.Duration) ConfigOption {
	return func(s *service) {
		s.challengeTTL = ttl
	}
}

// WithClock overrides the time source used for trust windows.
func WithClock(clock func() time.Time) ConfigOption {
	return func(s *service) {
		s.clock = clock
	}
}
