package otp

import (
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

const (
	defaultLength      = 6
	defaultOpaqueBytes = 32
	defaultTTL         = time.Minute * 10
	defaultMaxAttempts = 3
	defaultKeyPrefix   = "otp"
)

// NewOTP returns a new OTP issuer.
func NewOTP(options ...ConfigOption) auth.OTPService {
	s := service{
		logger:      log.NewNopLogger(),
		codeLength:  defaultLength,
		ttl:         defaultTTL,
		maxAttempts: defaultMaxAttempts,
		keyPrefix:   defaultKeyPrefix,
		clock:       time.Now,
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

// WithDB configures the service with a redis DB.
func WithDB(db redis.UniversalClient) ConfigOption {
	return func(s *service) {
		s.db = db
	}
}

// WithMessaging configures the service with a delivery channel
// for generated codes.
func WithMessaging(m auth.MessagingService) ConfigOption {
	return func(s *service) {
		s.messaging = m
	}
}

// WithCodeLength configures the default length of numeric codes.
func WithCodeLength(length int) ConfigOption {
	return func(s *service) {
		s.codeLength = length
	}
}

// WithTTL configures how long a code remains valid when a
// request does not set its own TTL.
func WithTTL(ttl time.Duration) ConfigOption {
	return func(s *service) {
		s.ttl = ttl
	}
}

// WithMaxAttempts configures the default number of verification
// attempts allowed per code.
func WithMaxAttempts(n int) ConfigOption {
	return func(s *service) {
		s.maxAttempts = n
	}
}

// WithCooldown configures the minimum interval between two codes
// issued to the same recipient for the same purpose.
func WithCooldown(d time.Duration) ConfigOption {
	return func(s *service) {
		s.cooldown = d
	}
}

// WithDevMode logs generated codes at debug level.
func WithDevMode(enabled bool) ConfigOption {
	return func(s *service) {
		s.devMode = enabled
	}
}

// WithKeyPrefix namespaces the redis keys used by the service.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(s *service) {
		s.keyPrefix = prefix
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(clock func() time.Time) ConfigOption {
	return func(s *service) {
		s.clock = clock
	}
}
