package strategy

import (
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

// NewSet returns a strategy set with a strategy registered for
// every factor whose backing service is configured.
func NewSet(options ...ConfigOption) *Set {
	s := Set{
		logger:      log.NewNopLogger(),
		strategies:  map[auth.FactorType]auth.AuthenticationStrategy{},
		maxFailures: 5,
		lockout:     time.Minute * 15,
	}

	for _, opt := range options {
		opt(&s)
	}

	if s.repoMngr != nil && s.password != nil {
		s.Register(auth.FactorPassword, &Password{repoMngr: s.repoMngr, password: s.password})
	}
	if s.repoMngr != nil && s.webauthn != nil {
		s.Register(auth.FactorPasskey, &Passkey{repoMngr: s.repoMngr, webauthn: s.webauthn})
	}
	if s.totp != nil {
		s.Register(auth.FactorTOTP, &TOTP{totp: s.totp})
	}
	if s.repoMngr != nil && s.otp != nil {
		s.Register(auth.FactorSMS, NewOTP(auth.FactorSMS, s.repoMngr, s.otp))
		s.Register(auth.FactorEmailOTP, NewOTP(auth.FactorEmailOTP, s.repoMngr, s.otp))
		s.Register(auth.FactorMagicLink, NewOTP(auth.FactorMagicLink, s.repoMngr, s.otp))
	}
	if s.devices != nil {
		s.Register(auth.FactorDeviceTrust, &DeviceTrust{devices: s.devices})
	}

	return &s
}

// ConfigOption configures the set.
type ConfigOption func(*Set)

// WithLogger configures the set with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *Set) {
		s.logger = l
	}
}

// WithRepoManager configures the set with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *Set) {
		s.repoMngr = repoMngr
	}
}

// WithPassword enables password verification.
func WithPassword(p auth.PasswordService) ConfigOption {
	return func(s *Set) {
		s.password = p
	}
}

// WithWebAuthn enables passkey verification.
func WithWebAuthn(w auth.WebAuthnService) ConfigOption {
	return func(s *Set) {
		s.webauthn = w
	}
}

// WithTOTP enables TOTP and backup code verification.
func WithTOTP(t auth.TOTPService) ConfigOption {
	return func(s *Set) {
		s.totp = t
	}
}

// WithOTP enables SMS, email and magic link verification.
func WithOTP(o auth.OTPService) ConfigOption {
	return func(s *Set) {
		s.otp = o
	}
}

// WithDeviceTrust enables device challenge verification.
func WithDeviceTrust(d auth.DeviceTrustService) ConfigOption {
	return func(s *Set) {
		s.devices = d
	}
}

// WithDB enables per user lockout backed by Redis.
func WithDB(db redis.UniversalClient) ConfigOption {
	return func(s *Set) {
		s.db = db
	}
}

// WithMaxFailures sets how many attempts a factor allows inside a
// lockout window without a success.
func WithMaxFailures(n int) ConfigOption {
	return func(s *Set) {
		if n > 0 {
			s.maxFailures = n
		}
	}
}

// WithLockout sets how long failed attempts are remembered.
func WithLockout(d time.Duration) ConfigOption {
	return func(s *Set) {
		if d > 0 {
			s.lockout = d
		}
	}
}
