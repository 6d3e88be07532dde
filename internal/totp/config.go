package totp

import (
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/crypto"
)

const (
	defaultIssuer          = "authcore"
	defaultPendingTTL      = time.Minute * 10
	defaultBackupCodes     = 10
	defaultBackupCodeLen   = 10
	defaultBackupCodeCost  = 10
	defaultQRCodeDimension = 200
)

// NewService returns a new TOTPService.
func NewService(options ...ConfigOption) auth.TOTPService {
	s := service{
		logger:         log.NewNopLogger(),
		issuer:         defaultIssuer,
		pendingTTL:     defaultPendingTTL,
		backupCodes:    defaultBackupCodes,
		backupCodeLen:  defaultBackupCodeLen,
		backupCodeCost: defaultBackupCodeCost,
		clock:          time.Now,
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

// WithDB configures the service with a redis DB for pending
// enrollments and replay tracking.
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

// WithSealer configures the service with a Sealer to encrypt
// TOTP seeds at rest.
func WithSealer(sealer *crypto.Sealer) ConfigOption {
	return func(s *service) {
		s.sealer = sealer
	}
}

// WithIssuer sets the issuer shown in authenticator apps.
func WithIssuer(issuer string) ConfigOption {
	return func(s *service) {
		s.issuer = issuer
	}
}

// WithBackupCodeCost sets the bcrypt cost of backup code hashes.
func WithBackupCodeCost(cost int) ConfigOption {
	return func(s *service) {
		s.backupCodeCost = cost
	}
}

// WithClock overrides the time source used to derive TOTP steps.
func WithClock(clock func() time.Time) ConfigOption {
	return func(s *service) {
		s.clock = clock
	}
}
