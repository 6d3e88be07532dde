package strategy

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

func lockoutKey(userID string, factor auth.FactorType) string {
	return fmt.Sprintf("lockout:%s:%s", userID, factor)
}

// reserveAttempt counts an attempt against a user's factor before it
// is verified. Concurrent attempts share one counter, so no more than
// maxFailures verifications run inside a lockout window.
func (s *Set) reserveAttempt(ctx context.Context, userID string, factor auth.FactorType) (bool, error) {
	key := lockoutKey(userID, factor)

	var incr *redis.IntCmd
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, s.lockout)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(auth.ErrInfrastructure("lockout counter unavailable"), err.Error())
	}

	return incr.Val() <= int64(s.maxFailures), nil
}

// clearAttempts resets the counter after a successful verification.
func (s *Set) clearAttempts(ctx context.Context, userID string, factor auth.FactorType) error {
	if err := s.db.Del(ctx, lockoutKey(userID, factor)).Err(); err != nil {
		return errors.Wrap(auth.ErrInfrastructure("lockout counter unavailable"), err.Error())
	}
	return nil
}
