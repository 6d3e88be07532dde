// Package strategy verifies individual authentication factors.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
)

// Set dispatches a factor payload to the strategy registered
// for its type.
type Set struct {
	logger     log.Logger
	strategies map[auth.FactorType]auth.AuthenticationStrategy
	repoMngr   auth.RepositoryManager
	password   auth.PasswordService
	webauthn   auth.WebAuthnService
	totp       auth.TOTPService
	otp        auth.OTPService
	devices    auth.DeviceTrustService

	// db counts failed attempts per user and factor. Lockout is
	// disabled when it is nil.
	db          redis.UniversalClient
	maxFailures int
	lockout     time.Duration
}

// Register adds or replaces the strategy for a factor type.
func (s *Set) Register(factor auth.FactorType, strategy auth.AuthenticationStrategy) {
	s.strategies[factor] = strategy
}

// Supports reports whether a factor type can be verified.
func (s *Set) Supports(factor auth.FactorType) bool {
	_, ok := s.strategies[factor]
	return ok
}

// Verify verifies a single factor for a User.
func (s *Set) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	if payload == nil {
		return nil, auth.ErrBadRequest("factor payload is required")
	}

	strategy, ok := s.strategies[payload.Type]
	if !ok {
		return nil, auth.ErrBadRequest(
			fmt.Sprintf("unsupported authentication method %q", payload.Type),
		)
	}

	counted := s.db != nil && userID != ""
	if counted {
		ok, err := s.reserveAttempt(ctx, userID, payload.Type)
		if err != nil {
			return nil, err
		}
		if !ok {
			level.Warn(s.logger).Log(
				"message", "factor locked after repeated failures",
				"security_event", "factor_lockout",
				"factor", payload.Type,
				"user_id", userID,
				"source", "strategy.Verify",
			)
			return &auth.FactorResult{UserID: userID, Reason: auth.ReasonExhausted}, nil
		}
	}

	res, err := strategy.Verify(ctx, userID, payload)
	if err != nil {
		level.Error(s.logger).Log(
			"message", "factor verification failed",
			"factor", payload.Type,
			"user_id", userID,
			"error", err,
			"source", "strategy.Verify",
		)
		return nil, err
	}

	if counted && res.Success {
		if err = s.clearAttempts(ctx, userID, payload.Type); err != nil {
			return nil, err
		}
	}

	switch {
	case res.Success:
		level.Info(s.logger).Log(
			"message", "factor verified",
			"factor", res.AMR,
			"user_id", res.UserID,
			"source", "strategy.Verify",
		)
	case res.Reason == auth.ReasonReplayDetected:
		level.Warn(s.logger).Log(
			"message", "factor replay rejected",
			"security_event", "factor_replay",
			"factor", payload.Type,
			"user_id", userID,
			"source", "strategy.Verify",
		)
	default:
		level.Info(s.logger).Log(
			"message", "factor rejected",
			"factor", payload.Type,
			"user_id", userID,
			"reason", res.Reason,
			"source", "strategy.Verify",
		)
	}

	return res, nil
}
