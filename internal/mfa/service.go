// Package mfa manages per user MFA enforcement and step-up checks.
package mfa

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// mfaTypes are the credentials that count as a second factor.
var mfaTypes = map[auth.CredentialType]bool{
	auth.CredentialPasskey: true,
	auth.CredentialTOTP:    true,
	auth.CredentialSMS:     true,
}

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
}

// CheckStepUp reports whether a session at acr must verify another
// factor before reaching the user's enforced minimum.
func (s *service) CheckStepUp(ctx context.Context, userID string, acr auth.ACR) (*auth.StepUpCheck, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.MFAEnforced {
		return &auth.StepUpCheck{}, nil
	}

	current := acr
	if current.Level() == 0 {
		current = auth.ACRSingleFactor
	}

	minimum := minimumACR(user)
	if current.Satisfies(minimum) {
		return &auth.StepUpCheck{}, nil
	}

	methods, err := s.AvailableMethods(ctx, userID)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "step-up required",
		"user_id", userID,
		"acr", acr,
		"minimum_acr", minimum,
		"source", "mfa.CheckStepUp",
	)

	return &auth.StepUpCheck{
		Required:         true,
		MinimumACR:       minimum,
		AvailableMethods: methods,
	}, nil
}

// AvailableMethods lists a User's active second factors.
func (s *service) AvailableMethods(ctx context.Context, userID string) ([]*auth.Credential, error) {
	creds, err := s.repoMngr.Credential().ByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve credentials")
	}

	methods := []*auth.Credential{}
	for _, c := range creds {
		if mfaTypes[c.Type] && c.IsActive() {
			methods = append(methods, c)
		}
	}

	return methods, nil
}

// Settings summarizes a User's MFA enforcement.
func (s *service) Settings(ctx context.Context, userID string) (*auth.MFASettings, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	methods, err := s.AvailableMethods(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &auth.MFASettings{
		Enforced:         user.MFAEnforced,
		MinimumACR:       minimumACR(user),
		CanEnable:        len(methods) > 0,
		AvailableMethods: methods,
	}, nil
}

// SetEnforcement turns MFA enforcement on or off. Enforcement
// cannot be enabled without a second factor to satisfy it.
func (s *service) SetEnforcement(ctx context.Context, userID string, enforced bool) (*auth.MFASettings, error) {
	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		user, err := tx.User().GetForUpdate(ctx, userID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound("user not found")
		}
		if err != nil {
			return nil, err
		}

		if enforced {
			creds, err := tx.Credential().ByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !hasMFAMethod(creds) {
				return nil, auth.ErrBadRequest(
					"set up a passkey, authenticator app or phone before enforcing MFA",
				)
			}
		}

		user.MFAEnforced = enforced
		user.MinimumACR = minimumACR(user)
		return user, tx.User().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "mfa enforcement updated",
		"user_id", userID,
		"enforced", enforced,
		"source", "mfa.SetEnforcement",
	)

	return s.Settings(ctx, userID)
}

// OnMethodRemoved disables enforcement once a User has no second
// factor left to satisfy it.
func (s *service) OnMethodRemoved(ctx context.Context, userID string) error {
	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}

	disabled, err := tx.WithAtomic(func() (interface{}, error) {
		user, err := tx.User().GetForUpdate(ctx, userID)
		if err != nil {
			return false, err
		}
		if !user.MFAEnforced {
			return false, nil
		}

		creds, err := tx.Credential().ByUserID(ctx, userID)
		if err != nil {
			return false, err
		}
		if hasMFAMethod(creds) {
			return false, nil
		}

		user.MFAEnforced = false
		return true, tx.User().Update(ctx, user)
	})
	if err != nil {
		return errors.Wrap(err, "failed to update mfa enforcement")
	}

	if disabled.(bool) {
		level.Info(s.logger).Log(
			"message", "mfa enforcement disabled, no second factor remains",
			"user_id", userID,
			"source", "mfa.OnMethodRemoved",
		)
	}

	return nil
}

func (s *service) user(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.repoMngr.User().ByID(ctx, userID)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve user")
	}

	return user, nil
}

func hasMFAMethod(creds []*auth.Credential) bool {
	for _, c := range creds {
		if mfaTypes[c.Type] && c.IsActive() {
			return true
		}
	}
	return false
}

func minimumACR(user *auth.User) auth.ACR {
	if user.MinimumACR.Level() == 0 {
		return auth.ACRMultiFactor
	}
	return user.MinimumACR
}
