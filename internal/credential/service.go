// Package credential lists and removes a user's authentication factors.
package credential

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
	mfa      auth.MFAService
}

// List returns every credential owned by a User.
func (s *service) List(ctx context.Context, userID string) ([]*auth.Credential, error) {
	creds, err := s.repoMngr.Credential().ByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve credentials")
	}

	return creds, nil
}

// Remove deletes a credential. A User must keep at least one way to
// authenticate: the last active credential of a User without a
// password cannot be removed. Removing TOTP also removes its
// backup codes.
func (s *service) Remove(ctx context.Context, userID, credentialID string) error {
	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}

	entity, err := tx.WithAtomic(func() (interface{}, error) {
		// Locking the user serializes concurrent removals.
		user, err := tx.User().GetForUpdate(ctx, userID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound("user not found")
		}
		if err != nil {
			return nil, err
		}

		cred, err := tx.Credential().GetForUpdate(ctx, credentialID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound("credential not found")
		}
		if err != nil {
			return nil, err
		}
		if cred.UserID != userID {
			return nil, auth.ErrNotFound("credential not found")
		}

		if cred.IsActive() && !user.HasPassword() {
			creds, err := tx.Credential().ByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if remaining(creds, credentialID) == 0 {
				return nil, auth.ErrConflict("cannot remove the last authentication method")
			}
		}

		if err = tx.Credential().Remove(ctx, credentialID, userID); err != nil {
			return nil, err
		}

		if cred.Type == auth.CredentialTOTP {
			if _, err = tx.BackupCode().RemoveByUserID(ctx, userID); err != nil {
				return nil, err
			}
		}

		return cred, nil
	})
	if err != nil {
		return err
	}

	cred := entity.(*auth.Credential)
	level.Info(s.logger).Log(
		"message", "credential removed",
		"user_id", userID,
		"credential_id", credentialID,
		"type", cred.Type,
		"source", "credential.Remove",
	)

	if s.mfa == nil {
		return nil
	}

	if err = s.mfa.OnMethodRemoved(ctx, userID); err != nil {
		level.Error(s.logger).Log(
			"message", "failed to update mfa enforcement",
			"user_id", userID,
			"error", err,
			"source", "credential.Remove",
		)
		return err
	}

	return nil
}

// remaining counts the active credentials left after one is removed.
// Device keys live on trust records and never count.
func remaining(creds []*auth.Credential, removedID string) int {
	n := 0
	for _, c := range creds {
		if c.ID == removedID || c.Type == auth.CredentialDevice {
			continue
		}
		if c.IsActive() {
			n++
		}
	}
	return n
}
