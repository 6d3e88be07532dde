// Package totp provides time based one time passwords and their
// single use backup codes.
package totp

import (
	"bytes"
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"fmt"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/crypto"
	"github.com/strategiz/authcore/internal/entropy"
)

const (
	period = 30
	digits = otp.DigitsSix
	// skew is the number of steps accepted on either side of the
	// current step.
	skew = 1
	// stepTTL keeps the last accepted step around longer than
	// any code it could be compared against.
	stepTTL = time.Second * period * (2*skew + 2)
)

const maxTxRetries = 10

type service struct {
	logger         log.Logger
	db             redis.UniversalClient
	repoMngr       auth.RepositoryManager
	sealer         *crypto.Sealer
	issuer         string
	pendingTTL     time.Duration
	backupCodes    int
	backupCodeLen  int
	backupCodeCost int
	clock          func() time.Time
}

// Enroll generates a new secret for a User. The secret is held
// as pending until Confirm proves the User configured it.
func (s *service) Enroll(ctx context.Context, user *auth.User) (*auth.TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName(user),
		Period:      period,
		Digits:      digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate TOTP secret")
	}

	sealed, err := s.sealer.Seal([]byte(key.Secret()))
	if err != nil {
		return nil, err
	}

	if err = s.db.Set(ctx, pendingKey(user.ID), sealed, s.pendingTTL).Err(); err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("secret store unavailable"), err.Error())
	}

	img, err := key.Image(defaultQRCodeDimension, defaultQRCodeDimension)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render QR code")
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode QR code")
	}

	return &auth.TOTPEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Confirm activates a pending secret and returns a new batch of
// backup codes. An existing TOTP credential is replaced.
func (s *service) Confirm(ctx context.Context, user *auth.User, code string) ([]string, error) {
	sealed, err := s.db.Get(ctx, pendingKey(user.ID)).Bytes()
	if err == redis.Nil {
		return nil, auth.ErrExpired("no pending TOTP secret")
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("secret store unavailable"), err.Error())
	}

	secret, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, err
	}

	step, ok := s.matchStep(string(secret), code)
	if !ok {
		return nil, auth.ErrMismatch("TOTP code is incorrect")
	}

	if _, err = s.acceptStep(ctx, user.ID, step); err != nil {
		return nil, err
	}

	codes, hashes, err := s.newBackupCodes()
	if err != nil {
		return nil, err
	}

	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		creds, err := tx.Credential().ByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		now := s.clock()
		var current *auth.Credential
		for _, c := range creds {
			if c.Type == auth.CredentialTOTP {
				current = c
				break
			}
		}

		if current == nil {
			credentialID, err := entropy.ID(nil)
			if err != nil {
				return nil, err
			}
			current = &auth.Credential{
				ID:         credentialID,
				UserID:     user.ID,
				Type:       auth.CredentialTOTP,
				Identifier: user.ID,
				Name:       "Authenticator app",
				Secret:     sealed,
				IsVerified: true,
				IsEnabled:  true,
				LastUsedAt: sql.NullTime{Time: now, Valid: true},
			}
			if err = tx.Credential().Create(ctx, current); err != nil {
				return nil, err
			}
		} else {
			current.Secret = sealed
			current.IsVerified = true
			current.IsEnabled = true
			current.IsFlagged = false
			current.LastUsedAt = sql.NullTime{Time: now, Valid: true}
			if err = tx.Credential().Update(ctx, current); err != nil {
				return nil, err
			}
		}

		return nil, s.replaceBackupCodes(ctx, tx, user.ID, hashes)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to activate TOTP")
	}

	if err = s.db.Del(ctx, pendingKey(user.ID)).Err(); err != nil {
		level.Warn(s.logger).Log(
			"message", "failed to discard pending TOTP secret",
			"error", err,
			"source", "totp.Confirm",
		)
	}

	return codes, nil
}

// Verify validates a TOTP code. Codes that do not match the current
// window are tried against the User's backup codes.
func (s *service) Verify(ctx context.Context, userID, code string) (*auth.FactorResult, error) {
	creds, err := s.repoMngr.Credential().ByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("credential store unavailable"), err.Error())
	}

	var cred *auth.Credential
	for _, c := range creds {
		if c.Type == auth.CredentialTOTP && c.IsActive() {
			cred = c
			break
		}
	}
	if cred == nil {
		return &auth.FactorResult{Reason: auth.ReasonNotFound}, nil
	}

	code = strings.TrimSpace(code)
	if len(code) == int(digits) {
		secret, err := s.sealer.Open(cred.Secret)
		if err != nil {
			return nil, err
		}

		if step, ok := s.matchStep(string(secret), code); ok {
			accepted, err := s.acceptStep(ctx, userID, step)
			if err != nil {
				return nil, err
			}
			if !accepted {
				level.Warn(s.logger).Log(
					"message", "TOTP code reused",
					"security_event", "totp_replay",
					"user_id", userID,
					"source", "totp.Verify",
				)
				return &auth.FactorResult{UserID: userID, Reason: auth.ReasonReplayDetected}, nil
			}

			cred.LastUsedAt = sql.NullTime{Time: s.clock(), Valid: true}
			if err = s.repoMngr.Credential().Update(ctx, cred); err != nil {
				return nil, err
			}

			return &auth.FactorResult{Success: true, AMR: auth.FactorTOTP, UserID: userID}, nil
		}
	}

	return s.consumeBackupCode(ctx, userID, code)
}

// RegenerateBackupCodes replaces a User's backup codes with a new batch.
func (s *service) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	creds, err := s.repoMngr.Credential().ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	hasTOTP := false
	for _, c := range creds {
		if c.Type == auth.CredentialTOTP && c.IsActive() {
			hasTOTP = true
		}
	}
	if !hasTOTP {
		return nil, auth.ErrBadRequest("TOTP is not enabled")
	}

	codes, hashes, err := s.newBackupCodes()
	if err != nil {
		return nil, err
	}

	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		return nil, s.replaceBackupCodes(ctx, tx, userID, hashes)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to replace backup codes")
	}

	return codes, nil
}

func (s *service) consumeBackupCode(ctx context.Context, userID, code string) (*auth.FactorResult, error) {
	code = normalizeBackupCode(code)
	if code == "" {
		return &auth.FactorResult{UserID: userID, Reason: auth.ReasonMismatch}, nil
	}

	backupCodes, err := s.repoMngr.BackupCode().ByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("credential store unavailable"), err.Error())
	}

	for _, bc := range backupCodes {
		if bcrypt.CompareHashAndPassword([]byte(bc.CodeHash), []byte(code)) != nil {
			continue
		}

		err = s.repoMngr.BackupCode().Remove(ctx, bc.ID, userID)
		if auth.ErrorCode(err) == auth.ENotFound {
			// Consumed by a concurrent request.
			return &auth.FactorResult{UserID: userID, Reason: auth.ReasonReplayDetected}, nil
		}
		if err != nil {
			return nil, err
		}

		level.Info(s.logger).Log(
			"message", "backup code consumed",
			"user_id", userID,
			"remaining", len(backupCodes)-1,
			"source", "totp.Verify",
		)

		return &auth.FactorResult{Success: true, AMR: auth.FactorBackupCode, UserID: userID}, nil
	}

	return &auth.FactorResult{UserID: userID, Reason: auth.ReasonMismatch}, nil
}

// matchStep finds the time step within the skew window that
// produced code.
func (s *service) matchStep(secret, code string) (int64, bool) {
	now := s.clock()
	opts := totp.ValidateOpts{
		Period:    period,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	}

	for i := -skew; i <= skew; i++ {
		t := now.Add(time.Duration(i*period) * time.Second)
		expected, err := totp.GenerateCodeCustom(secret, t, opts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return t.Unix() / period, true
		}
	}

	return 0, false
}

// acceptStep records step as the User's last accepted step. It
// reports false if step was not newer than the recorded one.
func (s *service) acceptStep(ctx context.Context, userID string, step int64) (bool, error) {
	key := stepKey(userID)

	var accepted bool
	txf := func(tx *redis.Tx) error {
		last, err := tx.Get(ctx, key).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil && step <= last {
			accepted = false
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, strconv.FormatInt(step, 10), stepTTL)
			return nil
		})
		if err != nil {
			return err
		}

		accepted = true
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.db.Watch(ctx, txf, key)
		if err == nil {
			return accepted, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return false, errors.Wrap(auth.ErrInfrastructure("step store unavailable"), err.Error())
	}

	// Losing every retry means another request accepted a step
	// for this user concurrently.
	return false, nil
}

func (s *service) newBackupCodes() ([]string, []string, error) {
	codes := make([]string, s.backupCodes)
	hashes := make([]string, s.backupCodes)
	for i := range codes {
		code, err := crypto.String(s.backupCodeLen, crypto.Alphanumeric)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to generate backup code")
		}

		h, err := bcrypt.GenerateFromPassword([]byte(code), s.backupCodeCost)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to hash backup code")
		}

		codes[i] = code
		hashes[i] = string(h)
	}

	return codes, hashes, nil
}

func (s *service) replaceBackupCodes(ctx context.Context, tx auth.RepositoryManager, userID string, hashes []string) error {
	if _, err := tx.BackupCode().RemoveByUserID(ctx, userID); err != nil {
		return err
	}

	for _, h := range hashes {
		id, err := entropy.ID(nil)
		if err != nil {
			return err
		}

		bc := &auth.BackupCode{
			ID:       id,
			UserID:   userID,
			CodeHash: h,
		}
		if err = tx.BackupCode().Create(ctx, bc); err != nil {
			return err
		}
	}

	return nil
}

func accountName(user *auth.User) string {
	if user.Email.Valid {
		return user.Email.String
	}
	if user.Phone.Valid {
		return user.Phone.String
	}
	return user.ID
}

func normalizeBackupCode(code string) string {
	code = strings.ToLower(code)
	return strings.NewReplacer(" ", "", "-", "").Replace(code)
}

func pendingKey(userID string) string {
	return fmt.Sprintf("totp:pending:%s", userID)
}

func stepKey(userID string) string {
	return fmt.Sprintf("totp:last_step:%s", userID)
}
