// Package otp issues and verifies one time secrets delivered to a
// user's email or phone.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/crypto"
)

// maxTxRetries bounds optimistic lock retries on a contended key.
const maxTxRetries = 10

// record is the stored state of an issued secret.
type record struct {
	Hash        string    `json:"hash"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	CreatedAt   time.Time `json:"createdAt"`
}

type service struct {
	logger      log.Logger
	db          redis.UniversalClient
	messaging   auth.MessagingService
	codeLength  int
	ttl         time.Duration
	maxAttempts int
	cooldown    time.Duration
	devMode     bool
	keyPrefix   string
	clock       func() time.Time
}

// Issue generates a secret for a recipient, replaces any active secret
// for the same purpose and hands the plaintext to the messaging service.
func (s *service) Issue(ctx context.Context, req *auth.OTPRequest) (*auth.OTPHandle, error) {
	if req.Recipient == "" || req.Purpose == "" {
		return nil, auth.ErrInvalidField("recipient and purpose are required")
	}

	length := req.Length
	if length <= 0 {
		length = s.codeLength
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.ttl
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.maxAttempts
	}
	cooldown := req.Cooldown
	if cooldown <= 0 {
		cooldown = s.cooldown
	}

	key := s.key(req.Recipient, req.Purpose)
	coolKey := cooldownKey(key)

	if cooldown > 0 {
		ok, err := s.db.SetNX(ctx, coolKey, 1, cooldown).Result()
		if err != nil {
			return nil, errors.Wrap(auth.ErrInfrastructure("code store unavailable"), err.Error())
		}
		if !ok {
			return nil, auth.ErrThrottle("a code was sent recently, try again later")
		}
	}

	code, err := generate(req.Format, length)
	if err != nil {
		return nil, err
	}

	hash, err := crypto.Hash(code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash code")
	}

	now := s.clock()
	rec := record{
		Hash:        hash,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal code record")
	}

	if err = s.db.Set(ctx, key, b, ttl).Err(); err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("code store unavailable"), err.Error())
	}

	if s.devMode {
		level.Debug(s.logger).Log(
			"message", "issued one time code",
			"purpose", req.Purpose,
			"code", code,
			"source", "otp.Issue",
		)
	}

	msg := &auth.Message{
		Delivery:  req.Method,
		Address:   req.Recipient,
		Subject:   req.Subject,
		Content:   content(req.Template, code),
		ExpiresAt: rec.ExpiresAt,
	}
	if err = s.messaging.Send(ctx, msg); err != nil {
		level.Error(s.logger).Log(
			"message", "failed to deliver one time code",
			"purpose", req.Purpose,
			"error", err,
			"source", "otp.Issue",
		)
		if delErr := s.db.Del(ctx, key, coolKey).Err(); delErr != nil {
			level.Error(s.logger).Log(
				"message", "failed to discard undelivered code",
				"error", delErr,
				"source", "otp.Issue",
			)
		}
		return nil, errors.Wrap(auth.ErrDeliveryFailed("code could not be delivered"), err.Error())
	}

	return &auth.OTPHandle{
		Recipient:   req.Recipient,
		Purpose:     req.Purpose,
		ExpiresAt:   rec.ExpiresAt,
		MaxAttempts: maxAttempts,
	}, nil
}

// Verify consumes a secret. Each call is an atomic read-modify-write
// on the stored record so concurrent attempts cannot exceed the
// attempt limit or both succeed.
func (s *service) Verify(ctx context.Context, recipient string, purpose auth.Purpose, code string) (*auth.OTPResult, error) {
	key := s.key(recipient, purpose)

	var result *auth.OTPResult
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			result = &auth.OTPResult{Status: auth.OTPExpired}
			return nil
		}
		if err != nil {
			return err
		}

		var rec record
		if err = json.Unmarshal(b, &rec); err != nil {
			return errors.Wrap(err, "cannot unmarshal code record")
		}

		var (
			status    auth.OTPStatus
			remaining int
		)

		switch {
		case !s.clock().Before(rec.ExpiresAt):
			status = auth.OTPExpired
		case rec.Attempts >= rec.MaxAttempts:
			status = auth.OTPExhausted
		case crypto.HashEqual(code, rec.Hash):
			status = auth.OTPOK
		default:
			rec.Attempts++
			status = auth.OTPMismatch
			remaining = rec.MaxAttempts - rec.Attempts
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if status != auth.OTPMismatch {
				pipe.Del(ctx, key)
				return nil
			}

			updated, err := json.Marshal(rec)
			if err != nil {
				return errors.Wrap(err, "cannot marshal code record")
			}
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}

		result = &auth.OTPResult{Status: status, AttemptsRemaining: remaining}
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.db.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, errors.Wrap(auth.ErrInfrastructure("code store unavailable"), err.Error())
	}

	return nil, auth.ErrInfrastructure("code store is contended")
}

// key derives the storage key of a recipient's code. Recipients are
// hashed so raw addresses never appear in the key space.
func (s *service) key(recipient string, purpose auth.Purpose) string {
	h, _ := crypto.Hash(recipient)
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, purpose, h)
}

func cooldownKey(key string) string {
	return key + ":cooldown"
}

func generate(format auth.OTPFormat, length int) (string, error) {
	if format == auth.OTPOpaque {
		return crypto.Token(defaultOpaqueBytes)
	}

	return crypto.Digits(length)
}

func content(template, code string) string {
	if template == "" {
		return code
	}

	return fmt.Sprintf(template, code)
}
