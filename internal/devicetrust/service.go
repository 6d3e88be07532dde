// Package devicetrust lets a device that completed multi-factor
// authentication re-authenticate its user by signing a challenge.
package devicetrust

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
	"github.com/strategiz/authcore/internal/crypto"
	"github.com/strategiz/authcore/internal/entropy"
)

const nonceBytes = 32

// challenge is the stored state of an issued device challenge.
type challenge struct {
	DeviceID string `json:"deviceId"`
	Nonce    string `json:"nonce"`
}

type service struct {
	logger       log.Logger
	db           redis.UniversalClient
	repoMngr     auth.RepositoryManager
	tokens       auth.TokenService
	challengeTTL time.Duration
	clock        func() time.Time
}

// Establish trusts the calling device. The session presenting the
// request must be multi-factor. Enrolling a known fingerprint again
// renews its trust.
func (s *service) Establish(ctx context.Context, token *auth.Token, req *auth.TrustRequest) (*auth.DeviceTrust, error) {
	if !token.ACR.Satisfies(auth.ACRMultiFactor) {
		return nil, auth.ErrUnauthorized("device trust requires multi-factor authentication")
	}

	if strings.TrimSpace(req.Fingerprint) == "" {
		return nil, auth.ErrInvalidField("fingerprint is required")
	}

	if _, err := parsePublicKey(req.PublicKey); err != nil {
		return nil, err
	}

	now := s.clock()
	sc := score(token.AMR)
	lvl, ttl := trustLevel(sc)

	devices, err := s.repoMngr.DeviceTrust().ByUserID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	var device *auth.DeviceTrust
	for _, d := range devices {
		if d.Fingerprint == req.Fingerprint {
			device = d
			break
		}
	}

	isNew := device == nil
	if isNew {
		deviceID, err := entropy.ID(nil)
		if err != nil {
			return nil, err
		}
		device = &auth.DeviceTrust{
			ID:          deviceID,
			UserID:      token.UserID,
			Fingerprint: req.Fingerprint,
		}
	}

	device.Name = req.Name
	device.PublicKey = req.PublicKey
	device.TrustScore = sc
	device.TrustLevel = lvl
	device.IsTrusted = ttl > 0
	device.TrustExpiresAt = sql.NullTime{Time: now.Add(ttl), Valid: ttl > 0}
	device.LastSeenAt = sql.NullTime{Time: now, Valid: true}
	device.LastVerifiedAt = sql.NullTime{Time: now, Valid: true}

	if isNew {
		err = s.repoMngr.DeviceTrust().Create(ctx, device)
	} else {
		err = s.repoMngr.DeviceTrust().Update(ctx, device)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to store device trust")
	}

	level.Info(s.logger).Log(
		"message", "device trust established",
		"user_id", token.UserID,
		"device_id", device.ID,
		"trust_level", lvl,
		"source", "devicetrust.Establish",
	)

	return device, nil
}

// Verify reports whether a device is currently trusted. A device
// whose fingerprint drifted from its enrolled baseline is not.
func (s *service) Verify(ctx context.Context, req *auth.TrustCheckRequest) (*auth.TrustCheck, error) {
	var (
		device *auth.DeviceTrust
		err    error
	)

	switch {
	case req.DeviceID != "":
		device, err = s.repoMngr.DeviceTrust().ByID(ctx, req.DeviceID)
	case req.Fingerprint != "":
		device, err = s.repoMngr.DeviceTrust().ByFingerprint(ctx, req.Fingerprint)
	default:
		return nil, auth.ErrBadRequest("device ID or fingerprint is required")
	}
	if err == sql.ErrNoRows {
		return &auth.TrustCheck{TrustLevel: auth.TrustUnknown, Reason: string(auth.ReasonNotFound)}, nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("device store unavailable"), err.Error())
	}

	check := &auth.TrustCheck{DeviceID: device.ID, TrustLevel: device.TrustLevel}

	if reason := s.untrustedReason(device); reason != "" {
		check.Reason = string(reason)
		return check, nil
	}

	if req.Fingerprint != "" && req.Fingerprint != device.Fingerprint {
		level.Warn(s.logger).Log(
			"message", "device fingerprint changed",
			"security_event", "device_fingerprint_drift",
			"device_id", device.ID,
			"source", "devicetrust.Verify",
		)
		check.Reason = "fingerprint-mismatch"
		return check, nil
	}

	user, err := s.repoMngr.User().ByID(ctx, device.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve device owner")
	}

	check.Trusted = true
	check.UserID = user.ID
	check.DisplayName = user.DisplayName
	if user.Email.Valid {
		check.MaskedEmail = contactchecker.MaskEmail(user.Email.String)
	}
	if user.Phone.Valid {
		check.MaskedPhone = contactchecker.MaskPhone(user.Phone.String)
	}

	return check, nil
}

// Challenge issues a single use nonce for a trusted device to sign.
func (s *service) Challenge(ctx context.Context, deviceID string) (*auth.DeviceChallenge, error) {
	device, err := s.repoMngr.DeviceTrust().ByID(ctx, deviceID)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound("device not found")
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("device store unavailable"), err.Error())
	}

	switch s.untrustedReason(device) {
	case auth.ReasonRevoked:
		return nil, auth.ErrRevoked("device trust was revoked")
	case auth.ReasonExpired:
		return nil, auth.ErrExpired("device trust expired")
	}

	nonce, err := crypto.Token(nonceBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	b, err := json.Marshal(challenge{DeviceID: device.ID, Nonce: nonce})
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal challenge")
	}

	challengeID := uuid.NewString()
	if err = s.db.Set(ctx, challengeKey(challengeID), b, s.challengeTTL).Err(); err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("challenge store unavailable"), err.Error())
	}

	return &auth.DeviceChallenge{
		ChallengeID: challengeID,
		Nonce:       nonce,
		ExpiresAt:   s.clock().Add(s.challengeTTL),
	}, nil
}

// VerifyChallenge consumes a challenge and checks the device's
// signature over its nonce.
func (s *service) VerifyChallenge(ctx context.Context, deviceID, challengeID, signature string) (*auth.FactorResult, error) {
	key := challengeKey(challengeID)

	b, err := s.db.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		used, err := s.db.Exists(ctx, usedKey(challengeID)).Result()
		if err != nil {
			return nil, errors.Wrap(auth.ErrInfrastructure("challenge store unavailable"), err.Error())
		}
		if used == 1 {
			level.Warn(s.logger).Log(
				"message", "device challenge reused",
				"security_event", "device_challenge_replay",
				"device_id", deviceID,
				"source", "devicetrust.VerifyChallenge",
			)
			return &auth.FactorResult{DeviceID: deviceID, Reason: auth.ReasonReplayDetected}, nil
		}
		return &auth.FactorResult{DeviceID: deviceID, Reason: auth.ReasonExpired}, nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("challenge store unavailable"), err.Error())
	}

	// Remember consumed challenges for as long as they could
	// have been valid.
	if err = s.db.Set(ctx, usedKey(challengeID), 1, s.challengeTTL).Err(); err != nil {
		level.Error(s.logger).Log(
			"message", "failed to mark challenge as used",
			"error", err,
			"source", "devicetrust.VerifyChallenge",
		)
	}

	var ch challenge
	if err = json.Unmarshal(b, &ch); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal challenge")
	}

	if ch.DeviceID != deviceID {
		return &auth.FactorResult{DeviceID: deviceID, Reason: auth.ReasonInvalidSignature}, nil
	}

	device, err := s.repoMngr.DeviceTrust().ByID(ctx, deviceID)
	if err == sql.ErrNoRows {
		return &auth.FactorResult{DeviceID: deviceID, Reason: auth.ReasonNotFound}, nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("device store unavailable"), err.Error())
	}

	if reason := s.untrustedReason(device); reason != "" {
		return &auth.FactorResult{DeviceID: deviceID, UserID: device.UserID, Reason: reason}, nil
	}

	sig, err := decodeSignature(signature)
	if err == nil {
		err = verifySignature(device.PublicKey, []byte(ch.Nonce), sig)
	}
	if err != nil {
		level.Warn(s.logger).Log(
			"message", "device signature rejected",
			"security_event", "device_signature_invalid",
			"device_id", deviceID,
			"error", err,
			"source", "devicetrust.VerifyChallenge",
		)
		return &auth.FactorResult{DeviceID: deviceID, UserID: device.UserID, Reason: auth.ReasonInvalidSignature}, nil
	}

	now := s.clock()
	device.LastSeenAt = sql.NullTime{Time: now, Valid: true}
	device.LastVerifiedAt = sql.NullTime{Time: now, Valid: true}
	if err = s.repoMngr.DeviceTrust().Update(ctx, device); err != nil {
		return nil, errors.Wrap(err, "failed to update device")
	}

	return &auth.FactorResult{
		Success:  true,
		AMR:      auth.FactorDeviceTrust,
		UserID:   device.UserID,
		DeviceID: device.ID,
	}, nil
}

// Authenticate verifies a signed challenge and starts a session
// for the device's user.
func (s *service) Authenticate(ctx context.Context, deviceID, challengeID, signature, ip string) (*auth.Authentication, *auth.FactorResult, error) {
	res, err := s.VerifyChallenge(ctx, deviceID, challengeID, signature)
	if err != nil || !res.Success {
		return nil, res, err
	}

	authn, err := s.tokens.Create(ctx, &auth.AuthenticationRequest{
		UserID:    res.UserID,
		AMR:       []auth.FactorType{auth.FactorDeviceTrust},
		DeviceID:  res.DeviceID,
		IPAddress: ip,
	})
	if err != nil {
		return nil, res, err
	}

	return authn, res, nil
}

// Revoke ends a device's trust.
func (s *service) Revoke(ctx context.Context, userID, deviceID string) error {
	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		device, err := tx.DeviceTrust().GetForUpdate(ctx, deviceID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound("device not found")
		}
		if err != nil {
			return nil, err
		}
		if device.UserID != userID {
			return nil, auth.ErrNotFound("device not found")
		}

		device.IsTrusted = false
		device.TrustLevel = auth.TrustRevoked
		device.TrustExpiresAt = sql.NullTime{}
		return device, tx.DeviceTrust().Update(ctx, device)
	})
	if err != nil {
		return err
	}

	level.Info(s.logger).Log(
		"message", "device trust revoked",
		"user_id", userID,
		"device_id", deviceID,
		"source", "devicetrust.Revoke",
	)

	return nil
}

// TrustedDevices lists the devices a User currently trusts.
func (s *service) TrustedDevices(ctx context.Context, userID string) ([]*auth.DeviceTrust, error) {
	devices, err := s.repoMngr.DeviceTrust().ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	trusted := make([]*auth.DeviceTrust, 0, len(devices))
	for _, d := range devices {
		if d.TrustValid(now) {
			trusted = append(trusted, d)
		}
	}

	return trusted, nil
}

func (s *service) untrustedReason(device *auth.DeviceTrust) auth.FailureReason {
	if device.TrustLevel == auth.TrustRevoked {
		return auth.ReasonRevoked
	}
	if !device.TrustValid(s.clock()) {
		return auth.ReasonExpired
	}
	return ""
}

func challengeKey(challengeID string) string {
	return fmt.Sprintf("device_challenge:%s", challengeID)
}

func usedKey(challengeID string) string {
	return fmt.Sprintf("device_challenge:%s:used", challengeID)
}
