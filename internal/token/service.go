// Package token is the session authority. It mints signed access
// and refresh tokens for authenticated sessions and manages their
// revocation.
package token

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/entropy"
)

const (
	// ReasonLogout is recorded when a user ends their own session.
	ReasonLogout = "logout"
	// ReasonRefreshReuse is recorded when a rotated refresh token
	// is presented again.
	ReasonRefreshReuse = "refresh_token_reuse"
	// ReasonRevokeAll is recorded when a user signs out everywhere.
	ReasonRevokeAll = "revoke_all"
)

// service is an implementation of auth.TokenService backed
// by redis and a login history store.
type service struct {
	logger             log.Logger
	tokenExpiry        time.Duration
	refreshTokenExpiry time.Duration
	entropy            io.Reader
	secret             []byte
	issuer             string
	db                 redis.UniversalClient
	repoMngr           auth.RepositoryManager
	clock              func() time.Time
}

// Create starts a session for a set of satisfied factors and
// returns its first token pair.
func (s *service) Create(ctx context.Context, req *auth.AuthenticationRequest) (*auth.Authentication, error) {
	if req.UserID == "" {
		return nil, auth.ErrInvalidField("user ID is required")
	}

	amr := auth.NormalizeAMR(req.AMR)
	acr, err := auth.ACRFor(amr)
	if err != nil {
		return nil, err
	}

	sessionID, err := entropy.ID(s.entropy)
	if err != nil {
		return nil, err
	}

	refreshID, err := entropy.ID(s.entropy)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	lh := &auth.LoginHistory{
		TokenID:        sessionID,
		UserID:         req.UserID,
		DeviceID:       nullString(req.DeviceID),
		AMR:            amr,
		ACR:            acr,
		RefreshTokenID: refreshID,
		IPAddress:      nullString(req.IPAddress),
		ExpiresAt:      now.Add(s.refreshTokenExpiry),
	}

	if err = s.repoMngr.LoginHistory().Create(ctx, lh); err != nil {
		return nil, errors.Wrap(err, "failed to create login history record")
	}

	authn, err := s.sign(lh, now)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "session created",
		"user_id", req.UserID,
		"session_id", sessionID,
		"acr", acr,
		"source", "token.Create",
	)

	return authn, nil
}

// Validate checks that an access token is signed by us, unexpired
// and unrevoked. On success it returns the token's claims.
func (s *service) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	token, err := s.parse(signedToken, auth.AccessToken)
	if err != nil {
		return nil, err
	}

	if err = s.checkRevocation(ctx, token.SessionID); err != nil {
		return nil, err
	}

	return token, nil
}

// Refresh exchanges a refresh token for a new token pair carrying
// the same factors. Every refresh token is single use. Presenting
// a rotated token again revokes the session.
func (s *service) Refresh(ctx context.Context, refreshToken, ip string) (*auth.Authentication, error) {
	token, err := s.parse(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	refreshID, err := entropy.ID(s.entropy)
	if err != nil {
		return nil, err
	}

	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start transaction: %w", err)
	}

	now := s.clock()
	replayed := false

	entity, err := tx.WithAtomic(func() (interface{}, error) {
		lh, err := tx.LoginHistory().GetForUpdate(ctx, token.SessionID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrInvalidToken("session does not exist")
		}
		if err != nil {
			return nil, err
		}

		if lh.UserID != token.UserID {
			return nil, auth.ErrInvalidToken("session does not exist")
		}
		if lh.IsRevoked {
			return nil, auth.ErrRevoked("session is revoked")
		}
		if !lh.ExpiresAt.After(now) {
			return nil, auth.ErrExpired("session is expired")
		}

		if lh.RefreshTokenID != token.ID {
			replayed = true
			lh.IsRevoked = true
			lh.RevokedReason = nullString(ReasonRefreshReuse)
			return lh, tx.LoginHistory().Update(ctx, lh)
		}

		lh.RefreshTokenID = refreshID
		lh.ExpiresAt = now.Add(s.refreshTokenExpiry)
		if ip != "" {
			lh.IPAddress = nullString(ip)
		}

		return lh, tx.LoginHistory().Update(ctx, lh)
	})
	if err != nil {
		return nil, err
	}

	lh := entity.(*auth.LoginHistory)

	if replayed {
		level.Warn(s.logger).Log(
			"message", "rotated refresh token reused, session revoked",
			"security_event", "refresh_token_replay",
			"user_id", lh.UserID,
			"session_id", lh.TokenID,
			"source", "token.Refresh",
		)
		if err = s.markRevoked(ctx, lh.TokenID); err != nil {
			return nil, err
		}
		return nil, auth.ErrReplayDetected("refresh token was already used")
	}

	return s.sign(lh, now)
}

// Revoke ends the session an access token belongs to.
func (s *service) Revoke(ctx context.Context, signedToken string) error {
	token, err := s.parse(signedToken, auth.AccessToken)
	if err != nil {
		return err
	}

	return s.revokeSession(ctx, token.UserID, token.SessionID, ReasonLogout)
}

// RevokeSession ends one of a User's sessions by its ID.
func (s *service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	return s.revokeSession(ctx, userID, sessionID, ReasonLogout)
}

// RevokeAll ends every active session of a User and returns
// the number of sessions revoked.
func (s *service) RevokeAll(ctx context.Context, userID, reason string) (int, error) {
	active, err := s.repoMngr.LoginHistory().Active(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to retrieve active sessions")
	}

	// Access tokens are rejected as soon as their keys are set,
	// before the slower store update completes.
	if len(active) > 0 {
		_, err = s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, lh := range active {
				pipe.Set(ctx, revocationKey(lh.TokenID), true, s.tokenExpiry)
			}
			return nil
		})
		if err != nil {
			return 0, errors.Wrap(auth.ErrInfrastructure("revocation store unavailable"), err.Error())
		}
	}

	count, err := s.repoMngr.LoginHistory().RevokeByUserID(ctx, userID, reason)
	if err != nil {
		return 0, errors.Wrap(err, "failed to revoke sessions")
	}

	level.Info(s.logger).Log(
		"message", "all sessions revoked",
		"user_id", userID,
		"reason", reason,
		"count", count,
		"source", "token.RevokeAll",
	)

	return count, nil
}

// CleanupExpired removes sessions whose refresh tokens expired.
func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	count, err := s.repoMngr.LoginHistory().RemoveExpired(ctx, s.clock())
	if err != nil {
		return 0, errors.Wrap(err, "failed to remove expired sessions")
	}

	level.Debug(s.logger).Log(
		"message", "expired sessions removed",
		"count", count,
		"source", "token.CleanupExpired",
	)

	return count, nil
}

func (s *service) revokeSession(ctx context.Context, userID, sessionID, reason string) error {
	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		lh, err := tx.LoginHistory().GetForUpdate(ctx, sessionID)
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound("session not found")
		}
		if err != nil {
			return nil, err
		}
		if lh.UserID != userID {
			return nil, auth.ErrNotFound("session not found")
		}
		if lh.IsRevoked {
			return lh, nil
		}

		lh.IsRevoked = true
		lh.RevokedReason = nullString(reason)
		return lh, tx.LoginHistory().Update(ctx, lh)
	})
	if err != nil {
		return err
	}

	if err = s.markRevoked(ctx, sessionID); err != nil {
		return err
	}

	level.Info(s.logger).Log(
		"message", "session revoked",
		"user_id", userID,
		"session_id", sessionID,
		"reason", reason,
		"source", "token.revokeSession",
	)

	return nil
}

// sign mints a token pair for a session record.
func (s *service) sign(lh *auth.LoginHistory, now time.Time) (*auth.Authentication, error) {
	accessID, err := entropy.ID(s.entropy)
	if err != nil {
		return nil, err
	}

	claims := func(id string, typ auth.TokenType, expiresAt time.Time) *auth.Token {
		return &auth.Token{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        id,
				Issuer:    s.issuer,
				Subject:   lh.UserID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:    lh.UserID,
			SessionID: lh.TokenID,
			AMR:       lh.AMR,
			ACR:       lh.ACR,
			DeviceID:  lh.DeviceID.String,
			Type:      typ,
		}
	}

	expiresAt := now.Add(s.tokenExpiry)
	if lh.ExpiresAt.Before(expiresAt) {
		expiresAt = lh.ExpiresAt
	}

	access := claims(accessID, auth.AccessToken, expiresAt)
	refresh := claims(lh.RefreshTokenID, auth.RefreshToken, lh.ExpiresAt)

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, access).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, refresh).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign refresh token")
	}

	return &auth.Authentication{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ACR:              lh.ACR,
		AMR:              lh.AMR,
		SessionID:        lh.TokenID,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: lh.ExpiresAt,
		Claims:           access,
	}, nil
}

// parse verifies a signed token of an expected type. A leading
// "Bearer " scheme is accepted.
func (s *service) parse(signedToken string, typ auth.TokenType) (*auth.Token, error) {
	signedToken = strings.TrimSpace(strings.TrimPrefix(signedToken, "Bearer "))
	if signedToken == "" {
		return nil, auth.ErrInvalidToken("token is missing")
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return s.secret, nil
	}

	var token auth.Token
	_, err := jwt.ParseWithClaims(signedToken, &token, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		return nil, errors.Wrap(auth.ErrInvalidToken("token is invalid"), err.Error())
	}

	if token.UserID == "" || token.SessionID == "" {
		return nil, auth.ErrInvalidToken("token is not associated with a session")
	}

	if token.Type != typ {
		return nil, auth.ErrInvalidToken(
			fmt.Sprintf("%s token expected", strings.ToLower(string(typ))),
		)
	}

	return &token, nil
}

func (s *service) checkRevocation(ctx context.Context, sessionID string) error {
	n, err := s.db.Exists(ctx, revocationKey(sessionID)).Result()
	if err != nil {
		return errors.Wrap(
			auth.ErrInfrastructure("cannot lookup token revocation history"), err.Error(),
		)
	}
	if n > 0 {
		return auth.ErrRevoked("token is revoked")
	}

	return nil
}

// markRevoked rejects a session's outstanding access tokens. The key
// outlives any access token issued before it was set.
func (s *service) markRevoked(ctx context.Context, sessionID string) error {
	err := s.db.Set(ctx, revocationKey(sessionID), true, s.tokenExpiry).Err()
	if err != nil {
		return errors.Wrap(auth.ErrInfrastructure("revocation store unavailable"), err.Error())
	}

	return nil
}

func revocationKey(sessionID string) string {
	return fmt.Sprintf("%s_is_revoked", sessionID)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
