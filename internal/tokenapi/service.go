// Package tokenapi provides an HTTP API for the token lifecycle.
package tokenapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
	"github.com/strategiz/authcore/internal/token"
)

type service struct {
	logger       log.Logger
	token        auth.TokenService
	cookieDomain string
	clock        func() time.Time
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type verifyResponse struct {
	UserID    string            `json:"userId"`
	SessionID string            `json:"sessionId"`
	DeviceID  string            `json:"deviceId,omitempty"`
	ACR       auth.ACR          `json:"acr"`
	AMR       []auth.FactorType `json:"amr"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type revokeAllResponse struct {
	Revoked int `json:"revoked"`
}

// Verify returns the claims of a valid access token.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	t := httpapi.GetToken(r)

	resp := verifyResponse{
		UserID:    t.UserID,
		SessionID: t.SessionID,
		DeviceID:  t.DeviceID,
		ACR:       t.ACR,
		AMR:       t.AMR,
	}
	if t.ExpiresAt != nil {
		resp.ExpiresAt = t.ExpiresAt.Time
	}

	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair. The
// refresh token is read from the request body, falling back to
// its cookie.
func (s *service) Refresh(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	var req refreshRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(token.RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		return nil, auth.ErrInvalidToken("refresh token is required")
	}

	authn, err := s.token.Refresh(ctx, req.RefreshToken, httpapi.GetIP(r))
	if err != nil {
		return nil, err
	}

	for _, c := range token.Cookies(authn, s.cookieDomain, s.clock()) {
		http.SetCookie(w, c)
	}

	return token.NewResponse(authn), nil
}

// Revoke ends the session of the presented access token.
func (s *service) Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	if err := s.token.Revoke(r.Context(), httpapi.SignedToken(r)); err != nil {
		return nil, err
	}

	s.clearCookies(w)
	return nil, nil
}

// RevokeSession ends one of the authenticated User's sessions.
func (s *service) RevokeSession(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	sessionID := mux.Vars(r)["sessionID"]
	if sessionID == "" {
		return nil, auth.ErrBadRequest("session ID is required")
	}

	t := httpapi.GetToken(r)
	if err := s.token.RevokeSession(r.Context(), t.UserID, sessionID); err != nil {
		return nil, err
	}

	if sessionID == t.SessionID {
		s.clearCookies(w)
	}

	return nil, nil
}

// RevokeAll ends every session of the authenticated User,
// including the current one.
func (s *service) RevokeAll(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	count, err := s.token.RevokeAll(r.Context(), httpapi.GetUserID(r), token.ReasonRevokeAll)
	if err != nil {
		return nil, err
	}

	s.clearCookies(w)
	return &revokeAllResponse{Revoked: count}, nil
}

func (s *service) clearCookies(w http.ResponseWriter) {
	for _, c := range token.ExpiredCookies(s.cookieDomain) {
		http.SetCookie(w, c)
	}
}
