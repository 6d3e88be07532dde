// Package trustapi provides an HTTP API for trusted devices and
// silent re-authentication.
package trustapi

import (
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
	"github.com/strategiz/authcore/internal/token"
)

type service struct {
	logger       log.Logger
	trust        auth.DeviceTrustService
	cookieDomain string
	clock        func() time.Time
}

type listResponse struct {
	Devices []*auth.DeviceTrust `json:"devices"`
}

// Establish trusts the calling device for the authenticated User.
func (s *service) Establish(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, err := decodeEstablishRequest(r)
	if err != nil {
		return nil, err
	}

	return s.trust.Establish(r.Context(), httpapi.GetToken(r), &auth.TrustRequest{
		Name:        req.Name,
		Fingerprint: req.Fingerprint,
		PublicKey:   req.PublicKey,
	})
}

// Verify reports whether a device is currently trusted.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, err := decodeVerifyRequest(r)
	if err != nil {
		return nil, err
	}

	return s.trust.Verify(r.Context(), &auth.TrustCheckRequest{
		DeviceID:    req.DeviceID,
		Fingerprint: req.Fingerprint,
	})
}

// Challenge issues a nonce for a trusted device to sign.
func (s *service) Challenge(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, err := decodeChallengeRequest(r)
	if err != nil {
		return nil, err
	}

	return s.trust.Challenge(r.Context(), req.DeviceID)
}

// Authenticate exchanges a signed challenge for a new session.
func (s *service) Authenticate(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, err := decodeAuthenticateRequest(r)
	if err != nil {
		return nil, err
	}

	authn, res, err := s.trust.Authenticate(
		r.Context(), req.DeviceID, req.ChallengeID, req.Signature, httpapi.GetIP(r),
	)
	if err != nil {
		return nil, err
	}
	if authn == nil {
		return nil, httpapi.FactorError(res)
	}

	for _, c := range token.Cookies(authn, s.cookieDomain, s.clock()) {
		http.SetCookie(w, c)
	}

	return token.NewResponse(authn), nil
}

// List returns the authenticated User's trusted devices.
func (s *service) List(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	devices, err := s.trust.TrustedDevices(r.Context(), httpapi.GetUserID(r))
	if err != nil {
		return nil, err
	}

	return &listResponse{Devices: devices}, nil
}

// Revoke removes trust from one of the User's devices.
func (s *service) Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	deviceID := mux.Vars(r)["deviceID"]
	if deviceID == "" {
		return nil, auth.ErrBadRequest("device ID is required")
	}

	if err := s.trust.Revoke(r.Context(), httpapi.GetUserID(r), deviceID); err != nil {
		return nil, err
	}

	return nil, nil
}
