// Package credentialapi provides an HTTP API for credential and
// MFA management.
package credentialapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

type service struct {
	logger      log.Logger
	credentials auth.CredentialService
	mfa         auth.MFAService
}

type listResponse struct {
	Credentials []*auth.Credential `json:"credentials"`
}

type updateMFARequest struct {
	Enforced *bool `json:"enforced"`
}

// List returns every credential of the authenticated User.
func (s *service) List(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	credentials, err := s.credentials.List(r.Context(), httpapi.GetUserID(r))
	if err != nil {
		return nil, err
	}

	return &listResponse{Credentials: credentials}, nil
}

// Remove deletes a credential unless it is the User's last active one.
func (s *service) Remove(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	credentialID := mux.Vars(r)["credentialID"]
	if credentialID == "" {
		return nil, auth.ErrBadRequest("credential ID is required")
	}

	if err := s.credentials.Remove(r.Context(), httpapi.GetUserID(r), credentialID); err != nil {
		return nil, err
	}

	return nil, nil
}

// MFASettings returns the User's MFA enforcement state.
func (s *service) MFASettings(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	return s.mfa.Settings(r.Context(), httpapi.GetUserID(r))
}

// UpdateMFA enables or disables MFA enforcement.
func (s *service) UpdateMFA(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var req updateMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}
	if req.Enforced == nil {
		return nil, auth.ErrBadRequest("enforced is required")
	}

	return s.mfa.SetEnforcement(r.Context(), httpapi.GetUserID(r), *req.Enforced)
}
