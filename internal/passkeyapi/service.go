// Package passkeyapi provides an HTTP API for passkey registration.
package passkeyapi

import (
	"database/sql"
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

// maxAttestationSize bounds the attestation body read from a client.
const maxAttestationSize = 64 * 1024

type service struct {
	logger   log.Logger
	webauthn auth.WebAuthnService
	repoMngr auth.RepositoryManager
}

// Create is an initial request to register a new passkey for a User.
func (s *service) Create(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	user, err := s.user(r)
	if err != nil {
		return nil, err
	}

	return s.webauthn.BeginSignUp(r.Context(), user)
}

// Verify validates the authenticator's attestation and stores
// the new passkey.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	attestation, err := io.ReadAll(io.LimitReader(r.Body, maxAttestationSize))
	if err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("cannot read request"), err.Error())
	}
	if len(attestation) == 0 {
		return nil, auth.ErrBadRequest("attestation is required")
	}

	user, err := s.user(r)
	if err != nil {
		return nil, err
	}

	credential, err := s.webauthn.FinishSignUp(ctx, user, attestation)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "passkey registered",
		"user_id", user.ID,
		"credential_id", credential.ID,
		"source", "passkeyapi.Verify",
	)

	return credential, nil
}

func (s *service) user(r *http.Request) (*auth.User, error) {
	user, err := s.repoMngr.User().ByID(r.Context(), httpapi.GetUserID(r))
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound("user not found")
	}

	return user, err
}
