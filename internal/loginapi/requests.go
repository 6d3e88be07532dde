package loginapi

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
)

type identityRequest struct {
	Identity string `json:"identity"`
	Type     string `json:"type"`
}

type sendOTPRequest struct {
	identityRequest
	MagicLink bool `json:"magicLink"`
}

type loginRequest struct {
	identityRequest
	Factor auth.FactorPayload `json:"factor"`
}

type stepUpRequest struct {
	Factor auth.FactorPayload `json:"factor"`
}

func (r *identityRequest) Method() auth.DeliveryMethod {
	return auth.DeliveryMethod(r.Type)
}

func (r *identityRequest) normalize() error {
	method := r.Method()
	if method != auth.Email && method != auth.Phone {
		return auth.ErrBadRequest("identity type must be email or phone")
	}

	identity, err := contactchecker.Normalize(method, r.Identity)
	if err != nil {
		return err
	}
	r.Identity = identity

	return nil
}

func decodeSendOTPRequest(r *http.Request) (*sendOTPRequest, error) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	if err := req.normalize(); err != nil {
		return nil, err
	}

	if req.MagicLink && req.Method() != auth.Email {
		return nil, auth.ErrBadRequest("magic links are only sent by email")
	}

	return &req, nil
}

func decodeIdentityRequest(r *http.Request) (*identityRequest, error) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	if err := req.normalize(); err != nil {
		return nil, err
	}

	return &req, nil
}

func decodeLoginRequest(r *http.Request) (*loginRequest, error) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	if req.Factor.Type == "" {
		return nil, auth.ErrBadRequest("factor type is required")
	}

	// Trusted devices identify their own user.
	if req.Factor.Type == auth.FactorDeviceTrust {
		return &req, nil
	}

	if err := req.normalize(); err != nil {
		return nil, err
	}

	return &req, nil
}

func decodeStepUpRequest(r *http.Request) (*stepUpRequest, error) {
	var req stepUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	if req.Factor.Type == "" {
		return nil, auth.ErrBadRequest("factor type is required")
	}

	return &req, nil
}
