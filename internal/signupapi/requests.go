package signupapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
)

type signupRequest struct {
	Identity    string `json:"identity"`
	Type        string `json:"type"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type signupVerifyRequest struct {
	Identity string `json:"identity"`
	Type     string `json:"type"`
	Code     string `json:"code"`
}

func (r *signupRequest) ToUser() *auth.User {
	user := auth.User{
		Password:    r.Password,
		DisplayName: strings.TrimSpace(r.DisplayName),
	}
	if auth.DeliveryMethod(r.Type) == auth.Email {
		user.Email.String = r.Identity
		user.Email.Valid = true
	} else {
		user.Phone.String = r.Identity
		user.Phone.Valid = true
	}

	return &user
}

func decodeSignupRequest(r *http.Request) (*signupRequest, error) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	identity, err := normalizeIdentity(req.Type, req.Identity)
	if err != nil {
		return nil, err
	}
	req.Identity = identity

	return &req, nil
}

func decodeSignupVerifyRequest(r *http.Request) (*signupVerifyRequest, error) {
	var req signupVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	identity, err := normalizeIdentity(req.Type, req.Identity)
	if err != nil {
		return nil, err
	}
	req.Identity = identity

	if req.Code == "" {
		return nil, auth.ErrBadRequest("code is required")
	}

	return &req, nil
}

func normalizeIdentity(identityType, identity string) (string, error) {
	method := auth.DeliveryMethod(identityType)
	if method != auth.Email && method != auth.Phone {
		return "", auth.ErrBadRequest("identity type must be email or phone")
	}

	return contactchecker.Normalize(method, identity)
}
