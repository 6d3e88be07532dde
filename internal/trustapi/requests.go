package trustapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

type establishRequest struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	// PublicKey is a base64 encoded PKIX public key.
	PublicKey []byte `json:"publicKey"`
}

type verifyRequest struct {
	DeviceID    string `json:"deviceId"`
	Fingerprint string `json:"fingerprint"`
}

type challengeRequest struct {
	DeviceID string `json:"deviceId"`
}

type authenticateRequest struct {
	DeviceID    string `json:"deviceId"`
	ChallengeID string `json:"challengeId"`
	Signature   string `json:"signature"`
}

func decode(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return auth.ErrBadRequest("no request body received")
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	return nil
}

func decodeEstablishRequest(r *http.Request) (*establishRequest, error) {
	var req establishRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Fingerprint == "" {
		return nil, auth.ErrInvalidField("fingerprint is required")
	}
	if len(req.PublicKey) == 0 {
		return nil, auth.ErrInvalidField("publicKey is required")
	}

	return &req, nil
}

func decodeVerifyRequest(r *http.Request) (*verifyRequest, error) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	if req.DeviceID == "" && req.Fingerprint == "" {
		return nil, auth.ErrInvalidField("deviceId or fingerprint is required")
	}

	return &req, nil
}

func decodeChallengeRequest(r *http.Request) (*challengeRequest, error) {
	var req challengeRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	if req.DeviceID == "" {
		return nil, auth.ErrInvalidField("deviceId is required")
	}

	return &req, nil
}

func decodeAuthenticateRequest(r *http.Request) (*authenticateRequest, error) {
	var req authenticateRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	if req.DeviceID == "" || req.ChallengeID == "" || req.Signature == "" {
		return nil, auth.ErrInvalidField("deviceId, challengeId and signature are required")
	}

	return &req, nil
}
