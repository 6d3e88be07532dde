package contactapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
)

type deliveryRequest struct {
	Address        string              `json:"address"`
	DeliveryMethod auth.DeliveryMethod `json:"deliveryMethod"`
}

type verifyRequest struct {
	deliveryRequest
	Code string `json:"code"`
	// IsDisabled keeps a verified address on the profile without
	// enabling it for OTP delivery.
	IsDisabled bool `json:"isDisabled"`
}

func (r *deliveryRequest) normalize() error {
	if r.DeliveryMethod != auth.Phone && r.DeliveryMethod != auth.Email {
		return auth.ErrInvalidField("deliveryMethod must be `phone` or `email`")
	}

	address, err := contactchecker.Normalize(r.DeliveryMethod, r.Address)
	if err != nil {
		return err
	}
	r.Address = address

	return nil
}

func decodeDeliveryRequest(r *http.Request) (*deliveryRequest, error) {
	var req deliveryRequest

	if r == nil || r.Body == nil {
		return nil, auth.ErrBadRequest("no request body received")
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid JSON request"))
	}

	if err := req.normalize(); err != nil {
		return nil, err
	}

	return &req, nil
}

func decodeVerifyRequest(r *http.Request) (*verifyRequest, error) {
	var req verifyRequest

	if r == nil || r.Body == nil {
		return nil, auth.ErrBadRequest("no request body received")
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid JSON request"))
	}

	if err := req.normalize(); err != nil {
		return nil, err
	}

	if req.Code == "" {
		return nil, auth.ErrBadRequest("code is required")
	}

	return &req, nil
}
