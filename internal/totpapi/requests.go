package totpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

type configureRequest struct {
	Code string `json:"code"`
}

func decodeConfigureRequest(r *http.Request) (*configureRequest, error) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return nil, auth.ErrBadRequest("code is required")
	}

	return &req, nil
}
