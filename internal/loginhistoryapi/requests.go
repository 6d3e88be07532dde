package loginhistoryapi

import (
	"net/http"
	"strconv"

	auth "github.com/strategiz/authcore"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type paginatedRequest struct {
	Limit  int
	Offset int
}

func decodePaginatedRequest(r *http.Request) (*paginatedRequest, error) {
	if r == nil {
		return nil, auth.ErrBadRequest("invalid request")
	}

	params := r.URL.Query()

	limit, err := toIntOrDefault(params.Get("limit"), defaultLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	offset, err := toIntOrDefault(params.Get("offset"), 0)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, auth.ErrBadRequest("offset cannot be negative")
	}

	return &paginatedRequest{Limit: limit, Offset: offset}, nil
}

func toIntOrDefault(param string, defaultValue int) (int, error) {
	if param == "" {
		return defaultValue, nil
	}

	v, err := strconv.Atoi(param)
	if err != nil {
		return 0, auth.ErrBadRequest("pagination param should be a number")
	}

	return v, nil
}
