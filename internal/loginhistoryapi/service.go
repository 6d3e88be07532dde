// Package loginhistoryapi provides an HTTP API for login history.
package loginhistoryapi

import (
	"fmt"
	"net/http"

	"github.com/go-kit/log"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
}

// listResponse is a success response for LoginHistoryAPI.List.
type listResponse struct {
	LoginHistory []*auth.LoginHistory `json:"loginHistory"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// List returns a paginated list of sessions, newest first.
func (s *service) List(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := httpapi.GetUserID(r)

	pr, err := decodePaginatedRequest(r)
	if err != nil {
		return nil, err
	}

	history, err := s.repoMngr.LoginHistory().ByUserID(ctx, userID, pr.Limit, pr.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup login history: %w", err)
	}

	return &listResponse{
		LoginHistory: history,
		Limit:        pr.Limit,
		Offset:       pr.Offset,
	}, nil
}
