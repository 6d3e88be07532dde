// Package totpapi provides an HTTP API for TOTP enrollment.
package totpapi

import (
	"database/sql"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

type service struct {
	logger   log.Logger
	totp     auth.TOTPService
	repoMngr auth.RepositoryManager
}

type backupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

// Secret generates a pending TOTP secret and its QR code.
func (s *service) Secret(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	user, err := s.user(r)
	if err != nil {
		return nil, err
	}

	return s.totp.Enroll(r.Context(), user)
}

// Configure activates the pending secret and returns the User's
// first batch of backup codes. Codes are shown only once.
func (s *service) Configure(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, err := decodeConfigureRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.user(r)
	if err != nil {
		return nil, err
	}

	codes, err := s.totp.Confirm(r.Context(), user, req.Code)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "TOTP enabled",
		"user_id", user.ID,
		"source", "totpapi.Configure",
	)

	return &backupCodesResponse{BackupCodes: codes}, nil
}

// BackupCodes replaces the User's backup codes.
func (s *service) BackupCodes(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	codes, err := s.totp.RegenerateBackupCodes(r.Context(), httpapi.GetUserID(r))
	if err != nil {
		return nil, err
	}

	return &backupCodesResponse{BackupCodes: codes}, nil
}

func (s *service) user(r *http.Request) (*auth.User, error) {
	user, err := s.repoMngr.User().ByID(r.Context(), httpapi.GetUserID(r))
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound("user not found")
	}

	return user, err
}
