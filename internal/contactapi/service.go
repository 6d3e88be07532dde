// Package contactapi provides an HTTP API for email/SMS OTP management.
package contactapi

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
)

const (
	contactSubject  = "Verify your contact address"
	contactTemplate = "Your verification code is %s"
)

type service struct {
	logger   log.Logger
	otp      auth.OTPService
	repoMngr auth.RepositoryManager
}

// CheckAddress requests an OTP code to be delivered to an email address
// or phone number so we may verify the user's ownership of the address.
func (s *service) CheckAddress(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := httpapi.GetUserID(r)

	req, err := decodeDeliveryRequest(r)
	if err != nil {
		return nil, err
	}

	owner, err := s.repoMngr.User().ByIdentity(ctx, req.DeliveryMethod, req.Address)
	if err == nil && owner.ID != userID {
		return nil, auth.ErrConflict("address is used by another account")
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return s.otp.Issue(ctx, &auth.OTPRequest{
		Recipient: req.Address,
		Method:    req.DeliveryMethod,
		Purpose:   auth.PurposeContact,
		Format:    auth.OTPNumeric,
		Subject:   contactSubject,
		Template:  contactTemplate,
	})
}

// Verify verifies an OTP code sent to an email or phone number. The
// address is set on the profile and stored as an SMS or email OTP
// credential. Verified addresses are enabled for OTP delivery unless
// the client explicitly says otherwise.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := httpapi.GetUserID(r)

	req, err := decodeVerifyRequest(r)
	if err != nil {
		return nil, err
	}

	res, err := s.otp.Verify(ctx, req.Address, auth.PurposeContact, req.Code)
	if err != nil {
		return nil, err
	}
	if err = httpapi.OTPError(res); err != nil {
		return nil, err
	}

	credentialType := auth.CredentialEmailOTP
	if req.DeliveryMethod == auth.Phone {
		credentialType = auth.CredentialSMS
	}

	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, err
	}

	entity, err := tx.WithAtomic(func() (interface{}, error) {
		user, err := tx.User().GetForUpdate(ctx, userID)
		if err != nil {
			return nil, err
		}

		if req.DeliveryMethod == auth.Phone {
			user.Phone = sql.NullString{String: req.Address, Valid: true}
		} else {
			user.Email = sql.NullString{String: req.Address, Valid: true}
		}
		if err = tx.User().Update(ctx, user); err != nil {
			return nil, err
		}

		credential, err := tx.Credential().ByIdentifier(ctx, credentialType, req.Address)
		if err == sql.ErrNoRows {
			credential = &auth.Credential{
				UserID:     userID,
				Type:       credentialType,
				Identifier: req.Address,
				Name:       fmt.Sprintf("%s %s", req.DeliveryMethod, req.Address),
				IsVerified: true,
				IsEnabled:  !req.IsDisabled,
			}
			return credential, tx.Credential().Create(ctx, credential)
		}
		if err != nil {
			return nil, err
		}
		if credential.UserID != userID {
			return nil, auth.ErrConflict("address is used by another account")
		}

		credential.IsVerified = true
		credential.IsEnabled = !req.IsDisabled
		return credential, tx.Credential().Update(ctx, credential)
	})
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "contact address verified",
		"user_id", userID,
		"delivery", req.DeliveryMethod,
		"source", "contactapi.Verify",
	)

	return entity.(*auth.Credential), nil
}
