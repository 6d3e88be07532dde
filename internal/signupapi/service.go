// Package signupapi provides an HTTP API for user registration.
package signupapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/httpapi"
	"github.com/strategiz/authcore/internal/token"
)

const (
	signupSubject  = "Verify your account"
	signupTemplate = "Your verification code is %s"
)

type service struct {
	logger       log.Logger
	token        auth.TokenService
	repoMngr     auth.RepositoryManager
	otp          auth.OTPService
	password     auth.PasswordService
	cookieDomain string
	clock        func() time.Time
}

// SignUp registers a User and sends a verification code to their
// email or phone. A User who never verified their address may sign
// up again and replace their unverified details.
func (s *service) SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSignupRequest(r)
	if err != nil {
		return nil, err
	}

	method := auth.DeliveryMethod(req.Type)
	user, err := s.repoMngr.User().ByIdentity(ctx, method, req.Identity)
	switch {
	case err == nil && user.IsVerified:
		return nil, auth.ErrConflict("cannot register user")
	case err == nil:
		if err = s.resetUser(r, user.ID, req); err != nil {
			return nil, err
		}
	case err == sql.ErrNoRows:
		user = req.ToUser()
		if err = s.repoMngr.User().Create(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	handle, err := s.otp.Issue(ctx, &auth.OTPRequest{
		Recipient: req.Identity,
		Method:    method,
		Purpose:   auth.PurposeSignup,
		Format:    auth.OTPNumeric,
		Subject:   signupSubject,
		Template:  signupTemplate,
	})
	if err != nil {
		return nil, err
	}

	return handle, nil
}

// Verify confirms ownership of the signup address and authenticates
// the new User.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSignupVerifyRequest(r)
	if err != nil {
		return nil, err
	}

	res, err := s.otp.Verify(ctx, req.Identity, auth.PurposeSignup, req.Code)
	if err != nil {
		return nil, err
	}
	if err = httpapi.OTPError(res); err != nil {
		return nil, err
	}

	method := auth.DeliveryMethod(req.Type)
	user, err := s.verifyUser(r, method, req.Identity)
	if err != nil {
		return nil, err
	}

	factor := auth.FactorEmailOTP
	if method == auth.Phone {
		factor = auth.FactorSMS
	}

	authn, err := s.token.Create(ctx, &auth.AuthenticationRequest{
		UserID:    user.ID,
		AMR:       []auth.FactorType{factor},
		IPAddress: httpapi.GetIP(r),
	})
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log(
		"message", "user verified",
		"user_id", user.ID,
		"source", "signupapi.Verify",
	)

	for _, c := range token.Cookies(authn, s.cookieDomain, s.clock()) {
		http.SetCookie(w, c)
	}

	return token.NewResponse(authn), nil
}

func (s *service) resetUser(r *http.Request, userID string, req *signupRequest) error {
	ctx := r.Context()

	var hash string
	if req.Password != "" {
		if err := s.password.OKForUser(req.Password); err != nil {
			return err
		}
		b, err := s.password.Hash(req.Password)
		if err != nil {
			return err
		}
		hash = string(b)
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return err
	}

	_, err = client.WithAtomic(func() (interface{}, error) {
		user, err := client.User().GetForUpdate(ctx, userID)
		if err != nil {
			return nil, err
		}

		// The address was verified after we first looked it up.
		if user.IsVerified {
			return nil, auth.ErrConflict("cannot register user")
		}

		user.Password = hash
		user.DisplayName = req.ToUser().DisplayName
		return user, client.User().Update(ctx, user)
	})

	return err
}

// verifyUser marks the User as verified and records the signup
// address as their first credential.
func (s *service) verifyUser(r *http.Request, method auth.DeliveryMethod, identity string) (*auth.User, error) {
	ctx := r.Context()

	user, err := s.repoMngr.User().ByIdentity(ctx, method, identity)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound("account does not exist")
	}
	if err != nil {
		return nil, err
	}

	credentialType := auth.CredentialEmailOTP
	if method == auth.Phone {
		credentialType = auth.CredentialSMS
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, err
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		user, err := client.User().GetForUpdate(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		if user.IsVerified {
			return user, nil
		}

		user.IsVerified = true
		if err = client.User().Update(ctx, user); err != nil {
			return nil, err
		}

		credential := &auth.Credential{
			UserID:     user.ID,
			Type:       credentialType,
			Identifier: identity,
			Name:       fmt.Sprintf("%s %s", method, identity),
			IsVerified: true,
			IsEnabled:  true,
		}
		if err = client.Credential().Create(ctx, credential); err != nil {
			return nil, err
		}

		return user, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.User), nil
}
