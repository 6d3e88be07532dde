// Package loginapi provides an HTTP API for user authentication.
package loginapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
	"github.com/strategiz/authcore/internal/httpapi"
	"github.com/strategiz/authcore/internal/token"
)

const (
	loginSubject     = "Your sign in code"
	loginTemplate    = "Your sign in code is %s"
	magicLinkSubject = "Your sign in link"
	magicLinkPrefix  = "Sign in using this link: "
)

type service struct {
	logger       log.Logger
	token        auth.TokenService
	repoMngr     auth.RepositoryManager
	otp          auth.OTPService
	webauthn     auth.WebAuthnService
	strategies   auth.AuthenticationStrategy
	mfa          auth.MFAService
	magicLinkURL string
	cookieDomain string
	clock        func() time.Time
}

type sendOTPResponse struct {
	Recipient string `json:"recipient"`
}

type loginResponse struct {
	*token.Response
	StepUp *auth.StepUpCheck `json:"stepUp"`
}

// SendOTP delivers a login code or magic link to a verified address.
// The response is the same whether or not the address belongs to a
// User.
func (s *service) SendOTP(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSendOTPRequest(r)
	if err != nil {
		return nil, err
	}

	resp := &sendOTPResponse{Recipient: mask(req.Method(), req.Identity)}

	user, err := s.repoMngr.User().ByIdentity(ctx, req.Method(), req.Identity)
	if err == sql.ErrNoRows || (err == nil && !user.IsVerified) {
		level.Info(s.logger).Log(
			"message", "login code requested for unknown address",
			"source", "loginapi.SendOTP",
		)
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	otpReq := &auth.OTPRequest{
		Recipient: req.Identity,
		Method:    req.Method(),
		Purpose:   auth.PurposeLogin,
		Format:    auth.OTPNumeric,
		Subject:   loginSubject,
		Template:  loginTemplate,
	}
	if req.MagicLink {
		if s.magicLinkURL == "" {
			return nil, auth.ErrBadRequest("magic links are not enabled")
		}
		otpReq.Purpose = auth.PurposeMagicLink
		otpReq.Format = auth.OTPOpaque
		otpReq.Subject = magicLinkSubject
		otpReq.Template = magicLinkPrefix + s.magicLinkURL
	}

	if _, err = s.otp.Issue(ctx, otpReq); err != nil {
		return nil, err
	}

	return resp, nil
}

// BeginPasskey starts a WebAuthn assertion for a User.
func (s *service) BeginPasskey(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeIdentityRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.repoMngr.User().ByIdentity(ctx, req.Method(), req.Identity)
	if err == sql.ErrNoRows {
		return nil, httpapi.FactorError(&auth.FactorResult{Reason: auth.ReasonNotFound})
	}
	if err != nil {
		return nil, err
	}

	return s.webauthn.BeginLogin(ctx, user)
}

// Login verifies a single factor and issues a token pair.
func (s *service) Login(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeLoginRequest(r)
	if err != nil {
		return nil, err
	}

	var userID string
	if req.Factor.Type != auth.FactorDeviceTrust {
		user, err := s.repoMngr.User().ByIdentity(ctx, req.Method(), req.Identity)
		if err == sql.ErrNoRows || (err == nil && !user.IsVerified) {
			return nil, httpapi.FactorError(&auth.FactorResult{Reason: auth.ReasonNotFound})
		}
		if err != nil {
			return nil, err
		}
		userID = user.ID
	}

	res, err := s.strategies.Verify(ctx, userID, &req.Factor)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, httpapi.FactorError(res)
	}

	authn, err := s.token.Create(ctx, &auth.AuthenticationRequest{
		UserID:    res.UserID,
		AMR:       []auth.FactorType{res.AMR},
		DeviceID:  res.DeviceID,
		IPAddress: httpapi.GetIP(r),
	})
	if err != nil {
		return nil, err
	}

	return s.respond(ctx, w, res.UserID, authn)
}

// StepUp verifies an additional factor for an authenticated session
// and replaces the session with one carrying both factors.
func (s *service) StepUp(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	current := httpapi.GetToken(r)

	req, err := decodeStepUpRequest(r)
	if err != nil {
		return nil, err
	}

	res, err := s.strategies.Verify(ctx, current.UserID, &req.Factor)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, httpapi.FactorError(res)
	}
	if res.UserID != current.UserID {
		return nil, auth.ErrUnauthorized("factor belongs to another user")
	}

	deviceID := current.DeviceID
	if res.DeviceID != "" {
		deviceID = res.DeviceID
	}

	authn, err := s.token.Create(ctx, &auth.AuthenticationRequest{
		UserID:    current.UserID,
		AMR:       auth.MergeAMR(current.AMR, res.AMR),
		DeviceID:  deviceID,
		IPAddress: httpapi.GetIP(r),
	})
	if err != nil {
		return nil, err
	}

	if err = s.token.RevokeSession(ctx, current.UserID, current.SessionID); err != nil {
		level.Warn(s.logger).Log(
			"message", "failed to revoke session after step-up",
			"user_id", current.UserID,
			"session_id", current.SessionID,
			"error", err,
			"source", "loginapi.StepUp",
		)
	}

	return s.respond(ctx, w, current.UserID, authn)
}

func (s *service) respond(ctx context.Context, w http.ResponseWriter, userID string, authn *auth.Authentication) (*loginResponse, error) {
	stepUp, err := s.mfa.CheckStepUp(ctx, userID, authn.ACR)
	if err != nil {
		return nil, err
	}

	for _, c := range token.Cookies(authn, s.cookieDomain, s.clock()) {
		http.SetCookie(w, c)
	}

	return &loginResponse{
		Response: token.NewResponse(authn),
		StepUp:   stepUp,
	}, nil
}

func mask(method auth.DeliveryMethod, address string) string {
	if method == auth.Phone {
		return contactchecker.MaskPhone(address)
	}
	return contactchecker.MaskEmail(address)
}
