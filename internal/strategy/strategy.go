package strategy

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// Password verifies a user's password.
type Password struct {
	repoMngr auth.RepositoryManager
	password auth.PasswordService
}

// Verify compares a submitted password against the stored hash.
func (p *Password) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	user, err := lookupUser(ctx, p.repoMngr, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return notFound(userID), nil
	}

	err = p.password.Validate(user, payload.Code)
	if auth.ErrorCode(err) == auth.EMismatch {
		return &auth.FactorResult{UserID: userID, Reason: auth.ReasonMismatch}, nil
	}
	if err != nil {
		return nil, err
	}

	return success(auth.FactorPassword, userID), nil
}

// Passkey verifies a WebAuthn assertion.
type Passkey struct {
	repoMngr auth.RepositoryManager
	webauthn auth.WebAuthnService
}

// Verify checks an assertion against the user's login ceremony.
func (p *Passkey) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	user, err := lookupUser(ctx, p.repoMngr, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return notFound(userID), nil
	}

	return p.webauthn.FinishLogin(ctx, user, payload.Assertion)
}

// TOTP verifies a TOTP code or a backup code.
type TOTP struct {
	totp auth.TOTPService
}

// Verify checks a code against the user's authenticator app.
func (t *TOTP) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	return t.totp.Verify(ctx, userID, payload.Code)
}

// OTP verifies a code delivered to a user's phone or email.
type OTP struct {
	factor     auth.FactorType
	method     auth.DeliveryMethod
	purpose    auth.Purpose
	credential auth.CredentialType
	repoMngr   auth.RepositoryManager
	otp        auth.OTPService
}

// NewOTP returns a strategy for a delivered code. SMS codes are
// checked against the user's phone, everything else against
// their email. Magic links are issued under their own purpose.
func NewOTP(factor auth.FactorType, repoMngr auth.RepositoryManager, otp auth.OTPService) *OTP {
	o := OTP{
		factor:     factor,
		method:     auth.Email,
		purpose:    auth.PurposeLogin,
		credential: auth.CredentialEmailOTP,
		repoMngr:   repoMngr,
		otp:        otp,
	}
	switch factor {
	case auth.FactorSMS:
		o.method = auth.Phone
		o.credential = auth.CredentialSMS
	case auth.FactorMagicLink:
		o.purpose = auth.PurposeMagicLink
	}

	return &o
}

// Verify consumes the login code issued to the user's address. The
// address must be held by an active credential of the user.
func (o *OTP) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	user, err := lookupUser(ctx, o.repoMngr, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return notFound(userID), nil
	}

	recipient := user.Email
	if o.method == auth.Phone {
		recipient = user.Phone
	}
	if !recipient.Valid || recipient.String == "" {
		return notFound(userID), nil
	}

	credential, err := o.repoMngr.Credential().ByIdentifier(ctx, o.credential, recipient.String)
	if err == sql.ErrNoRows {
		return notFound(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("credential store unavailable"), err.Error())
	}
	if credential.UserID != userID {
		return notFound(userID), nil
	}
	if !credential.IsActive() {
		return &auth.FactorResult{UserID: userID, Reason: auth.ReasonRevoked}, nil
	}

	res, err := o.otp.Verify(ctx, recipient.String, o.purpose, payload.Code)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case auth.OTPOK:
		return success(o.factor, userID), nil
	case auth.OTPExhausted:
		return &auth.FactorResult{UserID: userID, Reason: auth.ReasonExhausted}, nil
	case auth.OTPMismatch:
		return &auth.FactorResult{
			UserID:            userID,
			Reason:            auth.ReasonMismatch,
			AttemptsRemaining: res.AttemptsRemaining,
		}, nil
	default:
		return &auth.FactorResult{UserID: userID, Reason: auth.ReasonExpired}, nil
	}
}

// DeviceTrust verifies a trusted device's signed challenge.
type DeviceTrust struct {
	devices auth.DeviceTrustService
}

// Verify checks the challenge signature. When a user is already
// known the device must belong to them.
func (d *DeviceTrust) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	res, err := d.devices.VerifyChallenge(ctx, payload.DeviceID, payload.ChallengeID, payload.Signature)
	if err != nil {
		return nil, err
	}

	if res.Success && userID != "" && res.UserID != userID {
		return &auth.FactorResult{UserID: userID, DeviceID: res.DeviceID, Reason: auth.ReasonNotFound}, nil
	}

	return res, nil
}

// lookupUser returns a nil User when none exists.
func lookupUser(ctx context.Context, repoMngr auth.RepositoryManager, userID string) (*auth.User, error) {
	if userID == "" {
		return nil, nil
	}

	user, err := repoMngr.User().ByID(ctx, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(auth.ErrInfrastructure("user store unavailable"), err.Error())
	}

	return user, nil
}

func success(factor auth.FactorType, userID string) *auth.FactorResult {
	return &auth.FactorResult{Success: true, AMR: factor, UserID: userID}
}

func notFound(userID string) *auth.FactorResult {
	return &auth.FactorResult{UserID: userID, Reason: auth.ReasonNotFound}
}
