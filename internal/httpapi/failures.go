package httpapi

import (
	"fmt"

	auth "github.com/strategiz/authcore"
)

// FactorError converts a failed factor verification into a domain
// error. Unknown users and credentials are reported as a mismatch so
// a client cannot tell them apart from a wrong code.
func FactorError(res *auth.FactorResult) error {
	switch res.Reason {
	case auth.ReasonExpired:
		return auth.ErrExpired("code is expired")
	case auth.ReasonExhausted:
		return auth.ErrExhausted("too many failed attempts")
	case auth.ReasonReplayDetected:
		return auth.ErrReplayDetected("code was already used")
	case auth.ReasonRevoked:
		return auth.ErrRevoked("credential is revoked")
	case auth.ReasonMismatch:
		if res.AttemptsRemaining > 0 {
			return auth.ErrMismatch(fmt.Sprintf(
				"invalid credentials, %d attempts remaining", res.AttemptsRemaining,
			))
		}
		return auth.ErrMismatch("invalid credentials")
	default:
		return auth.ErrMismatch("invalid credentials")
	}
}

// OTPError converts an unsuccessful OTP verification into a domain error.
func OTPError(res *auth.OTPResult) error {
	switch res.Status {
	case auth.OTPOK:
		return nil
	case auth.OTPExhausted:
		return FactorError(&auth.FactorResult{Reason: auth.ReasonExhausted})
	case auth.OTPMismatch:
		return FactorError(&auth.FactorResult{
			Reason:            auth.ReasonMismatch,
			AttemptsRemaining: res.AttemptsRemaining,
		})
	default:
		return FactorError(&auth.FactorResult{Reason: auth.ReasonExpired})
	}
}
