package authcore

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// ENotFound represents a missing credential, challenge or entity.
	ENotFound ErrCode = "not_found"
	// EExpired represents a challenge, code or token past its TTL.
	EExpired ErrCode = "expired"
	// EExhausted represents a challenge with no verification attempts left.
	EExhausted ErrCode = "exhausted"
	// EMismatch represents a wrong code or signature.
	EMismatch ErrCode = "mismatch"
	// EReplayDetected represents a reused challenge, code, refresh token
	// or a non-increasing passkey counter.
	EReplayDetected ErrCode = "replay_detected"
	// ERevoked represents an explicitly invalidated token or credential.
	ERevoked ErrCode = "revoked"
	// EUnauthorized represents an assurance level below an endpoint's
	// requirement.
	EUnauthorized ErrCode = "unauthorized"
	// EConflict represents a duplicate registration or a forbidden
	// state transition such as removing a user's last factor.
	EConflict ErrCode = "conflict"
	// EDeliveryFailed represents an email/SMS transport failure.
	EDeliveryFailed ErrCode = "delivery_failed"
	// EInfrastructure represents an unreachable store.
	EInfrastructure ErrCode = "infrastructure_unavailable"
	// EInvalidToken represents an invalid JWT token error.
	EInvalidToken ErrCode = "invalid_token"
	// EInvalidField represents an entity field error in a repository.
	EInvalidField ErrCode = "invalid_field"
	// EBadRequest represents a malformed request.
	EBadRequest ErrCode = "bad_request"
	// EThrottle represents a rate limited request.
	EThrottle ErrCode = "throttle"
	// EInternal represents an internal error outside of our domain.
	EInternal ErrCode = "internal"
)

// Error represents an error within the authcore domain.
type Error interface {
	Error() string
	Code() ErrCode
	Message() string
}

// ErrCode is a machine readable code representing
// an error within the authcore domain.
type ErrCode string

// ErrNotFound is returned when no credential or challenge exists for a key.
type ErrNotFound string

func (e ErrNotFound) Code() ErrCode   { return ENotFound }
func (e ErrNotFound) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrNotFound) Message() string { return string(e) }

// ErrExpired is returned when a challenge or code outlived its TTL.
type ErrExpired string

func (e ErrExpired) Code() ErrCode   { return EExpired }
func (e ErrExpired) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrExpired) Message() string { return string(e) }

// ErrExhausted is returned when a challenge reached its max attempts.
type ErrExhausted string

func (e ErrExhausted) Code() ErrCode   { return EExhausted }
func (e ErrExhausted) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrExhausted) Message() string { return string(e) }

// ErrMismatch is returned for a wrong code or signature.
type ErrMismatch string

func (e ErrMismatch) Code() ErrCode   { return EMismatch }
func (e ErrMismatch) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrMismatch) Message() string { return string(e) }

// ErrReplayDetected is returned when a single use secret is presented
// a second time.
type ErrReplayDetected string

func (e ErrReplayDetected) Code() ErrCode   { return EReplayDetected }
func (e ErrReplayDetected) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrReplayDetected) Message() string { return string(e) }

// ErrRevoked is returned for revoked tokens and credentials.
type ErrRevoked string

func (e ErrRevoked) Code() ErrCode   { return ERevoked }
func (e ErrRevoked) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrRevoked) Message() string { return string(e) }

// ErrUnauthorized is returned when a token's ACR is below what
// an operation requires.
type ErrUnauthorized string

func (e ErrUnauthorized) Code() ErrCode   { return EUnauthorized }
func (e ErrUnauthorized) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrUnauthorized) Message() string { return string(e) }

// ErrConflict is returned for duplicate registrations and
// forbidden removals.
type ErrConflict string

func (e ErrConflict) Code() ErrCode   { return EConflict }
func (e ErrConflict) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrConflict) Message() string { return string(e) }

// ErrDeliveryFailed is returned when an OTP could not be handed
// to its delivery channel.
type ErrDeliveryFailed string

func (e ErrDeliveryFailed) Code() ErrCode   { return EDeliveryFailed }
func (e ErrDeliveryFailed) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrDeliveryFailed) Message() string { return string(e) }

// ErrInfrastructure is returned when a backing store is unreachable.
type ErrInfrastructure string

func (e ErrInfrastructure) Code() ErrCode   { return EInfrastructure }
func (e ErrInfrastructure) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInfrastructure) Message() string { return string(e) }

// ErrInvalidToken represents an error related to JWT token invalidation
// such as expiry, revocation, or signing errors.
type ErrInvalidToken string

func (e ErrInvalidToken) Code() ErrCode   { return EInvalidToken }
func (e ErrInvalidToken) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInvalidToken) Message() string { return string(e) }

// ErrInvalidField represents an error related to missing or invalid entity fields
// in a supplied to repository.
type ErrInvalidField string

func (e ErrInvalidField) Code() ErrCode   { return EInvalidField }
func (e ErrInvalidField) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInvalidField) Message() string { return string(e) }

// ErrBadRequest represents a request we are unable to parse.
type ErrBadRequest string

func (e ErrBadRequest) Code() ErrCode   { return EBadRequest }
func (e ErrBadRequest) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrBadRequest) Message() string { return string(e) }

// ErrThrottle represents a request that exceeded a rate limit.
type ErrThrottle string

func (e ErrThrottle) Code() ErrCode   { return EThrottle }
func (e ErrThrottle) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrThrottle) Message() string { return string(e) }

// DomainError returns a domain error if available.
func DomainError(err error) Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return e
	}

	var e Error
	if errors.As(err, &e) {
		return e
	}

	if e, ok := errors.Cause(err).(Error); ok {
		return e
	}

	return nil
}

// ErrorCode returns the code associated with a domain error.
// If an error is not part of the authcore domain, it
// returns Internal.
func ErrorCode(err error) ErrCode {
	if err == nil {
		return ErrCode("")
	}

	e := DomainError(err)
	if e == nil {
		return EInternal
	}

	return e.Code()
}
