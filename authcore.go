// Package authcore is a multi-factor authentication service. It verifies
// individual authentication factors, aggregates them into an assurance
// level (ACR) and manages the lifecycle of the bearer tokens that carry it.
package authcore

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FactorType identifies an authentication factor. Its value is
// the tag recorded in a token's amr claim.
type FactorType string

const (
	// FactorPassword is a password known by the user.
	FactorPassword FactorType = "PASSWORD"
	// FactorPasskey is a WebAuthn assertion.
	FactorPasskey FactorType = "PASSKEY"
	// FactorTOTP is a time based one time password.
	FactorTOTP FactorType = "TOTP"
	// FactorBackupCode is a single use TOTP recovery code.
	FactorBackupCode FactorType = "BACKUP_CODE"
	// FactorSMS is a code delivered by SMS.
	FactorSMS FactorType = "SMS"
	// FactorEmailOTP is a code delivered by email.
	FactorEmailOTP FactorType = "EMAIL_OTP"
	// FactorMagicLink is an opaque token delivered by email.
	FactorMagicLink FactorType = "MAGIC_LINK"
	// FactorDeviceTrust is a signed challenge from a trusted device.
	FactorDeviceTrust FactorType = "DEVICE_TRUST"
)

// CredentialType identifies the kind of long lived factor
// stored for a user.
type CredentialType string

const (
	// CredentialPasskey holds a WebAuthn public key and signature counter.
	CredentialPasskey CredentialType = "PASSKEY"
	// CredentialTOTP holds a sealed TOTP seed.
	CredentialTOTP CredentialType = "TOTP"
	// CredentialSMS holds a verified phone number.
	CredentialSMS CredentialType = "SMS"
	// CredentialEmailOTP holds a verified email address.
	CredentialEmailOTP CredentialType = "EMAIL_OTP"
	// CredentialDevice is a device public key. Device keys are
	// stored on their DeviceTrust record.
	CredentialDevice CredentialType = "DEVICE"
)

// DeliveryMethod is a channel an OTP message is delivered through.
type DeliveryMethod string

const (
	// Phone delivers messages by SMS.
	Phone DeliveryMethod = "phone"
	// Email delivers messages by email.
	Email DeliveryMethod = "email"
)

// Purpose scopes a one time code to the flow that requested it.
type Purpose string

const (
	// PurposeLogin is used for codes that authenticate a user.
	PurposeLogin Purpose = "login"
	// PurposeMagicLink is used for opaque tokens delivered in a link.
	PurposeMagicLink Purpose = "magic-link"
	// PurposeSignup is used for codes that verify a new account.
	PurposeSignup Purpose = "signup"
	// PurposeContact is used for codes that verify a new phone or email.
	PurposeContact Purpose = "contact"
)

// OTPFormat determines the shape of a generated secret.
type OTPFormat string

const (
	// OTPNumeric is a short numeric code typed in by a user.
	OTPNumeric OTPFormat = "numeric"
	// OTPOpaque is a long URL safe token embedded in a magic link.
	OTPOpaque OTPFormat = "opaque"
)

// OTPStatus is the outcome of an OTP verification.
type OTPStatus string

const (
	// OTPOK means the code matched and was consumed.
	OTPOK OTPStatus = "ok"
	// OTPExpired means no active code exists for the recipient.
	OTPExpired OTPStatus = "expired"
	// OTPExhausted means the code used all of its attempts.
	OTPExhausted OTPStatus = "exhausted"
	// OTPMismatch means the submitted code was wrong.
	OTPMismatch OTPStatus = "mismatch"
)

// FailureReason describes why a factor was not verified.
type FailureReason string

const (
	ReasonInvalidSignature FailureReason = "invalid-signature"
	ReasonReplayDetected   FailureReason = "replay-detected"
	ReasonExpired          FailureReason = "expired"
	ReasonNotFound         FailureReason = "not-found"
	ReasonRevoked          FailureReason = "revoked"
	ReasonMismatch         FailureReason = "mismatch"
	ReasonExhausted        FailureReason = "exhausted"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	// AccessToken authorizes requests.
	AccessToken TokenType = "ACCESS"
	// RefreshToken is exchanged for a new token pair.
	RefreshToken TokenType = "REFRESH"
)

// TrustLevel is a device's standing in the device trust engine.
type TrustLevel string

const (
	TrustHigh       TrustLevel = "HIGH"
	TrustTrusted    TrustLevel = "TRUSTED"
	TrustRecognized TrustLevel = "RECOGNIZED"
	TrustUnknown    TrustLevel = "UNKNOWN"
	TrustRevoked    TrustLevel = "REVOKED"
)

// User represents a user registered with the service.
type User struct {
	ID          string         `json:"id"`
	Email       sql.NullString `json:"-"`
	Phone       sql.NullString `json:"-"`
	Password    string         `json:"-"`
	DisplayName string         `json:"displayName"`
	// MFAEnforced requires tokens to reach MinimumACR before
	// the user is considered fully authenticated.
	MFAEnforced bool      `json:"mfaEnforced"`
	MinimumACR  ACR       `json:"minimumAcr"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasPassword reports whether the user may authenticate with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// Credential is a long lived authentication factor owned by a user.
// The meaning of Identifier and Secret depends on Type:
//
//	PASSKEY    Identifier is the base64url credential ID, Secret the COSE public key.
//	TOTP       Identifier is the issuer account name, Secret the sealed seed.
//	SMS        Identifier is the E.164 phone number.
//	EMAIL_OTP  Identifier is the email address.
type Credential struct {
	ID         string         `json:"id"`
	UserID     string         `json:"-"`
	Type       CredentialType `json:"type"`
	Identifier string         `json:"identifier"`
	Name       string         `json:"name"`
	Secret     []byte         `json:"-"`
	// Counter is the passkey signature counter. It must increase
	// with every successful assertion.
	Counter        uint32       `json:"-"`
	AAGUID         []byte       `json:"-"`
	BackupEligible bool         `json:"-"`
	BackupState    bool         `json:"-"`
	IsFlagged      bool         `json:"isFlagged"`
	IsVerified     bool         `json:"isVerified"`
	IsEnabled      bool         `json:"isEnabled"`
	LastUsedAt     sql.NullTime `json:"-"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// IsActive reports whether the credential may be used to authenticate.
func (c *Credential) IsActive() bool {
	return c.IsEnabled && c.IsVerified && !c.IsFlagged
}

// BackupCode is a hashed single use TOTP recovery code.
type BackupCode struct {
	ID        string
	UserID    string
	CodeHash  string
	CreatedAt time.Time
}

// DeviceTrust is the trust state of a device that may silently
// re-authenticate its user.
type DeviceTrust struct {
	ID             string       `json:"deviceId"`
	UserID         string       `json:"-"`
	Name           string       `json:"name"`
	Fingerprint    string       `json:"-"`
	PublicKey      []byte       `json:"-"`
	TrustLevel     TrustLevel   `json:"trustLevel"`
	TrustScore     int          `json:"trustScore"`
	IsTrusted      bool         `json:"isTrusted"`
	TrustExpiresAt sql.NullTime `json:"-"`
	LastSeenAt     sql.NullTime `json:"-"`
	LastVerifiedAt sql.NullTime `json:"-"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// TrustValid reports whether the device is trusted at a point in time.
func (d *DeviceTrust) TrustValid(now time.Time) bool {
	if !d.IsTrusted || !d.TrustExpiresAt.Valid {
		return false
	}

	return d.TrustExpiresAt.Time.After(now)
}

// LoginHistory is the revocation record of an authenticated session.
// Every token pair minted for a session carries its TokenID in the
// sid claim.
type LoginHistory struct {
	TokenID        string         `json:"sessionId"`
	UserID         string         `json:"-"`
	DeviceID       sql.NullString `json:"-"`
	AMR            []FactorType   `json:"amr"`
	ACR            ACR            `json:"acr"`
	RefreshTokenID string         `json:"-"`
	IsRevoked      bool           `json:"isRevoked"`
	RevokedReason  sql.NullString `json:"-"`
	IPAddress      sql.NullString `json:"-"`
	ExpiresAt      time.Time      `json:"expiresAt"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Token is the set of claims carried by a signed access or refresh token.
type Token struct {
	jwt.RegisteredClaims
	UserID    string       `json:"user_id"`
	SessionID string       `json:"sid"`
	AMR       []FactorType `json:"amr"`
	ACR       ACR          `json:"acr"`
	DeviceID  string       `json:"device_id,omitempty"`
	Type      TokenType    `json:"typ"`
}

// Authentication is a signed token pair.
type Authentication struct {
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	ACR              ACR          `json:"acr"`
	AMR              []FactorType `json:"amr"`
	SessionID        string       `json:"sessionId"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
	// Claims holds the decoded access token.
	Claims *Token `json:"-"`
}

// AuthenticationRequest describes a completed login attempt.
type AuthenticationRequest struct {
	UserID    string
	AMR       []FactorType
	DeviceID  string
	IPAddress string
}

// FactorPayload is the material submitted to verify a single factor.
// Only the fields relevant to Type are read.
type FactorPayload struct {
	Type FactorType `json:"type"`
	// Code is a password, TOTP code, backup code or delivered OTP.
	Code string `json:"code,omitempty"`
	// Recipient is the email or phone a delivered OTP was sent to.
	Recipient string `json:"recipient,omitempty"`
	// Assertion is a raw WebAuthn assertion response.
	Assertion []byte `json:"assertion,omitempty"`
	// DeviceID, ChallengeID and Signature complete a device trust
	// challenge.
	DeviceID    string `json:"deviceId,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// FactorResult is the outcome of verifying a single factor.
type FactorResult struct {
	Success           bool          `json:"success"`
	AMR               FactorType    `json:"amr,omitempty"`
	UserID            string        `json:"-"`
	DeviceID          string        `json:"deviceId,omitempty"`
	Reason            FailureReason `json:"reason,omitempty"`
	AttemptsRemaining int           `json:"attemptsRemaining,omitempty"`
}

// OTPRequest describes a one time secret to issue and deliver.
type OTPRequest struct {
	Recipient   string
	Method      DeliveryMethod
	Purpose     Purpose
	Format      OTPFormat
	Length      int
	TTL         time.Duration
	MaxAttempts int
	// Cooldown is the minimum interval before another code may be
	// issued for the same recipient and purpose.
	Cooldown time.Duration
	// Subject and Template format the delivered message. Template
	// receives the code through a single %s verb.
	Subject  string
	Template string
}

// OTPHandle references an issued one time secret without exposing it.
type OTPHandle struct {
	Recipient   string    `json:"recipient"`
	Purpose     Purpose   `json:"purpose"`
	ExpiresAt   time.Time `json:"expiresAt"`
	MaxAttempts int       `json:"maxAttempts"`
}

// OTPResult is the outcome of verifying a one time secret.
type OTPResult struct {
	Status            OTPStatus `json:"status"`
	AttemptsRemaining int       `json:"attemptsRemaining"`
}

// TOTPEnrollment is a pending TOTP secret shown to the user.
type TOTPEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	// QRCode is a base64 encoded PNG of URL.
	QRCode string `json:"qrCode"`
}

// TrustRequest enrolls the calling device in device trust.
type TrustRequest struct {
	Name        string
	Fingerprint string
	// PublicKey is a PKIX, DER encoded public key.
	PublicKey []byte
}

// TrustCheckRequest identifies a device asking whether it is trusted.
type TrustCheckRequest struct {
	DeviceID    string
	Fingerprint string
}

// TrustCheck is the result of a device trust lookup.
type TrustCheck struct {
	Trusted     bool       `json:"trusted"`
	DeviceID    string     `json:"deviceId,omitempty"`
	UserID      string     `json:"userId,omitempty"`
	MaskedEmail string     `json:"maskedEmail,omitempty"`
	MaskedPhone string     `json:"maskedPhone,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	TrustLevel  TrustLevel `json:"trustLevel"`
	Reason      string     `json:"reason,omitempty"`
}

// DeviceChallenge is a nonce a trusted device must sign.
type DeviceChallenge struct {
	ChallengeID string    `json:"challengeId"`
	Nonce       string    `json:"challenge"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// StepUpCheck reports whether a session must add a factor.
type StepUpCheck struct {
	Required         bool          `json:"required"`
	MinimumACR       ACR           `json:"minimumAcr,omitempty"`
	AvailableMethods []*Credential `json:"availableMethods,omitempty"`
}

// MFASettings summarizes a user's MFA enforcement.
type MFASettings struct {
	Enforced         bool          `json:"enforced"`
	MinimumACR       ACR           `json:"minimumAcr"`
	CanEnable        bool          `json:"canEnable"`
	AvailableMethods []*Credential `json:"availableMethods"`
}

// Message is a message to be delivered to a user.
type Message struct {
	Delivery         DeliveryMethod `json:"delivery"`
	Address          string         `json:"address"`
	Subject          string         `json:"subject"`
	Content          string         `json:"content"`
	ExpiresAt        time.Time      `json:"expiresAt"`
	DeliveryAttempts int            `json:"deliveryAttempts"`
}

// UserRepository manages User persistence.
type UserRepository interface {
	// ByID retrieves a User by their ID.
	ByID(ctx context.Context, userID string) (*User, error)
	// ByIdentity retrieves a User by an email or phone number.
	ByIdentity(ctx context.Context, method DeliveryMethod, value string) (*User, error)
	// GetForUpdate retrieves a User and locks the row.
	GetForUpdate(ctx context.Context, userID string) (*User, error)
	// Create persists a new User.
	Create(ctx context.Context, user *User) error
	// Update updates a User.
	Update(ctx context.Context, user *User) error
}

// CredentialRepository manages Credential persistence.
type CredentialRepository interface {
	ByID(ctx context.Context, credentialID string) (*Credential, error)
	ByIdentifier(ctx context.Context, credentialType CredentialType, identifier string) (*Credential, error)
	ByUserID(ctx context.Context, userID string) ([]*Credential, error)
	GetForUpdate(ctx context.Context, credentialID string) (*Credential, error)
	Create(ctx context.Context, credential *Credential) error
	Update(ctx context.Context, credential *Credential) error
	Remove(ctx context.Context, credentialID, userID string) error
}

// BackupCodeRepository manages BackupCode persistence.
type BackupCodeRepository interface {
	ByUserID(ctx context.Context, userID string) ([]*BackupCode, error)
	Create(ctx context.Context, code *BackupCode) error
	// Remove deletes a single code. It returns ErrNotFound if the
	// code was already consumed.
	Remove(ctx context.Context, codeID, userID string) error
	RemoveByUserID(ctx context.Context, userID string) (int, error)
}

// DeviceTrustRepository manages DeviceTrust persistence.
type DeviceTrustRepository interface {
	ByID(ctx context.Context, deviceID string) (*DeviceTrust, error)
	ByFingerprint(ctx context.Context, fingerprint string) (*DeviceTrust, error)
	ByUserID(ctx context.Context, userID string) ([]*DeviceTrust, error)
	GetForUpdate(ctx context.Context, deviceID string) (*DeviceTrust, error)
	Create(ctx context.Context, device *DeviceTrust) error
	Update(ctx context.Context, device *DeviceTrust) error
}

// LoginHistoryRepository manages LoginHistory persistence.
type LoginHistoryRepository interface {
	ByTokenID(ctx context.Context, tokenID string) (*LoginHistory, error)
	ByUserID(ctx context.Context, userID string, limit, offset int) ([]*LoginHistory, error)
	// Active retrieves unrevoked, unexpired sessions of a User.
	Active(ctx context.Context, userID string) ([]*LoginHistory, error)
	GetForUpdate(ctx context.Context, tokenID string) (*LoginHistory, error)
	Create(ctx context.Context, history *LoginHistory) error
	Update(ctx context.Context, history *LoginHistory) error
	// RevokeByUserID revokes every active session of a User and
	// returns the number of sessions revoked.
	RevokeByUserID(ctx context.Context, userID, reason string) (int, error)
	// RemoveExpired deletes sessions that expired before a point in time.
	RemoveExpired(ctx context.Context, before time.Time) (int, error)
}

// RepositoryManager manages repositories stored in storage with
// atomic properties.
type RepositoryManager interface {
	// NewWithTransaction returns a new RepositoryManager with a transaction.
	NewWithTransaction(ctx context.Context) (RepositoryManager, error)
	// WithAtomic performs an operation within a transaction.
	WithAtomic(operation func() (interface{}, error)) (interface{}, error)
	User() UserRepository
	Credential() CredentialRepository
	BackupCode() BackupCodeRepository
	DeviceTrust() DeviceTrustRepository
	LoginHistory() LoginHistoryRepository
}

// PasswordService manages password hashing and validation.
type PasswordService interface {
	// Hash hashes a password for storage.
	Hash(password string) ([]byte, error)
	// Validate checks a password against a User's stored hash.
	Validate(user *User, password string) error
	// OKForUser checks a password meets minimum requirements.
	OKForUser(password string) error
}

// OTPService is the challenge/OTP issuer.
type OTPService interface {
	// Issue generates, stores and delivers a one time secret. Any
	// active secret for the same recipient and purpose is replaced.
	Issue(ctx context.Context, req *OTPRequest) (*OTPHandle, error)
	// Verify consumes a one time secret.
	Verify(ctx context.Context, recipient string, purpose Purpose, code string) (*OTPResult, error)
}

// TOTPService manages TOTP enrollment, verification and backup codes.
type TOTPService interface {
	// Enroll generates a pending secret for a User.
	Enroll(ctx context.Context, user *User) (*TOTPEnrollment, error)
	// Confirm activates a pending secret once the User proves possession
	// and returns a new batch of backup codes.
	Confirm(ctx context.Context, user *User, code string) ([]string, error)
	// Verify validates a TOTP code, falling back to backup codes.
	Verify(ctx context.Context, userID, code string) (*FactorResult, error)
	// RegenerateBackupCodes replaces a User's backup codes.
	RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error)
}

// WebAuthnService manages passkey registration and assertion.
type WebAuthnService interface {
	BeginSignUp(ctx context.Context, user *User) ([]byte, error)
	FinishSignUp(ctx context.Context, user *User, attestation []byte) (*Credential, error)
	BeginLogin(ctx context.Context, user *User) ([]byte, error)
	FinishLogin(ctx context.Context, user *User, assertion []byte) (*FactorResult, error)
}

// AuthenticationStrategy verifies one factor type.
type AuthenticationStrategy interface {
	// Verify verifies a factor for a User. Expected failures are
	// reported through the result; errors are infrastructure faults.
	Verify(ctx context.Context, userID string, payload *FactorPayload) (*FactorResult, error)
}

// DeviceTrustService is the device trust engine.
type DeviceTrustService interface {
	Establish(ctx context.Context, token *Token, req *TrustRequest) (*DeviceTrust, error)
	Verify(ctx context.Context, req *TrustCheckRequest) (*TrustCheck, error)
	Challenge(ctx context.Context, deviceID string) (*DeviceChallenge, error)
	VerifyChallenge(ctx context.Context, deviceID, challengeID, signature string) (*FactorResult, error)
	Authenticate(ctx context.Context, deviceID, challengeID, signature, ip string) (*Authentication, *FactorResult, error)
	Revoke(ctx context.Context, userID, deviceID string) error
	TrustedDevices(ctx context.Context, userID string) ([]*DeviceTrust, error)
}

// TokenService is the session authority. It mints, validates,
// refreshes and revokes token pairs.
type TokenService interface {
	Create(ctx context.Context, req *AuthenticationRequest) (*Authentication, error)
	Validate(ctx context.Context, signedToken string) (*Token, error)
	Refresh(ctx context.Context, refreshToken, ip string) (*Authentication, error)
	Revoke(ctx context.Context, signedToken string) error
	RevokeSession(ctx context.Context, userID, sessionID string) error
	RevokeAll(ctx context.Context, userID, reason string) (int, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// CredentialService lists and removes a User's credentials.
type CredentialService interface {
	List(ctx context.Context, userID string) ([]*Credential, error)
	// Remove deletes a credential unless it is the User's last way
	// to authenticate.
	Remove(ctx context.Context, userID, credentialID string) error
}

// MFAService manages MFA enforcement and step-up requirements.
type MFAService interface {
	CheckStepUp(ctx context.Context, userID string, acr ACR) (*StepUpCheck, error)
	AvailableMethods(ctx context.Context, userID string) ([]*Credential, error)
	Settings(ctx context.Context, userID string) (*MFASettings, error)
	SetEnforcement(ctx context.Context, userID string, enforced bool) (*MFASettings, error)
	OnMethodRemoved(ctx context.Context, userID string) error
}

// MessagingService sends messages to users.
type MessagingService interface {
	Send(ctx context.Context, msg *Message) error
}

// MessageRepository stores messages awaiting delivery.
type MessageRepository interface {
	Publish(ctx context.Context, msg *Message) error
	Recent(ctx context.Context) (<-chan *Message, <-chan error)
}

// SMSer sends SMS messages.
type SMSer interface {
	SMS(ctx context.Context, phoneNumber, message string) error
}

// Emailer sends email messages.
type Emailer interface {
	Email(ctx context.Context, email, subject, message string) error
}

// SignUpAPI provides HTTP handlers for user registration.
type SignUpAPI interface {
	SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// LoginAPI provides HTTP handlers for factor verification.
type LoginAPI interface {
	SendOTP(w http.ResponseWriter, r *http.Request) (interface{}, error)
	BeginPasskey(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Login(w http.ResponseWriter, r *http.Request) (interface{}, error)
	StepUp(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// TokenAPI provides HTTP handlers for the token lifecycle.
type TokenAPI interface {
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Refresh(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error)
	RevokeSession(w http.ResponseWriter, r *http.Request) (interface{}, error)
	RevokeAll(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// TOTPAPI provides HTTP handlers for TOTP enrollment.
type TOTPAPI interface {
	Secret(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Configure(w http.ResponseWriter, r *http.Request) (interface{}, error)
	BackupCodes(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// PasskeyAPI provides HTTP handlers for passkey registration.
type PasskeyAPI interface {
	Create(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// ContactAPI provides HTTP handlers for phone and email enrollment.
type ContactAPI interface {
	CheckAddress(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// CredentialAPI provides HTTP handlers for credential management.
type CredentialAPI interface {
	List(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Remove(w http.ResponseWriter, r *http.Request) (interface{}, error)
	MFASettings(w http.ResponseWriter, r *http.Request) (interface{}, error)
	UpdateMFA(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// DeviceTrustAPI provides HTTP handlers for device trust.
type DeviceTrustAPI interface {
	Establish(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Challenge(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Authenticate(w http.ResponseWriter, r *http.Request) (interface{}, error)
	List(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// LoginHistoryAPI provides HTTP handlers for session listing.
type LoginHistoryAPI interface {
	List(w http.ResponseWriter, r *http.Request) (interface{}, error)
}
