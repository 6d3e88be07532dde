package test

import (
	"context"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// TokenService mocks auth.TokenService interface.
type TokenService struct {
	CreateFn         func(req *auth.AuthenticationRequest) (*auth.Authentication, error)
	ValidateFn       func() (*auth.Token, error)
	RefreshFn        func() (*auth.Authentication, error)
	RevokeFn         func() error
	RevokeSessionFn  func() error
	RevokeAllFn      func() (int, error)
	CleanupExpiredFn func() (int, error)
	Calls            struct {
		Create         int
		Validate       int
		Refresh        int
		Revoke         int
		RevokeSession  int
		RevokeAll      int
		CleanupExpired int
	}
}

// OTPService mocks auth.OTPService interface.
type OTPService struct {
	IssueFn  func(req *auth.OTPRequest) (*auth.OTPHandle, error)
	VerifyFn func() (*auth.OTPResult, error)
	Calls    struct {
		Issue  int
		Verify int
	}
}

// TOTPService mocks auth.TOTPService interface.
type TOTPService struct {
	EnrollFn                func() (*auth.TOTPEnrollment, error)
	ConfirmFn               func() ([]string, error)
	VerifyFn                func() (*auth.FactorResult, error)
	RegenerateBackupCodesFn func() ([]string, error)
	Calls                   struct {
		Enroll                int
		Confirm               int
		Verify                int
		RegenerateBackupCodes int
	}
}

// WebAuthnService mocks auth.WebAuthnService interface.
type WebAuthnService struct {
	BeginSignUpFn  func() ([]byte, error)
	FinishSignUpFn func() (*auth.Credential, error)
	BeginLoginFn   func() ([]byte, error)
	FinishLoginFn  func() (*auth.FactorResult, error)
	Calls          struct {
		BeginSignUp  int
		FinishSignUp int
		BeginLogin   int
		FinishLogin  int
	}
}

// PasswordService mocks auth.PasswordService interface.
type PasswordService struct {
	HashFn      func() ([]byte, error)
	ValidateFn  func() error
	OKForUserFn func() error
	Calls       struct {
		Hash      int
		Validate  int
		OKForUser int
	}
}

// Strategy mocks auth.AuthenticationStrategy interface.
type Strategy struct {
	VerifyFn func(payload *auth.FactorPayload) (*auth.FactorResult, error)
	Calls    struct {
		Verify int
	}
}

// DeviceTrustService mocks auth.DeviceTrustService interface.
type DeviceTrustService struct {
	EstablishFn       func() (*auth.DeviceTrust, error)
	VerifyFn          func() (*auth.TrustCheck, error)
	ChallengeFn       func() (*auth.DeviceChallenge, error)
	VerifyChallengeFn func() (*auth.FactorResult, error)
	AuthenticateFn    func() (*auth.Authentication, *auth.FactorResult, error)
	RevokeFn          func() error
	TrustedDevicesFn  func() ([]*auth.DeviceTrust, error)
	Calls             struct {
		Establish       int
		Verify          int
		Challenge       int
		VerifyChallenge int
		Authenticate    int
		Revoke          int
		TrustedDevices  int
	}
}

// CredentialService mocks auth.CredentialService interface.
type CredentialService struct {
	ListFn   func() ([]*auth.Credential, error)
	RemoveFn func() error
	Calls    struct {
		List   int
		Remove int
	}
}

// MFAService mocks auth.MFAService interface.
type MFAService struct {
	CheckStepUpFn      func() (*auth.StepUpCheck, error)
	AvailableMethodsFn func() ([]*auth.Credential, error)
	SettingsFn         func() (*auth.MFASettings, error)
	SetEnforcementFn   func() (*auth.MFASettings, error)
	OnMethodRemovedFn  func() error
	Calls              struct {
		CheckStepUp      int
		AvailableMethods int
		Settings         int
		SetEnforcement   int
		OnMethodRemoved  int
	}
}

// MessagingService mocks auth.MessagingService interface.
type MessagingService struct {
	SendFn func(msg *auth.Message) error
	Calls  struct {
		Send int
	}
}

// MessageRepository mocks auth.MessageRepository interface.
type MessageRepository struct {
	PublishFn func(msg *auth.Message) error
	RecentFn  func() (<-chan *auth.Message, <-chan error)
	Calls     struct {
		Publish int
		Recent  int
	}
}

// SMSer mocks auth.SMSer interface.
type SMSer struct {
	SMSFn func() error
	Calls struct {
		SMS int
	}
}

// Emailer mocks auth.Emailer interface.
type Emailer struct {
	EmailFn func() error
	Calls   struct {
		Email int
	}
}

// Create mock.
func (m *TokenService) Create(ctx context.Context, req *auth.AuthenticationRequest) (*auth.Authentication, error) {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(req)
	}
	return nil, errors.New("failed to create token")
}

// Validate mock.
func (m *TokenService) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return nil, auth.ErrInvalidToken("token is not valid")
}

// Refresh mock.
func (m *TokenService) Refresh(ctx context.Context, refreshToken, ip string) (*auth.Authentication, error) {
	m.Calls.Refresh++
	if m.RefreshFn != nil {
		return m.RefreshFn()
	}
	return nil, auth.ErrInvalidToken("refresh token is not valid")
}

// Revoke mock.
func (m *TokenService) Revoke(ctx context.Context, signedToken string) error {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn()
	}
	return errors.New("token revocation failed")
}

// RevokeSession mock.
func (m *TokenService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	m.Calls.RevokeSession++
	if m.RevokeSessionFn != nil {
		return m.RevokeSessionFn()
	}
	return errors.New("session revocation failed")
}

// RevokeAll mock.
func (m *TokenService) RevokeAll(ctx context.Context, userID, reason string) (int, error) {
	m.Calls.RevokeAll++
	if m.RevokeAllFn != nil {
		return m.RevokeAllFn()
	}
	return 0, errors.New("session revocation failed")
}

// CleanupExpired mock.
func (m *TokenService) CleanupExpired(ctx context.Context) (int, error) {
	m.Calls.CleanupExpired++
	if m.CleanupExpiredFn != nil {
		return m.CleanupExpiredFn()
	}
	return 0, nil
}

// Issue mock.
func (m *OTPService) Issue(ctx context.Context, req *auth.OTPRequest) (*auth.OTPHandle, error) {
	m.Calls.Issue++
	if m.IssueFn != nil {
		return m.IssueFn(req)
	}
	return &auth.OTPHandle{Recipient: req.Recipient, Purpose: req.Purpose}, nil
}

// Verify mock.
func (m *OTPService) Verify(ctx context.Context, recipient string, purpose auth.Purpose, code string) (*auth.OTPResult, error) {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn()
	}
	return &auth.OTPResult{Status: auth.OTPExpired}, nil
}

// Enroll mock.
func (m *TOTPService) Enroll(ctx context.Context, user *auth.User) (*auth.TOTPEnrollment, error) {
	m.Calls.Enroll++
	if m.EnrollFn != nil {
		return m.EnrollFn()
	}
	return nil, errors.New("failed to enroll TOTP")
}

// Confirm mock.
func (m *TOTPService) Confirm(ctx context.Context, user *auth.User, code string) ([]string, error) {
	m.Calls.Confirm++
	if m.ConfirmFn != nil {
		return m.ConfirmFn()
	}
	return nil, errors.New("failed to confirm TOTP")
}

// Verify mock.
func (m *TOTPService) Verify(ctx context.Context, userID, code string) (*auth.FactorResult, error) {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn()
	}
	return &auth.FactorResult{Reason: auth.ReasonMismatch}, nil
}

// RegenerateBackupCodes mock.
func (m *TOTPService) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	m.Calls.RegenerateBackupCodes++
	if m.RegenerateBackupCodesFn != nil {
		return m.RegenerateBackupCodesFn()
	}
	return nil, errors.New("failed to generate backup codes")
}

// BeginSignUp mock.
func (m *WebAuthnService) BeginSignUp(ctx context.Context, user *auth.User) ([]byte, error) {
	m.Calls.BeginSignUp++
	if m.BeginSignUpFn != nil {
		return m.BeginSignUpFn()
	}
	return nil, errors.New("failed to begin sign up")
}

// FinishSignUp mock.
func (m *WebAuthnService) FinishSignUp(ctx context.Context, user *auth.User, attestation []byte) (*auth.Credential, error) {
	m.Calls.FinishSignUp++
	if m.FinishSignUpFn != nil {
		return m.FinishSignUpFn()
	}
	return nil, errors.New("failed to finish sign up")
}

// BeginLogin mock.
func (m *WebAuthnService) BeginLogin(ctx context.Context, user *auth.User) ([]byte, error) {
	m.Calls.BeginLogin++
	if m.BeginLoginFn != nil {
		return m.BeginLoginFn()
	}
	return nil, errors.New("failed to begin login")
}

// FinishLogin mock.
func (m *WebAuthnService) FinishLogin(ctx context.Context, user *auth.User, assertion []byte) (*auth.FactorResult, error) {
	m.Calls.FinishLogin++
	if m.FinishLoginFn != nil {
		return m.FinishLoginFn()
	}
	return &auth.FactorResult{Reason: auth.ReasonInvalidSignature}, nil
}

// Hash mock.
func (m *PasswordService) Hash(password string) ([]byte, error) {
	m.Calls.Hash++
	if m.HashFn != nil {
		return m.HashFn()
	}
	return []byte(password), nil
}

// Validate mock.
func (m *PasswordService) Validate(user *auth.User, password string) error {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return auth.ErrMismatch("incorrect password")
}

// OKForUser mock.
func (m *PasswordService) OKForUser(password string) error {
	m.Calls.OKForUser++
	if m.OKForUserFn != nil {
		return m.OKForUserFn()
	}
	return nil
}

// Verify mock.
func (m *Strategy) Verify(ctx context.Context, userID string, payload *auth.FactorPayload) (*auth.FactorResult, error) {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn(payload)
	}
	return &auth.FactorResult{Reason: auth.ReasonMismatch}, nil
}

// Establish mock.
func (m *DeviceTrustService) Establish(ctx context.Context, token *auth.Token, req *auth.TrustRequest) (*auth.DeviceTrust, error) {
	m.Calls.Establish++
	if m.EstablishFn != nil {
		return m.EstablishFn()
	}
	return nil, errors.New("failed to establish trust")
}

// Verify mock.
func (m *DeviceTrustService) Verify(ctx context.Context, req *auth.TrustCheckRequest) (*auth.TrustCheck, error) {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn()
	}
	return &auth.TrustCheck{TrustLevel: auth.TrustUnknown}, nil
}

// Challenge mock.
func (m *DeviceTrustService) Challenge(ctx context.Context, deviceID string) (*auth.DeviceChallenge, error) {
	m.Calls.Challenge++
	if m.ChallengeFn != nil {
		return m.ChallengeFn()
	}
	return nil, errors.New("failed to create challenge")
}

// VerifyChallenge mock.
func (m *DeviceTrustService) VerifyChallenge(ctx context.Context, deviceID, challengeID, signature string) (*auth.FactorResult, error) {
	m.Calls.VerifyChallenge++
	if m.VerifyChallengeFn != nil {
		return m.VerifyChallengeFn()
	}
	return &auth.FactorResult{Reason: auth.ReasonInvalidSignature}, nil
}

// Authenticate mock.
func (m *DeviceTrustService) Authenticate(ctx context.Context, deviceID, challengeID, signature, ip string) (*auth.Authentication, *auth.FactorResult, error) {
	m.Calls.Authenticate++
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn()
	}
	return nil, &auth.FactorResult{Reason: auth.ReasonInvalidSignature}, nil
}

// Revoke mock.
func (m *DeviceTrustService) Revoke(ctx context.Context, userID, deviceID string) error {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn()
	}
	return nil
}

// TrustedDevices mock.
func (m *DeviceTrustService) TrustedDevices(ctx context.Context, userID string) ([]*auth.DeviceTrust, error) {
	m.Calls.TrustedDevices++
	if m.TrustedDevicesFn != nil {
		return m.TrustedDevicesFn()
	}
	return []*auth.DeviceTrust{}, nil
}

// List mock.
func (m *CredentialService) List(ctx context.Context, userID string) ([]*auth.Credential, error) {
	m.Calls.List++
	if m.ListFn != nil {
		return m.ListFn()
	}
	return []*auth.Credential{}, nil
}

// Remove mock.
func (m *CredentialService) Remove(ctx context.Context, userID, credentialID string) error {
	m.Calls.Remove++
	if m.RemoveFn != nil {
		return m.RemoveFn()
	}
	return nil
}

// CheckStepUp mock.
func (m *MFAService) CheckStepUp(ctx context.Context, userID string, acr auth.ACR) (*auth.StepUpCheck, error) {
	m.Calls.CheckStepUp++
	if m.CheckStepUpFn != nil {
		return m.CheckStepUpFn()
	}
	return &auth.StepUpCheck{}, nil
}

// AvailableMethods mock.
func (m *MFAService) AvailableMethods(ctx context.Context, userID string) ([]*auth.Credential, error) {
	m.Calls.AvailableMethods++
	if m.AvailableMethodsFn != nil {
		return m.AvailableMethodsFn()
	}
	return []*auth.Credential{}, nil
}

// Settings mock.
func (m *MFAService) Settings(ctx context.Context, userID string) (*auth.MFASettings, error) {
	m.Calls.Settings++
	if m.SettingsFn != nil {
		return m.SettingsFn()
	}
	return &auth.MFASettings{}, nil
}

// SetEnforcement mock.
func (m *MFAService) SetEnforcement(ctx context.Context, userID string, enforced bool) (*auth.MFASettings, error) {
	m.Calls.SetEnforcement++
	if m.SetEnforcementFn != nil {
		return m.SetEnforcementFn()
	}
	return &auth.MFASettings{Enforced: enforced}, nil
}

// OnMethodRemoved mock.
func (m *MFAService) OnMethodRemoved(ctx context.Context, userID string) error {
	m.Calls.OnMethodRemoved++
	if m.OnMethodRemovedFn != nil {
		return m.OnMethodRemovedFn()
	}
	return nil
}

// Send mock.
func (m *MessagingService) Send(ctx context.Context, msg *auth.Message) error {
	m.Calls.Send++
	if m.SendFn != nil {
		return m.SendFn(msg)
	}
	return nil
}

// Publish mock.
func (m *MessageRepository) Publish(ctx context.Context, msg *auth.Message) error {
	m.Calls.Publish++
	if m.PublishFn != nil {
		return m.PublishFn(msg)
	}
	return nil
}

// Recent mock.
func (m *MessageRepository) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	m.Calls.Recent++
	if m.RecentFn != nil {
		return m.RecentFn()
	}
	msgc := make(chan *auth.Message)
	errc := make(chan error)
	close(msgc)
	close(errc)
	return msgc, errc
}

// SMS mock.
func (m *SMSer) SMS(ctx context.Context, phoneNumber, message string) error {
	m.Calls.SMS++
	if m.SMSFn != nil {
		return m.SMSFn()
	}
	return nil
}

// Email mock.
func (m *Emailer) Email(ctx context.Context, email, subject, message string) error {
	m.Calls.Email++
	if m.EmailFn != nil {
		return m.EmailFn()
	}
	return nil
}
