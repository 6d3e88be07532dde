package test

import (
	"context"
	"time"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// RepositoryManager mocks auth.RepositoryManager interface.
type RepositoryManager struct {
	NewWithTransactionFn func() (auth.RepositoryManager, error)
	WithAtomicFn         func() (interface{}, error)
	UserFn               func() auth.UserRepository
	CredentialFn         func() auth.CredentialRepository
	BackupCodeFn         func() auth.BackupCodeRepository
	DeviceTrustFn        func() auth.DeviceTrustRepository
	LoginHistoryFn       func() auth.LoginHistoryRepository
	Calls                struct {
		NewWithTransaction int
		WithAtomic         int
		User               int
		Credential         int
		BackupCode         int
		DeviceTrust        int
		LoginHistory       int
	}
}

// UserRepository mocks auth.UserRepository.
type UserRepository struct {
	ByIDFn         func() (*auth.User, error)
	ByIdentityFn   func() (*auth.User, error)
	GetForUpdateFn func() (*auth.User, error)
	CreateFn       func(u *auth.User) error
	UpdateFn       func(u *auth.User) error
	Calls          struct {
		ByID         int
		ByIdentity   int
		GetForUpdate int
		Create       int
		Update       int
	}
}

// CredentialRepository mocks auth.CredentialRepository.
type CredentialRepository struct {
	ByIDFn         func() (*auth.Credential, error)
	ByIdentifierFn func() (*auth.Credential, error)
	ByUserIDFn     func() ([]*auth.Credential, error)
	GetForUpdateFn func() (*auth.Credential, error)
	CreateFn       func(c *auth.Credential) error
	UpdateFn       func(c *auth.Credential) error
	RemoveFn       func() error
	Calls          struct {
		ByID         int
		ByIdentifier int
		ByUserID     int
		GetForUpdate int
		Create       int
		Update       int
		Remove       int
	}
}

// BackupCodeRepository mocks auth.BackupCodeRepository.
type BackupCodeRepository struct {
	ByUserIDFn       func() ([]*auth.BackupCode, error)
	CreateFn         func(c *auth.BackupCode) error
	RemoveFn         func() error
	RemoveByUserIDFn func() (int, error)
	Calls            struct {
		ByUserID       int
		Create         int
		Remove         int
		RemoveByUserID int
	}
}

// DeviceTrustRepository mocks auth.DeviceTrustRepository.
type DeviceTrustRepository struct {
	ByIDFn          func() (*auth.DeviceTrust, error)
	ByFingerprintFn func() (*auth.DeviceTrust, error)
	ByUserIDFn      func() ([]*auth.DeviceTrust, error)
	GetForUpdateFn  func() (*auth.DeviceTrust, error)
	CreateFn        func(d *auth.DeviceTrust) error
	UpdateFn        func(d *auth.DeviceTrust) error
	Calls           struct {
		ByID          int
		ByFingerprint int
		ByUserID      int
		GetForUpdate  int
		Create        int
		Update        int
	}
}

// LoginHistoryRepository mocks auth.LoginHistoryRepository.
type LoginHistoryRepository struct {
	ByTokenIDFn      func() (*auth.LoginHistory, error)
	ByUserIDFn       func() ([]*auth.LoginHistory, error)
	ActiveFn         func() ([]*auth.LoginHistory, error)
	GetForUpdateFn   func() (*auth.LoginHistory, error)
	CreateFn         func(lh *auth.LoginHistory) error
	UpdateFn         func(lh *auth.LoginHistory) error
	RevokeByUserIDFn func() (int, error)
	RemoveExpiredFn  func(before time.Time) (int, error)
	Calls            struct {
		ByTokenID      int
		ByUserID       int
		Active         int
		GetForUpdate   int
		Create         int
		Update         int
		RevokeByUserID int
		RemoveExpired  int
	}
}

// NewWithTransaction mock.
func (m *RepositoryManager) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	m.Calls.NewWithTransaction++
	if m.NewWithTransactionFn != nil {
		return m.NewWithTransactionFn()
	}

	return m, nil
}

// WithAtomic mock. Without an override the operation runs as if
// its transaction committed.
func (m *RepositoryManager) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	m.Calls.WithAtomic++
	if m.WithAtomicFn != nil {
		return m.WithAtomicFn()
	}
	return operation()
}

// User mock.
func (m *RepositoryManager) User() auth.UserRepository {
	m.Calls.User++
	if m.UserFn != nil {
		return m.UserFn()
	}
	return &UserRepository{}
}

// Credential mock.
func (m *RepositoryManager) Credential() auth.CredentialRepository {
	m.Calls.Credential++
	if m.CredentialFn != nil {
		return m.CredentialFn()
	}
	return &CredentialRepository{}
}

// BackupCode mock.
func (m *RepositoryManager) BackupCode() auth.BackupCodeRepository {
	m.Calls.BackupCode++
	if m.BackupCodeFn != nil {
		return m.BackupCodeFn()
	}
	return &BackupCodeRepository{}
}

// DeviceTrust mock.
func (m *RepositoryManager) DeviceTrust() auth.DeviceTrustRepository {
	m.Calls.DeviceTrust++
	if m.DeviceTrustFn != nil {
		return m.DeviceTrustFn()
	}
	return &DeviceTrustRepository{}
}

// LoginHistory mock.
func (m *RepositoryManager) LoginHistory() auth.LoginHistoryRepository {
	m.Calls.LoginHistory++
	if m.LoginHistoryFn != nil {
		return m.LoginHistoryFn()
	}
	return &LoginHistoryRepository{}
}

// ByID mock.
func (m *UserRepository) ByID(ctx context.Context, userID string) (*auth.User, error) {
	m.Calls.ByID++
	if m.ByIDFn != nil {
		return m.ByIDFn()
	}
	return &auth.User{ID: userID}, nil
}

// ByIdentity mock.
func (m *UserRepository) ByIdentity(ctx context.Context, method auth.DeliveryMethod, value string) (*auth.User, error) {
	m.Calls.ByIdentity++
	if m.ByIdentityFn != nil {
		return m.ByIdentityFn()
	}
	return &auth.User{}, nil
}

// GetForUpdate mock.
func (m *UserRepository) GetForUpdate(ctx context.Context, userID string) (*auth.User, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.User{ID: userID}, nil
}

// Create mock.
func (m *UserRepository) Create(ctx context.Context, u *auth.User) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(u)
	}
	return nil
}

// Update mock.
func (m *UserRepository) Update(ctx context.Context, u *auth.User) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn(u)
	}
	return nil
}

// ByID mock.
func (m *CredentialRepository) ByID(ctx context.Context, credentialID string) (*auth.Credential, error) {
	m.Calls.ByID++
	if m.ByIDFn != nil {
		return m.ByIDFn()
	}
	return &auth.Credential{ID: credentialID}, nil
}

// ByIdentifier mock.
func (m *CredentialRepository) ByIdentifier(ctx context.Context, credentialType auth.CredentialType, identifier string) (*auth.Credential, error) {
	m.Calls.ByIdentifier++
	if m.ByIdentifierFn != nil {
		return m.ByIdentifierFn()
	}
	return &auth.Credential{Type: credentialType, Identifier: identifier}, nil
}

// ByUserID mock.
func (m *CredentialRepository) ByUserID(ctx context.Context, userID string) ([]*auth.Credential, error) {
	m.Calls.ByUserID++
	if m.ByUserIDFn != nil {
		return m.ByUserIDFn()
	}
	return []*auth.Credential{}, nil
}

// GetForUpdate mock.
func (m *CredentialRepository) GetForUpdate(ctx context.Context, credentialID string) (*auth.Credential, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.Credential{ID: credentialID}, nil
}

// Create mock.
func (m *CredentialRepository) Create(ctx context.Context, c *auth.Credential) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(c)
	}
	return nil
}

// Update mock.
func (m *CredentialRepository) Update(ctx context.Context, c *auth.Credential) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn(c)
	}
	return nil
}

// Remove mock.
func (m *CredentialRepository) Remove(ctx context.Context, credentialID, userID string) error {
	m.Calls.Remove++
	if m.RemoveFn != nil {
		return m.RemoveFn()
	}
	return nil
}

// ByUserID mock.
func (m *BackupCodeRepository) ByUserID(ctx context.Context, userID string) ([]*auth.BackupCode, error) {
	m.Calls.ByUserID++
	if m.ByUserIDFn != nil {
		return m.ByUserIDFn()
	}
	return []*auth.BackupCode{}, nil
}

// Create mock.
func (m *BackupCodeRepository) Create(ctx context.Context, c *auth.BackupCode) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(c)
	}
	return nil
}

// Remove mock.
func (m *BackupCodeRepository) Remove(ctx context.Context, codeID, userID string) error {
	m.Calls.Remove++
	if m.RemoveFn != nil {
		return m.RemoveFn()
	}
	return nil
}

// RemoveByUserID mock.
func (m *BackupCodeRepository) RemoveByUserID(ctx context.Context, userID string) (int, error) {
	m.Calls.RemoveByUserID++
	if m.RemoveByUserIDFn != nil {
		return m.RemoveByUserIDFn()
	}
	return 0, nil
}

// ByID mock.
func (m *DeviceTrustRepository) ByID(ctx context.Context, deviceID string) (*auth.DeviceTrust, error) {
	m.Calls.ByID++
	if m.ByIDFn != nil {
		return m.ByIDFn()
	}
	return &auth.DeviceTrust{ID: deviceID}, nil
}

// ByFingerprint mock.
func (m *DeviceTrustRepository) ByFingerprint(ctx context.Context, fingerprint string) (*auth.DeviceTrust, error) {
	m.Calls.ByFingerprint++
	if m.ByFingerprintFn != nil {
		return m.ByFingerprintFn()
	}
	return &auth.DeviceTrust{Fingerprint: fingerprint}, nil
}

// ByUserID mock.
func (m *DeviceTrustRepository) ByUserID(ctx context.Context, userID string) ([]*auth.DeviceTrust, error) {
	m.Calls.ByUserID++
	if m.ByUserIDFn != nil {
		return m.ByUserIDFn()
	}
	return []*auth.DeviceTrust{}, nil
}

// GetForUpdate mock.
func (m *DeviceTrustRepository) GetForUpdate(ctx context.Context, deviceID string) (*auth.DeviceTrust, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.DeviceTrust{ID: deviceID}, nil
}

// Create mock.
func (m *DeviceTrustRepository) Create(ctx context.Context, d *auth.DeviceTrust) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(d)
	}
	return nil
}

// Update mock.
func (m *DeviceTrustRepository) Update(ctx context.Context, d *auth.DeviceTrust) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn(d)
	}
	return nil
}

// ByTokenID mock.
func (m *LoginHistoryRepository) ByTokenID(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	m.Calls.ByTokenID++
	if m.ByTokenIDFn != nil {
		return m.ByTokenIDFn()
	}
	return &auth.LoginHistory{TokenID: tokenID}, nil
}

// ByUserID mock.
func (m *LoginHistoryRepository) ByUserID(ctx context.Context, userID string, limit, offset int) ([]*auth.LoginHistory, error) {
	m.Calls.ByUserID++
	if m.ByUserIDFn != nil {
		return m.ByUserIDFn()
	}
	return []*auth.LoginHistory{}, nil
}

// Active mock.
func (m *LoginHistoryRepository) Active(ctx context.Context, userID string) ([]*auth.LoginHistory, error) {
	m.Calls.Active++
	if m.ActiveFn != nil {
		return m.ActiveFn()
	}
	return []*auth.LoginHistory{}, nil
}

// GetForUpdate mock.
func (m *LoginHistoryRepository) GetForUpdate(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.LoginHistory{TokenID: tokenID}, nil
}

// Create mock.
func (m *LoginHistoryRepository) Create(ctx context.Context, lh *auth.LoginHistory) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(lh)
	}
	return nil
}

// Update mock.
func (m *LoginHistoryRepository) Update(ctx context.Context, lh *auth.LoginHistory) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn(lh)
	}
	return nil
}

// RevokeByUserID mock.
func (m *LoginHistoryRepository) RevokeByUserID(ctx context.Context, userID, reason string) (int, error) {
	m.Calls.RevokeByUserID++
	if m.RevokeByUserIDFn != nil {
		return m.RevokeByUserIDFn()
	}
	return 0, nil
}

// RemoveExpired mock.
func (m *LoginHistoryRepository) RemoveExpired(ctx context.Context, before time.Time) (int, error) {
	m.Calls.RemoveExpired++
	if m.RemoveExpiredFn != nil {
		return m.RemoveExpiredFn(before)
	}
	return 0, errors.New("failed to remove expired sessions")
}
