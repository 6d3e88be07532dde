package mfa

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/test"
)

func credential(id string, t auth.CredentialType, active bool) *auth.Credential {
	return &auth.Credential{
		ID:         id,
		Type:       t,
		IsVerified: true,
		IsEnabled:  active,
	}
}

func newRepoManager(user *auth.User, creds []*auth.Credential) (*test.RepositoryManager, *test.UserRepository) {
	users := &test.UserRepository{
		ByIDFn: func() (*auth.User, error) {
			return user, nil
		},
		GetForUpdateFn: func() (*auth.User, error) {
			return user, nil
		},
		UpdateFn: func(u *auth.User) error {
			*user = *u
			return nil
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository { return users },
		CredentialFn: func() auth.CredentialRepository {
			return &test.CredentialRepository{
				ByUserIDFn: func() ([]*auth.Credential, error) {
					return creds, nil
				},
			}
		},
	}

	return repoMngr, users
}

func TestMFASvc_CheckStepUp(t *testing.T) {
	tt := []struct {
		name       string
		user       *auth.User
		acr        auth.ACR
		required   bool
		minimumACR auth.ACR
	}{
		{
			name:     "Enforcement disabled",
			user:     &auth.User{ID: "user-1"},
			acr:      auth.ACRSingleFactor,
			required: false,
		},
		{
			name:       "Single factor session",
			user:       &auth.User{ID: "user-1", MFAEnforced: true, MinimumACR: auth.ACRMultiFactor},
			acr:        auth.ACRSingleFactor,
			required:   true,
			minimumACR: auth.ACRMultiFactor,
		},
		{
			name:       "Unparseable ACR counts as single factor",
			user:       &auth.User{ID: "user-1", MFAEnforced: true},
			acr:        auth.ACR("x"),
			required:   true,
			minimumACR: auth.ACRMultiFactor,
		},
		{
			name:     "Multi-factor session",
			user:     &auth.User{ID: "user-1", MFAEnforced: true, MinimumACR: auth.ACRMultiFactor},
			acr:      auth.ACRMultiFactor,
			required: false,
		},
	}

	creds := []*auth.Credential{
		credential("totp", auth.CredentialTOTP, true),
		credential("email", auth.CredentialEmailOTP, true),
		credential("passkey", auth.CredentialPasskey, false),
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			repoMngr, _ := newRepoManager(tc.user, creds)
			svc := NewService(WithRepoManager(repoMngr))

			check, err := svc.CheckStepUp(context.Background(), "user-1", tc.acr)
			if err != nil {
				t.Fatal("failed to check step-up:", err)
			}
			if check.Required != tc.required {
				t.Error("step-up requirement does not match", cmp.Diff(check.Required, tc.required))
			}
			if check.MinimumACR != tc.minimumACR {
				t.Error("minimum acr does not match", cmp.Diff(check.MinimumACR, tc.minimumACR))
			}
			if tc.required && (len(check.AvailableMethods) != 1 || check.AvailableMethods[0].ID != "totp") {
				t.Errorf("unexpected methods %+v", check.AvailableMethods)
			}
		})
	}
}

func TestMFASvc_SetEnforcement(t *testing.T) {
	tt := []struct {
		name     string
		creds    []*auth.Credential
		enforced bool
		errCode  auth.ErrCode
	}{
		{
			name:     "Enable with TOTP",
			creds:    []*auth.Credential{credential("totp", auth.CredentialTOTP, true)},
			enforced: true,
		},
		{
			name:     "Enable with SMS",
			creds:    []*auth.Credential{credential("sms", auth.CredentialSMS, true)},
			enforced: true,
		},
		{
			name:     "Enable with only email",
			creds:    []*auth.Credential{credential("email", auth.CredentialEmailOTP, true)},
			enforced: true,
			errCode:  auth.EBadRequest,
		},
		{
			name:     "Enable with a disabled passkey",
			creds:    []*auth.Credential{credential("passkey", auth.CredentialPasskey, false)},
			enforced: true,
			errCode:  auth.EBadRequest,
		},
		{
			name:     "Disable without methods",
			creds:    []*auth.Credential{},
			enforced: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			user := &auth.User{ID: "user-1", MFAEnforced: !tc.enforced}
			repoMngr, users := newRepoManager(user, tc.creds)
			svc := NewService(WithRepoManager(repoMngr))

			settings, err := svc.SetEnforcement(context.Background(), "user-1", tc.enforced)
			if auth.ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode))
			}
			if err != nil {
				if users.Calls.Update != 0 {
					t.Error("user should not be updated")
				}
				return
			}

			if settings.Enforced != tc.enforced || user.MFAEnforced != tc.enforced {
				t.Error("enforcement does not match", cmp.Diff(settings.Enforced, tc.enforced))
			}
			if settings.MinimumACR != auth.ACRMultiFactor {
				t.Error("minimum acr does not match", cmp.Diff(settings.MinimumACR, auth.ACRMultiFactor))
			}
		})
	}
}

func TestMFASvc_OnMethodRemoved(t *testing.T) {
	tt := []struct {
		name     string
		creds    []*auth.Credential
		enforced bool
	}{
		{
			name:     "Second factor remains",
			creds:    []*auth.Credential{credential("passkey", auth.CredentialPasskey, true)},
			enforced: true,
		},
		{
			name:     "No second factor remains",
			creds:    []*auth.Credential{credential("email", auth.CredentialEmailOTP, true)},
			enforced: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			user := &auth.User{ID: "user-1", MFAEnforced: true, MinimumACR: auth.ACRMultiFactor}
			repoMngr, _ := newRepoManager(user, tc.creds)
			svc := NewService(WithRepoManager(repoMngr))

			if err := svc.OnMethodRemoved(context.Background(), "user-1"); err != nil {
				t.Fatal("failed to handle removed method:", err)
			}
			if user.MFAEnforced != tc.enforced {
				t.Error("enforcement does not match", cmp.Diff(user.MFAEnforced, tc.enforced))
			}
		})
	}
}

func TestMFASvc_UnknownUser(t *testing.T) {
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return &test.UserRepository{
				ByIDFn: func() (*auth.User, error) {
					return nil, sql.ErrNoRows
				},
			}
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	_, err := svc.Settings(context.Background(), "user-1")
	if auth.ErrorCode(err) != auth.ENotFound {
		t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.ENotFound))
	}
}
