package password

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/strategiz/authcore"
)

func TestPasswordSvc_ValidatePasswordRequirement(t *testing.T) {
	svc := NewPassword(
		WithCost(bcrypt.MinCost),
		WithMinLength(5),
		WithMaxLength(10),
	)

	tt := []struct {
		name     string
		password string
		isValid  bool
	}{
		{
			name:     "Valid password",
			password: "foobar",
			isValid:  true,
		},
		{
			name:     "Password too short",
			password: "foo",
			isValid:  false,
		},
		{
			name:     "Password too long",
			password: "thequickbrownfoxjumpedoverthelazydog",
			isValid:  false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.OKForUser(tc.password)
			if (err == nil) != tc.isValid {
				t.Error("password validity does not match", cmp.Diff(err == nil, tc.isValid))
			}
			if err != nil && auth.ErrorCode(err) != auth.EInvalidField {
				t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.EInvalidField))
			}
		})
	}
}

func TestPasswordSvc_ValidatePassword(t *testing.T) {
	svc := NewPassword(
		WithCost(bcrypt.MinCost),
		WithMinLength(5),
		WithMaxLength(10),
	)

	h, err := svc.Hash("swordfish")
	if err != nil {
		t.Fatal("failed to hash password:", err)
	}

	tt := []struct {
		name     string
		user     *auth.User
		password string
		errCode  auth.ErrCode
	}{
		{
			name:     "Correct password",
			user:     &auth.User{Password: string(h)},
			password: "swordfish",
			errCode:  auth.ErrCode(""),
		},
		{
			name:     "Incorrect password",
			user:     &auth.User{Password: string(h)},
			password: "swordfish-2",
			errCode:  auth.EMismatch,
		},
		{
			name:     "User without password",
			user:     &auth.User{},
			password: "swordfish",
			errCode:  auth.EMismatch,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Validate(tc.user, tc.password)
			if auth.ErrorCode(err) != tc.errCode {
				t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode))
			}
		})
	}
}
