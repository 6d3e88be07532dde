package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oklog/ulid/v2"

	auth "github.com/strategiz/authcore"
)

func TestUserRepository_Create(t *testing.T) {
	pgDB := newTestDB(t)
	c := TestClient(pgDB.DB)

	tt := []struct {
		name     string
		email    sql.NullString
		phone    sql.NullString
		password string
		errCode  auth.ErrCode
	}{
		{
			name:     "No phone or email failure",
			password: "swordfish",
			errCode:  auth.EInvalidField,
		},
		{
			name:     "Invalid email failure",
			email:    sql.NullString{String: "not-a-real-email", Valid: true},
			password: "swordfish",
			errCode:  auth.EInvalidField,
		},
		{
			name:     "Invalid phone failure",
			phone:    sql.NullString{String: "94867353", Valid: true},
			password: "swordfish",
			errCode:  auth.EInvalidField,
		},
		{
			name:     "Valid phone success",
			phone:    sql.NullString{String: "+6594867353", Valid: true},
			password: "swordfish",
		},
		{
			name:  "Passwordless email success",
			email: sql.NullString{String: "jane@example.com", Valid: true},
		},
		{
			name:     "Fail if password invalid",
			email:    sql.NullString{String: "john@example.com", Valid: true},
			password: "short",
			errCode:  auth.EInvalidField,
		},
		{
			name:    "Duplicate email conflict",
			email:   sql.NullString{String: "JANE@example.com ", Valid: true},
			errCode: auth.EConflict,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			user := auth.User{
				Password: tc.password,
				Email:    tc.email,
				Phone:    tc.phone,
			}
			err := c.User().Create(context.Background(), &user)
			if auth.ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode), err)
			}
			if tc.errCode != "" {
				return
			}

			now := time.Now()
			if now.Sub(user.CreatedAt).Seconds() > 1 {
				t.Errorf("%s is not a valid time generated for CreatedAt", user.CreatedAt)
			}
			if _, err = ulid.Parse(user.ID); err != nil {
				t.Error("invalid ID generated for user:", err)
			}
			if user.MinimumACR != auth.ACRMultiFactor {
				t.Error("minimum ACR does not match", cmp.Diff(user.MinimumACR, auth.ACRMultiFactor))
			}
			if tc.password != "" && user.Password == tc.password {
				t.Error("password stored in plain text")
			}
		})
	}
}

func TestUserRepository_ByIdentity(t *testing.T) {
	pgDB := newTestDB(t)
	c := TestClient(pgDB.DB)
	ctx := context.Background()

	user := auth.User{
		Password: "swordfish",
		Phone:    sql.NullString{String: "+6590000000", Valid: true},
		Email:    sql.NullString{String: "jane@example.com", Valid: true},
	}
	if err := c.User().Create(ctx, &user); err != nil {
		t.Fatal("failed to create user:", err)
	}

	tt := []struct {
		name   string
		method auth.DeliveryMethod
		value  string
		err    error
	}{
		{
			name:   "By email",
			method: auth.Email,
			value:  " Jane@Example.com",
		},
		{
			name:   "By phone",
			method: auth.Phone,
			value:  "+6590000000",
		},
		{
			name:   "Unknown email",
			method: auth.Email,
			value:  "john@example.com",
			err:    sql.ErrNoRows,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			u, err := c.User().ByIdentity(ctx, tc.method, tc.value)
			if err != tc.err {
				t.Fatal("error does not match", cmp.Diff(err, tc.err))
			}
			if tc.err == nil && u.ID != user.ID {
				t.Error("user ID does not match", cmp.Diff(u.ID, user.ID))
			}
		})
	}

	if _, err := c.User().ByIdentity(ctx, auth.DeliveryMethod("fax"), "1"); err == nil {
		t.Error("expected error for unsupported identity method")
	}
}

func TestUserRepository_Update(t *testing.T) {
	pgDB := newTestDB(t)
	c := TestClient(pgDB.DB)
	ctx := context.Background()

	user := auth.User{Email: sql.NullString{String: "jane@example.com", Valid: true}}
	if err := c.User().Create(ctx, &user); err != nil {
		t.Fatal("failed to create user:", err)
	}
	other := auth.User{Email: sql.NullString{String: "john@example.com", Valid: true}}
	if err := c.User().Create(ctx, &other); err != nil {
		t.Fatal("failed to create user:", err)
	}

	tx, err := c.NewWithTransaction(ctx)
	if err != nil {
		t.Fatal("failed to start transaction:", err)
	}
	_, err = tx.WithAtomic(func() (interface{}, error) {
		u, err := tx.User().GetForUpdate(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		u.MFAEnforced = true
		u.DisplayName = "Jane"
		u.IsVerified = true
		return u, tx.User().Update(ctx, u)
	})
	if err != nil {
		t.Fatal("failed to update user:", err)
	}

	u, err := c.User().ByID(ctx, user.ID)
	if err != nil {
		t.Fatal("failed to retrieve user:", err)
	}
	if !u.MFAEnforced || !u.IsVerified || u.DisplayName != "Jane" {
		t.Errorf("user was not updated: %+v", u)
	}

	u.Email = other.Email
	err = c.User().Update(ctx, u)
	if auth.ErrorCode(err) != auth.EConflict {
		t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.EConflict))
	}

	if _, err = c.User().ByID(ctx, "missing"); err != sql.ErrNoRows {
		t.Error("expected sql.ErrNoRows, got", err)
	}
}
