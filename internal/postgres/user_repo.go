package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/contactchecker"
	"github.com/strategiz/authcore/internal/entropy"
)

// UserRepository is an implementation of auth.UserRepository.
type UserRepository struct {
	client   *Client
	password auth.PasswordService
}

// ByID retrieves a User by their ID.
func (r *UserRepository) ByID(ctx context.Context, userID string) (*auth.User, error) {
	return r.get(ctx, "byID", userID)
}

// ByIdentity retrieves a User by their phone or email.
func (r *UserRepository) ByIdentity(ctx context.Context, method auth.DeliveryMethod, value string) (*auth.User, error) {
	switch method {
	case auth.Phone:
		return r.get(ctx, "byPhone", strings.TrimSpace(value))
	case auth.Email:
		return r.get(ctx, "byEmail", strings.ToLower(strings.TrimSpace(value)))
	default:
		return nil, fmt.Errorf("%s is not a valid query parameter", method)
	}
}

// GetForUpdate retrieves a User to be updated and locks the row
// until the transaction completes.
func (r *UserRepository) GetForUpdate(ctx context.Context, userID string) (*auth.User, error) {
	return r.get(ctx, "forUpdate", userID)
}

// Create persists a new User to local storage. A plain text password
// is validated and hashed before it is stored.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	sanitizeUser(user)
	err := validateUserFields(
		user,
		validateIdentity,
		validateEmail,
		validatePhone,
	)
	if err != nil {
		return err
	}

	if user.ID == "" {
		if user.ID, err = entropy.ID(r.client.entropy); err != nil {
			return err
		}
	}

	if err = r.hashPassword(user); err != nil {
		return err
	}

	if user.MinimumACR == "" {
		user.MinimumACR = auth.ACRMultiFactor
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.userQ["insert"],
		user.ID,
		user.Phone,
		user.Email,
		user.Password,
		user.DisplayName,
		user.MFAEnforced,
		user.MinimumACR,
		user.IsVerified,
	)
	err = row.Scan(
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return conflictOr(err, "an account already exists for this address")
}

// Update updates a User in storage.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	sanitizeUser(user)
	err := validateUserFields(
		user,
		validateEmail,
		validatePhone,
	)
	if err != nil {
		return err
	}

	user.UpdatedAt = time.Now().UTC()

	res, err := r.client.execContext(
		ctx,
		r.client.userQ["update"],
		user.ID,
		user.Phone,
		user.Email,
		user.Password,
		user.DisplayName,
		user.MFAEnforced,
		user.MinimumACR,
		user.IsVerified,
		user.UpdatedAt,
	)
	if err = conflictOr(err, "address is used by another account"); err != nil {
		return err
	}

	return checkAffected(res, "users")
}

func (r *UserRepository) get(ctx context.Context, query string, args ...interface{}) (*auth.User, error) {
	user := auth.User{}
	row := r.client.queryRowContext(ctx, r.client.userQ[query], args...)
	err := row.Scan(
		&user.ID, &user.Phone, &user.Email, &user.Password, &user.DisplayName,
		&user.MFAEnforced, &user.MinimumACR, &user.IsVerified, &user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) hashPassword(user *auth.User) error {
	if user.Password == "" {
		return nil
	}

	err := r.password.OKForUser(user.Password)
	if err != nil {
		return err
	}

	passwordHash, err := r.password.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(passwordHash)
	return nil
}

// validateUserFields proccesses an arbitrary number of user entity
// validator functions.
func validateUserFields(user *auth.User, validators ...func(user *auth.User) error) error {
	for _, validator := range validators {
		err := validator(user)
		if err != nil {
			return err
		}
	}
	return nil
}

// validateIdentity ensures a user's email and phone
// cannot be blank at the same time.
func validateIdentity(user *auth.User) error {
	if user.Email.String == "" && user.Phone.String == "" {
		return auth.ErrInvalidField("user must have either an email or phone")
	}
	return nil
}

// validateEmail ensure's an email address format is valid.
func validateEmail(user *auth.User) error {
	email := user.Email.String
	if email == "" {
		return nil
	}

	if !contactchecker.IsEmailValid(email) {
		return auth.ErrInvalidField("email address is invalid")
	}

	return nil
}

// validatePhone ensure's a phone number is valid.
func validatePhone(user *auth.User) error {
	phone := user.Phone.String
	if phone == "" {
		return nil
	}

	if !contactchecker.IsPhoneValid(phone) {
		return auth.ErrInvalidField("phone number is invalid")
	}

	return nil
}

func sanitizeUser(user *auth.User) {
	user.Phone.String = strings.TrimSpace(user.Phone.String)
	user.Email.String = strings.ToLower(strings.TrimSpace(user.Email.String))
	user.Phone.Valid = user.Phone.String != ""
	user.Email.Valid = user.Email.String != ""
}
