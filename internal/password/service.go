// Package password hashes and validates user passwords.
package password

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/strategiz/authcore"
)

// Password is a credential validator for password authentication.
type Password struct {
	// cost is the bcrypt hash repetition. Higher cost results
	// in slower computations.
	cost int
	// minLength is the minimum length of a password.
	minLength int
	// maxLength is the maximum length of a password.
	// bcrypt ignores anything past 72 bytes.
	maxLength int
}

// Hash hashes a password for storage.
func (p *Password) Hash(password string) ([]byte, error) {
	// bcrypt will manage its own salt
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	return hash, nil
}

// Validate validates if a submitted password is valid for a
// stored password hash. Users without a password never validate.
func (p *Password) Validate(user *auth.User, password string) error {
	if !user.HasPassword() {
		return auth.ErrMismatch("password is not set")
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return auth.ErrMismatch("incorrect password")
	}
	if err != nil {
		return errors.Wrap(err, "failed to compare password")
	}

	return nil
}

// OKForUser tells us if a password meets minimum requirements to
// be set for any users.
func (p *Password) OKForUser(password string) error {
	if len(password) < p.minLength {
		return auth.ErrInvalidField(
			fmt.Sprintf("password must be at least %d characters long", p.minLength),
		)
	}

	if len(password) > p.maxLength {
		return auth.ErrInvalidField(
			fmt.Sprintf("password cannot be longer than %d characters", p.maxLength),
		)
	}

	return nil
}
