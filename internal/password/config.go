package password

import (
	"golang.org/x/crypto/bcrypt"

	auth "github.com/strategiz/authcore"
)

const (
	defaultCost      = bcrypt.DefaultCost
	defaultMinLength = 8
	defaultMaxLength = 72
)

// NewPassword returns a PasswordService hashing with bcrypt.
func NewPassword(options ...ConfigOption) auth.PasswordService {
	s := Password{
		cost:      defaultCost,
		minLength: defaultMinLength,
		maxLength: defaultMaxLength,
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the validator.
type ConfigOption func(*Password)

// WithCost configures the bcrypt cost. Values outside of bcrypt's
// supported range are ignored.
func WithCost(cost int) ConfigOption {
	return func(s *Password) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return
		}
		s.cost = cost
	}
}

// WithMinLength sets a minimum password length.
func WithMinLength(length int) ConfigOption {
	return func(s *Password) {
		s.minLength = length
	}
}

// WithMaxLength sets a maximum password length. bcrypt only
// reads the first 72 bytes, so longer limits are capped.
func WithMaxLength(length int) ConfigOption {
	return func(s *Password) {
		if length > defaultMaxLength {
			length = defaultMaxLength
		}
		s.maxLength = length
	}
}
