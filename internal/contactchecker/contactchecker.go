// Package contactchecker offers utility functions for validating
// and normalizing addresses.
package contactchecker

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"

	auth "github.com/strategiz/authcore"
)

// IsPhoneValid checks if a phone string is a valid format.
func IsPhoneValid(phone string) bool {
	// We expect phone numbers to be supplied with valid country
	// codes. Due to this, we leave country ISO values blank.
	countryISO := ""
	meta, err := phonenumbers.Parse(phone, countryISO)
	if err != nil {
		return false
	}

	return phonenumbers.IsValidNumber(meta)
}

// IsEmailValid checks if an email string is a valid format.
func IsEmailValid(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	// Reject display name forms such as "Jane <jane@example.com>".
	return addr.Address == strings.TrimSpace(email)
}

// Validator returns an email or phone validator.
func Validator(method auth.DeliveryMethod) func(s string) bool {
	if method == auth.Email {
		return IsEmailValid
	}

	if method == auth.Phone {
		return IsPhoneValid
	}

	return func(s string) bool {
		return false
	}
}

// Normalize returns the canonical form of an address. Phone numbers
// are formatted as E.164 and email addresses are lower cased.
func Normalize(method auth.DeliveryMethod, address string) (string, error) {
	address = strings.TrimSpace(address)
	if !Validator(method)(address) {
		return "", auth.ErrInvalidField("address format is invalid")
	}

	if method == auth.Email {
		return strings.ToLower(address), nil
	}

	meta, err := phonenumbers.Parse(address, "")
	if err != nil {
		return "", auth.ErrInvalidField("address format is invalid")
	}

	return phonenumbers.Format(meta, phonenumbers.E164), nil
}

// MaskEmail hides all but the first character of an email's local part.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 1 {
		return ""
	}

	return email[:1] + strings.Repeat("*", 3) + email[at:]
}

// MaskPhone hides all but the last four digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return ""
	}

	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
