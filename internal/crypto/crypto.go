// Package crypto provides cryptographic utility functions.
package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strings"
)

// Alphanumeric is a lowercase, unambiguous sample for codes
// read and typed by people.
const Alphanumeric = "abcdefghjkmnpqrstuvwxyz23456789"

const defaultSample = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// Bytes returns securely generated random bytes.
func Bytes(length int) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// String returns a securely generated random string from an optional
// sample. Characters are drawn uniformly from the sample.
func String(length int, samples ...string) (string, error) {
	sample := strings.Join(samples, "")
	if sample == "" {
		sample = defaultSample
	}

	max := big.NewInt(int64(len(sample)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = sample[n.Int64()]
	}

	return string(b), nil
}

// Digits returns a securely generated numeric code.
func Digits(length int) (string, error) {
	return String(length, "0123456789")
}

// Token returns a URL safe, unpadded base64 encoding of length
// random bytes.
func Token(length int) (string, error) {
	b, err := Bytes(length)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash returns a sha512 hash of a string.
func Hash(s string) (string, error) {
	h := sha512.New()
	_, err := h.Write([]byte(s))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashEqual compares a plain value against a stored Hash in
// constant time.
func HashEqual(value, hash string) bool {
	h, err := Hash(value)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(h), []byte(hash)) == 1
}
