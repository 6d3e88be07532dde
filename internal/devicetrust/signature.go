package devicetrust

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"

	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
)

// parsePublicKey parses a PKIX, DER encoded device key. RSA, ECDSA
// and Ed25519 keys are supported.
func parsePublicKey(der []byte) (interface{}, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, auth.ErrInvalidField("public key is not a valid PKIX key")
	}

	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return pub, nil
	default:
		return nil, auth.ErrInvalidField("public key type is not supported")
	}
}

// verifySignature checks a signature over message. RSA keys sign
// with PSS, ECDSA keys with ASN.1 encoded signatures, both over a
// SHA-256 digest. Ed25519 signs the message directly.
func verifySignature(der, message, sig []byte) error {
	pub, err := parsePublicKey(der)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(message)

	switch k := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPSS(k, crypto.SHA256, digest[:], sig, nil)
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(k, digest[:], sig) {
			return errors.New("ecdsa signature is invalid")
		}
		return nil
	case ed25519.PublicKey:
		if !ed25519.Verify(k, message, sig) {
			return errors.New("ed25519 signature is invalid")
		}
		return nil
	}

	return errors.New("unsupported key type")
}

// decodeSignature accepts base64url or standard base64, padded or not.
func decodeSignature(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}

	for _, enc := range encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}

	return nil, errors.New("signature is not base64 encoded")
}
