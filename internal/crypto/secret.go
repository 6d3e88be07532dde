package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceLength = 24

// Secret is a versioned encryption key. Versions allow keys to be
// rotated while values sealed with older keys remain readable.
type Secret struct {
	Key     string
	Version int
}

// Sealer encrypts values at rest with the newest of a set of Secrets.
type Sealer struct {
	current Secret
	keys    map[int]*[32]byte
}

// NewSealer returns a Sealer. The Secret with the highest version
// is used for sealing; all of them may open.
func NewSealer(secrets ...Secret) (*Sealer, error) {
	if len(secrets) == 0 {
		return nil, errors.New("at least one secret is required")
	}

	s := Sealer{keys: map[int]*[32]byte{}}
	for i, secret := range secrets {
		if secret.Key == "" {
			return nil, errors.Errorf("secret version %d has no key", secret.Version)
		}

		key := sha256.Sum256([]byte(secret.Key))
		s.keys[secret.Version] = &key

		if i == 0 || secret.Version > s.current.Version {
			s.current = secret
		}
	}

	return &s, nil
}

// Seal encrypts a value. The result is prefixed with the key version.
func (s *Sealer) Seal(value []byte) ([]byte, error) {
	b, err := Bytes(nonceLength)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	var nonce [nonceLength]byte
	copy(nonce[:], b)

	box := secretbox.Seal(nonce[:], value, &nonce, s.keys[s.current.Version])
	sealed := fmt.Sprintf("%d:%s", s.current.Version, base64.RawStdEncoding.EncodeToString(box))

	return []byte(sealed), nil
}

// Open decrypts a value sealed by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	parts := strings.SplitN(string(sealed), ":", 2)
	if len(parts) != 2 {
		return nil, errors.New("sealed value has no version")
	}

	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, "invalid secret version")
	}

	key, ok := s.keys[version]
	if !ok {
		return nil, errors.Errorf("no secret for version %d", version)
	}

	box, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode sealed value")
	}
	if len(box) < nonceLength {
		return nil, errors.New("sealed value is too short")
	}

	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])

	value, ok := secretbox.Open(nil, box[nonceLength:], &nonce, key)
	if !ok {
		return nil, errors.New("failed to open sealed value")
	}

	return value, nil
}
