package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCrypto_String(t *testing.T) {
	samples := "abcdefghijklmnopqrstuv"
	for i := 0; i <= 10; i++ {
		ln := 50
		random, err := String(ln, samples)
		if err != nil {
			t.Fatal("failed to generate random string", err)
		}
		if len(random) != 50 {
			t.Error("incorrect character count", cmp.Diff(
				len(random), 50,
			))
		}
		for _, v := range random {
			s := string(v)
			if !strings.Contains(samples, s) {
				t.Errorf("invalid character used in random string: %s", s)
			}
		}
	}
}

func TestCrypto_Digits(t *testing.T) {
	code, err := Digits(6)
	if err != nil {
		t.Fatal("failed to generate code:", err)
	}

	if len(code) != 6 {
		t.Error("incorrect code length", cmp.Diff(len(code), 6))
	}

	for _, v := range code {
		if v < '0' || v > '9' {
			t.Errorf("non digit character in code: %s", string(v))
		}
	}
}

func TestCrypto_Token(t *testing.T) {
	token, err := Token(32)
	if err != nil {
		t.Fatal("error generating token", err)
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatal("failed to decode token:", err)
	}

	if len(b) != 32 {
		t.Error("incorrect token length", cmp.Diff(len(b), 32))
	}
}

func TestCrypto_Hash(t *testing.T) {
	str := "the quick brown fox"
	hash, err := Hash(str)
	if err != nil {
		t.Error("error generating hash", err)
	}

	if str == hash {
		t.Error("string not hashed")
	}

	hash2, err := Hash(str)
	if err != nil {
		t.Error("error generating hash", err)
	}

	if hash != hash2 {
		t.Error("hashes do not match", cmp.Diff(hash, hash2))
	}

	if !HashEqual(str, hash) {
		t.Error("expected value to match its hash")
	}

	if HashEqual("the quick brown cat", hash) {
		t.Error("expected different value not to match hash")
	}
}

func TestCrypto_SealerRotation(t *testing.T) {
	oldSealer, err := NewSealer(Secret{Key: "old-key", Version: 1})
	if err != nil {
		t.Fatal("failed to create sealer:", err)
	}

	sealed, err := oldSealer.Seal([]byte("JBSWY3DPEHPK3PXP"))
	if err != nil {
		t.Fatal("failed to seal value:", err)
	}

	if strings.Contains(string(sealed), "JBSWY3DPEHPK3PXP") {
		t.Fatal("sealed value contains plaintext")
	}

	sealer, err := NewSealer(
		Secret{Key: "new-key", Version: 2},
		Secret{Key: "old-key", Version: 1},
	)
	if err != nil {
		t.Fatal("failed to create sealer:", err)
	}

	value, err := sealer.Open(sealed)
	if err != nil {
		t.Fatal("failed to open value sealed with old key:", err)
	}

	if string(value) != "JBSWY3DPEHPK3PXP" {
		t.Error("opened value does not match", cmp.Diff(string(value), "JBSWY3DPEHPK3PXP"))
	}

	resealed, err := sealer.Seal(value)
	if err != nil {
		t.Fatal("failed to seal value:", err)
	}

	if !strings.HasPrefix(string(resealed), "2:") {
		t.Error("expected newest key version to be used", string(resealed))
	}

	if _, err = oldSealer.Open(resealed); err == nil {
		t.Error("expected unknown key version to fail")
	}
}
