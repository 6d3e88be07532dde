package devicetrust

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"database/sql"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/test"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// devices is an in-memory device trust store.
type devices struct {
	mtx  sync.Mutex
	byID map[string]*auth.DeviceTrust
}

func (d *devices) get(id string) (*auth.DeviceTrust, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	dev, ok := d.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *dev
	return &c, nil
}

func (d *devices) put(dev *auth.DeviceTrust) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	c := *dev
	d.byID[dev.ID] = &c
	return nil
}

func newService(t *testing.T, store *devices, tokens auth.TokenService) auth.DeviceTrustService {
	mr, db, err := test.NewRedisDB()
	if err != nil {
		t.Fatal("failed to create redis db:", err)
	}
	t.Cleanup(func() {
		db.Close()
		mr.Close()
	})

	repo := &test.DeviceTrustRepository{
		ByIDFn: func() (*auth.DeviceTrust, error) {
			return nil, sql.ErrNoRows
		},
		CreateFn: store.put,
		UpdateFn: store.put,
		ByUserIDFn: func() ([]*auth.DeviceTrust, error) {
			store.mtx.Lock()
			defer store.mtx.Unlock()
			out := []*auth.DeviceTrust{}
			for _, d := range store.byID {
				c := *d
				out = append(out, &c)
			}
			return out, nil
		},
	}

	users := &test.UserRepository{
		ByIDFn: func() (*auth.User, error) {
			return &auth.User{
				ID:          "user-1",
				DisplayName: "Jane",
				Email:       sql.NullString{String: "jane@example.com", Valid: true},
				Phone:       sql.NullString{String: "+6594867353", Valid: true},
			}, nil
		},
	}

	repoMngr := &test.RepositoryManager{
		DeviceTrustFn: func() auth.DeviceTrustRepository { return &byIDRepo{repo, store} },
		UserFn:        func() auth.UserRepository { return users },
	}

	return NewService(
		WithDB(db),
		WithRepoManager(repoMngr),
		WithTokenService(tokens),
		WithClock(func() time.Time { return now }),
	)
}

// byIDRepo resolves lookups by ID and fingerprint against the store.
type byIDRepo struct {
	*test.DeviceTrustRepository
	store *devices
}

func (r *byIDRepo) ByID(ctx context.Context, id string) (*auth.DeviceTrust, error) {
	return r.store.get(id)
}

func (r *byIDRepo) GetForUpdate(ctx context.Context, id string) (*auth.DeviceTrust, error) {
	return r.store.get(id)
}

func (r *byIDRepo) ByFingerprint(ctx context.Context, fingerprint string) (*auth.DeviceTrust, error) {
	r.store.mtx.Lock()
	defer r.store.mtx.Unlock()
	for _, d := range r.store.byID {
		if d.Fingerprint == fingerprint {
			c := *d
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

type signer struct {
	der  []byte
	sign func(msg []byte) []byte
}

func ecdsaSigner(t *testing.T) signer {
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	return signer{der: der, sign: func(msg []byte) []byte {
		h := sha256.Sum256(msg)
		sig, err := ecdsa.SignASN1(rand.Reader, k, h[:])
		if err != nil {
			t.Fatal(err)
		}
		return sig
	}}
}

func ed25519Signer(t *testing.T) signer {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return signer{der: der, sign: func(msg []byte) []byte {
		return ed25519.Sign(priv, msg)
	}}
}

func rsaSigner(t *testing.T) signer {
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	return signer{der: der, sign: func(msg []byte) []byte {
		h := sha256.Sum256(msg)
		sig, err := rsa.SignPSS(rand.Reader, k, crypto.SHA256, h[:], nil)
		if err != nil {
			t.Fatal(err)
		}
		return sig
	}}
}

func multiFactorToken(amr ...auth.FactorType) *auth.Token {
	acr, _ := auth.ACRFor(amr)
	return &auth.Token{UserID: "user-1", AMR: amr, ACR: acr}
}

func TestDeviceTrustSvc_Establish(t *testing.T) {
	key := ecdsaSigner(t)

	tt := []struct {
		name      string
		token     *auth.Token
		publicKey []byte
		errCode   auth.ErrCode
		level     auth.TrustLevel
		expiresIn time.Duration
	}{
		{
			name:      "Single factor session",
			token:     multiFactorToken(auth.FactorEmailOTP),
			publicKey: key.der,
			errCode:   auth.EUnauthorized,
		},
		{
			name:      "Passkey session",
			token:     multiFactorToken(auth.FactorPasskey),
			publicKey: key.der,
			level:     auth.TrustHigh,
			expiresIn: time.Hour * 24 * 90,
		},
		{
			name:      "Password and TOTP session",
			token:     multiFactorToken(auth.FactorPassword, auth.FactorTOTP),
			publicKey: key.der,
			level:     auth.TrustTrusted,
			expiresIn: time.Hour * 24 * 30,
		},
		{
			name:      "Invalid public key",
			token:     multiFactorToken(auth.FactorPasskey),
			publicKey: []byte("not a key"),
			errCode:   auth.EInvalidField,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			store := &devices{byID: map[string]*auth.DeviceTrust{}}
			svc := newService(t, store, &test.TokenService{})

			device, err := svc.Establish(context.Background(), tc.token, &auth.TrustRequest{
				Name:        "Laptop",
				Fingerprint: "fp-1",
				PublicKey:   tc.publicKey,
			})
			if auth.ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode))
			}
			if err != nil {
				if len(store.byID) != 0 {
					t.Error("device should not be stored on error")
				}
				return
			}

			if device.TrustLevel != tc.level {
				t.Error("trust level does not match", cmp.Diff(device.TrustLevel, tc.level))
			}
			if !device.TrustExpiresAt.Time.Equal(now.Add(tc.expiresIn)) {
				t.Error("trust expiry does not match", cmp.Diff(device.TrustExpiresAt.Time, now.Add(tc.expiresIn)))
			}
			if !device.TrustValid(now) {
				t.Error("device should be trusted")
			}
		})
	}
}

func TestDeviceTrustSvc_ReestablishRenewsDevice(t *testing.T) {
	ctx := context.Background()
	store := &devices{byID: map[string]*auth.DeviceTrust{}}
	svc := newService(t, store, &test.TokenService{})
	key := ed25519Signer(t)

	req := &auth.TrustRequest{Name: "Laptop", Fingerprint: "fp-1", PublicKey: key.der}
	first, err := svc.Establish(ctx, multiFactorToken(auth.FactorPassword, auth.FactorTOTP), req)
	if err != nil {
		t.Fatal("failed to establish trust:", err)
	}
	second, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), req)
	if err != nil {
		t.Fatal("failed to establish trust:", err)
	}

	if first.ID != second.ID || len(store.byID) != 1 {
		t.Error("known fingerprint should renew the existing device")
	}
	if second.TrustLevel != auth.TrustHigh {
		t.Error("trust level does not match", cmp.Diff(second.TrustLevel, auth.TrustHigh))
	}
}

func TestDeviceTrustSvc_ChallengeSignatures(t *testing.T) {
	tt := []struct {
		name   string
		signer func(t *testing.T) signer
	}{
		{name: "ECDSA P-256", signer: ecdsaSigner},
		{name: "Ed25519", signer: ed25519Signer},
		{name: "RSA-PSS", signer: rsaSigner},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := &devices{byID: map[string]*auth.DeviceTrust{}}
			svc := newService(t, store, &test.TokenService{})
			key := tc.signer(t)

			device, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), &auth.TrustRequest{
				Fingerprint: "fp-1",
				PublicKey:   key.der,
			})
			if err != nil {
				t.Fatal("failed to establish trust:", err)
			}

			ch, err := svc.Challenge(ctx, device.ID)
			if err != nil {
				t.Fatal("failed to create challenge:", err)
			}
			sig := base64.RawURLEncoding.EncodeToString(key.sign([]byte(ch.Nonce)))

			res, err := svc.VerifyChallenge(ctx, device.ID, ch.ChallengeID, sig)
			if err != nil {
				t.Fatal("failed to verify challenge:", err)
			}
			if !res.Success || res.AMR != auth.FactorDeviceTrust || res.UserID != "user-1" {
				t.Errorf("unexpected result %+v", res)
			}

			res, err = svc.VerifyChallenge(ctx, device.ID, ch.ChallengeID, sig)
			if err != nil {
				t.Fatal("failed to verify challenge:", err)
			}
			if res.Success || res.Reason != auth.ReasonReplayDetected {
				t.Error("reason does not match", cmp.Diff(res.Reason, auth.ReasonReplayDetected))
			}
		})
	}
}

func TestDeviceTrustSvc_VerifyChallengeFailures(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name   string
		setup  func(store *devices, deviceID string)
		sign   func(key signer, nonce string) string
		device func(deviceID string) string
		reason auth.FailureReason
	}{
		{
			name: "Wrong key",
			sign: func(key signer, nonce string) string {
				other := ed25519Signer(t)
				return base64.StdEncoding.EncodeToString(other.sign([]byte(nonce)))
			},
			reason: auth.ReasonInvalidSignature,
		},
		{
			name: "Signature over another message",
			sign: func(key signer, nonce string) string {
				return base64.StdEncoding.EncodeToString(key.sign([]byte("other")))
			},
			reason: auth.ReasonInvalidSignature,
		},
		{
			name: "Challenge bound to another device",
			device: func(deviceID string) string {
				return "another-device"
			},
			reason: auth.ReasonInvalidSignature,
		},
		{
			name: "Device revoked after challenge",
			setup: func(store *devices, deviceID string) {
				store.byID[deviceID].TrustLevel = auth.TrustRevoked
				store.byID[deviceID].IsTrusted = false
			},
			reason: auth.ReasonRevoked,
		},
		{
			name: "Device trust expired after challenge",
			setup: func(store *devices, deviceID string) {
				store.byID[deviceID].TrustExpiresAt = sql.NullTime{Time: now.Add(-time.Second), Valid: true}
			},
			reason: auth.ReasonExpired,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			store := &devices{byID: map[string]*auth.DeviceTrust{}}
			svc := newService(t, store, &test.TokenService{})
			key := ed25519Signer(t)

			device, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), &auth.TrustRequest{
				Fingerprint: "fp-1",
				PublicKey:   key.der,
			})
			if err != nil {
				t.Fatal("failed to establish trust:", err)
			}

			ch, err := svc.Challenge(ctx, device.ID)
			if err != nil {
				t.Fatal("failed to create challenge:", err)
			}

			if tc.setup != nil {
				tc.setup(store, device.ID)
			}

			sig := base64.StdEncoding.EncodeToString(key.sign([]byte(ch.Nonce)))
			if tc.sign != nil {
				sig = tc.sign(key, ch.Nonce)
			}
			deviceID := device.ID
			if tc.device != nil {
				deviceID = tc.device(device.ID)
			}

			res, err := svc.VerifyChallenge(ctx, deviceID, ch.ChallengeID, sig)
			if err != nil {
				t.Fatal("failed to verify challenge:", err)
			}
			if res.Success {
				t.Error("challenge should not verify")
			}
			if res.Reason != tc.reason {
				t.Error("reason does not match", cmp.Diff(res.Reason, tc.reason))
			}
		})
	}
}

func TestDeviceTrustSvc_UnknownChallenge(t *testing.T) {
	store := &devices{byID: map[string]*auth.DeviceTrust{}}
	svc := newService(t, store, &test.TokenService{})

	res, err := svc.VerifyChallenge(context.Background(), "device-1", "missing", "c2ln")
	if err != nil {
		t.Fatal("failed to verify challenge:", err)
	}
	if res.Reason != auth.ReasonExpired {
		t.Error("reason does not match", cmp.Diff(res.Reason, auth.ReasonExpired))
	}
}

func TestDeviceTrustSvc_Verify(t *testing.T) {
	ctx := context.Background()
	store := &devices{byID: map[string]*auth.DeviceTrust{}}
	svc := newService(t, store, &test.TokenService{})
	key := ecdsaSigner(t)

	device, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), &auth.TrustRequest{
		Fingerprint: "fp-1",
		PublicKey:   key.der,
	})
	if err != nil {
		t.Fatal("failed to establish trust:", err)
	}

	tt := []struct {
		name    string
		req     *auth.TrustCheckRequest
		trusted bool
		reason  string
	}{
		{
			name:    "Lookup by fingerprint",
			req:     &auth.TrustCheckRequest{Fingerprint: "fp-1"},
			trusted: true,
		},
		{
			name:    "Lookup by device ID",
			req:     &auth.TrustCheckRequest{DeviceID: device.ID},
			trusted: true,
		},
		{
			name:    "Fingerprint drift",
			req:     &auth.TrustCheckRequest{DeviceID: device.ID, Fingerprint: "fp-2"},
			trusted: false,
			reason:  "fingerprint-mismatch",
		},
		{
			name:    "Unknown device",
			req:     &auth.TrustCheckRequest{Fingerprint: "fp-unknown"},
			trusted: false,
			reason:  "not-found",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			check, err := svc.Verify(ctx, tc.req)
			if err != nil {
				t.Fatal("failed to verify device:", err)
			}
			if check.Trusted != tc.trusted {
				t.Error("trust does not match", cmp.Diff(check.Trusted, tc.trusted))
			}
			if check.Reason != tc.reason {
				t.Error("reason does not match", cmp.Diff(check.Reason, tc.reason))
			}
			if tc.trusted && check.MaskedEmail != "j***@example.com" {
				t.Error("masked email does not match", cmp.Diff(check.MaskedEmail, "j***@example.com"))
			}
			if tc.trusted && check.MaskedPhone != "*******7353" {
				t.Error("masked phone does not match", cmp.Diff(check.MaskedPhone, "*******7353"))
			}
		})
	}

	_, err = svc.Verify(ctx, &auth.TrustCheckRequest{})
	if auth.ErrorCode(err) != auth.EBadRequest {
		t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.EBadRequest))
	}
}

func TestDeviceTrustSvc_RevokeEndsTrust(t *testing.T) {
	ctx := context.Background()
	store := &devices{byID: map[string]*auth.DeviceTrust{}}
	svc := newService(t, store, &test.TokenService{})
	key := ecdsaSigner(t)

	device, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), &auth.TrustRequest{
		Fingerprint: "fp-1",
		PublicKey:   key.der,
	})
	if err != nil {
		t.Fatal("failed to establish trust:", err)
	}

	if err = svc.Revoke(ctx, "another-user", device.ID); auth.ErrorCode(err) != auth.ENotFound {
		t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.ENotFound))
	}

	if err = svc.Revoke(ctx, "user-1", device.ID); err != nil {
		t.Fatal("failed to revoke device:", err)
	}

	check, err := svc.Verify(ctx, &auth.TrustCheckRequest{DeviceID: device.ID})
	if err != nil {
		t.Fatal("failed to verify device:", err)
	}
	if check.Trusted || check.TrustLevel != auth.TrustRevoked {
		t.Error("revoked device should not be trusted")
	}

	_, err = svc.Challenge(ctx, device.ID)
	if auth.ErrorCode(err) != auth.ERevoked {
		t.Error("error code does not match", cmp.Diff(auth.ErrorCode(err), auth.ERevoked))
	}

	trusted, err := svc.TrustedDevices(ctx, "user-1")
	if err != nil {
		t.Fatal("failed to list devices:", err)
	}
	if len(trusted) != 0 {
		t.Error("revoked device should not be listed as trusted")
	}
}

func TestDeviceTrustSvc_Authenticate(t *testing.T) {
	ctx := context.Background()
	store := &devices{byID: map[string]*auth.DeviceTrust{}}

	var got *auth.AuthenticationRequest
	tokens := &test.TokenService{
		CreateFn: func(req *auth.AuthenticationRequest) (*auth.Authentication, error) {
			got = req
			return &auth.Authentication{AccessToken: "access", ACR: auth.ACRSingleFactor, AMR: req.AMR}, nil
		},
	}
	svc := newService(t, store, tokens)
	key := ed25519Signer(t)

	device, err := svc.Establish(ctx, multiFactorToken(auth.FactorPasskey), &auth.TrustRequest{
		Fingerprint: "fp-1",
		PublicKey:   key.der,
	})
	if err != nil {
		t.Fatal("failed to establish trust:", err)
	}

	ch, err := svc.Challenge(ctx, device.ID)
	if err != nil {
		t.Fatal("failed to create challenge:", err)
	}

	authn, res, err := svc.Authenticate(ctx, device.ID, ch.ChallengeID,
		base64.RawURLEncoding.EncodeToString(key.sign([]byte(ch.Nonce))), "10.0.0.1")
	if err != nil {
		t.Fatal("failed to authenticate:", err)
	}
	if !res.Success || authn == nil {
		t.Fatal("authentication should succeed")
	}

	want := &auth.AuthenticationRequest{
		UserID:    "user-1",
		AMR:       []auth.FactorType{auth.FactorDeviceTrust},
		DeviceID:  device.ID,
		IPAddress: "10.0.0.1",
	}
	if !cmp.Equal(got, want) {
		t.Error("authentication request does not match", cmp.Diff(got, want))
	}

	authn, res, err = svc.Authenticate(ctx, device.ID, ch.ChallengeID, "c2ln", "10.0.0.1")
	if err != nil {
		t.Fatal("failed to authenticate:", err)
	}
	if authn != nil || res.Success {
		t.Error("reused challenge should not authenticate")
	}
	if tokens.Calls.Create != 1 {
		t.Error("token creation count does not match", cmp.Diff(tokens.Calls.Create, 1))
	}
}
