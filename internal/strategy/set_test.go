package strategy

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/otp"
	"github.com/strategiz/authcore/internal/test"
)

func user() *auth.User {
	return &auth.User{
		ID:       "user-1",
		Email:    sql.NullString{String: "jane@example.com", Valid: true},
		Phone:    sql.NullString{String: "+6594867353", Valid: true},
		Password: "hashed",
	}
}

func credential(userID string, enabled bool) *auth.Credential {
	return &auth.Credential{
		ID:         "credential-1",
		UserID:     userID,
		Type:       auth.CredentialSMS,
		Identifier: "+6594867353",
		IsVerified: true,
		IsEnabled:  enabled,
	}
}

func repoManager(u *auth.User, err error) *test.RepositoryManager {
	return withCredential(u, err, credential("user-1", true), nil)
}

func withCredential(u *auth.User, err error, c *auth.Credential, cErr error) *test.RepositoryManager {
	return &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return &test.UserRepository{
				ByIDFn: func() (*auth.User, error) {
					return u, err
				},
			}
		},
		CredentialFn: func() auth.CredentialRepository {
			return &test.CredentialRepository{
				ByIdentifierFn: func() (*auth.Credential, error) {
					return c, cErr
				},
			}
		},
	}
}

func TestSet_Dispatch(t *testing.T) {
	tt := []struct {
		name    string
		options []ConfigOption
		payload *auth.FactorPayload
		result  *auth.FactorResult
		errCode auth.ErrCode
	}{
		{
			name:    "Unknown factor",
			payload: &auth.FactorPayload{Type: "RETINA"},
			errCode: auth.EBadRequest,
		},
		{
			name:    "Factor without a configured service",
			payload: &auth.FactorPayload{Type: auth.FactorTOTP, Code: "123456"},
			errCode: auth.EBadRequest,
		},
		{
			name:    "Missing payload",
			errCode: auth.EBadRequest,
		},
		{
			name: "Password",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithPassword(&test.PasswordService{
					ValidateFn: func() error { return nil },
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorPassword, Code: "swordfish"},
			result:  &auth.FactorResult{Success: true, AMR: auth.FactorPassword, UserID: "user-1"},
		},
		{
			name: "Wrong password",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithPassword(&test.PasswordService{}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorPassword, Code: "swordfish"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonMismatch},
		},
		{
			name: "Password for unknown user",
			options: []ConfigOption{
				WithRepoManager(repoManager(nil, sql.ErrNoRows)),
				WithPassword(&test.PasswordService{}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorPassword, Code: "swordfish"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonNotFound},
		},
		{
			name: "User store fault",
			options: []ConfigOption{
				WithRepoManager(repoManager(nil, errors.New("connection refused"))),
				WithPassword(&test.PasswordService{}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorPassword, Code: "swordfish"},
			errCode: auth.EInfrastructure,
		},
		{
			name: "Passkey",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithWebAuthn(&test.WebAuthnService{
					FinishLoginFn: func() (*auth.FactorResult, error) {
						return &auth.FactorResult{Success: true, AMR: auth.FactorPasskey, UserID: "user-1"}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorPasskey, Assertion: []byte("{}")},
			result:  &auth.FactorResult{Success: true, AMR: auth.FactorPasskey, UserID: "user-1"},
		},
		{
			name: "TOTP replay",
			options: []ConfigOption{
				WithTOTP(&test.TOTPService{
					VerifyFn: func() (*auth.FactorResult, error) {
						return &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonReplayDetected}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorTOTP, Code: "123456"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonReplayDetected},
		},
		{
			name: "SMS mismatch",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPMismatch, AttemptsRemaining: 2}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorSMS, Code: "000000"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonMismatch, AttemptsRemaining: 2},
		},
		{
			name: "Email OTP exhausted",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPExhausted}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: "000000"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonExhausted},
		},
		{
			name: "Magic link",
			options: []ConfigOption{
				WithRepoManager(repoManager(user(), nil)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPOK}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorMagicLink, Code: "opaque"},
			result:  &auth.FactorResult{Success: true, AMR: auth.FactorMagicLink, UserID: "user-1"},
		},
		{
			name: "SMS with disabled credential",
			options: []ConfigOption{
				WithRepoManager(withCredential(user(), nil, credential("user-1", false), nil)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPOK}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorSMS, Code: "123456"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonRevoked},
		},
		{
			name: "SMS with removed credential",
			options: []ConfigOption{
				WithRepoManager(withCredential(user(), nil, nil, sql.ErrNoRows)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPOK}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorSMS, Code: "123456"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonNotFound},
		},
		{
			name: "Email OTP with credential of another user",
			options: []ConfigOption{
				WithRepoManager(withCredential(user(), nil, credential("user-2", true), nil)),
				WithOTP(&test.OTPService{
					VerifyFn: func() (*auth.OTPResult, error) {
						return &auth.OTPResult{Status: auth.OTPOK}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: "123456"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonNotFound},
		},
		{
			name: "Credential store fault",
			options: []ConfigOption{
				WithRepoManager(withCredential(user(), nil, nil, errors.New("connection refused"))),
				WithOTP(&test.OTPService{}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorSMS, Code: "123456"},
			errCode: auth.EInfrastructure,
		},
		{
			name: "SMS for user without phone",
			options: []ConfigOption{
				WithRepoManager(repoManager(&auth.User{ID: "user-1"}, nil)),
				WithOTP(&test.OTPService{}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorSMS, Code: "000000"},
			result:  &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonNotFound},
		},
		{
			name: "Device owned by another user",
			options: []ConfigOption{
				WithDeviceTrust(&test.DeviceTrustService{
					VerifyChallengeFn: func() (*auth.FactorResult, error) {
						return &auth.FactorResult{
							Success:  true,
							AMR:      auth.FactorDeviceTrust,
							UserID:   "user-2",
							DeviceID: "device-1",
						}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorDeviceTrust, DeviceID: "device-1"},
			result:  &auth.FactorResult{UserID: "user-1", DeviceID: "device-1", Reason: auth.ReasonNotFound},
		},
		{
			name: "Device revoked",
			options: []ConfigOption{
				WithDeviceTrust(&test.DeviceTrustService{
					VerifyChallengeFn: func() (*auth.FactorResult, error) {
						return &auth.FactorResult{DeviceID: "device-1", Reason: auth.ReasonRevoked}, nil
					},
				}),
			},
			payload: &auth.FactorPayload{Type: auth.FactorDeviceTrust, DeviceID: "device-1"},
			result:  &auth.FactorResult{DeviceID: "device-1", Reason: auth.ReasonRevoked},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			set := NewSet(tc.options...)

			res, err := set.Verify(context.Background(), "user-1", tc.payload)
			if auth.ErrorCode(err) != tc.errCode {
				t.Fatal("error code does not match", cmp.Diff(auth.ErrorCode(err), tc.errCode))
			}
			if !cmp.Equal(res, tc.result) {
				t.Error("result does not match", cmp.Diff(res, tc.result))
			}
		})
	}
}

func TestSet_Supports(t *testing.T) {
	set := NewSet(
		WithRepoManager(&test.RepositoryManager{}),
		WithOTP(&test.OTPService{}),
	)

	for _, f := range []auth.FactorType{auth.FactorSMS, auth.FactorEmailOTP, auth.FactorMagicLink} {
		if !set.Supports(f) {
			t.Errorf("%s should be supported", f)
		}
	}
	for _, f := range []auth.FactorType{auth.FactorPassword, auth.FactorPasskey, auth.FactorTOTP, auth.FactorDeviceTrust} {
		if set.Supports(f) {
			t.Errorf("%s should not be supported", f)
		}
	}
}

// An email OTP login verifies once. The code cannot be reused
// and a code issued for another purpose does not verify.
func TestSet_EmailOTPLogin(t *testing.T) {
	mr, db, err := test.NewRedisDB()
	if err != nil {
		t.Fatal("failed to create redis db:", err)
	}
	defer mr.Close()
	defer db.Close()

	var sent []*auth.Message
	otpSvc := otp.NewOTP(
		otp.WithDB(db),
		otp.WithMessaging(&test.MessagingService{
			SendFn: func(msg *auth.Message) error {
				sent = append(sent, msg)
				return nil
			},
		}),
	)

	set := NewSet(
		WithRepoManager(repoManager(user(), nil)),
		WithOTP(otpSvc),
	)

	ctx := context.Background()
	codeRe := regexp.MustCompile(`\d{6}`)
	issue := func(purpose auth.Purpose) string {
		_, err := otpSvc.Issue(ctx, &auth.OTPRequest{
			Recipient: "jane@example.com",
			Method:    auth.Email,
			Purpose:   purpose,
			Template:  "Your code is %s",
		})
		if err != nil {
			t.Fatal("failed to issue code:", err)
		}
		return codeRe.FindString(sent[len(sent)-1].Content)
	}

	signupCode := issue(auth.PurposeSignup)
	res, err := set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: signupCode})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if res.Success {
		t.Error("signup code should not log in")
	}

	loginCode := issue(auth.PurposeLogin)
	res, err = set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: loginCode})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if !res.Success || res.AMR != auth.FactorEmailOTP {
		t.Errorf("unexpected result %+v", res)
	}

	acr, err := auth.ACRFor([]auth.FactorType{res.AMR})
	if err != nil || acr != auth.ACRSingleFactor {
		t.Error("acr does not match", cmp.Diff(acr, auth.ACRSingleFactor))
	}

	res, err = set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: loginCode})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if res.Success || res.Reason != auth.ReasonExpired {
		t.Error("reason does not match", cmp.Diff(res.Reason, auth.ReasonExpired))
	}
}

// Magic links and email codes are issued under separate purposes,
// so neither can be redeemed as the other and issuing one leaves a
// pending code of the other in place.
func TestSet_MagicLinkIsolation(t *testing.T) {
	mr, db, err := test.NewRedisDB()
	if err != nil {
		t.Fatal("failed to create redis db:", err)
	}
	defer mr.Close()
	defer db.Close()

	var sent []*auth.Message
	otpSvc := otp.NewOTP(
		otp.WithDB(db),
		otp.WithMessaging(&test.MessagingService{
			SendFn: func(msg *auth.Message) error {
				sent = append(sent, msg)
				return nil
			},
		}),
	)
	set := NewSet(
		WithRepoManager(repoManager(user(), nil)),
		WithOTP(otpSvc),
	)

	ctx := context.Background()
	tokenRe := regexp.MustCompile(`code=(\S+)`)
	issue := func(purpose auth.Purpose, format auth.OTPFormat) string {
		_, err := otpSvc.Issue(ctx, &auth.OTPRequest{
			Recipient: "jane@example.com",
			Method:    auth.Email,
			Purpose:   purpose,
			Format:    format,
			Template:  "code=%s",
		})
		if err != nil {
			t.Fatal("failed to issue code:", err)
		}
		return tokenRe.FindStringSubmatch(sent[len(sent)-1].Content)[1]
	}

	emailCode := issue(auth.PurposeLogin, auth.OTPNumeric)
	linkToken := issue(auth.PurposeMagicLink, auth.OTPOpaque)

	res, err := set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorMagicLink, Code: emailCode})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if res.Success {
		t.Error("email code should not verify as a magic link")
	}

	res, err = set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: linkToken})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if res.Success {
		t.Error("magic link token should not verify as an email code")
	}

	res, err = set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorEmailOTP, Code: emailCode})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if !res.Success || res.AMR != auth.FactorEmailOTP {
		t.Errorf("unexpected email code result %+v", res)
	}

	res, err = set.Verify(ctx, "user-1", &auth.FactorPayload{Type: auth.FactorMagicLink, Code: linkToken})
	if err != nil {
		t.Fatal("failed to verify code:", err)
	}
	if !res.Success || res.AMR != auth.FactorMagicLink {
		t.Errorf("unexpected magic link result %+v", res)
	}
}

func TestSet_Lockout(t *testing.T) {
	mr, db, err := test.NewRedisDB()
	if err != nil {
		t.Fatal("failed to create redis db:", err)
	}
	defer mr.Close()
	defer db.Close()

	var correct bool
	totpSvc := &test.TOTPService{
		VerifyFn: func() (*auth.FactorResult, error) {
			if correct {
				return &auth.FactorResult{Success: true, AMR: auth.FactorTOTP, UserID: "user-1"}, nil
			}
			return &auth.FactorResult{UserID: "user-1", Reason: auth.ReasonMismatch}, nil
		},
	}
	set := NewSet(
		WithDB(db),
		WithMaxFailures(3),
		WithLockout(time.Minute*15),
		WithTOTP(totpSvc),
		WithRepoManager(repoManager(user(), nil)),
		WithPassword(&test.PasswordService{
			ValidateFn: func() error { return nil },
		}),
	)

	ctx := context.Background()
	verify := func(factor auth.FactorType, userID string) *auth.FactorResult {
		res, err := set.Verify(ctx, userID, &auth.FactorPayload{Type: factor, Code: "123456"})
		if err != nil {
			t.Fatal("failed to verify factor:", err)
		}
		return res
	}

	// A success clears earlier failures.
	correct = false
	verify(auth.FactorTOTP, "user-1")
	verify(auth.FactorTOTP, "user-1")
	correct = true
	if res := verify(auth.FactorTOTP, "user-1"); !res.Success {
		t.Fatalf("expected success before lockout, got %+v", res)
	}
	if mr.Exists(lockoutKey("user-1", auth.FactorTOTP)) {
		t.Error("lockout counter should be cleared after success")
	}

	correct = false
	for i := 0; i < 3; i++ {
		if res := verify(auth.FactorTOTP, "user-1"); res.Reason != auth.ReasonMismatch {
			t.Fatal("reason does not match", cmp.Diff(res.Reason, auth.ReasonMismatch))
		}
	}

	correct = true
	calls := totpSvc.Calls.Verify
	if res := verify(auth.FactorTOTP, "user-1"); res.Success || res.Reason != auth.ReasonExhausted {
		t.Error("correct code should be rejected while locked", cmp.Diff(res.Reason, auth.ReasonExhausted))
	}
	if totpSvc.Calls.Verify != calls {
		t.Error("locked factor should not be verified")
	}

	if res := verify(auth.FactorPassword, "user-1"); !res.Success {
		t.Errorf("lockout should be scoped to a factor, got %+v", res)
	}

	mr.FastForward(time.Minute * 16)
	if res := verify(auth.FactorTOTP, "user-1"); !res.Success {
		t.Errorf("expected success after lockout window, got %+v", res)
	}
}
