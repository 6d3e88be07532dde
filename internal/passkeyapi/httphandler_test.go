package passkeyapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/test"
)

func TestPasskeyAPI(t *testing.T) {
	tt := []struct {
		name        string
		path        string
		reqBody     []byte
		statusCode  int
		errMessage  string
		beginCalls  int
		finishCalls int
		finishFn    func() (*auth.Credential, error)
	}{
		{
			name:       "Begins registration",
			path:       "/api/v1/passkey",
			statusCode: http.StatusOK,
			beginCalls: 1,
		},
		{
			name:       "Missing attestation",
			path:       "/api/v1/passkey/verify",
			statusCode: http.StatusBadRequest,
			errMessage: "attestation is required",
		},
		{
			name:        "Expired registration session",
			path:        "/api/v1/passkey/verify",
			reqBody:     []byte(`{"id":"abc","response":{}}`),
			statusCode:  http.StatusBadRequest,
			errMessage:  "registration session expired",
			finishCalls: 1,
			finishFn: func() (*auth.Credential, error) {
				return nil, auth.ErrExpired("registration session expired")
			},
		},
		{
			name:        "Registers passkey",
			path:        "/api/v1/passkey/verify",
			reqBody:     []byte(`{"id":"abc","response":{}}`),
			statusCode:  http.StatusCreated,
			finishCalls: 1,
			finishFn: func() (*auth.Credential, error) {
				return &auth.Credential{ID: "credential-1", Type: auth.CredentialPasskey}, nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			webauthnSvc := &test.WebAuthnService{
				BeginSignUpFn: func() ([]byte, error) {
					return []byte(`{"publicKey":{}}`), nil
				},
				FinishSignUpFn: tc.finishFn,
			}
			tokenSvc := &test.TokenService{
				ValidateFn: func() (*auth.Token, error) {
					return &auth.Token{UserID: "user-1", SessionID: "session-1", ACR: auth.ACRSingleFactor}, nil
				},
			}
			svc := NewService(
				WithWebAuthn(webauthnSvc),
				WithRepoManager(&test.RepositoryManager{}),
			)

			router := mux.NewRouter()
			SetupHTTPHandler(svc, router, tokenSvc, log.NewNopLogger())

			req := httptest.NewRequest("POST", tc.path, bytes.NewBuffer(tc.reqBody))
			req.Header.Set("Authorization", "Bearer access-token")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}
			if webauthnSvc.Calls.BeginSignUp != tc.beginCalls {
				t.Error("incorrect WebAuthnService.BeginSignUp() calls",
					cmp.Diff(webauthnSvc.Calls.BeginSignUp, tc.beginCalls))
			}
			if webauthnSvc.Calls.FinishSignUp != tc.finishCalls {
				t.Error("incorrect WebAuthnService.FinishSignUp() calls",
					cmp.Diff(webauthnSvc.Calls.FinishSignUp, tc.finishCalls))
			}
			if err := test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
				t.Error(err)
			}
		})
	}
}
