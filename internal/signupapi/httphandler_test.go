package signupapi

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/strategiz/authcore"
	"github.com/strategiz/authcore/internal/test"
)

func TestSignUpAPI_SignUp(t *testing.T) {
	tt := []struct {
		name        string
		statusCode  int
		reqBody     []byte
		errMessage  string
		userFn      func() (*auth.User, error)
		createCalls int
		updateCalls int
		issueCalls  int
		issueFn     func(req *auth.OTPRequest) (*auth.OTPHandle, error)
	}{
		{
			name:       "Invalid identity type",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"type": "fax", "identity": "jane@example.com"}`),
			errMessage: "identity type must be email or phone",
		},
		{
			name:       "Invalid email",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"type": "email", "identity": "jane"}`),
			errMessage: "address format is invalid",
		},
		{
			name:       "Verified user conflict",
			statusCode: http.StatusConflict,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com"}`),
			errMessage: "cannot register user",
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-1", IsVerified: true}, nil
			},
		},
		{
			name:       "User query failure",
			statusCode: http.StatusInternalServerError,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com"}`),
			errMessage: "An internal error occurred",
			userFn: func() (*auth.User, error) {
				return nil, errors.New("db connection failed")
			},
		},
		{
			name:        "New user",
			statusCode:  http.StatusCreated,
			reqBody:     []byte(`{"type": "email", "identity": "Jane@Example.com", "displayName": "Jane"}`),
			createCalls: 1,
			issueCalls:  1,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			issueFn: func(req *auth.OTPRequest) (*auth.OTPHandle, error) {
				if req.Recipient != "jane@example.com" || req.Purpose != auth.PurposeSignup {
					return nil, errors.Errorf("unexpected request %+v", req)
				}
				return &auth.OTPHandle{Recipient: req.Recipient}, nil
			},
		},
		{
			name:        "Unverified user restarts signup",
			statusCode:  http.StatusCreated,
			reqBody:     []byte(`{"type": "phone", "identity": "+6594867353"}`),
			updateCalls: 1,
			issueCalls:  1,
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-1"}, nil
			},
			issueFn: func(req *auth.OTPRequest) (*auth.OTPHandle, error) {
				return &auth.OTPHandle{Recipient: req.Recipient}, nil
			},
		},
		{
			name:        "Code delivery failure",
			statusCode:  http.StatusBadGateway,
			reqBody:     []byte(`{"type": "email", "identity": "jane@example.com"}`),
			errMessage:  "code could not be delivered",
			createCalls: 1,
			issueCalls:  1,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			issueFn: func(req *auth.OTPRequest) (*auth.OTPHandle, error) {
				return nil, auth.ErrDeliveryFailed("code could not be delivered")
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			userRepo := &test.UserRepository{
				ByIdentityFn: tc.userFn,
				GetForUpdateFn: func() (*auth.User, error) {
					return tc.userFn()
				},
			}
			repoMngr := &test.RepositoryManager{
				UserFn: func() auth.UserRepository { return userRepo },
			}
			otpSvc := &test.OTPService{IssueFn: tc.issueFn}
			svc := NewService(
				WithRepoManager(repoMngr),
				WithOTP(otpSvc),
				WithPassword(&test.PasswordService{}),
				WithTokenService(&test.TokenService{}),
			)

			router := mux.NewRouter()
			SetupHTTPHandler(svc, router, log.NewNopLogger())

			req := httptest.NewRequest("POST", "/api/v1/signup", bytes.NewBuffer(tc.reqBody))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}
			if userRepo.Calls.Create != tc.createCalls {
				t.Error("incorrect UserRepository.Create() calls", cmp.Diff(userRepo.Calls.Create, tc.createCalls))
			}
			if userRepo.Calls.Update != tc.updateCalls {
				t.Error("incorrect UserRepository.Update() calls", cmp.Diff(userRepo.Calls.Update, tc.updateCalls))
			}
			if otpSvc.Calls.Issue != tc.issueCalls {
				t.Error("incorrect OTPService.Issue() calls", cmp.Diff(otpSvc.Calls.Issue, tc.issueCalls))
			}
			if err := test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSignUpAPI_Verify(t *testing.T) {
	tt := []struct {
		name            string
		statusCode      int
		reqBody         []byte
		errMessage      string
		verifyFn        func() (*auth.OTPResult, error)
		user            *auth.User
		credentialCalls int
		tokenCalls      int
	}{
		{
			name:       "Missing code",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com"}`),
			errMessage: "code is required",
		},
		{
			name:       "Incorrect code",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com", "code": "000000"}`),
			errMessage: "invalid credentials, 2 attempts remaining",
			verifyFn: func() (*auth.OTPResult, error) {
				return &auth.OTPResult{Status: auth.OTPMismatch, AttemptsRemaining: 2}, nil
			},
		},
		{
			name:       "Expired code",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com", "code": "000000"}`),
			errMessage: "code is expired",
			verifyFn: func() (*auth.OTPResult, error) {
				return &auth.OTPResult{Status: auth.OTPExpired}, nil
			},
		},
		{
			name:       "Verifies new user",
			statusCode: http.StatusOK,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com", "code": "123456"}`),
			verifyFn: func() (*auth.OTPResult, error) {
				return &auth.OTPResult{Status: auth.OTPOK}, nil
			},
			user:            &auth.User{ID: "user-1"},
			credentialCalls: 1,
			tokenCalls:      1,
		},
		{
			name:       "Already verified user",
			statusCode: http.StatusOK,
			reqBody:    []byte(`{"type": "email", "identity": "jane@example.com", "code": "123456"}`),
			verifyFn: func() (*auth.OTPResult, error) {
				return &auth.OTPResult{Status: auth.OTPOK}, nil
			},
			user:            &auth.User{ID: "user-1", IsVerified: true},
			credentialCalls: 0,
			tokenCalls:      1,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			userFn := func() (*auth.User, error) {
				if tc.user == nil {
					return nil, sql.ErrNoRows
				}
				u := *tc.user
				return &u, nil
			}
			userRepo := &test.UserRepository{
				ByIdentityFn:   userFn,
				GetForUpdateFn: userFn,
			}
			credentialRepo := &test.CredentialRepository{}
			repoMngr := &test.RepositoryManager{
				UserFn:       func() auth.UserRepository { return userRepo },
				CredentialFn: func() auth.CredentialRepository { return credentialRepo },
			}
			tokenSvc := &test.TokenService{
				CreateFn: func(req *auth.AuthenticationRequest) (*auth.Authentication, error) {
					if !cmp.Equal(req.AMR, []auth.FactorType{auth.FactorEmailOTP}) {
						return nil, errors.Errorf("unexpected AMR %v", req.AMR)
					}
					return &auth.Authentication{
						AccessToken:      "access",
						RefreshToken:     "refresh",
						ACR:              auth.ACRSingleFactor,
						AMR:              req.AMR,
						ExpiresAt:        time.Now().Add(time.Minute),
						RefreshExpiresAt: time.Now().Add(time.Hour),
					}, nil
				},
			}
			svc := NewService(
				WithRepoManager(repoMngr),
				WithOTP(&test.OTPService{VerifyFn: tc.verifyFn}),
				WithTokenService(tokenSvc),
			)

			router := mux.NewRouter()
			SetupHTTPHandler(svc, router, log.NewNopLogger())

			req := httptest.NewRequest("POST", "/api/v1/signup/verify", bytes.NewBuffer(tc.reqBody))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}
			if credentialRepo.Calls.Create != tc.credentialCalls {
				t.Error("incorrect CredentialRepository.Create() calls",
					cmp.Diff(credentialRepo.Calls.Create, tc.credentialCalls))
			}
			if tokenSvc.Calls.Create != tc.tokenCalls {
				t.Error("incorrect TokenService.Create() calls", cmp.Diff(tokenSvc.Calls.Create, tc.tokenCalls))
			}
			if tc.tokenCalls > 0 && len(rr.Result().Cookies()) != 2 {
				t.Error("expected access and refresh cookies", rr.Result().Cookies())
			}
			if err := test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
				t.Error(err)
			}
		})
	}
}
